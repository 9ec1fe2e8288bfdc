package cmd

import (
	"github.com/spf13/cobra"

	"github.com/whatthepatch/wtp/internal/config"
	"github.com/whatthepatch/wtp/internal/engine"
	"github.com/whatthepatch/wtp/internal/printers"
)

// enginesCmd represents the engines command
var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List the available AI engines.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		for _, name := range engine.Names() {
			eng, err := engine.Get(name, cfg.EngineConfig(name))
			if err != nil {
				printers.Error("%-18s %v", name, err)
				continue
			}

			info := eng.Info()
			state := "configured"
			if err := eng.ValidateConfig(); err != nil {
				state = "not configured"
			}

			marker := " "
			if name == cfg.Engine {
				marker = "*"
			}
			printers.Info("%s %-18s %-14s %s", marker, name, state, info.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enginesCmd)
}
