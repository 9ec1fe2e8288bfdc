package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/whatthepatch/wtp/internal/cmd/version"
	_ "github.com/whatthepatch/wtp/internal/engine/init"
	"github.com/whatthepatch/wtp/internal/printers"
	"github.com/whatthepatch/wtp/internal/update"
	_ "github.com/whatthepatch/wtp/internal/vcs/init"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wtp",
	Short: "AI pull-request reviews from your terminal.",
	Long: `wtp fetches a pull request from GitHub or Bitbucket, optionally augments
it with extra files and URLs, sends everything to the AI engine of your
choice, and writes the review to a formatted file.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	notifyUpdate()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// notifyUpdate runs the once-a-day release probe. Failures are silent; a
// newer release prints one line and never blocks the command.
func notifyUpdate() {
	checker := update.NewChecker(version.Current())
	if latest, newer := checker.Check(); newer {
		printers.Warning("a newer wtp release is available: %s (current %s)", latest, version.Current())
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.whatthepatch/config.yaml)")
}
