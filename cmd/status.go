package cmd

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/whatthepatch/wtp/internal/config"
	"github.com/whatthepatch/wtp/internal/engine"
	"github.com/whatthepatch/wtp/internal/printers"
)

var statusProbeConnections bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the configuration and engine connectivity.",
	Long: `Validate every engine's configuration, probe the active engine's
backend, and verify the VCS credentials. Nothing is modified.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusProbeConnections, "all", false,
		"probe every configured engine's backend, not just the active one")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	printers.Info("Config file: %s", cfg.Path)
	printers.Info("Output: %s (%s)", cfg.Output.Directory, cfg.Output.Format)
	printers.Info("Ticket pattern: %s (fallback %s)", cfg.Ticket.Pattern, cfg.Ticket.Fallback)
	printers.Info("")

	statusEngines(cfg)
	printers.Info("")
	statusCredentials(cfg)
	return nil
}

func statusEngines(cfg *config.Config) {
	printers.Info("Engines:")
	for _, name := range engine.Names() {
		marker := " "
		if name == cfg.Engine {
			marker = "*"
		}

		eng, err := engine.Get(name, cfg.EngineConfig(name))
		if err != nil {
			printers.Error("%s %-18s failed to construct: %v", marker, name, err)
			continue
		}

		if err := eng.ValidateConfig(); err != nil {
			printers.Info("%s %-18s not configured (%v)", marker, name, err)
			continue
		}

		if name != cfg.Engine && !statusProbeConnections {
			printers.Success("%s %-18s configured", marker, name)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = eng.TestConnection(ctx)
		cancel()
		if err != nil {
			printers.Error("%s %-18s connection failed: %v", marker, name, err)
			continue
		}
		printers.Success("%s %-18s connected", marker, name)
	}
}

// statusCredentials verifies the VCS tokens against the cheapest
// authenticated endpoint of each platform.
func statusCredentials(cfg *config.Config) {
	printers.Info("Credentials:")
	client := resty.New().SetTimeout(15 * time.Second)

	if cfg.Tokens.GitHub == "" {
		printers.Info("  github: no token (public repositories only)")
	} else {
		resp, err := client.R().
			SetHeader("Authorization", "token "+cfg.Tokens.GitHub).
			Get("https://api.github.com/user")
		switch {
		case err != nil:
			printers.Error("  github: unreachable: %v", err)
		case resp.StatusCode() == 200:
			printers.Success("  github: token valid")
		default:
			printers.Error("  github: token rejected (HTTP %d)", resp.StatusCode())
		}
	}

	if cfg.Tokens.BitbucketUsername == "" || cfg.Tokens.BitbucketAppPassword == "" {
		printers.Info("  bitbucket: no credentials (public repositories only)")
		return
	}
	resp, err := client.R().
		SetBasicAuth(cfg.Tokens.BitbucketUsername, cfg.Tokens.BitbucketAppPassword).
		Get("https://api.bitbucket.org/2.0/workspaces")
	switch {
	case err != nil:
		printers.Error("  bitbucket: unreachable: %v", err)
	case resp.StatusCode() == 200:
		printers.Success("  bitbucket: credentials valid")
	default:
		printers.Error("  bitbucket: credentials rejected (HTTP %d)", resp.StatusCode())
	}
}
