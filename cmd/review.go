package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/whatthepatch/wtp/internal/cmd/version"
	"github.com/whatthepatch/wtp/internal/config"
	"github.com/whatthepatch/wtp/internal/engine"
	"github.com/whatthepatch/wtp/internal/extcontext"
	"github.com/whatthepatch/wtp/internal/gitinfo"
	"github.com/whatthepatch/wtp/internal/output"
	"github.com/whatthepatch/wtp/internal/printers"
	"github.com/whatthepatch/wtp/internal/renders"
	"github.com/whatthepatch/wtp/internal/ticket"
	"github.com/whatthepatch/wtp/internal/urlfetch"
	"github.com/whatthepatch/wtp/internal/vcs"
)

var reviewFlags struct {
	pr           int
	contextPaths []string
	noCache      bool
	print        bool
	copyReview   bool
	outputDir    string
	format       string
	engineName   string
	yes          bool
}

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Fetch a pull request and generate an AI review.",
	Long: `Fetch a pull request's metadata and diff, optionally add extra context
from files, directories and URLs, and send everything to the configured AI
engine. The review is written to the output directory.

Inside a git repository the PR URL can be omitted: --pr N combines with the
origin remote instead.`,
	Example: `  wtp review https://github.com/acme/blog/pull/42
  wtp review --pr 42
  wtp review https://bitbucket.org/team/svc/pull-requests/7 --context docs/ --context https://example.com/spec`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().IntVar(&reviewFlags.pr, "pr", 0,
		"PR number, combined with the origin remote of the current repository")
	reviewCmd.Flags().StringSliceVarP(&reviewFlags.contextPaths, "context", "c", nil,
		"extra context: file, directory or URL (repeatable)")
	reviewCmd.Flags().BoolVar(&reviewFlags.noCache, "no-cache", false,
		"bypass the URL fetch cache")
	reviewCmd.Flags().BoolVar(&reviewFlags.print, "print", false,
		"render the review in the terminal as well")
	reviewCmd.Flags().BoolVar(&reviewFlags.copyReview, "copy", false,
		"copy the review to the clipboard")
	reviewCmd.Flags().StringVarP(&reviewFlags.outputDir, "output", "o", "",
		"output directory (overrides config)")
	reviewCmd.Flags().StringVarP(&reviewFlags.format, "format", "f", "",
		"output format: md, txt or html (overrides config)")
	reviewCmd.Flags().StringVarP(&reviewFlags.engineName, "engine", "e", "",
		"engine to use (overrides config)")
	reviewCmd.Flags().BoolVarP(&reviewFlags.yes, "yes", "y", false,
		"skip confirmation prompts")
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	loc, err := resolveLocator(args)
	if err != nil {
		return err
	}

	engineName := cfg.Engine
	if reviewFlags.engineName != "" {
		engineName = reviewFlags.engineName
	}
	eng, err := engine.Get(engineName, cfg.EngineConfig(engineName))
	if err != nil {
		return err
	}
	if err := eng.ValidateConfig(); err != nil {
		return err
	}

	provider, err := vcs.Get(loc.Platform, vcs.Credentials{
		Token:       cfg.Tokens.GitHub,
		Username:    cfg.Tokens.BitbucketUsername,
		AppPassword: cfg.Tokens.BitbucketAppPassword,
	})
	if err != nil {
		return err
	}

	progress := renders.StartProgress(fmt.Sprintf("Fetching PR #%s from %s...", loc.Number, loc.Platform))
	pr, err := provider.FetchPR(loc)
	progress.Stop()
	if err != nil {
		return err
	}
	if pr.TruncatedFiles > 0 {
		printers.Warning("%d of %d changed files had their patch truncated by the API; the review sees partial diffs for them",
			pr.TruncatedFiles, pr.FileCount)
	}

	ticketID := ticket.Extract(pr.SourceBranch, cfg.Ticket.Pattern, cfg.Ticket.Fallback)

	bundle := readContext(cfg)
	for _, w := range bundle.Warnings {
		printers.Warning("%s", w)
	}
	if bundle.SizeBytes > extcontext.SizeWarningThreshold && !reviewFlags.yes {
		msg := fmt.Sprintf("External context is %d KB and will be sent in full. Continue?", bundle.SizeBytes/1024)
		if !printers.Confirm(msg) {
			return fmt.Errorf("aborted")
		}
	}

	req := engine.ReviewRequest{
		TicketID:        ticketID,
		Title:           pr.Title,
		URL:             pr.URL,
		Author:          pr.Author,
		SourceBranch:    pr.SourceBranch,
		TargetBranch:    pr.TargetBranch,
		Description:     pr.Description,
		Diff:            pr.Diff,
		ExternalContext: bundle.Text,
		Template:        cfg.PromptTemplate,
	}

	progress = renders.StartProgress(fmt.Sprintf("Generating review with %s...", engineName))
	review, err := eng.GenerateReview(context.Background(), req)
	progress.Stop()
	if err != nil {
		return err
	}

	opts := output.Options{
		Directory:       cfg.Output.Directory,
		Format:          cfg.Output.Format,
		FilenamePattern: cfg.Output.FilenamePattern,
		AutoOpen:        cfg.Output.AutoOpen,
		CopyToClipboard: reviewFlags.copyReview,
	}
	if reviewFlags.outputDir != "" {
		opts.Directory = reviewFlags.outputDir
	}
	if reviewFlags.format != "" {
		opts.Format = reviewFlags.format
	}

	path, err := output.SaveReview(review, output.Metadata{
		Repo:         loc.Repo,
		PRNumber:     loc.Number,
		TicketID:     ticketID,
		SourceBranch: pr.SourceBranch,
	}, opts)
	if err != nil {
		return err
	}
	printers.Success("review written to %s", path)

	if reviewFlags.print {
		fmt.Print(renders.RenderMarkdown(review))
	}
	return nil
}

// resolveLocator turns the positional URL or the --pr flag into a locator.
func resolveLocator(args []string) (vcs.Locator, error) {
	if len(args) == 1 {
		return vcs.ParseLocator(args[0])
	}
	if reviewFlags.pr > 0 {
		info, err := gitinfo.Detect(".")
		if err != nil {
			return vcs.Locator{}, err
		}
		return info.Locator(reviewFlags.pr), nil
	}
	return vcs.Locator{}, fmt.Errorf("provide a PR URL, or --pr N inside a git repository")
}

func readContext(cfg *config.Config) *extcontext.Bundle {
	if len(reviewFlags.contextPaths) == 0 {
		return &extcontext.Bundle{}
	}

	fetcher := urlfetch.NewFetcher(urlfetch.Options{
		CacheDir:          cfg.CacheDir,
		CacheTTL:          urlfetch.DefaultTTL,
		GitHubToken:       cfg.Tokens.GitHub,
		BitbucketUsername: cfg.Tokens.BitbucketUsername,
		BitbucketPassword: cfg.Tokens.BitbucketAppPassword,
		Version:           version.Current(),
	})

	reader := extcontext.NewReader(fetcher)
	if reviewFlags.noCache {
		reader.DisableCache()
	}
	return reader.Read(reviewFlags.contextPaths)
}
