// Package output writes the generated review to disk in the configured
// format and handles the optional auto-open and clipboard copy.
package output

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/whatthepatch/wtp/internal/ticket"
)

// Metadata feeds the filename pattern.
type Metadata struct {
	Repo         string
	PRNumber     string
	TicketID     string
	SourceBranch string
}

// Options controls where and how the review is written.
type Options struct {
	Directory       string
	Format          string // "md", "txt" or "html"
	FilenamePattern string
	AutoOpen        bool
	CopyToClipboard bool
}

// SaveReview writes the review and returns the file path.
func SaveReview(review string, meta Metadata, opts Options) (string, error) {
	if err := os.MkdirAll(opts.Directory, 0o755); err != nil {
		return "", fmt.Errorf("output: failed to create %s: %w", opts.Directory, err)
	}

	name := Filename(opts.FilenamePattern, meta) + "." + opts.Format
	path := filepath.Join(opts.Directory, name)

	content, err := format(review, meta, opts.Format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("output: failed to write %s: %w", path, err)
	}

	if opts.CopyToClipboard {
		// Clipboard failures (headless session) are not fatal.
		_ = clipboard.WriteAll(review)
	}
	if opts.AutoOpen {
		_ = openFile(path)
	}
	return path, nil
}

// Filename renders the filename pattern. Every substituted value is
// sanitized so branch names with slashes cannot escape the output
// directory.
func Filename(pattern string, meta Metadata) string {
	if pattern == "" {
		pattern = "{repo}-pr{pr_number}-{ticket_id}"
	}
	return strings.NewReplacer(
		"{repo}", ticket.SanitizeFilename(meta.Repo),
		"{pr_number}", ticket.SanitizeFilename(meta.PRNumber),
		"{ticket_id}", ticket.SanitizeFilename(meta.TicketID),
		"{source_branch}", ticket.SanitizeFilename(meta.SourceBranch),
	).Replace(pattern)
}

func format(review string, meta Metadata, kind string) (string, error) {
	switch kind {
	case "md", "txt":
		return review, nil
	case "html":
		return renderHTML(review, meta)
	default:
		return "", fmt.Errorf("output: unsupported format %q", kind)
	}
}

func renderHTML(review string, meta Metadata) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(review), &body); err != nil {
		return "", fmt.Errorf("output: markdown conversion failed: %w", err)
	}

	title := fmt.Sprintf("Review: %s PR #%s", meta.Repo, meta.PRNumber)
	return fmt.Sprintf(htmlPage, html.EscapeString(title), body.String()), nil
}

func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}

// htmlPage mimics GitHub's rendered-markdown look so reviews read the same
// in the browser as on the PR page.
const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body {
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif;
  font-size: 16px; line-height: 1.5; color: #1f2328;
  max-width: 880px; margin: 0 auto; padding: 2rem;
}
h1, h2, h3 { border-bottom: 1px solid #d1d9e0; padding-bottom: .3em; }
code {
  font-family: ui-monospace, SFMono-Regular, "SF Mono", Menlo, Consolas, monospace;
  font-size: 85%%; background-color: #f6f8fa; border-radius: 6px; padding: .2em .4em;
}
pre { background-color: #f6f8fa; border-radius: 6px; padding: 16px; overflow: auto; }
pre code { background: none; padding: 0; }
blockquote { color: #59636e; border-left: .25em solid #d1d9e0; padding: 0 1em; margin: 0; }
table { border-collapse: collapse; }
th, td { border: 1px solid #d1d9e0; padding: 6px 13px; }
tr:nth-child(2n) { background-color: #f6f8fa; }
</style>
</head>
<body>
%s
</body>
</html>
`
