// Package renders handles terminal presentation: markdown rendering for
// --print and a progress spinner for the long fetch/generate phases.
package renders

import (
	"os"

	markdown "github.com/MichaelMure/go-term-markdown"
	"golang.org/x/term"
)

const fallbackWidth = 80

// RenderMarkdown renders markdown for the terminal, sized to its width.
func RenderMarkdown(content string) string {
	width := fallbackWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	return string(markdown.Render(content, width, 0))
}
