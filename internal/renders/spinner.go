package renders

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// Progress shows a spinner while a long operation runs. It is a no-op when
// stdout is not a terminal, so piped output stays clean.
type Progress struct {
	s *spinner.Spinner
}

// StartProgress begins a spinner with the given message.
func StartProgress(message string) *Progress {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return &Progress{}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Start()
	return &Progress{s: s}
}

// Update changes the message on a running spinner.
func (p *Progress) Update(message string) {
	if p.s != nil {
		p.s.Suffix = " " + message
	}
}

// Stop halts the spinner and clears its line.
func (p *Progress) Stop() {
	if p.s != nil {
		p.s.Stop()
	}
}
