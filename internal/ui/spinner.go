// Package ui provides terminal progress feedback for long-running
// release steps.
package ui

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// Spinner shows progress while a subprocess step runs. It stays
// inactive when disabled (verbose logging streams subprocess output
// instead) or when stderr is not a terminal.
type Spinner struct {
	inner *spinner.Spinner
}

// NewSpinner creates a spinner with the provided suffix text.
func NewSpinner(enabled bool, suffix string) *Spinner {
	if !enabled || !term.IsTerminal(int(os.Stderr.Fd())) {
		return &Spinner{}
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Color("yellow") //nolint:errcheck
	s.Suffix = " " + suffix
	return &Spinner{inner: s}
}

// Start begins the animation. No-op when inactive.
func (s *Spinner) Start() {
	if s.inner != nil {
		s.inner.Start()
	}
}

// Stop halts the animation. No-op when inactive.
func (s *Spinner) Stop() {
	if s.inner != nil {
		s.inner.Stop()
	}
}
