package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Program is an alias for tea.Program, exposed so callers don't need
// to import bubbletea directly.
type Program = tea.Program

// NewProgram creates a BubbleTea program for model.
// The program uses the alternate screen buffer for a clean TUI experience.
func NewProgram(model Model, opts ...tea.ProgramOption) *Program {
	allOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
	}
	allOpts = append(allOpts, opts...)

	return tea.NewProgram(model, allOpts...)
}

// Run runs the interactive planner until the user quits, commits or cancels,
// and returns the final model.
func Run(model Model, opts ...tea.ProgramOption) (Model, error) {
	final, err := NewProgram(model, opts...).Run()
	if err != nil {
		return model, fmt.Errorf("TUI error: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return model, fmt.Errorf("TUI error: unexpected model %T", final)
	}
	return m, nil
}

// WithOutput returns a program option that directs TUI output to the given writer.
// Useful for testing or redirecting output.
func WithOutput(w io.Writer) tea.ProgramOption {
	return tea.WithOutput(w)
}

// WithInput returns a program option that reads keys from r.
func WithInput(r io.Reader) tea.ProgramOption {
	return tea.WithInput(r)
}
