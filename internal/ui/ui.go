package ui

import (
	"fmt"
	"io"
)

// ANSI color codes.
const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	dim     = "\033[2m"
	blue    = "\033[34m"
	yellow  = "\033[33m"
	green   = "\033[32m"
	red     = "\033[31m"
	cyan    = "\033[36m"
	magenta = "\033[35m"
)

// clr carries the escape sequences for one render. The zero value renders
// plain text.
type clr struct {
	bold, dim, reset                   string
	red, green, yellow, cyan, blue, mag string
}

func colors(noColor bool) clr {
	if noColor {
		return clr{}
	}
	return clr{
		bold:   bold,
		dim:    dim,
		reset:  reset,
		red:    red,
		green:  green,
		yellow: yellow,
		cyan:   cyan,
		blue:   blue,
		mag:    magenta,
	}
}

// Printer writes status messages for humans. Output goes to stderr so that
// stdout stays clean for plan text and JSON.
type Printer struct {
	w io.Writer
	c clr
}

// NewWriter returns a Printer writing to w.
func NewWriter(w io.Writer, noColor bool) *Printer {
	return &Printer{w: w, c: colors(noColor)}
}

// NoColor reports whether the printer renders plain text.
func (p *Printer) NoColor() bool {
	return p.c == clr{}
}

// Banner prints the program header shown when a long-running session starts.
func (p *Printer) Banner() {
	c := p.c
	fmt.Fprintln(p.w, c.bold+c.cyan+"  ╔══════════════════════════════╗"+c.reset)
	fmt.Fprintln(p.w, c.bold+c.cyan+"  ║"+c.reset+c.bold+"   DIVEPLAN  "+c.dim+"dive planner"+c.reset+c.bold+c.cyan+"     ║"+c.reset)
	fmt.Fprintln(p.w, c.bold+c.cyan+"  ╚══════════════════════════════╝"+c.reset)
	fmt.Fprintln(p.w)
}

// Error prints msg as an error.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, p.c.red+p.c.bold+"error: "+p.c.reset+"%s\n", msg)
}

// Warn prints msg as a warning.
func (p *Printer) Warn(msg string) {
	fmt.Fprintf(p.w, p.c.yellow+p.c.bold+"⚠ "+p.c.reset+"%s\n", msg)
}

// Info prints msg dimmed.
func (p *Printer) Info(msg string) {
	fmt.Fprintf(p.w, p.c.dim+"%s"+p.c.reset+"\n", msg)
}

// Success prints msg with a check mark.
func (p *Printer) Success(msg string) {
	fmt.Fprintf(p.w, p.c.green+p.c.bold+"✓ "+p.c.reset+"%s\n", msg)
}

// PlanSaved reports a plan document written to path.
func (p *Printer) PlanSaved(path string) {
	p.Success(fmt.Sprintf("plan written to %s", path))
}

// DiveCommitted reports a plan stored in the logbook.
func (p *Printer) DiveCommitted(number int, uid string) {
	fmt.Fprintf(p.w, p.c.green+p.c.bold+"✓ dive #%d"+p.c.reset+" saved to logbook "+p.c.dim+"(%s)"+p.c.reset+"\n", number, uid)
}

// Reloaded reports a plan file picked up again after an edit.
func (p *Printer) Reloaded(path string) {
	fmt.Fprintf(p.w, "\n"+p.c.mag+p.c.bold+"── %s changed, replanning ──"+p.c.reset+"\n", path)
}

// Copied reports plan text placed on the clipboard.
func (p *Printer) Copied() {
	p.Info("plan copied to clipboard")
}
