package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/logbook"
)

// LogbookList prints one line per dive. Start times are shown relative to
// now.
func LogbookList(w io.Writer, dives []logbook.Summary, now time.Time, noColor bool) {
	c := colors(noColor)
	if len(dives) == 0 {
		fmt.Fprintf(w, "%s(logbook is empty)%s\n", c.dim, c.reset)
		return
	}
	fmt.Fprintf(w, "%s%5s  %-16s  %6s  %7s  %-4s  %s%s\n", c.bold, "#", "when", "depth", "time", "mode", "tanks", c.reset)
	for _, d := range dives {
		when := "-"
		if !d.When.IsZero() {
			when = humanize.RelTime(d.When, now, "ago", "from now")
		}
		fmt.Fprintf(w, "%5d  %-16s  %6s  %5dmin  %-4s  %d\n",
			d.Number, when, dive.Meters(d.MaxDepth), dive.Minutes(d.Duration), d.Mode, d.Cylinders)
	}
	fmt.Fprintf(w, "%s%s in logbook%s\n", c.dim, plural(len(dives), "dive"), c.reset)
}

// DiveSummary prints a dive record with its cylinders and gas use.
func DiveSummary(w io.Writer, d *dive.Dive, noColor bool) {
	c := colors(noColor)
	fmt.Fprintf(w, "%sDive #%d%s", c.bold+c.cyan, d.Number, c.reset)
	if d.UID != "" {
		fmt.Fprintf(w, " %s%s%s", c.dim, d.UID, c.reset)
	}
	fmt.Fprintln(w)
	if !d.When.IsZero() {
		fmt.Fprintf(w, "  start:    %s\n", d.When.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "  duration: %dmin\n", dive.Minutes(d.Duration))
	fmt.Fprintf(w, "  depth:    %s\n", dive.Meters(d.MaxDepth))
	fmt.Fprintf(w, "  mode:     %s\n", d.Mode)
	if d.SurfacePressure > 0 {
		fmt.Fprintf(w, "  surface:  %dmbar\n", d.SurfacePressure)
	}

	fmt.Fprintf(w, "\n%sCylinders:%s %d\n", c.bold, c.reset, len(d.Cylinders))
	for i, cyl := range d.Cylinders {
		used := float64(cyl.StartPressure-cyl.EndPressure) / 1000 * float64(cyl.SizeML) / 1000
		line := fmt.Sprintf("  %d. %-8s %-6s %s → %s, %s l used",
			i+1, cyl.Description, cyl.Gas.Name(),
			bar(cyl.StartPressure), bar(cyl.EndPressure), humanize.CommafWithDigits(used, 0))
		if cyl.Planned {
			line += c.dim + " (planned)" + c.reset
		}
		if cyl.EndPressure == 0 && cyl.StartPressure > 0 {
			line = c.red + line + c.reset
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%s%s%s\n", c.dim, plural(len(d.Samples), "sample"), c.reset)

	if d.Notes != "" {
		PlanNotes(w, d.Notes, noColor)
	}
}

func bar(mbar int) string {
	return fmt.Sprintf("%dbar", (mbar+500)/1000)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
