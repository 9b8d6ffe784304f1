package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dsh2/subsurface/internal/planner"
)

// TableModel is the read side of the planner's tabular contract.
type TableModel interface {
	RowCount() int
	HeaderData(col planner.Column) string
	Data(row int, col planner.Column, role planner.Role) any
}

// TableOptions selects the optional plan table columns.
type TableOptions struct {
	Runtime  bool
	Duration bool
	Setpoint bool
	NoColor  bool
}

// TableOptionsFor derives the visible columns from the planner settings.
// The setpoint column is shown on closed circuit only.
func TableOptionsFor(s planner.Settings, ccr bool, noColor bool) TableOptions {
	return TableOptions{
		Runtime:  s.DisplayRuntime,
		Duration: s.DisplayDuration || !s.DisplayRuntime,
		Setpoint: ccr,
		NoColor:  noColor,
	}
}

// PlanTable renders the waypoints of m. Computed rows are dimmed so the
// entered ones stand out.
func PlanTable(w io.Writer, m TableModel, opts TableOptions) {
	c := colors(opts.NoColor)
	cols := []planner.Column{planner.ColDepth}
	if opts.Duration {
		cols = append(cols, planner.ColDuration)
	}
	if opts.Runtime {
		cols = append(cols, planner.ColRuntime)
	}
	cols = append(cols, planner.ColGas)
	if opts.Setpoint {
		cols = append(cols, planner.ColSetpoint)
	}

	n := m.RowCount()
	cells := make([][]string, n)
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = runewidth.StringWidth(m.HeaderData(col))
	}
	for row := range n {
		cells[row] = make([]string, len(cols))
		for i, col := range cols {
			s := fmt.Sprint(m.Data(row, col, planner.DisplayRole))
			cells[row][i] = s
			widths[i] = max(widths[i], runewidth.StringWidth(s))
		}
	}

	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = pad(m.HeaderData(col), widths[i])
	}
	fmt.Fprintf(w, "  %s%s%s\n", c.bold, strings.TrimRight(strings.Join(header, "  "), " "), c.reset)

	if n == 0 {
		fmt.Fprintf(w, "  %s(no waypoints)%s\n", c.dim, c.reset)
		return
	}
	for row := range n {
		line := make([]string, len(cols))
		for i := range cols {
			line[i] = pad(cells[row][i], widths[i])
		}
		text := strings.TrimRight(strings.Join(line, "  "), " ")
		if tone, _ := m.Data(row, planner.ColDepth, planner.ForegroundRole).(planner.Tone); tone == planner.ToneComputed {
			fmt.Fprintf(w, "  %s%s%s\n", c.dim, text, c.reset)
			continue
		}
		fmt.Fprintf(w, "  %s\n", text)
	}
}

// PlanNotes prints the engine's textual plan under a heading.
func PlanNotes(w io.Writer, notes string, noColor bool) {
	if strings.TrimSpace(notes) == "" {
		return
	}
	c := colors(noColor)
	fmt.Fprintf(w, "\n%sDive plan%s\n", c.bold+c.cyan, c.reset)
	fmt.Fprintf(w, "%s==============================%s\n", c.dim, c.reset)
	for _, line := range strings.Split(strings.TrimRight(notes, "\n"), "\n") {
		if strings.Contains(line, "Warning") {
			fmt.Fprintf(w, "%s%s%s\n", c.red+c.bold, line, c.reset)
			continue
		}
		fmt.Fprintln(w, line)
	}
}

// pad right-pads s to width display cells.
func pad(s string, width int) string {
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
