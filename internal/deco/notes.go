package deco

import (
	"fmt"
	"strings"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/planner"
)

// row is one line of the textual plan.
type row struct {
	depth      int
	duration   int
	runtime    int
	gas        dive.GasMix
	setpoint   int
	entered    bool
	transition bool
}

// notes renders the plan the way divers read it: one line per waypoint,
// followed by the gas consumption.
func notes(plan *planner.DivePlan, res *planner.Result, used []float64) string {
	var b strings.Builder
	s := plan.Settings

	rows := planRows(plan.Points, res.Stops)
	runtime, maxDepth := 0, 0
	for _, r := range rows {
		runtime = max(runtime, r.runtime)
		maxDepth = max(maxDepth, r.depth)
	}

	fmt.Fprintf(&b, "Runtime: %dmin, max depth %s", dive.Minutes(runtime), dive.Meters(maxDepth))
	if plan.Deco {
		fmt.Fprintf(&b, ", GF %d/%d", s.GFLow, s.GFHigh)
	}
	if plan.Mode == dive.CCR {
		b.WriteString(", closed circuit")
	}
	if s.DropStoneMode {
		b.WriteString(", drop stone descent")
	}
	b.WriteString("\n")
	if plan.Deco && !hasStop(res.Stops) {
		b.WriteString("No decompression stops required.\n")
	}
	b.WriteString("\n")

	if s.Verbatim {
		writeVerbatim(&b, rows, s)
	} else {
		writeTable(&b, rows, s)
	}

	b.WriteString("\nGas consumption:\n")
	for i, c := range res.Cylinders {
		if i >= len(used) || used[i] == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s: %.0fl (%d -> %dbar)\n", c.Gas.Name(), used[i]/1000, c.StartPressure/1000, c.EndPressure/1000)
		if c.EndPressure == 0 {
			fmt.Fprintf(&b, "  Warning: cylinder %d (%s) runs out of gas\n", i+1, c.Gas.Name())
		}
	}
	if plan.Mode == dive.CCR {
		b.WriteString("  not calculated on closed circuit\n")
	}
	return b.String()
}

func planRows(entered, computed []planner.DataPoint) []row {
	var rows []row
	prevDepth, runtime := 0, 0
	for _, p := range append(append([]planner.DataPoint(nil), entered...), computed...) {
		runtime += p.Duration
		rows = append(rows, row{
			depth:      p.Depth,
			duration:   p.Duration,
			runtime:    runtime,
			gas:        p.Gas,
			setpoint:   p.Setpoint,
			entered:    p.Entered,
			transition: p.Depth != prevDepth,
		})
		prevDepth = p.Depth
	}
	return rows
}

// hasStop reports whether the computed ascent holds at any depth.
func hasStop(stops []planner.DataPoint) bool {
	for i := 1; i < len(stops); i++ {
		if stops[i].Depth > 0 && stops[i].Depth == stops[i-1].Depth {
			return true
		}
	}
	return false
}

// visible hides computed transitions unless they were asked for.
func visible(r row, s planner.Settings) bool {
	return r.entered || !r.transition || s.DisplayTransitions
}

func writeTable(b *strings.Builder, rows []row, s planner.Settings) {
	b.WriteString("  depth")
	if s.DisplayDuration {
		b.WriteString("  duration")
	}
	if s.DisplayRuntime {
		b.WriteString("  runtime")
	}
	b.WriteString("  gas\n")
	for _, r := range rows {
		if !visible(r, s) {
			continue
		}
		fmt.Fprintf(b, "  %5s", dive.Meters(r.depth))
		if s.DisplayDuration {
			fmt.Fprintf(b, "  %8s", clock(r.duration))
		}
		if s.DisplayRuntime {
			fmt.Fprintf(b, "  %7s", clock(r.runtime))
		}
		fmt.Fprintf(b, "  %s", r.gas.Name())
		if r.setpoint > 0 {
			fmt.Fprintf(b, " @ %.1fbar", float64(r.setpoint)/1000)
		}
		b.WriteString("\n")
	}
}

func writeVerbatim(b *strings.Builder, rows []row, s planner.Settings) {
	for _, r := range rows {
		if !visible(r, s) {
			continue
		}
		verb, prep := "Stay at", "for"
		if r.transition {
			verb, prep = "Transition to", "in"
		}
		fmt.Fprintf(b, "%s %s %s %s min (runtime %s) on %s", verb, dive.Meters(r.depth), prep, clock(r.duration), clock(r.runtime), r.gas.Name())
		if r.setpoint > 0 {
			fmt.Fprintf(b, " with setpoint %.1fbar", float64(r.setpoint)/1000)
		}
		b.WriteString("\n")
	}
}

// clock formats seconds as m:ss.
func clock(sec int) string {
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
