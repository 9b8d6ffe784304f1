package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/planfile"
	"github.com/dsh2/subsurface/internal/planner"
	"github.com/dsh2/subsurface/internal/render"
	"github.com/dsh2/subsurface/internal/ui"
)

var planCmd = &cobra.Command{
	Use:   "plan <file>",
	Short: "Compute the schedule of a plan file",
	Long: `Load a TOML plan file, compute the ascent and print the waypoint table and
the dive plan. With --watch the plan is recomputed every time the file is
saved; with --save the result is committed to the logbook.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().Bool("json", false, "print the plan as JSON on stdout")
	planCmd.Flags().String("png", "", "write the depth profile to a PNG file")
	planCmd.Flags().Bool("copy", false, "copy the dive plan text to the clipboard")
	planCmd.Flags().Bool("save", false, "commit the plan to the logbook")
	planCmd.Flags().Bool("watch", false, "recompute whenever the plan file changes")
	rootCmd.AddCommand(planCmd)
}

// planOutput selects what printPlan produces besides the table.
type planOutput struct {
	JSON    bool
	PNG     string
	Copy    bool
	NoColor bool
}

func runPlan(cmd *cobra.Command, args []string) error {
	path := args[0]
	var out planOutput
	out.JSON, _ = cmd.Flags().GetBool("json")
	out.PNG, _ = cmd.Flags().GetString("png")
	out.Copy, _ = cmd.Flags().GetBool("copy")
	save, _ := cmd.Flags().GetBool("save")
	watch, _ := cmd.Flags().GetBool("watch")
	if save && watch {
		return errors.New("--save and --watch cannot be combined")
	}

	ctx := cmd.Context()
	s, err := newSession(ctx, save)
	if err != nil {
		return err
	}
	defer s.Close()
	out.NoColor = s.cfg.NoColor

	doc, err := planfile.Load(path)
	if err != nil {
		return err
	}
	ctrl, err := s.controller()
	if err != nil {
		return err
	}
	if err := printPlan(cmd.OutOrStdout(), s.printer, ctrl, doc, out); err != nil {
		return err
	}

	if save {
		d, err := ctrl.CreateSimpleDive(ctx)
		if err != nil {
			return fmt.Errorf("failed to save dive: %w", err)
		}
		s.printer.DiveCommitted(d.Number, d.UID)
	}
	if watch {
		return watchPlan(ctx, cmd.OutOrStdout(), s.printer, ctrl, path, out)
	}
	return nil
}

// printPlan replaces the plan held by ctrl with doc, recalculates and writes
// the result to w.
func printPlan(w io.Writer, p *ui.Printer, ctrl *planner.Controller, doc *planfile.Document, out planOutput) error {
	if ctrl.CurrentMode() != planner.ModeNothing {
		ctrl.CancelPlan()
	}
	if err := doc.Apply(ctrl); err != nil {
		return err
	}
	profile, err := ctrl.Profile()
	if err != nil {
		return err
	}

	if out.JSON {
		if err := writePlanJSON(w, ctrl, profile, doc.Title); err != nil {
			return err
		}
	} else {
		if doc.Title != "" {
			fmt.Fprintf(w, "%s\n\n", doc.Title)
		}
		ui.PlanTable(w, ctrl, ui.TableOptionsFor(ctrl.Settings(), ctrl.Plan().Mode == dive.CCR, out.NoColor))
		ui.PlanNotes(w, ctrl.Notes(), out.NoColor)
	}

	if out.PNG != "" {
		if err := render.ProfilePNG(profile, out.PNG, render.Options{Title: doc.Title}); err != nil {
			return fmt.Errorf("failed to render profile: %w", err)
		}
		p.Info(fmt.Sprintf("profile written to %s", out.PNG))
	}
	if out.Copy {
		if err := clipboard.WriteAll(ctrl.Notes()); err != nil {
			p.Warn(fmt.Sprintf("clipboard: %v", err))
		} else {
			p.Copied()
		}
	}
	return nil
}

// watchPlan recomputes the plan on every change of path until ctx is done or
// the process is interrupted. A file that fails to load or apply is reported
// and the previous output stands.
func watchPlan(ctx context.Context, w io.Writer, p *ui.Printer, ctrl *planner.Controller, path string, out planOutput) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	watcher, err := planfile.NewWatcher(path)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	defer watcher.Stop()

	p.Banner()
	p.Info(fmt.Sprintf("watching %s (Ctrl+C to stop)", path))
	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-watcher.Reloads:
			if !ok {
				return nil
			}
			if r.Err != nil {
				p.Error(fmt.Sprintf("reload %s: %v", path, r.Err))
				continue
			}
			p.Reloaded(path)
			if err := printPlan(w, p, ctrl, r.Doc, out); err != nil {
				p.Error(err.Error())
			}
		}
	}
}

// planJSON is the machine-readable form of a computed plan.
type planJSON struct {
	Title     string         `json:"title,omitempty"`
	Mode      string         `json:"mode"`
	GFLow     int            `json:"gf_low"`
	GFHigh    int            `json:"gf_high"`
	Runtime   int            `json:"runtime_s"`
	MaxDepth  float64        `json:"max_depth_m"`
	Points    []pointJSON    `json:"points"`
	Cylinders []cylinderJSON `json:"cylinders"`
	Notes     string         `json:"notes"`
}

type pointJSON struct {
	Depth    float64 `json:"depth_m"`
	Duration int     `json:"duration_s"`
	Runtime  int     `json:"runtime_s"`
	Gas      string  `json:"gas"`
	Setpoint float64 `json:"setpoint_bar,omitempty"`
	Entered  bool    `json:"entered"`
}

type cylinderJSON struct {
	Description string  `json:"description,omitempty"`
	Gas         string  `json:"gas"`
	Size        float64 `json:"size_l"`
	Start       float64 `json:"start_bar"`
	End         float64 `json:"end_bar"`
	Used        float64 `json:"used_l"`
}

// writePlanJSON encodes the plan held by ctrl, with cylinder use taken from
// the computed profile.
func writePlanJSON(w io.Writer, ctrl *planner.Controller, profile *dive.Dive, title string) error {
	plan := ctrl.Plan()
	out := planJSON{
		Title:     title,
		Mode:      plan.Mode.String(),
		GFLow:     plan.Settings.GFLow,
		GFHigh:    plan.Settings.GFHigh,
		Points:    []pointJSON{},
		Cylinders: []cylinderJSON{},
		Notes:     ctrl.Notes(),
	}
	for _, p := range plan.Points {
		out.Points = append(out.Points, pointJSON{
			Depth:    float64(p.Depth) / 1000,
			Duration: p.Duration,
			Runtime:  p.Runtime,
			Gas:      planner.GasToString(p),
			Setpoint: float64(p.Setpoint) / 1000,
			Entered:  p.Entered,
		})
		out.Runtime = p.Runtime
		out.MaxDepth = max(out.MaxDepth, float64(p.Depth)/1000)
	}
	if profile != nil {
		for _, c := range profile.Cylinders {
			out.Cylinders = append(out.Cylinders, cylinderJSON{
				Description: c.Description,
				Gas:         c.Gas.Name(),
				Size:        float64(c.SizeML) / 1000,
				Start:       float64(c.StartPressure) / 1000,
				End:         float64(c.EndPressure) / 1000,
				Used:        float64(c.SizeML) / 1000 * float64(c.StartPressure-c.EndPressure) / 1000,
			})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
