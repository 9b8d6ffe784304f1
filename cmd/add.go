package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/planfile"
	"github.com/dsh2/subsurface/internal/ui"
)

var addCmd = &cobra.Command{
	Use:   "add <dive-number>",
	Short: "Extend a logged dive with more waypoints",
	Long: `Load a dive from the logbook, append the given stops after its last
recorded waypoint and store the extended profile under the same number.
Without --stop a dive that has no samples gets the default profile.

Stops are DEPTH:DURATION[:GAS], for example 5:3 (three minutes at 5 m) or
21:90s:EAN50.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringArray("stop", nil, "stop to append as DEPTH:DURATION[:GAS] (repeatable)")
	addCmd.Flags().Bool("dry-run", false, "print the extended profile without saving it")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	number, err := diveNumber(args[0])
	if err != nil {
		return err
	}
	rawStops, _ := cmd.Flags().GetStringArray("stop")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	stops := make([]planfile.Stop, 0, len(rawStops))
	for _, v := range rawStops {
		st, err := parseStop(v)
		if err != nil {
			return err
		}
		stops = append(stops, st)
	}

	ctx := cmd.Context()
	s, err := newSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := s.store.GetDive(ctx, number)
	if err != nil {
		return notFound(number, err)
	}

	ctrl, err := s.controller()
	if err != nil {
		return err
	}
	if err := ctrl.LoadFromDive(d); err != nil {
		return err
	}
	switch {
	case len(stops) > 0:
		err = planfile.AddStops(ctrl, stops)
	case ctrl.Size() == 0:
		err = ctrl.SeedSimpleProfile()
	}
	if err != nil {
		ctrl.CancelPlan()
		return err
	}
	if err := ctrl.Recalculate(); err != nil {
		ctrl.CancelPlan()
		return err
	}

	w := cmd.OutOrStdout()
	ui.PlanTable(w, ctrl, ui.TableOptionsFor(ctrl.Settings(), d.Mode == dive.CCR, s.cfg.NoColor))
	if dryRun {
		ctrl.CancelPlan()
		s.printer.Info("dry run, logbook unchanged")
		return nil
	}

	final, err := ctrl.CreateSimpleDive(ctx)
	if err != nil {
		return fmt.Errorf("failed to save dive: %w", err)
	}
	s.printer.DiveCommitted(final.Number, final.UID)
	return nil
}
