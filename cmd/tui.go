package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dsh2/subsurface/internal/planfile"
	"github.com/dsh2/subsurface/internal/tui"
)

// errNeedsTTY is returned when the interactive planner is started without a
// terminal.
var errNeedsTTY = errors.New("diveplan tui requires a TTY (terminal)")

// tuiCmd launches the interactive planner.
var tuiCmd = &cobra.Command{
	Use:   "tui [file]",
	Short: "Plan a dive interactively",
	Long: `Open the interactive waypoint table. With a plan file the table starts from
that plan and follows edits made to the file in another editor. Saving the
dive commits it to the logbook.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().Bool("no-watch", false, "do not reload the plan file when it changes")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !isStderrTTY() {
		return errNeedsTTY
	}

	ctx := cmd.Context()
	s, err := newSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctrl, err := s.controller()
	if err != nil {
		return err
	}

	var opts []tui.Option
	if len(args) == 1 {
		path := args[0]
		doc, err := planfile.Load(path)
		if err != nil {
			return err
		}
		if err := doc.Apply(ctrl); err != nil {
			return err
		}
		if noWatch, _ := cmd.Flags().GetBool("no-watch"); !noWatch {
			watcher, err := planfile.NewWatcher(path)
			if err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			if err := watcher.Start(); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			defer watcher.Stop()
			opts = append(opts, tui.WithReloads(path, watcher.Reloads))
		}
	} else if err := ctrl.CreatePlan(nil); err != nil {
		return err
	}

	final, err := tui.Run(tui.NewModel(ctrl, opts...))
	if err != nil {
		return err
	}
	if d := final.Committed; d != nil {
		s.printer.DiveCommitted(d.Number, d.UID)
	}
	return nil
}
