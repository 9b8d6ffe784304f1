package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/dsh2/subsurface/internal/logbook"
	"github.com/dsh2/subsurface/internal/render"
	"github.com/dsh2/subsurface/internal/ui"
)

var logbookCmd = &cobra.Command{
	Use:   "logbook",
	Short: "Browse dives committed to the logbook",
}

var logbookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged dives",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newSession(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		dives, err := s.store.ListDives(ctx)
		if err != nil {
			return err
		}
		ui.LogbookList(cmd.OutOrStdout(), dives, time.Now(), s.cfg.NoColor)
		return nil
	},
}

var logbookShowCmd = &cobra.Command{
	Use:   "show <dive-number>",
	Short: "Show a logged dive with its cylinders and plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := diveNumber(args[0])
		if err != nil {
			return err
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
		ui.DiveSummary(cmd.OutOrStdout(), d, s.cfg.NoColor)

		if png, _ := cmd.Flags().GetString("png"); png != "" {
			title := fmt.Sprintf("Dive #%d", d.Number)
			if err := render.ProfilePNG(d, png, render.Options{Title: title}); err != nil {
				return fmt.Errorf("failed to render profile: %w", err)
			}
			s.printer.Info(fmt.Sprintf("profile written to %s", png))
		}
		return nil
	},
}

var logbookRmCmd = &cobra.Command{
	Use:   "rm <dive-number>",
	Short: "Delete a logged dive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := diveNumber(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		s, err := newSession(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.store.DeleteDive(ctx, number); err != nil {
			return notFound(number, err)
		}
		s.printer.Success(fmt.Sprintf("dive #%d deleted", number))
		return nil
	},
}

func init() {
	logbookShowCmd.Flags().String("png", "", "write the depth profile to a PNG file")
	logbookCmd.AddCommand(logbookListCmd, logbookShowCmd, logbookRmCmd)
	rootCmd.AddCommand(logbookCmd)
}

func diveNumber(arg string) (int, error) {
	n, err := cast.ToIntE(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid dive number %q", arg)
	}
	return n, nil
}

func notFound(number int, err error) error {
	if errors.Is(err, logbook.ErrDiveNotFound) {
		return fmt.Errorf("dive #%d is not in the logbook", number)
	}
	return err
}
