package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dsh2/subsurface/internal/planfile"
	"github.com/dsh2/subsurface/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Write an example plan file",
	Long: `Write a 30 m square profile on air with an EAN50 deco cylinder to <file>.
Edit it and run "diveplan plan <file>" to see the schedule.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := args[0]
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := planfile.Save(path, planfile.Example()); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	ui.NewWriter(cmd.ErrOrStderr(), noColor).PlanSaved(path)
	return nil
}
