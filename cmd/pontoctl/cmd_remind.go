package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/espacohidro/pontocerto/internal/application/command"
)

var remindAt string

// remindCmd runs one end-of-day reminder sweep
var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send end-of-day reminders to staff with an open shift",
	Long: `Send end-of-day reminders to staff with an open shift.

The sweep does nothing before the configured cutoff hour, and each user is
reminded at most once per day, so running it next to the worker is safe.`,
	Args: cobra.NoArgs,
	RunE: runRemind,
}

func init() {
	remindCmd.Flags().StringVar(&remindAt, "at", "", "evaluate at this RFC3339 instant instead of now")
}

func runRemind(cmd *cobra.Command, _ []string) error {
	var at time.Time
	if remindAt != "" {
		t, err := time.Parse(time.RFC3339, remindAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		at = t
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Commands.SendReminders.Handle(cmd.Context(), command.SendRemindersCommand{Now: at})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "checked %d, sent %d, skipped %d, failed %d\n",
		res.Checked, res.Sent, res.Skipped, res.Failed)
	return nil
}
