package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jidokhae/internal/domain"
)

func cronCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Scheduled sweeps",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run <job>",
		Short: "Run one sweep once and print its result",
		Long: `Run one sweep once and print its result as JSON.

Jobs: meeting-reminders, onboarding, waitlist-expiry, transfer-timeout,
pending-payments, post-meeting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.cron.Run(cmd.Context(), args[0])
			if res != nil {
				out, _ := json.Marshal(res)
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			}
			if errors.Is(err, domain.ErrUnknownJob) {
				return fmt.Errorf("unknown job %q, known jobs: %s", args[0], strings.Join(a.cron.Jobs(), ", "))
			}
			if err != nil {
				return fmt.Errorf("job %s: %w", args[0], err)
			}
			return nil
		},
	})
	return cmd
}
