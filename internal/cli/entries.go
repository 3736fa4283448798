package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"timelog/internal/app"
	"timelog/internal/model"
	"timelog/internal/service"
)

func newLogCmd(opts *options) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "log <activity>",
		Short: "Record a manual entry for time already spent",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app.App) error {
			activity, apiErr := a.Activities.Resolve(cmd.Context(), args[0])
			if apiErr != nil {
				return apiErr
			}
			session, apiErr := a.Sessions.CreateManualEntry(cmd.Context(), service.ManualEntryInput{
				ActivityID: activity.ID,
				StartTime:  from,
				EndTime:    to,
			})
			if apiErr != nil {
				return apiErr
			}
			printOK(cmd.OutOrStdout(), "Logged %s for %s", formatSeconds(*session.Duration), accentStyle.Render(activity.Name))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "Entry start (RFC 3339)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "Entry end (RFC 3339)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sessions in a time range (default: today)",
		Args:    cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app.App) error {
			start, end, err := listRange(from, to, time.Now())
			if err != nil {
				return err
			}
			sessions, apiErr := a.Sessions.ListSessionsInRange(cmd.Context(), start, end)
			if apiErr != nil {
				return apiErr
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No sessions in range"))
				return nil
			}

			fmt.Fprintf(out, "%s\n", headerStyle.Render(fmt.Sprintf("%-16s  %-16s  %-9s  %-9s  %s", "START", "END", "DURATION", "STATUS", "ACTIVITY")))
			var total int64
			for _, session := range sessions {
				endLabel := "-"
				seconds := elapsedSeconds(session, time.Now())
				if session.EndTime != nil {
					endLabel = formatClock(*session.EndTime)
				}
				if session.Duration != nil {
					seconds = *session.Duration
				}
				total += seconds
				fmt.Fprintf(out, "%-16s  %-16s  %-9s  %-9s  %s\n",
					formatClock(session.StartTime), endLabel, formatSeconds(seconds), statusLabel(session), session.ActivityName)
			}
			fmt.Fprintf(out, "Total: %s\n", accentStyle.Render(formatSeconds(total)))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "Range start (RFC 3339)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "Range end (RFC 3339)")
	return cmd
}

func listRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	local := now.Local()
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, 1)

	if from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--from must be an RFC 3339 timestamp: %w", err)
		}
		start = parsed
	}
	if to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--to must be an RFC 3339 timestamp: %w", err)
		}
		end = parsed
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, errors.New("--from must be before --to")
	}
	return start, end, nil
}

func statusLabel(s model.Session) string {
	if s.EntryType == model.EntryTypeManual {
		return "manual"
	}
	return string(s.Status)
}
