package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"timelog/internal/app"
	"timelog/internal/duration"
	"timelog/internal/model"
	"timelog/internal/recovery"
	"timelog/internal/service"
)

var errNoRunningTimer = errors.New("no timer is running. Start one with `timelog start <activity>`")

func newStartCmd(opts *options) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:     "start <activity>",
		Aliases: []string{"s"},
		Short:   "Start a timer for an activity",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app.App) error {
			startTime, err := parseOptionalTime("--at", at)
			if err != nil {
				return err
			}

			activity, apiErr := a.Activities.Resolve(cmd.Context(), args[0])
			if apiErr != nil {
				return apiErr
			}
			session, apiErr := a.Sessions.StartTimer(cmd.Context(), service.StartTimerInput{
				ActivityID: activity.ID,
				StartTime:  startTime,
			})
			if apiErr != nil {
				return apiErr
			}
			printOK(cmd.OutOrStdout(), "Started %s at %s", accentStyle.Render(activity.Name), formatClock(session.StartTime))
			return nil
		}),
	}

	cmd.Flags().StringVar(&at, "at", "", "Backdate the start (RFC 3339)")
	return cmd
}

func newPauseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pause [session-id]",
		Short: "Pause the running timer",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app.App) error {
			id, err := targetSession(cmd.Context(), a, args)
			if err != nil {
				return err
			}
			session, apiErr := a.Sessions.PauseTimer(cmd.Context(), id)
			if apiErr != nil {
				return apiErr
			}
			printOK(cmd.OutOrStdout(), "Paused %s", accentStyle.Render(session.ActivityName))
			return nil
		}),
	}
}

func newResumeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resume [session-id]",
		Short: "Resume the paused timer",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app.App) error {
			id, err := targetSession(cmd.Context(), a, args)
			if err != nil {
				return err
			}
			session, apiErr := a.Sessions.ResumeTimer(cmd.Context(), id)
			if apiErr != nil {
				return apiErr
			}
			printOK(cmd.OutOrStdout(), "Resumed %s", accentStyle.Render(session.ActivityName))
			return nil
		}),
	}
}

func newStopCmd(opts *options) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:     "stop [session-id]",
		Aliases: []string{"stp"},
		Short:   "Stop the running timer",
		Args:    cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app.App) error {
			endTime, err := parseOptionalTime("--at", at)
			if err != nil {
				return err
			}
			id, err := targetSession(cmd.Context(), a, args)
			if err != nil {
				return err
			}
			session, apiErr := a.Sessions.StopTimer(cmd.Context(), id, endTime)
			if apiErr != nil {
				return apiErr
			}
			printOK(cmd.OutOrStdout(), "Stopped %s after %s", accentStyle.Render(session.ActivityName), formatSeconds(*session.Duration))
			return nil
		}),
	}

	cmd.Flags().StringVar(&at, "at", "", "Stop at an earlier time (RFC 3339)")
	return cmd
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running timer",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app.App) error {
			session, apiErr := a.Sessions.CurrentTimer(cmd.Context())
			if apiErr != nil {
				return apiErr
			}

			out := cmd.OutOrStdout()
			if session == nil {
				fmt.Fprintln(out, mutedStyle.Render("No timer running"))
				return nil
			}

			fmt.Fprintf(out, "%s %s (%s)\n", accentStyle.Render(session.ActivityName), string(session.Status), mutedStyle.Render(session.ID))
			fmt.Fprintf(out, "Started:  %s\n", formatClock(session.StartTime))
			fmt.Fprintf(out, "Elapsed:  %s\n", formatSeconds(elapsedSeconds(*session, time.Now())))
			if session.Status == model.StatusActive && time.Since(session.LastHeartbeat) > a.Engine.Thresholds().ConfirmAfter {
				printWarn(out, "No heartbeat since %s. Run `timelog recover` to reconcile", formatClock(session.LastHeartbeat))
			}
			return nil
		}),
	}
}

func newRecoverCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "recover [session-id]",
		Short: "Reconcile the running timer after a crash or sleep",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app.App) error {
			id, err := targetSession(cmd.Context(), a, args)
			if err != nil {
				return err
			}
			view, apiErr := a.Sessions.RecoverSession(cmd.Context(), id)
			if apiErr != nil {
				return apiErr
			}

			out := cmd.OutOrStdout()
			gap := formatSeconds(view.GapSeconds)
			switch view.Outcome {
			case recovery.OutcomeSkipped:
				printOK(out, "Timer is %s, nothing to recover", view.Session.Status)
			case recovery.OutcomeRefreshed:
				printOK(out, "Timer is alive, heartbeat refreshed")
			case recovery.OutcomeHealed:
				printOK(out, "Excluded a %s gap as a pause", gap)
			case recovery.OutcomeCompleted:
				printOK(out, "Timer abandoned %s ago, completed at %s with %s",
					gap, formatClock(*view.Session.EndTime), formatSeconds(*view.Session.Duration))
			case recovery.OutcomeDiscardable:
				printWarn(out, "Timer abandoned %s ago with too little time to keep. Run `timelog discard` to drop it", gap)
			default:
				return fmt.Errorf("unknown recovery outcome %q", view.Outcome)
			}
			return nil
		}),
	}
}

func newDiscardCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "discard [session-id]",
		Short: "Drop the running timer without recording it",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app.App) error {
			id, err := targetSession(cmd.Context(), a, args)
			if err != nil {
				return err
			}
			if apiErr := a.Sessions.DiscardTimer(cmd.Context(), id); apiErr != nil {
				return apiErr
			}
			printOK(cmd.OutOrStdout(), "Discarded timer %s", mutedStyle.Render(id))
			return nil
		}),
	}
}

// targetSession returns the explicit id in args or the open session's id.
func targetSession(ctx context.Context, a *app.App, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	session, apiErr := a.Sessions.CurrentTimer(ctx)
	if apiErr != nil {
		return "", apiErr
	}
	if session == nil {
		return "", errNoRunningTimer
	}
	return session.ID, nil
}

func parseOptionalTime(flag, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp: %w", flag, err)
	}
	return &t, nil
}

// elapsedSeconds is the net time so far, treating an open pause as ending now.
func elapsedSeconds(s model.Session, now time.Time) int64 {
	end := now
	if last, ok := s.PauseHistory.Last(); ok && !last.Closed() {
		end = last.PauseTime
	}
	return duration.NetSeconds(s.StartTime, end, s.PauseHistory)
}
