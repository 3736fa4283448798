package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"timelog/internal/app"
	"timelog/internal/service"
)

func newActivityCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "activity",
		Aliases: []string{"a"},
		Short:   "Manage activities",
	}
	cmd.AddCommand(
		newActivityAddCmd(opts),
		newActivityListCmd(opts),
		newActivityRemoveCmd(opts),
	)
	return cmd
}

func newActivityAddCmd(opts *options) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an activity",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app.App) error {
			activity, apiErr := a.Activities.Create(cmd.Context(), service.ActivityInput{Name: args[0], Color: color})
			if apiErr != nil {
				return apiErr
			}
			printOK(cmd.OutOrStdout(), "Created activity %s %s", accentStyle.Render(activity.Name), mutedStyle.Render(activity.ID))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&color, "color", "c", "", "Display color as #RRGGBB")
	return cmd
}

func newActivityListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List activities",
		Args:    cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, _ []string, a *app.App) error {
			activities, apiErr := a.Activities.List(cmd.Context())
			if apiErr != nil {
				return apiErr
			}

			out := cmd.OutOrStdout()
			if len(activities) == 0 {
				fmt.Fprintln(out, "No activities yet. Create one with `timelog activity add <name>`")
				return nil
			}
			fmt.Fprintf(out, "%s\n", headerStyle.Render(fmt.Sprintf("%-36s  %-8s  %s", "ID", "COLOR", "NAME")))
			for _, activity := range activities {
				fmt.Fprintf(out, "%-36s  %-8s  %s\n", activity.ID, activity.Color, activity.Name)
			}
			return nil
		}),
	}
}

func newActivityRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name|id>",
		Aliases: []string{"remove"},
		Short:   "Delete an activity and all of its sessions",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app.App) error {
			activity, apiErr := a.Activities.Resolve(cmd.Context(), args[0])
			if apiErr != nil {
				return apiErr
			}
			if apiErr := a.Activities.Delete(cmd.Context(), activity.ID); apiErr != nil {
				return apiErr
			}
			printOK(cmd.OutOrStdout(), "Deleted activity %s", accentStyle.Render(activity.Name))
			return nil
		}),
	}
}
