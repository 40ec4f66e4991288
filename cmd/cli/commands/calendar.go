package commands

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ceronops/jobcal/internal/types"
	"github.com/ceronops/jobcal/pkg/api/v1/handlers"
)

// Calendar flag names
const (
	flagCode             = "code"
	flagCalendarID       = "calendar-id"
	flagSyncEnabled      = "sync-enabled"
	flagReminders        = "reminders"
	flagIncludeCancelled = "include-cancelled"
	flagOutput           = "output"
)

func newCalendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Manage the calendar connection",
	}
	cmd.AddCommand(
		newCalendarStatusCmd(),
		newCalendarTestCmd(),
		newCalendarConnectCmd(),
		newCalendarDisconnectCmd(),
		newCalendarSettingsCmd(),
		newCalendarFeedCmd(),
	)
	return cmd
}

func newCalendarStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored calendar credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := apiClient.CalendarStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("error fetching calendar status: %w", err)
			}
			return printJSON(cmd, status)
		},
	}
}

func newCalendarTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check that the calendar can be reached",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := apiClient.TestCalendar(cmd.Context())
			if err != nil {
				return fmt.Errorf("error testing calendar: %w", err)
			}
			return printJSON(cmd, conn)
		},
	}
}

func newCalendarConnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Exchange an OAuth authorization code and enable sync",
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, _ := cmd.Flags().GetString(flagCode)
			status, err := apiClient.ConnectCalendar(cmd.Context(), types.ConnectCalendarRequest{Code: code})
			if err != nil {
				return fmt.Errorf("error connecting calendar: %w", err)
			}
			return printJSON(cmd, status)
		},
	}
	cmd.Flags().String(flagCode, "", "OAuth authorization code")
	mustMarkRequired(cmd, flagCode)
	return cmd
}

func newCalendarDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the calendar credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := apiClient.DisconnectCalendar(cmd.Context()); err != nil {
				return fmt.Errorf("error disconnecting calendar: %w", err)
			}
			return printJSON(cmd, map[string]bool{"disconnected": true})
		},
	}
}

func newCalendarSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change the target calendar, sync switch or reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			var req types.CalendarSettingsRequest
			if flags.Changed(flagCalendarID) {
				id, _ := flags.GetString(flagCalendarID)
				req.CalendarID = &id
			}
			if flags.Changed(flagSyncEnabled) {
				enabled, _ := flags.GetBool(flagSyncEnabled)
				req.SyncEnabled = &enabled
			}
			if flags.Changed(flagReminders) {
				req.ReminderMinutes, _ = flags.GetIntSlice(flagReminders)
			}

			status, err := apiClient.UpdateCalendarSettings(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("error updating calendar settings: %w", err)
			}
			return printJSON(cmd, status)
		},
	}
	cmd.Flags().String(flagCalendarID, "", "Calendar to sync into")
	cmd.Flags().Bool(flagSyncEnabled, true, "Whether instances are pushed to the calendar")
	cmd.Flags().IntSlice(flagReminders, nil, "Popup reminder offsets in minutes, e.g. 60,1440")
	return cmd
}

func newCalendarFeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Export instances as an iCalendar feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			q := url.Values{}
			if v, _ := flags.GetString(flagTemplate); v != "" {
				q.Set(handlers.QueryTemplateID, v)
			}
			if v, _ := flags.GetString(flagFrom); v != "" {
				q.Set(handlers.QueryFrom, v)
			}
			if v, _ := flags.GetString(flagTo); v != "" {
				q.Set(handlers.QueryTo, v)
			}
			if v, _ := flags.GetBool(flagIncludeCancelled); v {
				q.Set(handlers.QueryIncludeCancelled, strconv.FormatBool(v))
			}

			feed, err := apiClient.CalendarFeed(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("error fetching calendar feed: %w", err)
			}

			if path, _ := flags.GetString(flagOutput); path != "" {
				if err := os.WriteFile(path, []byte(feed), 0o644); err != nil {
					return fmt.Errorf("error writing %s: %w", path, err)
				}
				return nil
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), feed)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringP(flagTemplate, "t", "", "Only instances of this template")
	flags.String(flagFrom, "", "First date, YYYY-MM-DD")
	flags.String(flagTo, "", "Last date, YYYY-MM-DD")
	flags.Bool(flagIncludeCancelled, false, "Export cancelled instances with STATUS:CANCELLED")
	flags.StringP(flagOutput, "o", "", "Write the feed to this file instead of stdout")
	return cmd
}
