package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ceronops/jobcal/internal/types"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push instances to the calendar",
		Long: `Push instances to the calendar. Without --ids every open, unsynced instance
dated today or later is synced. Nothing is sent while the calendar is not configured.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, _ := cmd.Flags().GetString(flagIDs)
			result, err := apiClient.SyncInstances(cmd.Context(), types.SyncRequest{IDs: splitIDs(ids)})
			if err != nil {
				return fmt.Errorf("error syncing instances: %w", err)
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().String(flagIDs, "", "Comma separated instance IDs (default: all pending)")
	cmd.AddCommand(newSyncInstanceCmd(), newUnsyncInstanceCmd())
	return cmd
}

func newSyncInstanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Create or update the calendar event of one instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			resp, err := apiClient.SyncInstance(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("error syncing instance: %w", err)
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringP(flagID, "i", "", "Instance ID")
	mustMarkRequired(cmd, flagID)
	return cmd
}

func newUnsyncInstanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete the calendar event of one instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			resp, err := apiClient.UnsyncInstance(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("error removing calendar event: %w", err)
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringP(flagID, "i", "", "Instance ID")
	mustMarkRequired(cmd, flagID)
	return cmd
}
