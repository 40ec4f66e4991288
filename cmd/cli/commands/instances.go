package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/types"
)

// Instance flag names
const (
	flagTemplate = "template"
	flagFrom     = "from"
	flagTo       = "to"
	flagStatus   = "status"
	flagSynced   = "synced"
)

// instanceOutput is the list view of an instance
type instanceOutput struct {
	ID              string `json:"id"`
	TemplateID      string `json:"template_id"`
	Number          int    `json:"instance_number"`
	Date            string `json:"date"`
	ClientName      string `json:"client_name"`
	Status          string `json:"status"`
	ExternalEventID string `json:"external_event_id,omitempty"`
}

type instanceListOutput struct {
	Instances []instanceOutput `json:"instances"`
}

func newInstanceListOutput(instances []models.JobInstance) instanceListOutput {
	output := instanceListOutput{Instances: make([]instanceOutput, len(instances))}
	for i, inst := range instances {
		output.Instances[i] = instanceOutput{
			ID:              inst.ID,
			TemplateID:      inst.TemplateID,
			Number:          inst.InstanceNumber,
			Date:            inst.Date,
			ClientName:      inst.ClientName,
			Status:          inst.Status.String(),
			ExternalEventID: inst.ExternalEventID,
		}
	}
	return output
}

func newInstancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instances",
		Aliases: []string{"instance", "i"},
		Short:   "Manage dated job instances",
	}
	cmd.AddCommand(
		newListInstancesCmd(),
		newGetInstanceCmd(),
		newInstanceStatusCmd(),
		newBulkStatusCmd(),
		newDeleteInstanceCmd(),
		newBulkDeleteCmd(),
	)
	return cmd
}

func newListInstancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List instances ordered by date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			q := &models.InstanceQuery{}
			q.TemplateID, _ = flags.GetString(flagTemplate)
			q.DateFrom, _ = flags.GetString(flagFrom)
			q.DateTo, _ = flags.GetString(flagTo)
			q.Limit, _ = flags.GetInt(flagLimit)
			q.Offset, _ = flags.GetInt(flagOffset)

			if status, _ := flags.GetString(flagStatus); status != "" {
				for _, s := range strings.Split(status, ",") {
					parsed, err := models.ParseInstanceStatus(strings.TrimSpace(s))
					if err != nil {
						return err
					}
					q.Statuses = append(q.Statuses, parsed)
				}
			}
			if flags.Changed(flagSynced) {
				synced, _ := flags.GetBool(flagSynced)
				q.Synced = &synced
			}

			instances, err := apiClient.ListInstances(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("error fetching instances: %w", err)
			}
			return printJSON(cmd, newInstanceListOutput(instances))
		},
	}
	flags := cmd.Flags()
	flags.StringP(flagTemplate, "t", "", "Only instances of this template")
	flags.String(flagFrom, "", "First date, YYYY-MM-DD")
	flags.String(flagTo, "", "Last date, YYYY-MM-DD")
	flags.StringP(flagStatus, "s", "", "Comma separated statuses")
	flags.Bool(flagSynced, false, "Only instances with (true) or without (false) a calendar event")
	flags.IntP(flagLimit, "l", 0, "Maximum number of instances to return")
	flags.Int(flagOffset, 0, "Number of instances to skip")
	return cmd
}

func newGetInstanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get an instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			inst, err := apiClient.GetInstance(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("error fetching instance: %w", err)
			}
			return printJSON(cmd, inst)
		},
	}
	cmd.Flags().StringP(flagID, "i", "", "Instance ID")
	mustMarkRequired(cmd, flagID)
	return cmd
}

func newInstanceStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Set the status of an instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			status, _ := cmd.Flags().GetString(flagStatus)
			inst, err := apiClient.UpdateInstanceStatus(cmd.Context(), id, status)
			if err != nil {
				return fmt.Errorf("error updating instance status: %w", err)
			}
			return printJSON(cmd, newInstanceListOutput([]models.JobInstance{inst}).Instances[0])
		},
	}
	cmd.Flags().StringP(flagID, "i", "", "Instance ID")
	cmd.Flags().StringP(flagStatus, "s", "", "New status (scheduled, in-progress, completed or cancelled)")
	mustMarkRequired(cmd, flagID, flagStatus)
	return cmd
}

func newBulkStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk-status",
		Short: "Set the status of several instances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, _ := cmd.Flags().GetString(flagIDs)
			status, _ := cmd.Flags().GetString(flagStatus)
			result, err := apiClient.BulkUpdateStatus(cmd.Context(), types.BulkStatusRequest{
				IDs:    splitIDs(ids),
				Status: status,
			})
			if err != nil {
				return fmt.Errorf("error updating instance statuses: %w", err)
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().String(flagIDs, "", "Comma separated instance IDs")
	cmd.Flags().StringP(flagStatus, "s", "", "New status")
	mustMarkRequired(cmd, flagIDs, flagStatus)
	return cmd
}

func newDeleteInstanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an instance and its calendar event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			if err := apiClient.DeleteInstance(cmd.Context(), id); err != nil {
				return fmt.Errorf("error deleting instance: %w", err)
			}
			return printJSON(cmd, map[string]string{"deleted": id})
		},
	}
	cmd.Flags().StringP(flagID, "i", "", "Instance ID")
	mustMarkRequired(cmd, flagID)
	return cmd
}

func newBulkDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk-delete",
		Short: "Delete several instances and their calendar events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, _ := cmd.Flags().GetString(flagIDs)
			result, err := apiClient.BulkDeleteInstances(cmd.Context(), types.BulkDeleteRequest{IDs: splitIDs(ids)})
			if err != nil {
				return fmt.Errorf("error deleting instances: %w", err)
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().String(flagIDs, "", "Comma separated instance IDs")
	mustMarkRequired(cmd, flagIDs)
	return cmd
}
