package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/types"
)

// Template flag names
const (
	flagFile            = "file"
	flagClient          = "client"
	flagClientID        = "client-id"
	flagJobType         = "type"
	flagAmount          = "amount"
	flagLocation        = "location"
	flagDescription     = "description"
	flagNotes           = "notes"
	flagStartTime       = "start-time"
	flagEndTime         = "end-time"
	flagFrequency       = "frequency"
	flagStartDate       = "start-date"
	flagEndDate         = "end-date"
	flagIncludeInactive = "include-inactive"
	flagMinDaysAhead    = "min-days-ahead"
)

// templateSummary is the list view of a template
type templateSummary struct {
	ID         string  `json:"id"`
	ClientName string  `json:"client_name"`
	JobType    string  `json:"job_type"`
	Frequency  string  `json:"frequency"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date,omitempty"`
	Amount     float64 `json:"amount"`
	Active     bool    `json:"active"`
}

type templateListOutput struct {
	Templates []templateSummary `json:"templates"`
}

func summarizeTemplate(t models.JobTemplate) templateSummary {
	return templateSummary{
		ID:         t.ID,
		ClientName: t.ClientName,
		JobType:    t.JobType.String(),
		Frequency:  t.Recurrence.Frequency.String(),
		StartDate:  t.Recurrence.StartDate,
		EndDate:    t.Recurrence.EndDate,
		Amount:     t.Amount,
		Active:     t.Active,
	}
}

// decodeFile reads a YAML or JSON document into v, honoring v's json tags
func decodeFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("error parsing %s: %w", path, err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error converting %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("error decoding %s: %w", path, err)
	}
	return nil
}

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template", "t"},
		Short:   "Manage recurring job templates",
	}
	cmd.AddCommand(
		newListTemplatesCmd(),
		newGetTemplateCmd(),
		newCreateTemplateCmd(),
		newUpdateTemplateCmd(),
		newTemplateInstancesCmd(),
		newNextOccurrenceCmd(),
		newTemplateStatsCmd(),
		newCancelTemplateCmd(),
		newDeactivateTemplateCmd(),
		newGenerateCmd(),
	)
	return cmd
}

func newListTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := &models.ListOptions{}
			opts.Limit, _ = cmd.Flags().GetInt(flagLimit)
			opts.Offset, _ = cmd.Flags().GetInt(flagOffset)
			opts.IncludeInactive, _ = cmd.Flags().GetBool(flagIncludeInactive)

			templates, err := apiClient.ListTemplates(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("error fetching templates: %w", err)
			}

			output := templateListOutput{Templates: make([]templateSummary, len(templates))}
			for i, t := range templates {
				output.Templates[i] = summarizeTemplate(t)
			}
			return printJSON(cmd, output)
		},
	}
	cmd.Flags().IntP(flagLimit, "l", 0, "Maximum number of templates to return")
	cmd.Flags().Int(flagOffset, 0, "Number of templates to skip")
	cmd.Flags().Bool(flagIncludeInactive, false, "Include deactivated templates")
	return cmd
}

func newGetTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			tmpl, err := apiClient.GetTemplate(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("error fetching template: %w", err)
			}
			return printJSON(cmd, tmpl)
		},
	}
	cmd.Flags().StringP(flagID, "i", "", "Template ID")
	mustMarkRequired(cmd, flagID)
	return cmd
}

func newCreateTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a template and generate its instances",
		Example: `  jobcal templates create --client Smith --type residential --amount 120 \
    --frequency weekly --start-date 2024-01-01 --start-time 09:00 --end-time 11:00
  jobcal templates create --file smith.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req types.CreateTemplateRequest
			if path, _ := cmd.Flags().GetString(flagFile); path != "" {
				if err := decodeFile(path, &req); err != nil {
					return err
				}
			}

			flags := cmd.Flags()
			if flags.Changed(flagClient) {
				req.ClientName, _ = flags.GetString(flagClient)
			}
			if flags.Changed(flagClientID) {
				req.ClientID, _ = flags.GetString(flagClientID)
			}
			if flags.Changed(flagJobType) {
				s, _ := flags.GetString(flagJobType)
				jt, err := models.ParseJobType(s)
				if err != nil {
					return err
				}
				req.JobType = jt
			}
			if flags.Changed(flagAmount) {
				req.Amount, _ = flags.GetFloat64(flagAmount)
			}
			if flags.Changed(flagLocation) {
				req.Location, _ = flags.GetString(flagLocation)
			}
			if flags.Changed(flagDescription) {
				req.Description, _ = flags.GetString(flagDescription)
			}
			if flags.Changed(flagNotes) {
				req.Notes, _ = flags.GetString(flagNotes)
			}
			if flags.Changed(flagStartTime) {
				req.StartTime, _ = flags.GetString(flagStartTime)
			}
			if flags.Changed(flagEndTime) {
				req.EndTime, _ = flags.GetString(flagEndTime)
			}
			if flags.Changed(flagFrequency) {
				s, _ := flags.GetString(flagFrequency)
				req.Recurrence.Frequency = models.Frequency(s)
			}
			if flags.Changed(flagStartDate) {
				req.Recurrence.StartDate, _ = flags.GetString(flagStartDate)
			}
			if flags.Changed(flagEndDate) {
				req.Recurrence.EndDate, _ = flags.GetString(flagEndDate)
			}

			if req.ClientName == "" {
				return fmt.Errorf("client name is required (--%s or --%s)", flagClient, flagFile)
			}

			tmpl, err := apiClient.CreateTemplate(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("error creating template: %w", err)
			}
			return printJSON(cmd, summarizeTemplate(tmpl))
		},
	}
	flags := cmd.Flags()
	flags.StringP(flagFile, "f", "", "YAML or JSON file with the template")
	flags.StringP(flagClient, "c", "", "Client name")
	flags.String(flagClientID, "", "Client ID")
	flags.String(flagJobType, string(models.JobTypeResidential), "Job type (residential or commercial)")
	flags.Float64(flagAmount, 0, "Amount charged per job")
	flags.String(flagLocation, "", "Job location")
	flags.String(flagDescription, "", "Job description")
	flags.String(flagNotes, "", "Notes")
	flags.String(flagStartTime, "", "Start time, HH:MM")
	flags.String(flagEndTime, "", "End time, HH:MM")
	flags.String(flagFrequency, string(models.FrequencyWeekly), "Frequency (daily, weekly, biweekly or monthly)")
	flags.String(flagStartDate, "", "First date, YYYY-MM-DD")
	flags.String(flagEndDate, "", "Last date, YYYY-MM-DD (optional)")
	return cmd
}

func newUpdateTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a template and its future scheduled instances",
		Long: `Update a template. Changes to the job details are applied to the future
scheduled instances of the template and to their calendar events. The recurrence
rule of a template cannot be changed once it has instances.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)

			var req types.UpdateTemplateRequest
			if path, _ := cmd.Flags().GetString(flagFile); path != "" {
				if err := decodeFile(path, &req); err != nil {
					return err
				}
			}

			flags := cmd.Flags()
			str := func(name string) *string {
				if !flags.Changed(name) {
					return nil
				}
				s, _ := flags.GetString(name)
				return &s
			}
			if v := str(flagClient); v != nil {
				req.ClientName = v
			}
			if v := str(flagClientID); v != nil {
				req.ClientID = v
			}
			if v := str(flagJobType); v != nil {
				jt, err := models.ParseJobType(*v)
				if err != nil {
					return err
				}
				req.JobType = &jt
			}
			if flags.Changed(flagAmount) {
				amount, _ := flags.GetFloat64(flagAmount)
				req.Amount = &amount
			}
			if v := str(flagLocation); v != nil {
				req.Location = v
			}
			if v := str(flagDescription); v != nil {
				req.Description = v
			}
			if v := str(flagNotes); v != nil {
				req.Notes = v
			}
			if v := str(flagStartTime); v != nil {
				req.StartTime = v
			}
			if v := str(flagEndTime); v != nil {
				req.EndTime = v
			}

			resp, err := apiClient.UpdateTemplate(cmd.Context(), id, req)
			if err != nil {
				return fmt.Errorf("error updating template: %w", err)
			}
			return printJSON(cmd, resp)
		},
	}
	flags := cmd.Flags()
	flags.StringP(flagID, "i", "", "Template ID")
	flags.StringP(flagFile, "f", "", "YAML or JSON file with the fields to change")
	flags.StringP(flagClient, "c", "", "Client name")
	flags.String(flagClientID, "", "Client ID")
	flags.String(flagJobType, "", "Job type (residential or commercial)")
	flags.Float64(flagAmount, 0, "Amount charged per job")
	flags.String(flagLocation, "", "Job location")
	flags.String(flagDescription, "", "Job description")
	flags.String(flagNotes, "", "Notes")
	flags.String(flagStartTime, "", "Start time, HH:MM")
	flags.String(flagEndTime, "", "End time, HH:MM")
	mustMarkRequired(cmd, flagID)
	return cmd
}

func newTemplateInstancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "List the instances of a template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			q := &models.InstanceQuery{}
			q.Limit, _ = cmd.Flags().GetInt(flagLimit)
			q.Offset, _ = cmd.Flags().GetInt(flagOffset)

			instances, err := apiClient.GetTemplateInstances(cmd.Context(), id, q)
			if err != nil {
				return fmt.Errorf("error fetching instances: %w", err)
			}
			return printJSON(cmd, newInstanceListOutput(instances))
		},
	}
	cmd.Flags().StringP(flagID, "i", "", "Template ID")
	cmd.Flags().IntP(flagLimit, "l", 0, "Maximum number of instances to return")
	cmd.Flags().Int(flagOffset, 0, "Number of instances to skip")
	mustMarkRequired(cmd, flagID)
	return cmd
}

func newNextOccurrenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next occurrence of a template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			next, err := apiClient.GetNextOccurrence(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("error fetching next occurrence: %w", err)
			}
			return printJSON(cmd, next)
		},
	}
	cmd.Flags().StringP(flagID, "i", "", "Template ID")
	mustMarkRequired(cmd, flagID)
	return cmd
}

func newTemplateStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count the instances of a template per status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			stats, err := apiClient.GetTemplateStats(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("error fetching template stats: %w", err)
			}
			return printJSON(cmd, stats)
		},
	}
	cmd.Flags().StringP(flagID, "i", "", "Template ID")
	mustMarkRequired(cmd, flagID)
	return cmd
}

func newCancelTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the future scheduled instances of a template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			unsync, _ := cmd.Flags().GetBool(flagUnsync)
			result, err := apiClient.CancelTemplate(cmd.Context(), id, unsync)
			if err != nil {
				return fmt.Errorf("error cancelling template: %w", err)
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringP(flagID, "i", "", "Template ID")
	cmd.Flags().Bool(flagUnsync, false, "Also remove the calendar events of the cancelled instances")
	mustMarkRequired(cmd, flagID)
	return cmd
}

func newDeactivateTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate a template and cancel its future instances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			unsync, _ := cmd.Flags().GetBool(flagUnsync)
			result, err := apiClient.DeactivateTemplate(cmd.Context(), id, unsync)
			if err != nil {
				return fmt.Errorf("error deactivating template: %w", err)
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringP(flagID, "i", "", "Template ID")
	cmd.Flags().Bool(flagUnsync, false, "Also remove the calendar events of the cancelled instances")
	mustMarkRequired(cmd, flagID)
	return cmd
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Extend the instances of a template when they run out soon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString(flagID)
			days, _ := cmd.Flags().GetInt(flagMinDaysAhead)
			generated, err := apiClient.GenerateInstances(cmd.Context(), id, days)
			if err != nil {
				return fmt.Errorf("error generating instances: %w", err)
			}
			return printJSON(cmd, types.GenerateResponse{Generated: generated})
		},
	}
	cmd.Flags().StringP(flagID, "i", "", "Template ID")
	cmd.Flags().Int(flagMinDaysAhead, 0, "Generate when the last instance is closer than this many days (0 uses the server default)")
	mustMarkRequired(cmd, flagID)
	return cmd
}
