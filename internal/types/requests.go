package types

import (
	"errors"
	"fmt"

	"github.com/ceronops/jobcal/internal/db/models"
)

// CreateTemplateRequest is the body of a template creation
// swagger:model
// Example: {"client_name":"Smith","job_type":"residential","amount":120,"start_time":"09:00","end_time":"11:00","recurrence":{"frequency":"weekly","start_date":"2024-01-01"}}
type CreateTemplateRequest struct {
	ClientID    string                `json:"client_id,omitempty"`
	ClientName  string                `json:"client_name"`
	JobType     models.JobType        `json:"job_type"`
	Amount      float64               `json:"amount"`
	Location    string                `json:"location,omitempty"`
	Description string                `json:"description,omitempty"`
	Notes       string                `json:"notes,omitempty"`
	StartTime   string                `json:"start_time,omitempty"`
	EndTime     string                `json:"end_time,omitempty"`
	Recurrence  models.RecurrenceRule `json:"recurrence"`
}

// Template converts the request into a new template
func (r CreateTemplateRequest) Template() *models.JobTemplate {
	return &models.JobTemplate{
		ClientID:    r.ClientID,
		ClientName:  r.ClientName,
		JobType:     r.JobType,
		Amount:      r.Amount,
		Location:    r.Location,
		Description: r.Description,
		Notes:       r.Notes,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Recurrence:  r.Recurrence,
	}
}

// UpdateTemplateRequest is the body of a template update. Omitted fields are left unchanged.
// swagger:model
// Example: {"amount":150,"start_time":"10:00"}
type UpdateTemplateRequest struct {
	ClientID    *string                `json:"client_id,omitempty"`
	ClientName  *string                `json:"client_name,omitempty"`
	JobType     *models.JobType        `json:"job_type,omitempty"`
	Amount      *float64               `json:"amount,omitempty"`
	Location    *string                `json:"location,omitempty"`
	Description *string                `json:"description,omitempty"`
	Notes       *string                `json:"notes,omitempty"`
	StartTime   *string                `json:"start_time,omitempty"`
	EndTime     *string                `json:"end_time,omitempty"`
	Recurrence  *models.RecurrenceRule `json:"recurrence,omitempty"`
}

// UpdateStatusRequest is the body of a single instance status change
// swagger:model
// Example: {"status":"completed"}
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Validate requires a status
func (r UpdateStatusRequest) Validate() error {
	if r.Status == "" {
		return errors.New("status is required")
	}
	return nil
}

// BulkDeleteRequest is the body of a bulk instance delete
// swagger:model
// Example: {"ids":["9f1c...","4b2a..."]}
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// Validate requires at least one id
func (r BulkDeleteRequest) Validate() error {
	if len(r.IDs) == 0 {
		return errors.New("ids are required")
	}
	return nil
}

// BulkStatusRequest is the body of a bulk instance status change
// swagger:model
// Example: {"ids":["9f1c..."],"status":"cancelled"}
type BulkStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// Validate requires ids and a status
func (r BulkStatusRequest) Validate() error {
	if len(r.IDs) == 0 {
		return errors.New("ids are required")
	}
	if r.Status == "" {
		return errors.New("status is required")
	}
	return nil
}

// SyncRequest selects the instances of a bulk sync. No ids means every pending instance.
// swagger:model
// Example: {"ids":["9f1c..."]}
type SyncRequest struct {
	IDs []string `json:"ids,omitempty"`
}

// ConnectCalendarRequest carries the OAuth authorization code to exchange
// swagger:model
// Example: {"code":"4/0Ad..."}
type ConnectCalendarRequest struct {
	Code string `json:"code"`
}

// Validate requires a code
func (r ConnectCalendarRequest) Validate() error {
	if r.Code == "" {
		return errors.New("code is required")
	}
	return nil
}

// CalendarSettingsRequest changes the calendar settings. Omitted fields are left unchanged.
// swagger:model
// Example: {"calendar_id":"primary","sync_enabled":true,"reminder_minutes":[60]}
type CalendarSettingsRequest struct {
	CalendarID      *string `json:"calendar_id,omitempty"`
	SyncEnabled     *bool   `json:"sync_enabled,omitempty"`
	ReminderMinutes []int   `json:"reminder_minutes,omitempty"`
}

// Validate rejects negative reminder offsets
func (r CalendarSettingsRequest) Validate() error {
	for _, m := range r.ReminderMinutes {
		if m < 0 {
			return fmt.Errorf("reminder minutes must not be negative: %d", m)
		}
	}
	return nil
}
