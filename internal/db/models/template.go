package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Field names for template model
const (
	TemplateActiveField     = "active"
	TemplateCreatedAtField  = "created_at"
	TemplateClientNameField = "client_name"
)

// Frequency is the fixed interval of a recurrence rule
type Frequency string

// Supported frequencies
const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// String returns the string representation of the frequency
func (f Frequency) String() string {
	return string(f)
}

// Valid reports whether f is one of the supported frequencies
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// RecurrenceRule defines the occurrence sequence of a template.
// EndDate is optional; an empty string means the rule never ends.
type RecurrenceRule struct {
	Frequency Frequency `json:"frequency" gorm:"type:varchar(16);not null"`
	StartDate string    `json:"start_date" gorm:"type:varchar(10);not null"`
	EndDate   string    `json:"end_date,omitempty" gorm:"type:varchar(10)"`
}

// HasEnd reports whether the rule has an end date
func (r RecurrenceRule) HasEnd() bool {
	return r.EndDate != ""
}

// JobTemplate is a recurring commitment to a client
type JobTemplate struct {
	ID          string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ClientID    string         `json:"client_id" gorm:"type:varchar(64);index"`
	ClientName  string         `json:"client_name" gorm:"not null"`
	JobType     JobType        `json:"job_type" gorm:"type:varchar(16);not null"`
	Amount      float64        `json:"amount"`
	Location    string         `json:"location,omitempty"`
	Description string         `json:"description,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	StartTime   string         `json:"start_time,omitempty" gorm:"type:varchar(5)"`
	EndTime     string         `json:"end_time,omitempty" gorm:"type:varchar(5)"`
	Recurrence  RecurrenceRule `json:"recurrence" gorm:"embedded;embeddedPrefix:recurrence_"`
	Active      bool           `json:"active" gorm:"not null;default:true;index"`
	CreatedAt   time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Kind implements Job
func (*JobTemplate) Kind() JobKind { return KindTemplate }

func (*JobTemplate) job() {}

// Validate checks the client, job type, times and recurrence dates of the template.
// Frequency errors are left to the recurrence expander.
func (t *JobTemplate) Validate() error {
	if t.ClientName == "" {
		return errors.New("client_name is required")
	}
	if err := t.JobType.Validate(); err != nil {
		return err
	}
	if t.Amount < 0 {
		return fmt.Errorf("amount must not be negative: %.2f", t.Amount)
	}
	if err := ValidateTimeOfDay(t.StartTime); err != nil {
		return err
	}
	if err := ValidateTimeOfDay(t.EndTime); err != nil {
		return err
	}
	if err := ValidateDate(t.Recurrence.StartDate); err != nil {
		return fmt.Errorf("recurrence start: %w", err)
	}
	if t.Recurrence.HasEnd() {
		if err := ValidateDate(t.Recurrence.EndDate); err != nil {
			return fmt.Errorf("recurrence end: %w", err)
		}
	}
	return nil
}

// BeforeCreate is a GORM hook that assigns an id to new templates
func (t *JobTemplate) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
