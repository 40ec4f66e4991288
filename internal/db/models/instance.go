package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Field names for instance model
const (
	InstanceTemplateIDField      = "template_id"
	InstanceDateField            = "date"
	InstanceStatusField          = "status"
	InstanceExternalEventIDField = "external_event_id"
	InstanceUpdatedAtField       = "updated_at"
	InstanceNumberField          = "instance_number"
)

// InstanceStatus represents the current state of a job instance
type InstanceStatus string

const (
	// InstanceStatusScheduled is a job waiting to be performed
	InstanceStatusScheduled InstanceStatus = "scheduled"
	// InstanceStatusInProgress is a job being performed
	InstanceStatusInProgress InstanceStatus = "in-progress"
	// InstanceStatusCompleted is a finished job
	InstanceStatusCompleted InstanceStatus = "completed"
	// InstanceStatusCancelled is a job that will not be performed
	InstanceStatusCancelled InstanceStatus = "cancelled"
)

// String returns the string representation of the instance status
func (s InstanceStatus) String() string {
	return string(s)
}

// Validate returns an error if the status is not recognized
func (s InstanceStatus) Validate() error {
	switch s {
	case InstanceStatusScheduled, InstanceStatusInProgress, InstanceStatusCompleted, InstanceStatusCancelled:
		return nil
	default:
		return fmt.Errorf("invalid instance status: %q", string(s))
	}
}

// Closed reports whether the job is completed or cancelled
func (s InstanceStatus) Closed() bool {
	return s == InstanceStatusCompleted || s == InstanceStatusCancelled
}

// ParseInstanceStatus converts a string to an InstanceStatus
func ParseInstanceStatus(str string) (InstanceStatus, error) {
	s := InstanceStatus(str)
	if err := s.Validate(); err != nil {
		return "", err
	}
	return s, nil
}

// JobInstance is a single dated occurrence of a template.
// At most one instance exists per (template, date).
type JobInstance struct {
	ID              string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TemplateID      string         `json:"template_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_instance_template_date"`
	ClientID        string         `json:"client_id" gorm:"type:varchar(64);index"`
	ClientName      string         `json:"client_name" gorm:"not null"`
	JobType         JobType        `json:"job_type" gorm:"type:varchar(16);not null"`
	Date            string         `json:"date" gorm:"type:varchar(10);not null;uniqueIndex:idx_instance_template_date;index"`
	StartTime       string         `json:"start_time,omitempty" gorm:"type:varchar(5)"`
	EndTime         string         `json:"end_time,omitempty" gorm:"type:varchar(5)"`
	Status          InstanceStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	Amount          float64        `json:"amount"`
	Location        string         `json:"location,omitempty"`
	Description     string         `json:"description,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	Photos          []string       `json:"photos" gorm:"type:text;serializer:json"`
	InstanceNumber  int            `json:"instance_number"`
	ExternalEventID string         `json:"external_event_id,omitempty" gorm:"type:varchar(255);index"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Kind implements Job
func (*JobInstance) Kind() JobKind { return KindInstance }

func (*JobInstance) job() {}

// Synced reports whether the instance has a calendar event
func (i *JobInstance) Synced() bool {
	return i.ExternalEventID != ""
}

// BeforeCreate is a GORM hook that assigns an id and default status
func (i *JobInstance) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = InstanceStatusScheduled
	}
	if i.Photos == nil {
		i.Photos = []string{}
	}
	return i.Status.Validate()
}
