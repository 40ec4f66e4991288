package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobKind discriminates recurring definitions from their dated occurrences
type JobKind string

const (
	// KindTemplate is a recurring job definition
	KindTemplate JobKind = "template"
	// KindInstance is one dated occurrence of a template
	KindInstance JobKind = "instance"
)

// Job is implemented by *JobTemplate and *JobInstance only.
// Both encode their Kind as the "type" JSON field.
type Job interface {
	Kind() JobKind
	job()
}

type (
	templateFields JobTemplate
	instanceFields JobInstance
)

// MarshalJSON adds "type": "template"
func (t JobTemplate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type JobKind `json:"type"`
		templateFields
	}{Type: t.Kind(), templateFields: templateFields(t)})
}

// MarshalJSON adds "type": "instance"
func (i JobInstance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type JobKind `json:"type"`
		instanceFields
	}{Type: i.Kind(), instanceFields: instanceFields(i)})
}

// JobType represents the kind of premises a job is performed at
type JobType string

const (
	// JobTypeResidential is a job at a home
	JobTypeResidential JobType = "residential"
	// JobTypeCommercial is a job at a business
	JobTypeCommercial JobType = "commercial"
)

// String returns the string representation of the job type
func (t JobType) String() string {
	return string(t)
}

// Validate returns an error if the job type is not recognized
func (t JobType) Validate() error {
	switch t {
	case JobTypeResidential, JobTypeCommercial:
		return nil
	default:
		return fmt.Errorf("invalid job type: %q", string(t))
	}
}

// ParseJobType converts a string to a JobType
func ParseJobType(str string) (JobType, error) {
	t := JobType(str)
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// ValidateDate returns an error unless s is a YYYY-MM-DD calendar date
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return nil
}

// ValidateTimeOfDay returns an error unless s is empty or an HH:MM time
func ValidateTimeOfDay(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(TimeOfDayLayout, s); err != nil {
		return fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return nil
}
