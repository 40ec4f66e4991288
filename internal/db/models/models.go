package models

const (
	// DefaultLimit is the max number of rows that are retrieved from the DB per listing API call
	DefaultLimit = 100

	// DateLayout is the layout of calendar dates stored on templates and instances
	DateLayout = "2006-01-02"
	// TimeOfDayLayout is the layout of the optional start and end times of a job
	TimeOfDayLayout = "15:04"
)

// ListOptions represents pagination and filtering options for list operations
type ListOptions struct {
	Limit           int  `json:"limit"`  // Number of items to return
	Offset          int  `json:"offset"` // Number of items to skip
	IncludeInactive bool `json:"include_inactive"`
}

// InstanceQuery selects job instances. Empty fields do not filter.
type InstanceQuery struct {
	TemplateID string           `json:"template_id,omitempty"`
	IDs        []string         `json:"ids,omitempty"`
	DateFrom   string           `json:"date_from,omitempty"` // inclusive
	DateTo     string           `json:"date_to,omitempty"`   // inclusive
	Statuses   []InstanceStatus `json:"statuses,omitempty"`
	// Synced filters on the presence of an external event id when set
	Synced *bool `json:"synced,omitempty"`
	Limit  int   `json:"limit,omitempty"`
	Offset int   `json:"offset,omitempty"`
}
