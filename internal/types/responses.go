// Package types holds the request and response shapes shared by the API handlers and client
package types

import "github.com/ceronops/jobcal/internal/db/models"

// Response is the typed form of SlugResponse, used to decode API replies
type Response[T any] struct {
	Slug  Slug   `json:"slug"`
	Error string `json:"error"`
	Data  T      `json:"data"`
}

// PaginationResponse represents pagination information for list endpoints
// swagger:model
// Example: {"total":42,"limit":100,"offset":0}
type PaginationResponse struct {
	// Number of rows in this page
	Total int `json:"total"`

	// Maximum number of items per page
	Limit int `json:"limit"`

	// Number of items skipped from the beginning of the result set
	Offset int `json:"offset"`
}

// ListResponse defines a generic response structure for listing resources
// swagger:model
// Example: {"rows":[{"id":"9f1c...","client_name":"Smith"}],"pagination":{"total":1,"limit":100,"offset":0}}
type ListResponse[T any] struct {
	// Array of resource items
	Rows []T `json:"rows"`

	// Pagination information for the result set
	Pagination PaginationResponse `json:"pagination"`
}

// HealthResponse is the body of the health endpoint
// swagger:model
// Example: {"status":"ok","calendar_configured":true}
type HealthResponse struct {
	Status             string `json:"status"`
	CalendarConfigured bool   `json:"calendar_configured"`
}

// GenerateResponse reports whether a generation pass ran
// swagger:model
// Example: {"generated":true}
type GenerateResponse struct {
	Generated bool `json:"generated"`
}

// UpdateTemplateResponse carries the updated template and the number of
// future instances the change was propagated to
// swagger:model
type UpdateTemplateResponse struct {
	Template         *models.JobTemplate `json:"template"`
	UpdatedInstances int                 `json:"updated_instances"`
}

// SyncInstanceResponse reports the calendar event of one instance after a sync or unsync.
// An empty ExternalEventID means the instance has no event.
// swagger:model
// Example: {"instance_id":"9f1c...","external_event_id":"abc123"}
type SyncInstanceResponse struct {
	InstanceID      string `json:"instance_id"`
	ExternalEventID string `json:"external_event_id"`
}
