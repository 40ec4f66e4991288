// Package client provides the API client for interacting with the jobcal API
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/ceronops/jobcal/internal/calendar"
	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/services"
	"github.com/ceronops/jobcal/internal/types"
	"github.com/ceronops/jobcal/pkg/api/v1/handlers"
	"github.com/ceronops/jobcal/pkg/api/v1/routes"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// Client is the interface for API client
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (types.HealthResponse, error)

	// Template Endpoints
	ListTemplates(ctx context.Context, opts *models.ListOptions) ([]models.JobTemplate, error)
	GetTemplate(ctx context.Context, id string) (models.JobTemplate, error)
	GetTemplateInstances(ctx context.Context, id string, q *models.InstanceQuery) ([]models.JobInstance, error)
	GetNextOccurrence(ctx context.Context, id string) (services.NextOccurrence, error)
	GetTemplateStats(ctx context.Context, id string) (services.TemplateStats, error)
	CreateTemplate(ctx context.Context, req types.CreateTemplateRequest) (models.JobTemplate, error)
	UpdateTemplate(ctx context.Context, id string, req types.UpdateTemplateRequest) (types.UpdateTemplateResponse, error)
	CancelTemplate(ctx context.Context, id string, unsync bool) (services.CancelResult, error)
	DeactivateTemplate(ctx context.Context, id string, unsync bool) (services.CancelResult, error)
	GenerateInstances(ctx context.Context, id string, minDaysAhead int) (bool, error)

	// Instance Endpoints
	ListInstances(ctx context.Context, q *models.InstanceQuery) ([]models.JobInstance, error)
	GetInstance(ctx context.Context, id string) (models.JobInstance, error)
	UpdateInstanceStatus(ctx context.Context, id, status string) (models.JobInstance, error)
	BulkUpdateStatus(ctx context.Context, req types.BulkStatusRequest) (services.BulkStatusResult, error)
	DeleteInstance(ctx context.Context, id string) error
	BulkDeleteInstances(ctx context.Context, req types.BulkDeleteRequest) (services.BulkDeleteResult, error)

	// Sync Endpoints
	SyncInstance(ctx context.Context, id string) (types.SyncInstanceResponse, error)
	UnsyncInstance(ctx context.Context, id string) (types.SyncInstanceResponse, error)
	SyncInstances(ctx context.Context, req types.SyncRequest) (services.SyncResult, error)

	// Calendar Endpoints
	CalendarStatus(ctx context.Context) (calendar.Status, error)
	TestCalendar(ctx context.Context) (calendar.ConnectionStatus, error)
	ConnectCalendar(ctx context.Context, req types.ConnectCalendarRequest) (calendar.Status, error)
	DisconnectCalendar(ctx context.Context) error
	UpdateCalendarSettings(ctx context.Context, req types.CalendarSettingsRequest) (calendar.Status, error)
	CalendarFeed(ctx context.Context, q url.Values) (string, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate the base URL
	_, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &APIClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: timeout,
	}, nil
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	case http.MethodPut:
		agent = fiber.Put(fullURL)
	case http.MethodDelete:
		agent = fiber.Delete(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Accept", "application/json")
	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// send executes the request and turns non-2xx statuses into a *fiber.Error
// carrying the error message of the response envelope
func send(agent *fiber.Agent) ([]byte, error) {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("error sending request: %w", errs[0])
	}

	if statusCode < 200 || statusCode >= 300 {
		msg := string(body)
		var failure types.SlugResponse
		if err := json.Unmarshal(body, &failure); err == nil && failure.Error != "" {
			msg = failure.Error
		}
		return nil, &fiber.Error{
			Code:    statusCode,
			Message: msg,
		}
	}
	return body, nil
}

// doRequest sends the request and decodes the data of the response envelope into v
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	body, err := send(agent)
	if err != nil {
		return err
	}
	if v == nil || len(body) == 0 {
		return nil
	}

	var envelope types.Response[json.RawMessage]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		return fmt.Errorf("error decoding response data: %w", err)
	}
	return nil
}

// executeRequest creates an agent, sends the request, and processes the response
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, response interface{}) error {
	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	return c.doRequest(agent, response)
}

// Health check implementation

// HealthCheck checks the health of the API
func (c *APIClient) HealthCheck(ctx context.Context) (types.HealthResponse, error) {
	var response types.HealthResponse
	if err := c.executeRequest(ctx, http.MethodGet, routes.HealthCheckURL(), nil, &response); err != nil {
		return types.HealthResponse{}, err
	}
	return response, nil
}

// listOptionsParams creates url.Values from ListOptions
func listOptionsParams(opts *models.ListOptions) url.Values {
	q := url.Values{}
	if opts == nil {
		return q
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.IncludeInactive {
		q.Set(handlers.QueryIncludeInactive, "true")
	}
	return q
}

// instanceQueryParams creates url.Values from an InstanceQuery. IDs are not
// expressible as query parameters and are ignored.
func instanceQueryParams(iq *models.InstanceQuery) url.Values {
	q := url.Values{}
	if iq == nil {
		return q
	}
	if iq.Limit > 0 {
		q.Set("limit", strconv.Itoa(iq.Limit))
	}
	if iq.Offset > 0 {
		q.Set("offset", strconv.Itoa(iq.Offset))
	}
	if iq.TemplateID != "" {
		q.Set(handlers.QueryTemplateID, iq.TemplateID)
	}
	if iq.DateFrom != "" {
		q.Set(handlers.QueryFrom, iq.DateFrom)
	}
	if iq.DateTo != "" {
		q.Set(handlers.QueryTo, iq.DateTo)
	}
	if len(iq.Statuses) > 0 {
		statuses := make([]string, len(iq.Statuses))
		for i, s := range iq.Statuses {
			statuses[i] = s.String()
		}
		q.Set(handlers.QueryStatus, strings.Join(statuses, ","))
	}
	if iq.Synced != nil {
		q.Set(handlers.QuerySynced, strconv.FormatBool(*iq.Synced))
	}
	return q
}

func unsyncParams(unsync bool) url.Values {
	if !unsync {
		return nil
	}
	return url.Values{handlers.QueryUnsync: {"true"}}
}

// Template methods implementation

// ListTemplates lists templates, active ones only unless opts says otherwise
func (c *APIClient) ListTemplates(ctx context.Context, opts *models.ListOptions) ([]models.JobTemplate, error) {
	var response types.ListResponse[models.JobTemplate]
	if err := c.executeRequest(ctx, http.MethodGet, routes.ListTemplatesURL(listOptionsParams(opts)), nil, &response); err != nil {
		return []models.JobTemplate{}, err
	}
	return response.Rows, nil
}

// GetTemplate retrieves a template by ID
func (c *APIClient) GetTemplate(ctx context.Context, id string) (models.JobTemplate, error) {
	var response models.JobTemplate
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetTemplateURL(id), nil, &response); err != nil {
		return models.JobTemplate{}, err
	}
	return response, nil
}

// GetTemplateInstances lists the instances of a template
func (c *APIClient) GetTemplateInstances(ctx context.Context, id string, q *models.InstanceQuery) ([]models.JobInstance, error) {
	var response types.ListResponse[models.JobInstance]
	endpoint := routes.GetTemplateInstancesURL(id, instanceQueryParams(q))
	if err := c.executeRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return []models.JobInstance{}, err
	}
	return response.Rows, nil
}

// GetNextOccurrence retrieves the next occurrence of a template
func (c *APIClient) GetNextOccurrence(ctx context.Context, id string) (services.NextOccurrence, error) {
	var response services.NextOccurrence
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetTemplateNextURL(id), nil, &response); err != nil {
		return services.NextOccurrence{}, err
	}
	return response, nil
}

// GetTemplateStats retrieves the instance counts of a template
func (c *APIClient) GetTemplateStats(ctx context.Context, id string) (services.TemplateStats, error) {
	var response services.TemplateStats
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetTemplateStatsURL(id), nil, &response); err != nil {
		return services.TemplateStats{}, err
	}
	return response, nil
}

// CreateTemplate creates a template and its first instances
func (c *APIClient) CreateTemplate(ctx context.Context, req types.CreateTemplateRequest) (models.JobTemplate, error) {
	var response models.JobTemplate
	if err := c.executeRequest(ctx, http.MethodPost, routes.CreateTemplateURL(), req, &response); err != nil {
		return models.JobTemplate{}, err
	}
	return response, nil
}

// UpdateTemplate applies a partial update to a template
func (c *APIClient) UpdateTemplate(ctx context.Context, id string, req types.UpdateTemplateRequest) (types.UpdateTemplateResponse, error) {
	var response types.UpdateTemplateResponse
	if err := c.executeRequest(ctx, http.MethodPut, routes.UpdateTemplateURL(id), req, &response); err != nil {
		return types.UpdateTemplateResponse{}, err
	}
	return response, nil
}

// CancelTemplate cancels the future instances of a template
func (c *APIClient) CancelTemplate(ctx context.Context, id string, unsync bool) (services.CancelResult, error) {
	var response services.CancelResult
	if err := c.executeRequest(ctx, http.MethodPost, routes.CancelTemplateURL(id, unsyncParams(unsync)), nil, &response); err != nil {
		return services.CancelResult{}, err
	}
	return response, nil
}

// DeactivateTemplate deactivates a template and cancels its future instances
func (c *APIClient) DeactivateTemplate(ctx context.Context, id string, unsync bool) (services.CancelResult, error) {
	var response services.CancelResult
	if err := c.executeRequest(ctx, http.MethodDelete, routes.DeactivateTemplateURL(id, unsyncParams(unsync)), nil, &response); err != nil {
		return services.CancelResult{}, err
	}
	return response, nil
}

// GenerateInstances asks the server to top up the instances of a template
func (c *APIClient) GenerateInstances(ctx context.Context, id string, minDaysAhead int) (bool, error) {
	var q url.Values
	if minDaysAhead > 0 {
		q = url.Values{handlers.QueryMinDaysAhead: {strconv.Itoa(minDaysAhead)}}
	}
	var response types.GenerateResponse
	if err := c.executeRequest(ctx, http.MethodPost, routes.GenerateTemplateURL(id, q), nil, &response); err != nil {
		return false, err
	}
	return response.Generated, nil
}

// Instance methods implementation

// ListInstances queries instances
func (c *APIClient) ListInstances(ctx context.Context, q *models.InstanceQuery) ([]models.JobInstance, error) {
	var response types.ListResponse[models.JobInstance]
	if err := c.executeRequest(ctx, http.MethodGet, routes.ListInstancesURL(instanceQueryParams(q)), nil, &response); err != nil {
		return []models.JobInstance{}, err
	}
	return response.Rows, nil
}

// GetInstance retrieves an instance by ID
func (c *APIClient) GetInstance(ctx context.Context, id string) (models.JobInstance, error) {
	var response models.JobInstance
	if err := c.executeRequest(ctx, http.MethodGet, routes.GetInstanceURL(id), nil, &response); err != nil {
		return models.JobInstance{}, err
	}
	return response, nil
}

// UpdateInstanceStatus changes the status of an instance
func (c *APIClient) UpdateInstanceStatus(ctx context.Context, id, status string) (models.JobInstance, error) {
	var response models.JobInstance
	req := types.UpdateStatusRequest{Status: status}
	if err := c.executeRequest(ctx, http.MethodPut, routes.UpdateInstanceStatusURL(id), req, &response); err != nil {
		return models.JobInstance{}, err
	}
	return response, nil
}

// BulkUpdateStatus sets one status on several instances
func (c *APIClient) BulkUpdateStatus(ctx context.Context, req types.BulkStatusRequest) (services.BulkStatusResult, error) {
	var response services.BulkStatusResult
	if err := c.executeRequest(ctx, http.MethodPost, routes.BulkUpdateStatusURL(), req, &response); err != nil {
		return services.BulkStatusResult{}, err
	}
	return response, nil
}

// DeleteInstance deletes an instance and its calendar event
func (c *APIClient) DeleteInstance(ctx context.Context, id string) error {
	return c.executeRequest(ctx, http.MethodDelete, routes.DeleteInstanceURL(id), nil, nil)
}

// BulkDeleteInstances deletes several instances
func (c *APIClient) BulkDeleteInstances(ctx context.Context, req types.BulkDeleteRequest) (services.BulkDeleteResult, error) {
	var response services.BulkDeleteResult
	if err := c.executeRequest(ctx, http.MethodPost, routes.BulkDeleteInstancesURL(), req, &response); err != nil {
		return services.BulkDeleteResult{}, err
	}
	return response, nil
}

// Sync methods implementation

// SyncInstance pushes one instance to the calendar
func (c *APIClient) SyncInstance(ctx context.Context, id string) (types.SyncInstanceResponse, error) {
	var response types.SyncInstanceResponse
	if err := c.executeRequest(ctx, http.MethodPost, routes.SyncInstanceURL(id), nil, &response); err != nil {
		return types.SyncInstanceResponse{}, err
	}
	return response, nil
}

// UnsyncInstance removes the calendar event of one instance
func (c *APIClient) UnsyncInstance(ctx context.Context, id string) (types.SyncInstanceResponse, error) {
	var response types.SyncInstanceResponse
	if err := c.executeRequest(ctx, http.MethodDelete, routes.UnsyncInstanceURL(id), nil, &response); err != nil {
		return types.SyncInstanceResponse{}, err
	}
	return response, nil
}

// SyncInstances syncs the given instances, or every pending one when req has no ids
func (c *APIClient) SyncInstances(ctx context.Context, req types.SyncRequest) (services.SyncResult, error) {
	var body interface{}
	if len(req.IDs) > 0 {
		body = req
	}
	var response services.SyncResult
	if err := c.executeRequest(ctx, http.MethodPost, routes.SyncInstancesURL(), body, &response); err != nil {
		return services.SyncResult{}, err
	}
	return response, nil
}

// Calendar methods implementation

// CalendarStatus retrieves the calendar connection state
func (c *APIClient) CalendarStatus(ctx context.Context) (calendar.Status, error) {
	var response calendar.Status
	if err := c.executeRequest(ctx, http.MethodGet, routes.CalendarStatusURL(), nil, &response); err != nil {
		return calendar.Status{}, err
	}
	return response, nil
}

// TestCalendar checks that the configured calendar is reachable
func (c *APIClient) TestCalendar(ctx context.Context) (calendar.ConnectionStatus, error) {
	var response calendar.ConnectionStatus
	if err := c.executeRequest(ctx, http.MethodGet, routes.CalendarTestURL(), nil, &response); err != nil {
		return calendar.ConnectionStatus{}, err
	}
	return response, nil
}

// ConnectCalendar exchanges an authorization code on the server
func (c *APIClient) ConnectCalendar(ctx context.Context, req types.ConnectCalendarRequest) (calendar.Status, error) {
	var response calendar.Status
	if err := c.executeRequest(ctx, http.MethodPost, routes.CalendarConnectURL(), req, &response); err != nil {
		return calendar.Status{}, err
	}
	return response, nil
}

// DisconnectCalendar removes the stored calendar credential
func (c *APIClient) DisconnectCalendar(ctx context.Context) error {
	return c.executeRequest(ctx, http.MethodPost, routes.CalendarDisconnectURL(), nil, nil)
}

// UpdateCalendarSettings changes the calendar settings
func (c *APIClient) UpdateCalendarSettings(ctx context.Context, req types.CalendarSettingsRequest) (calendar.Status, error) {
	var response calendar.Status
	if err := c.executeRequest(ctx, http.MethodPut, routes.CalendarSettingsURL(), req, &response); err != nil {
		return calendar.Status{}, err
	}
	return response, nil
}

// CalendarFeed downloads the iCalendar feed
func (c *APIClient) CalendarFeed(ctx context.Context, q url.Values) (string, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, routes.CalendarFeedURL(q), nil)
	if err != nil {
		return "", err
	}
	agent.Set("Accept", "text/calendar")
	body, err := send(agent)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
