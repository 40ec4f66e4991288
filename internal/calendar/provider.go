package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Provider is the event API of the calendar service. Implementations map
// expired auth to ErrAuthExpired and missing resources to ErrNotFound.
type Provider interface {
	InsertEvent(ctx context.Context, token, calendarID string, event *gcal.Event) (*gcal.Event, error)
	UpdateEvent(ctx context.Context, token, calendarID, eventID string, event *gcal.Event) (*gcal.Event, error)
	DeleteEvent(ctx context.Context, token, calendarID, eventID string) error
	GetCalendar(ctx context.Context, token, calendarID string) (*gcal.Calendar, error)
}

// GoogleProvider calls the Google Calendar v3 API
type GoogleProvider struct {
	endpoint   string
	httpClient *http.Client
}

var _ Provider = &GoogleProvider{}

// ProviderOption configures a GoogleProvider
type ProviderOption func(*GoogleProvider)

// WithEndpoint overrides the API base URL, e.g. for a local test server
func WithEndpoint(endpoint string) ProviderOption {
	return func(p *GoogleProvider) { p.endpoint = endpoint }
}

// WithHTTPClient sets the base HTTP client
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *GoogleProvider) { p.httpClient = c }
}

// NewGoogleProvider creates a Google Calendar provider
func NewGoogleProvider(opts ...ProviderOption) *GoogleProvider {
	p := &GoogleProvider{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GoogleProvider) service(ctx context.Context, token string) (*gcal.Service, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, p.httpClient), src)

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, &CalendarError{Op: "connect", Err: err}
	}
	return svc, nil
}

// InsertEvent creates an event
func (p *GoogleProvider) InsertEvent(ctx context.Context, token, calendarID string, event *gcal.Event) (*gcal.Event, error) {
	svc, err := p.service(ctx, token)
	if err != nil {
		return nil, err
	}
	created, err := svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, classify("insert event", err)
	}
	return created, nil
}

// UpdateEvent replaces an event
func (p *GoogleProvider) UpdateEvent(ctx context.Context, token, calendarID, eventID string, event *gcal.Event) (*gcal.Event, error) {
	svc, err := p.service(ctx, token)
	if err != nil {
		return nil, err
	}
	updated, err := svc.Events.Update(calendarID, eventID, event).Context(ctx).Do()
	if err != nil {
		return nil, classify("update event", err)
	}
	return updated, nil
}

// DeleteEvent removes an event
func (p *GoogleProvider) DeleteEvent(ctx context.Context, token, calendarID, eventID string) error {
	svc, err := p.service(ctx, token)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return classify("delete event", err)
	}
	return nil
}

// GetCalendar returns calendar metadata
func (p *GoogleProvider) GetCalendar(ctx context.Context, token, calendarID string) (*gcal.Calendar, error) {
	svc, err := p.service(ctx, token)
	if err != nil {
		return nil, err
	}
	cal, err := svc.Calendars.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return nil, classify("get calendar", err)
	}
	return cal, nil
}

// classify maps a Google API error onto the package errors
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", op, ErrAuthExpired)
		case http.StatusNotFound, http.StatusGone:
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return &CalendarError{Op: op, StatusCode: apiErr.Code, Err: err}
	}
	return &CalendarError{Op: op, Err: err}
}
