// Package calendar pushes job instances to the external calendar and manages
// the provider credential.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/logger"
)

// maxAuthRetries is the number of retries after a forced token refresh
const maxAuthRetries = 1

// EventRef identifies an event on the provider
type EventRef struct {
	ExternalID string `json:"external_id"`
	Link       string `json:"link,omitempty"`
}

// ConnectionStatus is the result of a connection test
type ConnectionStatus struct {
	Reachable    bool   `json:"reachable"`
	CalendarName string `json:"calendar_name,omitempty"`
	TimeZone     string `json:"time_zone,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Gateway performs event operations against the provider with the stored credential
type Gateway struct {
	creds    *CredentialManager
	provider Provider
	loc      *time.Location
	breaker  *gobreaker.CircuitBreaker
}

// GatewayOption configures a Gateway
type GatewayOption func(*gobreaker.Settings)

// WithBreakerThreshold sets the consecutive failures that open the circuit
func WithBreakerThreshold(failures uint32) GatewayOption {
	return func(s *gobreaker.Settings) {
		s.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= failures }
	}
}

// WithBreakerTimeout sets how long the circuit stays open
func WithBreakerTimeout(d time.Duration) GatewayOption {
	return func(s *gobreaker.Settings) { s.Timeout = d }
}

// NewGateway creates a gateway. Event times are interpreted in loc.
func NewGateway(creds *CredentialManager, provider Provider, loc *time.Location, opts ...GatewayOption) *Gateway {
	if loc == nil {
		loc = time.UTC
	}
	settings := gobreaker.Settings{
		Name:    "calendar-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		// missing events and expired tokens say nothing about provider health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrAuthExpired)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WarnWithFields("Calendar circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}
	for _, opt := range opts {
		opt(&settings)
	}

	return &Gateway{
		creds:    creds,
		provider: provider,
		loc:      loc,
		breaker:  gobreaker.NewCircuitBreaker(settings),
	}
}

// Location returns the zone event times are interpreted in
func (g *Gateway) Location() *time.Location {
	return g.loc
}

// IsConfigured reports whether a credential with sync enabled is present
func (g *Gateway) IsConfigured(ctx context.Context) bool {
	return g.creds.Configured(ctx)
}

// IsConnected reports whether a credential is present, even with sync switched off.
// Events already on the calendar can still be removed while connected.
func (g *Gateway) IsConnected(ctx context.Context) bool {
	return g.creds.Connected(ctx)
}

// guard runs a provider call through the circuit breaker
func (g *Gateway) guard(op string, fn func() error) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &CalendarError{Op: op, Err: err}
	}
	return err
}

// call runs fn with a valid token. An expired-auth failure triggers one
// forced refresh and one retry; a second one becomes a *CalendarError.
func (g *Gateway) call(ctx context.Context, op string, fn func(cred *models.CalendarCredential) error) error {
	cred, err := g.creds.EnsureValidToken(ctx)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		err = fn(cred)
		if !errors.Is(err, ErrAuthExpired) {
			return err
		}
		if attempt >= maxAuthRetries {
			return &CalendarError{Op: op, StatusCode: http.StatusUnauthorized, Err: err}
		}

		logger.Warnf("Calendar %s rejected the access token, refreshing", op)
		cred, err = g.creds.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("calendar %s: %w", op, err)
		}
	}
}

func eventRef(ev *gcal.Event) EventRef {
	return EventRef{ExternalID: ev.Id, Link: ev.HtmlLink}
}

// CreateEvent inserts an event for job. The caller stores the returned id.
func (g *Gateway) CreateEvent(ctx context.Context, job EventJob) (EventRef, error) {
	var ref EventRef
	err := g.call(ctx, "create event", func(cred *models.CalendarCredential) error {
		event, err := BuildEvent(job, g.loc, cred.ReminderMinutes)
		if err != nil {
			return err
		}
		return g.guard("create event", func() error {
			created, err := g.provider.InsertEvent(ctx, cred.AccessToken, cred.CalendarID, event)
			if err != nil {
				return err
			}
			ref = eventRef(created)
			return nil
		})
	})
	if err != nil {
		return EventRef{}, err
	}
	logger.Debugf("Created calendar event %s for %s on %s", ref.ExternalID, job.ClientName, job.Date)
	return ref, nil
}

// UpdateEvent replaces the event externalID with the data of job.
// A missing event is reported as ErrNotFound.
func (g *Gateway) UpdateEvent(ctx context.Context, externalID string, job EventJob) (EventRef, error) {
	var ref EventRef
	err := g.call(ctx, "update event", func(cred *models.CalendarCredential) error {
		event, err := BuildEvent(job, g.loc, cred.ReminderMinutes)
		if err != nil {
			return err
		}
		return g.guard("update event", func() error {
			updated, err := g.provider.UpdateEvent(ctx, cred.AccessToken, cred.CalendarID, externalID, event)
			if err != nil {
				return err
			}
			ref = eventRef(updated)
			return nil
		})
	})
	if err != nil {
		return EventRef{}, err
	}
	if ref.ExternalID == "" {
		ref.ExternalID = externalID
	}
	return ref, nil
}

// DeleteEvent removes the event externalID. An event that is already gone is not an error.
func (g *Gateway) DeleteEvent(ctx context.Context, externalID string) error {
	err := g.call(ctx, "delete event", func(cred *models.CalendarCredential) error {
		return g.guard("delete event", func() error {
			return g.provider.DeleteEvent(ctx, cred.AccessToken, cred.CalendarID, externalID)
		})
	})
	if errors.Is(err, ErrNotFound) {
		logger.Debugf("Calendar event %s already deleted", externalID)
		return nil
	}
	return err
}

// TestConnection fetches the configured calendar and reports whether it is reachable
func (g *Gateway) TestConnection(ctx context.Context) ConnectionStatus {
	var cal *gcal.Calendar
	err := g.call(ctx, "test connection", func(cred *models.CalendarCredential) error {
		return g.guard("test connection", func() error {
			var err error
			cal, err = g.provider.GetCalendar(ctx, cred.AccessToken, cred.CalendarID)
			return err
		})
	})
	if err != nil {
		return ConnectionStatus{Reachable: false, Reason: err.Error()}
	}
	return ConnectionStatus{
		Reachable:    true,
		CalendarName: cal.Summary,
		TimeZone:     cal.TimeZone,
	}
}
