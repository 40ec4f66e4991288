package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/db/repos"
	"github.com/ceronops/jobcal/internal/logger"
)

// ExpiryMargin is how long before expiry an access token is refreshed
const ExpiryMargin = 5 * time.Minute

// CredentialState is the lifecycle state of the calendar credential
type CredentialState string

const (
	// StateDisconnected means no credential is stored or it is disabled
	StateDisconnected CredentialState = "disconnected"
	// StateValid means the access token can be used as is
	StateValid CredentialState = "valid"
	// StateExpiring means the access token expires within ExpiryMargin
	StateExpiring CredentialState = "expiring"
)

// Settings are the user-editable parts of the credential. Nil fields are left unchanged.
type Settings struct {
	CalendarID      *string `json:"calendar_id,omitempty"`
	SyncEnabled     *bool   `json:"sync_enabled,omitempty"`
	ReminderMinutes []int   `json:"reminder_minutes,omitempty"`
}

// Status describes the credential without exposing tokens
type Status struct {
	State           CredentialState `json:"state"`
	Enabled         bool            `json:"enabled"`
	SyncEnabled     bool            `json:"sync_enabled"`
	CalendarID      string          `json:"calendar_id,omitempty"`
	ReminderMinutes []int           `json:"reminder_minutes,omitempty"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	// AuthURL is the consent page that yields a code for Connect, when the
	// server talks to Google OAuth itself
	AuthURL string `json:"auth_url,omitempty"`
}

// ConsentState is the OAuth state parameter of the consent URL
const ConsentState = "jobcal"

// consentURLer is implemented by refreshers that can send the user to a consent page
type consentURLer interface {
	AuthCodeURL(state string) string
}

// CredentialManager owns the process-wide calendar credential.
// Refreshes are serialized and the last write wins.
type CredentialManager struct {
	repo      *repos.CredentialRepository
	refresher TokenRefresher
	provider  string
	now       func() time.Time

	mu sync.Mutex
}

// NewCredentialManager creates a manager for the Google credential.
// refresher may be nil, in which case connecting and refreshing fail with ErrNotConfigured.
func NewCredentialManager(repo *repos.CredentialRepository, refresher TokenRefresher, now func() time.Time) *CredentialManager {
	if now == nil {
		now = time.Now
	}
	return &CredentialManager{
		repo:      repo,
		refresher: refresher,
		provider:  models.ProviderGoogle,
		now:       now,
	}
}

// load returns the stored credential or ErrNotConfigured
func (m *CredentialManager) load(ctx context.Context) (*models.CalendarCredential, error) {
	cred, err := m.repo.Get(ctx, m.provider)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, err
	}
	cred.Normalize()
	return cred, nil
}

func (m *CredentialManager) stateOf(cred *models.CalendarCredential) CredentialState {
	if cred == nil || !cred.Enabled || !cred.HasToken() {
		return StateDisconnected
	}
	if cred.AccessToken == "" || !m.now().Before(cred.Expiry().Add(-ExpiryMargin)) {
		return StateExpiring
	}
	return StateValid
}

// State returns the current credential state
func (m *CredentialManager) State(ctx context.Context) (CredentialState, error) {
	cred, err := m.load(ctx)
	if errors.Is(err, ErrNotConfigured) {
		return StateDisconnected, nil
	}
	if err != nil {
		return "", err
	}
	return m.stateOf(cred), nil
}

// Status returns a token-free summary of the credential
func (m *CredentialManager) Status(ctx context.Context) (Status, error) {
	cred, err := m.load(ctx)
	if errors.Is(err, ErrNotConfigured) {
		return Status{State: StateDisconnected, AuthURL: m.AuthURL()}, nil
	}
	if err != nil {
		return Status{}, err
	}
	expiry := cred.Expiry()
	return Status{
		State:           m.stateOf(cred),
		Enabled:         cred.Enabled,
		SyncEnabled:     cred.SyncEnabled,
		CalendarID:      cred.CalendarID,
		ReminderMinutes: cred.ReminderMinutes,
		ExpiresAt:       &expiry,
		AuthURL:         m.AuthURL(),
	}, nil
}

// AuthURL returns the consent page URL, or "" when codes come from elsewhere
func (m *CredentialManager) AuthURL() string {
	if c, ok := m.refresher.(consentURLer); ok {
		return c.AuthCodeURL(ConsentState)
	}
	return ""
}

// Configured reports whether sync can run: connected, enabled and with sync turned on
func (m *CredentialManager) Configured(ctx context.Context) bool {
	cred, err := m.load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotConfigured) {
			logger.Warnf("Failed to load calendar credential: %v", err)
		}
		return false
	}
	return cred.SyncEnabled && m.stateOf(cred) != StateDisconnected
}

// Connected reports whether a usable credential is stored, whatever the sync switch says
func (m *CredentialManager) Connected(ctx context.Context) bool {
	state, err := m.State(ctx)
	if err != nil {
		logger.Warnf("Failed to load calendar credential: %v", err)
		return false
	}
	return state != StateDisconnected
}

// Connect exchanges an authorization code and stores the resulting credential.
// When the exchange yields no access token, one is refreshed right away.
// Existing settings are kept.
func (m *CredentialManager) Connect(ctx context.Context, code string) (*models.CalendarCredential, error) {
	if code == "" {
		return nil, errors.New("authorization code is required")
	}
	if m.refresher == nil {
		return nil, fmt.Errorf("no token backend: %w", ErrNotConfigured)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tok, err := m.refresher.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	cred, err := m.load(ctx)
	if errors.Is(err, ErrNotConfigured) {
		cred = &models.CalendarCredential{Provider: m.provider, SyncEnabled: true}
		cred.Normalize()
	} else if err != nil {
		return nil, err
	}

	if tok.AccessToken == "" {
		if tok.RefreshToken != "" {
			cred.RefreshToken = tok.RefreshToken
		}
		tok, err = m.refresher.RefreshAccessToken(ctx, cred)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain access token after exchange: %w", err)
		}
	}

	cred.Enabled = true
	cred.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		cred.RefreshToken = tok.RefreshToken
	}
	cred.SetExpiry(tok.Expiry)
	if err := m.repo.Save(ctx, cred); err != nil {
		return nil, err
	}

	logger.InfoWithFields("Calendar connected", map[string]interface{}{
		"provider":    m.provider,
		"calendar_id": cred.CalendarID,
		"expires_at":  tok.Expiry,
	})
	return cred, nil
}

// EnsureValidToken returns a usable credential, refreshing the access token
// first when it is within ExpiryMargin of expiry.
func (m *CredentialManager) EnsureValidToken(ctx context.Context) (*models.CalendarCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	switch m.stateOf(cred) {
	case StateDisconnected:
		return nil, ErrNotConfigured
	case StateExpiring:
		return m.refreshLocked(ctx, cred)
	default:
		return cred, nil
	}
}

// Refresh unconditionally obtains a new access token
func (m *CredentialManager) Refresh(ctx context.Context) (*models.CalendarCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	if m.stateOf(cred) == StateDisconnected {
		return nil, ErrNotConfigured
	}
	return m.refreshLocked(ctx, cred)
}

func (m *CredentialManager) refreshLocked(ctx context.Context, cred *models.CalendarCredential) (*models.CalendarCredential, error) {
	if m.refresher == nil {
		return nil, fmt.Errorf("no token backend: %w", ErrNotConfigured)
	}

	tok, err := m.refresher.RefreshAccessToken(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	cred.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		cred.RefreshToken = tok.RefreshToken
	}
	cred.SetExpiry(tok.Expiry)
	if err := m.repo.Save(ctx, cred); err != nil {
		return nil, err
	}

	logger.Debugf("Calendar access token refreshed, expires at %s", tok.Expiry.Format(time.RFC3339))
	return cred, nil
}

// UpdateSettings changes calendar id, reminders or the sync switch of a connected credential
func (m *CredentialManager) UpdateSettings(ctx context.Context, s Settings) (*models.CalendarCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	if s.CalendarID != nil {
		cred.CalendarID = *s.CalendarID
	}
	if s.SyncEnabled != nil {
		cred.SyncEnabled = *s.SyncEnabled
	}
	if s.ReminderMinutes != nil {
		for _, minutes := range s.ReminderMinutes {
			if minutes < 0 {
				return nil, fmt.Errorf("reminder minutes must not be negative: %d", minutes)
			}
		}
		cred.ReminderMinutes = s.ReminderMinutes
	}
	cred.Normalize()
	if err := m.repo.Save(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// Disconnect removes the stored credential
func (m *CredentialManager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.repo.Delete(ctx, m.provider); err != nil {
		return err
	}
	logger.Infof("Calendar %s disconnected", m.provider)
	return nil
}
