package calendar

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceronops/jobcal/internal/db/models"
)

func TestCredentialManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	refresher := &mockRefresher{
		ExchangeFn: func(_ context.Context, code string) (Token, error) {
			assert.Equal(t, "auth-code", code)
			return Token{AccessToken: "access-1", RefreshToken: "refresh-1", Expiry: clock.Now().Add(time.Hour)}, nil
		},
		RefreshFn: tokenSequence(clock),
	}
	m := NewCredentialManager(newTestCredentialRepo(t), refresher, clock.Now)

	state, err := m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateDisconnected, state)
	assert.False(t, m.Configured(ctx))

	_, err = m.EnsureValidToken(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)

	cred, err := m.Connect(ctx, "auth-code")
	require.NoError(t, err)
	assert.True(t, cred.Enabled)
	assert.True(t, cred.SyncEnabled)
	assert.Equal(t, "primary", cred.CalendarID)
	assert.Equal(t, []int{60, 1440}, cred.ReminderMinutes)

	state, err = m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateValid, state)
	assert.True(t, m.Configured(ctx))

	// valid token is returned without refreshing
	cred, err = m.EnsureValidToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", cred.AccessToken)
	assert.Equal(t, 0, refresher.refreshCalls())

	// inside the safety margin the token counts as expiring
	clock.Advance(56 * time.Minute)
	state, err = m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateExpiring, state)

	cred, err = m.EnsureValidToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", cred.AccessToken)
	assert.Equal(t, 1, refresher.refreshCalls())
	assert.Equal(t, "refresh-1", cred.RefreshToken, "refresh token is kept when none is returned")

	state, err = m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateValid, state, "refreshed token is persisted")

	require.NoError(t, m.Disconnect(ctx))
	state, err = m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateDisconnected, state)
}

func TestCredentialManager_ExactMarginIsExpiring(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := connectedManager(t, clock, &mockRefresher{RefreshFn: tokenSequence(clock)})

	clock.Advance(time.Hour - ExpiryMargin - time.Second)
	state, err := m.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateValid, state)

	clock.Advance(time.Second)
	state, err = m.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateExpiring, state)
}

func TestCredentialManager_ConcurrentRefresh(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	refresher := &mockRefresher{RefreshFn: tokenSequence(clock)}
	m := connectedManager(t, clock, refresher)
	clock.Advance(time.Hour)

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cred, err := m.EnsureValidToken(ctx)
			if assert.NoError(t, err) {
				tokens[i] = cred.AccessToken
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, refresher.refreshCalls())
	for _, tok := range tokens {
		assert.Equal(t, "access-2", tok)
	}
}

func TestCredentialManager_RefreshFailure(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	backendErr := &CalendarError{Op: "token refresh", StatusCode: 400, Err: errors.New("invalid_grant")}
	refresher := &mockRefresher{
		RefreshFn: func(context.Context, *models.CalendarCredential) (Token, error) { return Token{}, backendErr },
	}
	m := connectedManager(t, clock, refresher)

	_, err := m.Refresh(ctx)
	require.Error(t, err)
	var calErr *CalendarError
	assert.ErrorAs(t, err, &calErr)

	// the stored token is untouched
	cred, err := m.EnsureValidToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", cred.AccessToken)
}

func TestCredentialManager_SettingsAndSyncSwitch(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := connectedManager(t, clock, &mockRefresher{RefreshFn: tokenSequence(clock)})

	calID := "team@group.calendar.google.com"
	off := false
	cred, err := m.UpdateSettings(ctx, Settings{
		CalendarID:      &calID,
		SyncEnabled:     &off,
		ReminderMinutes: []int{15},
	})
	require.NoError(t, err)
	assert.Equal(t, calID, cred.CalendarID)
	assert.Equal(t, []int{15}, cred.ReminderMinutes)
	assert.False(t, m.Configured(ctx), "sync switched off")

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateValid, status.State)
	assert.False(t, status.SyncEnabled)
	require.NotNil(t, status.ExpiresAt)

	_, err = m.UpdateSettings(ctx, Settings{ReminderMinutes: []int{-1}})
	assert.Error(t, err)
}

func TestCredentialManager_NoRefresher(t *testing.T) {
	m := NewCredentialManager(newTestCredentialRepo(t), nil, nil)
	_, err := m.Connect(context.Background(), "code")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = m.Connect(context.Background(), "")
	assert.Error(t, err)
}

func TestCredentialManager_AuthURL(t *testing.T) {
	ctx := context.Background()

	m := NewCredentialManager(newTestCredentialRepo(t), &mockRefresher{}, nil)
	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, status.AuthURL, "backend refreshers hand out codes themselves")

	oauth := NewOAuthRefresher("client-1", "secret", "http://localhost/callback")
	m = NewCredentialManager(newTestCredentialRepo(t), oauth, nil)
	status, err = m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateDisconnected, status.State)
	require.NotEmpty(t, status.AuthURL)

	consent, err := url.Parse(status.AuthURL)
	require.NoError(t, err)
	assert.Equal(t, "client-1", consent.Query().Get("client_id"))
	assert.Equal(t, ConsentState, consent.Query().Get("state"))
}
