package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/ceronops/jobcal/internal/db/models"
)

// Token is an access token issued by the token backend
type Token struct {
	AccessToken string
	// RefreshToken is only set when the backend hands it out
	RefreshToken string
	Expiry       time.Time
}

// TokenRefresher exchanges authorization codes and refreshes access tokens
type TokenRefresher interface {
	ExchangeCode(ctx context.Context, code string) (Token, error)
	RefreshAccessToken(ctx context.Context, cred *models.CalendarCredential) (Token, error)
}

const (
	// DefaultRefreshTimeout bounds calls to the token backend
	DefaultRefreshTimeout = 15 * time.Second
	// DefaultTokenLifetime is assumed when the backend omits the expiry
	DefaultTokenLifetime = time.Hour
)

// BackendRefresher obtains tokens from a backend service that holds the OAuth
// client secret and the refresh token.
type BackendRefresher struct {
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

var _ TokenRefresher = &BackendRefresher{}

// NewBackendRefresher creates a refresher for the token backend at baseURL
func NewBackendRefresher(baseURL string, timeout time.Duration) *BackendRefresher {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	return &BackendRefresher{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		now:     time.Now,
	}
}

type backendTokenResponse struct {
	AccessToken string `json:"accessToken"`
	// ExpiryDate is epoch milliseconds
	ExpiryDate int64 `json:"expiryDate"`
}

// ExchangeCode posts the authorization code to {base}/exchange. A backend that
// keeps the tokens to itself answers without an access token; the returned
// Token is then empty and the caller refreshes to obtain one.
func (r *BackendRefresher) ExchangeCode(ctx context.Context, code string) (Token, error) {
	resp, err := r.post(ctx, "exchange", map[string]string{"code": code})
	if err != nil {
		return Token{}, err
	}
	if resp.AccessToken == "" {
		return Token{}, nil
	}
	return r.token(resp), nil
}

// RefreshAccessToken asks {base}/refresh for a new access token
func (r *BackendRefresher) RefreshAccessToken(ctx context.Context, _ *models.CalendarCredential) (Token, error) {
	resp, err := r.post(ctx, "refresh", map[string]string{})
	if err != nil {
		return Token{}, err
	}
	if resp.AccessToken == "" {
		return Token{}, &CalendarError{Op: "token refresh", Err: fmt.Errorf("token backend returned no access token")}
	}
	return r.token(resp), nil
}

func (r *BackendRefresher) token(resp backendTokenResponse) Token {
	if resp.ExpiryDate <= 0 {
		return Token{AccessToken: resp.AccessToken, Expiry: r.now().Add(DefaultTokenLifetime)}
	}
	return Token{AccessToken: resp.AccessToken, Expiry: time.UnixMilli(resp.ExpiryDate)}
}

func (r *BackendRefresher) post(ctx context.Context, op string, body interface{}) (backendTokenResponse, error) {
	var resp backendTokenResponse

	agent := fiber.Post(r.baseURL + "/" + op)
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(r.timeout)
	}
	agent.Set("Accept", "application/json")
	agent.JSON(body)

	statusCode, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return resp, &CalendarError{Op: "token " + op, Err: errs[0]}
	}
	if statusCode < 200 || statusCode >= 300 {
		return resp, &CalendarError{
			Op:         "token " + op,
			StatusCode: statusCode,
			Err:        fmt.Errorf("token backend responded: %s", strings.TrimSpace(string(respBody))),
		}
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return resp, &CalendarError{Op: "token " + op, Err: fmt.Errorf("error decoding response: %w", err)}
	}
	return resp, nil
}

// OAuthRefresher talks to the Google OAuth endpoint directly. It is meant for
// deployments where this server is itself the backend that holds the secret.
type OAuthRefresher struct {
	config     *oauth2.Config
	httpClient *http.Client
}

var (
	_ TokenRefresher = &OAuthRefresher{}
	_ consentURLer   = &OAuthRefresher{}
)

// OAuthOption configures an OAuthRefresher
type OAuthOption func(*OAuthRefresher)

// WithOAuthEndpoint overrides the Google OAuth endpoint
func WithOAuthEndpoint(endpoint oauth2.Endpoint) OAuthOption {
	return func(r *OAuthRefresher) { r.config.Endpoint = endpoint }
}

// WithOAuthHTTPClient sets the HTTP client used for token requests
func WithOAuthHTTPClient(c *http.Client) OAuthOption {
	return func(r *OAuthRefresher) { r.httpClient = c }
}

// NewOAuthRefresher creates a refresher for the given OAuth client
func NewOAuthRefresher(clientID, clientSecret, redirectURL string, opts ...OAuthOption) *OAuthRefresher {
	r := &OAuthRefresher{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{gcal.CalendarScope},
			Endpoint:     google.Endpoint,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AuthCodeURL returns the consent page URL for the given state
func (r *OAuthRefresher) AuthCodeURL(state string) string {
	return r.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (r *OAuthRefresher) context(ctx context.Context) context.Context {
	if r.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
}

// ExchangeCode trades an authorization code for tokens
func (r *OAuthRefresher) ExchangeCode(ctx context.Context, code string) (Token, error) {
	tok, err := r.config.Exchange(r.context(ctx), code)
	if err != nil {
		return Token{}, &CalendarError{Op: "token exchange", Err: err}
	}
	return Token{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken, Expiry: tok.Expiry}, nil
}

// RefreshAccessToken uses the stored refresh token to obtain a new access token
func (r *OAuthRefresher) RefreshAccessToken(ctx context.Context, cred *models.CalendarCredential) (Token, error) {
	if cred == nil || cred.RefreshToken == "" {
		return Token{}, fmt.Errorf("no refresh token stored: %w", ErrNotConfigured)
	}
	src := r.config.TokenSource(r.context(ctx), &oauth2.Token{RefreshToken: cred.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return Token{}, &CalendarError{Op: "token refresh", Err: err}
	}
	return Token{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken, Expiry: tok.Expiry}, nil
}
