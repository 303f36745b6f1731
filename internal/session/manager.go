package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/driveway/internal/instrumentation"
	"github.com/teemow/driveway/internal/logging"
	"github.com/teemow/driveway/internal/proxy"
)

// API is the subset of backend-proxy operations the session manager needs.
type API interface {
	GetAuthorizationURL(ctx context.Context) (string, error)
	RedeemAuthorizationCode(ctx context.Context, code string) error
	GetStoredCredentials(ctx context.Context) (*proxy.Credentials, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
}

// State is the authentication state of the session.
type State int

const (
	// StateUnauthenticated means no usable access token is held.
	StateUnauthenticated State = iota

	// StateAuthenticated means a usable access token is held in memory.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// ErrUnauthenticated is returned when an access token is requested while
// the session holds none.
var ErrUnauthenticated = errors.New("session is not authenticated")

// RedemptionError wraps a failed authorization-code redemption. The
// consumed-code marker has been released, so redeeming the same code again
// is allowed.
type RedemptionError struct {
	Err error
}

func (e *RedemptionError) Error() string {
	return fmt.Sprintf("authorization code redemption failed: %v", e.Err)
}

func (e *RedemptionError) Unwrap() error { return e.Err }

// RefreshError wraps a failed access-token refresh. The session has been
// dropped to unauthenticated; a new connect flow is required.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("access token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

const (
	// expirySkew treats tokens expiring within this window as already
	// expired, so a token cannot lapse between snapshot and use.
	expirySkew = 10 * time.Second

	// refreshedTokenLifetime is assumed for tokens obtained via refresh.
	// The proxy's refresh operation returns only the access token; the
	// next expiry check re-refreshes if the assumption was optimistic.
	refreshedTokenLifetime = 50 * time.Minute
)

// Manager owns the OAuth token lifecycle: one-time authorization-code
// redemption, stored-credential validation, expiry detection, and silent
// refresh.
//
// The in-memory token is a single mutable slot: only the manager writes
// it, and every other component takes a snapshot through Token at call
// time.
type Manager struct {
	api     API
	codes   CodeStore
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	now     func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
	state State
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics sets the manager's metrics recorder.
func WithMetrics(metrics *instrumentation.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a session manager over the given proxy API and
// consumed-code store.
func NewManager(api API, codes CodeStore, opts ...ManagerOption) (*Manager, error) {
	if api == nil {
		return nil, fmt.Errorf("proxy API is required")
	}
	if codes == nil {
		return nil, fmt.Errorf("code store is required")
	}

	m := &Manager{
		api:    api,
		codes:  codes,
		logger: slog.Default(),
		now:    time.Now,
		state:  StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Establish brings the session into a usable state.
//
// When pendingCode carries a not-yet-consumed authorization code it is
// redeemed exactly once; the consumed marker is written before the
// redemption call so a rapid re-activation cannot redeem the same code
// twice, and released again if redemption fails so the user can retry.
// Afterwards (and on every activation without a code) stored credentials
// are fetched from the proxy: absent credentials leave the session
// unauthenticated without error, expired credentials trigger a silent
// refresh, and valid credentials are used directly.
func (m *Manager) Establish(ctx context.Context, pendingCode string) error {
	if pendingCode != "" {
		if err := m.redeemOnce(ctx, pendingCode); err != nil {
			m.metrics.RecordAuthAttempt(ctx, "failure")
			return err
		}
	}

	creds, err := m.api.GetStoredCredentials(ctx)
	if err != nil {
		m.metrics.RecordAuthAttempt(ctx, "failure")
		return fmt.Errorf("fetching stored credentials: %w", err)
	}
	if creds == nil {
		m.setUnauthenticated()
		m.metrics.RecordAuthAttempt(ctx, "unauthenticated")
		m.logger.Info("no stored credentials, session remains unauthenticated")
		return nil
	}

	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       creds.Expiry,
	}

	if m.expired(token) {
		m.logger.Debug("stored access token expired, refreshing",
			slog.String("token", logging.SanitizeToken(token.AccessToken)))

		if err := m.refresh(ctx, token); err != nil {
			m.setUnauthenticated()
			m.metrics.RecordAuthAttempt(ctx, "failure")
			return err
		}
	}

	m.setAuthenticated(token)
	m.metrics.RecordAuthAttempt(ctx, "success")
	m.logger.Info("session established", slog.String("state", m.State().String()))
	return nil
}

// redeemOnce redeems an authorization code at most once per code value.
// A code already marked consumed falls through silently: the credentials
// it produced are picked up by the stored-credentials path.
func (m *Manager) redeemOnce(ctx context.Context, code string) error {
	already, err := m.codes.MarkConsumed(code)
	if err != nil {
		return fmt.Errorf("checking consumed-code marker: %w", err)
	}
	if already {
		m.metrics.RecordCodeRedemption(ctx, "already_consumed")
		m.logger.Debug("authorization code already consumed, skipping redemption",
			slog.String("code", logging.SanitizeCode(code)))
		return nil
	}

	if err := m.api.RedeemAuthorizationCode(ctx, code); err != nil {
		// A retriable failure must not burn the code permanently.
		if releaseErr := m.codes.Release(code); releaseErr != nil {
			m.logger.Warn("failed to release consumed-code marker", logging.Err(releaseErr))
		}
		m.metrics.RecordCodeRedemption(ctx, "failure")
		return &RedemptionError{Err: err}
	}

	m.metrics.RecordCodeRedemption(ctx, "success")
	m.logger.Info("authorization code redeemed",
		slog.String("code", logging.SanitizeCode(code)))
	return nil
}

// refresh replaces token's access token via the proxy refresh operation.
func (m *Manager) refresh(ctx context.Context, token *oauth2.Token) error {
	accessToken, err := m.api.RefreshAccessToken(ctx, token.RefreshToken)
	if err != nil {
		m.metrics.RecordTokenRefresh(ctx, "failure")
		return &RefreshError{Err: err}
	}

	token.AccessToken = accessToken
	token.Expiry = m.now().Add(refreshedTokenLifetime)
	m.metrics.RecordTokenRefresh(ctx, "success")
	m.logger.Info("access token refreshed",
		slog.String("token", logging.SanitizeToken(accessToken)))
	return nil
}

// Token returns a snapshot of the current access token. If the held token
// has expired it is refreshed first, so an expired token is never handed
// out. Returns ErrUnauthenticated when the session holds no token; a
// failed refresh drops the session to unauthenticated and returns a
// RefreshError.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAuthenticated || m.token == nil {
		return "", ErrUnauthenticated
	}

	if m.expired(m.token) {
		if err := m.refresh(ctx, m.token); err != nil {
			m.token = nil
			m.state = StateUnauthenticated
			return "", err
		}
	}

	return m.token.AccessToken, nil
}

// Connect starts a fresh authorization flow and returns the provider URL
// the user must visit. A new flow always yields a new code value, so no
// consumed markers need clearing.
func (m *Manager) Connect(ctx context.Context) (string, error) {
	url, err := m.api.GetAuthorizationURL(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching authorization URL: %w", err)
	}
	return url, nil
}

// State returns the current authentication state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Authenticated reports whether the session holds an access token.
func (m *Manager) Authenticated() bool {
	return m.State() == StateAuthenticated
}

func (m *Manager) expired(token *oauth2.Token) bool {
	if token.Expiry.IsZero() {
		return false
	}
	return !m.now().Before(token.Expiry.Add(-expirySkew))
}

func (m *Manager) setAuthenticated(token *oauth2.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.state = StateAuthenticated
}

func (m *Manager) setUnauthenticated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	m.state = StateUnauthenticated
}
