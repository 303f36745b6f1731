package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/driveway/internal/proxy"
)

type fakeAPI struct {
	authURL string
	authErr error

	redeemErr   error
	redeemCalls int

	creds    *proxy.Credentials
	credsErr error

	refreshedToken string
	refreshErr     error
	refreshCalls   int
	refreshedWith  string
}

func (f *fakeAPI) GetAuthorizationURL(ctx context.Context) (string, error) {
	return f.authURL, f.authErr
}

func (f *fakeAPI) RedeemAuthorizationCode(ctx context.Context, code string) error {
	f.redeemCalls++
	return f.redeemErr
}

func (f *fakeAPI) GetStoredCredentials(ctx context.Context) (*proxy.Credentials, error) {
	return f.creds, f.credsErr
}

func (f *fakeAPI) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	f.refreshCalls++
	f.refreshedWith = refreshToken
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	return f.refreshedToken, nil
}

func validCredentials(now time.Time) *proxy.Credentials {
	return &proxy.Credentials{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		Expiry:       now.Add(time.Hour),
	}
}

func TestEstablish_NoStoredCredentials(t *testing.T) {
	api := &fakeAPI{}
	m, err := NewManager(api, NewMemoryCodeStore())
	require.NoError(t, err)

	require.NoError(t, m.Establish(context.Background(), ""))

	assert.False(t, m.Authenticated())

	_, err = m.Token(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestEstablish_ValidCredentials(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{creds: validCredentials(now)}
	m, err := NewManager(api, NewMemoryCodeStore(),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	require.NoError(t, m.Establish(context.Background(), ""))

	assert.True(t, m.Authenticated())
	assert.Zero(t, api.refreshCalls)

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-token", token)
}

func TestEstablish_ExpiredCredentialsAreRefreshed(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{
		creds: &proxy.Credentials{
			AccessToken:  "stale-token",
			RefreshToken: "refresh-token",
			Expiry:       now.Add(-time.Minute),
		},
		refreshedToken: "fresh-token",
	}
	m, err := NewManager(api, NewMemoryCodeStore(),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	require.NoError(t, m.Establish(context.Background(), ""))

	assert.Equal(t, 1, api.refreshCalls)
	assert.Equal(t, "refresh-token", api.refreshedWith)

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
}

func TestEstablish_RefreshFailureDropsSession(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{
		creds: &proxy.Credentials{
			AccessToken:  "stale-token",
			RefreshToken: "refresh-token",
			Expiry:       now.Add(-time.Minute),
		},
		refreshErr: errors.New("proxy says no"),
	}
	m, err := NewManager(api, NewMemoryCodeStore(),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	err = m.Establish(context.Background(), "")
	require.Error(t, err)

	var refreshErr *RefreshError
	assert.ErrorAs(t, err, &refreshErr)
	assert.False(t, m.Authenticated())
}

func TestEstablish_CodeRedeemedAtMostOnce(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{creds: validCredentials(now)}
	m, err := NewManager(api, NewMemoryCodeStore(),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	// Two activations with the same code, as a reload of the redirected
	// URL would produce.
	require.NoError(t, m.Establish(context.Background(), "code-1"))
	require.NoError(t, m.Establish(context.Background(), "code-1"))

	assert.Equal(t, 1, api.redeemCalls)
	assert.True(t, m.Authenticated())
}

func TestEstablish_FailedRedemptionAllowsRetry(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{
		creds:     validCredentials(now),
		redeemErr: errors.New("transient"),
	}
	m, err := NewManager(api, NewMemoryCodeStore(),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	err = m.Establish(context.Background(), "code-1")
	require.Error(t, err)

	var redemptionErr *RedemptionError
	assert.ErrorAs(t, err, &redemptionErr)

	// The marker was released, so the same code can be redeemed again.
	api.redeemErr = nil
	require.NoError(t, m.Establish(context.Background(), "code-1"))

	assert.Equal(t, 2, api.redeemCalls)
	assert.True(t, m.Authenticated())
}

func TestToken_RefreshesWhenHeldTokenExpires(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{
		creds:          validCredentials(now),
		refreshedToken: "fresh-token",
	}
	m, err := NewManager(api, NewMemoryCodeStore(),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	require.NoError(t, m.Establish(context.Background(), ""))

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-token", token)

	// Let the held token lapse.
	now = now.Add(2 * time.Hour)

	token, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, 1, api.refreshCalls)
}

func TestToken_FailedRefreshDropsSession(t *testing.T) {
	now := time.Now()
	api := &fakeAPI{creds: validCredentials(now)}
	m, err := NewManager(api, NewMemoryCodeStore(),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	require.NoError(t, m.Establish(context.Background(), ""))

	now = now.Add(2 * time.Hour)
	api.refreshErr = errors.New("refresh token revoked")

	_, err = m.Token(context.Background())
	require.Error(t, err)

	var refreshErr *RefreshError
	assert.ErrorAs(t, err, &refreshErr)
	assert.False(t, m.Authenticated())
}

func TestConnect(t *testing.T) {
	api := &fakeAPI{authURL: "https://accounts.example.com/authorize?state=x"}
	m, err := NewManager(api, NewMemoryCodeStore())
	require.NoError(t, err)

	url, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.authURL, url)
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(nil, NewMemoryCodeStore())
	assert.Error(t, err)

	_, err = NewManager(&fakeAPI{}, nil)
	assert.Error(t, err)
}
