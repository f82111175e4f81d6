package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youcap/youcap/internal/storage"
)

type fakeTokenStore struct {
	mu      sync.Mutex
	pair    storage.TokenPair
	saves   int
	cleared int
}

func (s *fakeTokenStore) Tokens() storage.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair
}

func (s *fakeTokenStore) SaveTokens(pair storage.TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.saves++
}

func (s *fakeTokenStore) ClearTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = storage.TokenPair{}
	s.cleared++
}

func TestReadAuthCode(t *testing.T) {
	tests := []struct {
		name    string
		request string
		want    string
		wantErr bool
	}{
		{
			name:    "plain code",
			request: "GET /?code=abc123&scope=youtube HTTP/1.1\r\n",
			want:    "abc123",
		},
		{
			name:    "url-encoded code",
			request: "GET /?code=4%2F0Axyz-token HTTP/1.1\r\n",
			want:    "4/0Axyz-token",
		},
		{
			name:    "error redirect without code",
			request: "GET /?error=access_denied HTTP/1.1\r\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			go func() {
				client.Write([]byte(tt.request))
			}()

			code, err := readAuthCode(server)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestStartLogin_MissingCredentials(t *testing.T) {
	failed := make(chan error, 1)
	flow := NewFlow("", "", &fakeTokenStore{}, WithEvents(Events{
		Failed: func(err error) { failed <- err },
	}))

	err := flow.StartLogin(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Equal(t, StateFailed, flow.State())

	select {
	case err := <-failed:
		assert.ErrorIs(t, err, ErrMissingCredentials)
	case <-time.After(time.Second):
		t.Fatal("expected Failed event")
	}
}

// simulateBrowser returns an openURL func that parses the redirect URI out of
// the authorization URL and visits it the way a browser redirect would.
func simulateBrowser(t *testing.T, path string) func(string) error {
	t.Helper()
	return func(authURL string) error {
		parsed, err := url.Parse(authURL)
		require.NoError(t, err)
		redirectURI := parsed.Query().Get("redirect_uri")
		require.NotEmpty(t, redirectURI)

		go func() {
			resp, err := http.Get(redirectURI + path)
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func TestStartLogin_HappyPath(t *testing.T) {
	var tokenForm url.Values
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		tokenForm = r.PostForm
		fmt.Fprint(w, `{"access_token":"access-1","refresh_token":"refresh-1","token_type":"Bearer","expires_in":3599}`)
	}))
	defer tokenServer.Close()

	store := &fakeTokenStore{}
	authed := make(chan struct{}, 1)

	flow := NewFlow("client-id", "client-secret", store,
		WithEndpoints("http://auth.invalid", tokenServer.URL),
		WithOpenURL(simulateBrowser(t, "/?code=abc123&scope=youtube")),
		WithEvents(Events{Authenticated: func() { authed <- struct{}{} }}),
	)

	require.NoError(t, flow.StartLogin(context.Background()))

	select {
	case <-authed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected Authenticated event")
	}

	assert.Equal(t, StateAuthenticated, flow.State())
	assert.Equal(t, "access-1", flow.AccessToken())
	assert.True(t, flow.IsAuthenticated())

	pair := store.Tokens()
	assert.Equal(t, "access-1", pair.AccessToken)
	assert.Equal(t, "refresh-1", pair.RefreshToken)

	assert.Equal(t, "authorization_code", tokenForm.Get("grant_type"))
	assert.Equal(t, "abc123", tokenForm.Get("code"))
	assert.Equal(t, "client-id", tokenForm.Get("client_id"))
	assert.Contains(t, tokenForm.Get("redirect_uri"), "http://127.0.0.1:")
}

func TestStartLogin_NoCodeInRedirect(t *testing.T) {
	store := &fakeTokenStore{}
	failed := make(chan error, 1)

	flow := NewFlow("client-id", "client-secret", store,
		WithEndpoints("http://auth.invalid", "http://token.invalid"),
		WithOpenURL(simulateBrowser(t, "/?error=access_denied")),
		WithEvents(Events{Failed: func(err error) { failed <- err }}),
	)

	require.NoError(t, flow.StartLogin(context.Background()))

	select {
	case err := <-failed:
		assert.ErrorIs(t, err, ErrNoAuthorizationCode)
	case <-time.After(5 * time.Second):
		t.Fatal("expected Failed event")
	}

	assert.Equal(t, StateFailed, flow.State())
	assert.False(t, flow.IsAuthenticated())
	assert.Equal(t, 0, store.saves)
}

func TestStartLogin_EmptyAccessToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"token_type":"Bearer"}`)
	}))
	defer tokenServer.Close()

	failed := make(chan error, 1)
	flow := NewFlow("client-id", "client-secret", &fakeTokenStore{},
		WithEndpoints("http://auth.invalid", tokenServer.URL),
		WithOpenURL(simulateBrowser(t, "/?code=abc123")),
		WithEvents(Events{Failed: func(err error) { failed <- err }}),
	)

	require.NoError(t, flow.StartLogin(context.Background()))

	select {
	case err := <-failed:
		assert.ErrorIs(t, err, ErrNoAccessToken)
	case <-time.After(5 * time.Second):
		t.Fatal("expected Failed event")
	}
}

func TestStartLogin_TokenServerError(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer tokenServer.Close()

	failed := make(chan error, 1)
	flow := NewFlow("client-id", "client-secret", &fakeTokenStore{},
		WithEndpoints("http://auth.invalid", tokenServer.URL),
		WithOpenURL(simulateBrowser(t, "/?code=abc123")),
		WithEvents(Events{Failed: func(err error) { failed <- err }}),
	)

	require.NoError(t, flow.StartLogin(context.Background()))

	select {
	case err := <-failed:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("expected Failed event")
	}
	assert.Equal(t, StateFailed, flow.State())
}

func TestRefreshAccessToken(t *testing.T) {
	var refreshForm url.Values
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		refreshForm = r.PostForm
		// Google omits the refresh token on refresh responses
		fmt.Fprint(w, `{"access_token":"access-2","token_type":"Bearer","expires_in":3599}`)
	}))
	defer tokenServer.Close()

	store := &fakeTokenStore{pair: storage.TokenPair{RefreshToken: "refresh-1"}}
	flow := NewFlow("client-id", "client-secret", store,
		WithEndpoints("http://auth.invalid", tokenServer.URL),
	)

	flow.RefreshAccessToken(context.Background())

	assert.Equal(t, "refresh_token", refreshForm.Get("grant_type"))
	assert.Equal(t, "refresh-1", refreshForm.Get("refresh_token"))

	assert.Equal(t, "access-2", flow.AccessToken())
	pair := store.Tokens()
	assert.Equal(t, "access-2", pair.AccessToken)
	assert.Equal(t, "refresh-1", pair.RefreshToken, "refresh token survives when the response omits it")
}

func TestRefreshAccessToken_FailureIsSilent(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer tokenServer.Close()

	store := &fakeTokenStore{pair: storage.TokenPair{RefreshToken: "stale"}}
	flow := NewFlow("client-id", "client-secret", store,
		WithEndpoints("http://auth.invalid", tokenServer.URL),
	)

	flow.RefreshAccessToken(context.Background())

	assert.Equal(t, "", flow.AccessToken())
	assert.Equal(t, 0, store.saves)
	assert.Equal(t, StateIdle, flow.State())
}

func TestRefreshAccessToken_NoRefreshToken(t *testing.T) {
	called := false
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer tokenServer.Close()

	flow := NewFlow("client-id", "client-secret", &fakeTokenStore{},
		WithEndpoints("http://auth.invalid", tokenServer.URL),
	)

	flow.RefreshAccessToken(context.Background())
	assert.False(t, called)
}

func TestRestore(t *testing.T) {
	var calls int
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"access_token":"restored","token_type":"Bearer"}`)
	}))
	defer tokenServer.Close()

	t.Run("refreshes when only refresh token persisted", func(t *testing.T) {
		calls = 0
		store := &fakeTokenStore{pair: storage.TokenPair{RefreshToken: "refresh-1"}}
		flow := NewFlow("client-id", "client-secret", store,
			WithEndpoints("http://auth.invalid", tokenServer.URL),
		)

		flow.Restore(context.Background())

		assert.Equal(t, 1, calls)
		assert.Equal(t, "restored", flow.AccessToken())
	})

	t.Run("no-op with access token present", func(t *testing.T) {
		calls = 0
		store := &fakeTokenStore{pair: storage.TokenPair{AccessToken: "live", RefreshToken: "refresh-1"}}
		flow := NewFlow("client-id", "client-secret", store,
			WithEndpoints("http://auth.invalid", tokenServer.URL),
		)

		flow.Restore(context.Background())

		assert.Equal(t, 0, calls)
		assert.Equal(t, "live", flow.AccessToken())
	})

	t.Run("no-op with nothing persisted", func(t *testing.T) {
		calls = 0
		flow := NewFlow("client-id", "client-secret", &fakeTokenStore{},
			WithEndpoints("http://auth.invalid", tokenServer.URL),
		)

		flow.Restore(context.Background())
		assert.Equal(t, 0, calls)
	})
}

func TestLogout(t *testing.T) {
	store := &fakeTokenStore{pair: storage.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}}
	loggedOut := make(chan struct{}, 1)

	flow := NewFlow("client-id", "client-secret", store,
		WithEvents(Events{LoggedOut: func() { loggedOut <- struct{}{} }}),
	)
	require.True(t, flow.IsAuthenticated())

	flow.Logout()

	assert.False(t, flow.IsAuthenticated())
	assert.Equal(t, StateIdle, flow.State())
	assert.Equal(t, 1, store.cleared)
	assert.Equal(t, storage.TokenPair{}, store.Tokens())

	select {
	case <-loggedOut:
	case <-time.After(time.Second):
		t.Fatal("expected LoggedOut event")
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting-callback", StateAwaitingCallback.String())
	assert.Equal(t, "exchanging-code", StateExchangingCode.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "failed", StateFailed.String())
}
