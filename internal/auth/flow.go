// Package auth implements the Google OAuth 2.0 authorization-code flow with
// a loopback redirect listener, plus refresh-token recovery and logout.
package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/youcap/youcap/internal/browser"
	"github.com/youcap/youcap/internal/debuglog"
	"github.com/youcap/youcap/internal/storage"
)

const (
	authEndpoint  = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenEndpoint = "https://oauth2.googleapis.com/token"
	scope         = "https://www.googleapis.com/auth/youtube.readonly"
)

var (
	ErrMissingCredentials  = errors.New("OAuth credentials not configured")
	ErrNoAuthorizationCode = errors.New("no authorization code received")
	ErrNoAccessToken       = errors.New("no access token in response")
)

// State is the login flow's current position.
type State int

const (
	StateIdle State = iota
	StateAwaitingCallback
	StateExchangingCode
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCallback:
		return "awaiting-callback"
	case StateExchangingCode:
		return "exchanging-code"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TokenStore is the persistence boundary for the token pair.
type TokenStore interface {
	Tokens() storage.TokenPair
	SaveTokens(pair storage.TokenPair)
	ClearTokens()
}

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Events receives flow notifications. Nil funcs are skipped. None of the
// callbacks carry token material.
type Events struct {
	Authenticated func()
	Failed        func(err error)
	LoggedOut     func()
}

type FlowOption func(*Flow)

func WithHTTPClient(client HTTPClient) FlowOption {
	return func(f *Flow) { f.httpClient = client }
}

// WithEndpoints overrides the authorization and token endpoints (for tests).
func WithEndpoints(authURL, tokenURL string) FlowOption {
	return func(f *Flow) {
		f.authURL = authURL
		f.tokenURL = tokenURL
	}
}

// WithOpenURL overrides how the authorization URL is opened.
func WithOpenURL(open func(string) error) FlowOption {
	return func(f *Flow) { f.openURL = open }
}

func WithEvents(events Events) FlowOption {
	return func(f *Flow) { f.events = events }
}

// Flow drives the login state machine. The token pair mirrors what the store
// holds; the store is the durable side, the flow the in-memory side.
type Flow struct {
	clientID     string
	clientSecret string
	store        TokenStore
	httpClient   HTTPClient
	openURL      func(string) error
	authURL      string
	tokenURL     string
	events       Events

	mu          sync.Mutex
	state       State
	tokens      storage.TokenPair
	listener    net.Listener
	redirectURI string
}

func NewFlow(clientID, clientSecret string, store TokenStore, opts ...FlowOption) *Flow {
	f := &Flow{
		clientID:     clientID,
		clientSecret: clientSecret,
		store:        store,
		httpClient:   &http.Client{Timeout: 20 * time.Second},
		openURL:      browser.Open,
		authURL:      authEndpoint,
		tokenURL:     tokenEndpoint,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.tokens = store.Tokens()

	return f
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens.AccessToken != ""
}

func (f *Flow) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens.AccessToken
}

// Restore attempts to recover a session from persisted tokens: with no access
// token but a refresh token present, a refresh is issued before any
// authenticated call can proceed.
func (f *Flow) Restore(ctx context.Context) {
	f.mu.Lock()
	needsRefresh := f.tokens.AccessToken == "" && f.tokens.RefreshToken != ""
	f.mu.Unlock()

	if needsRefresh {
		f.RefreshAccessToken(ctx)
	}
}

// StartLogin binds an ephemeral loopback listener, opens the authorization
// URL in the browser, and waits for the redirect in the background. The
// outcome is delivered through the event callbacks.
func (f *Flow) StartLogin(ctx context.Context) error {
	if f.clientID == "" || f.clientSecret == "" {
		f.fail(ErrMissingCredentials)
		return ErrMissingCredentials
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		err = fmt.Errorf("starting callback listener: %w", err)
		f.fail(err)
		return err
	}

	redirectURI := fmt.Sprintf("http://127.0.0.1:%d", listener.Addr().(*net.TCPAddr).Port)

	f.mu.Lock()
	f.listener = listener
	f.redirectURI = redirectURI
	f.state = StateAwaitingCallback
	f.mu.Unlock()

	q := url.Values{}
	q.Set("client_id", f.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", scope)
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	authURL := f.authURL + "?" + q.Encode()

	if err := f.openURL(authURL); err != nil {
		debuglog.Warnf("auth: could not open browser: %v", err)
		fmt.Printf("Open this URL to authorize:\n%s\n", authURL)
	}

	go f.awaitCallback(ctx, listener)

	return nil
}

// awaitCallback serves the loopback redirect. Only the first connection
// carrying a code is honored; the listener is closed as soon as the code is
// parsed, so later connections are ignored.
func (f *Flow) awaitCallback(ctx context.Context, listener net.Listener) {
	conn, err := listener.Accept()
	if err != nil {
		// Listener closed under us (logout or shutdown)
		debuglog.Debugf("auth: callback listener closed: %v", err)
		return
	}
	defer conn.Close()

	code, err := readAuthCode(conn)
	if err != nil {
		writeCallbackPage(conn, false)
		listener.Close()
		f.fail(ErrNoAuthorizationCode)
		return
	}

	writeCallbackPage(conn, true)
	listener.Close()

	f.mu.Lock()
	f.state = StateExchangingCode
	f.mu.Unlock()

	f.exchangeCode(ctx, code)
}

var codePattern = regexp.MustCompile(`code=([^&\s]+)`)

// readAuthCode parses the redirect's raw request for the code query
// parameter, URL-decoded.
func readAuthCode(conn net.Conn) (string, error) {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	requestLine, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && requestLine == "" {
		return "", fmt.Errorf("reading callback request: %w", err)
	}

	match := codePattern.FindStringSubmatch(requestLine)
	if match == nil {
		return "", ErrNoAuthorizationCode
	}

	code, err := url.QueryUnescape(match[1])
	if err != nil {
		return "", fmt.Errorf("decoding authorization code: %w", err)
	}

	return code, nil
}

func writeCallbackPage(conn net.Conn, success bool) {
	var html string
	if success {
		html = `<html><body style="font-family: system-ui; text-align: center; padding: 50px;">
<h1>Authentication successful</h1>
<p>You can close this window and return to youcap.</p>
</body></html>`
	} else {
		html = `<html><body style="font-family: system-ui; text-align: center; padding: 50px;">
<h1>Authentication failed</h1>
<p>Please try again.</p>
</body></html>`
	}

	fmt.Fprintf(conn, "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nConnection: close\r\n\r\n%s", html)
}

func (f *Flow) exchangeCode(ctx context.Context, code string) {
	f.mu.Lock()
	redirectURI := f.redirectURI
	f.mu.Unlock()

	data := url.Values{}
	data.Set("code", code)
	data.Set("client_id", f.clientID)
	data.Set("client_secret", f.clientSecret)
	// Google validates an exact match against the URI used during
	// authorization, ephemeral port included.
	data.Set("redirect_uri", redirectURI)
	data.Set("grant_type", "authorization_code")

	token, err := f.postTokenRequest(ctx, data)
	if err != nil {
		f.fail(err)
		return
	}

	if token.AccessToken == "" {
		f.fail(ErrNoAccessToken)
		return
	}

	pair := storage.TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	f.mu.Lock()
	f.tokens = pair
	f.state = StateAuthenticated
	f.mu.Unlock()

	f.store.SaveTokens(pair)
	f.emitAuthenticated()
}

// RefreshAccessToken trades the refresh token for a new access token. A
// failure is a silent no-op so a stale session never interrupts startup; the
// user re-triggers StartLogin manually.
func (f *Flow) RefreshAccessToken(ctx context.Context) {
	f.mu.Lock()
	refreshToken := f.tokens.RefreshToken
	f.mu.Unlock()

	if refreshToken == "" || f.clientID == "" || f.clientSecret == "" {
		return
	}

	data := url.Values{}
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", f.clientID)
	data.Set("client_secret", f.clientSecret)
	data.Set("grant_type", "refresh_token")

	token, err := f.postTokenRequest(ctx, data)
	if err != nil {
		debuglog.Infof("auth: token refresh failed: %v", err)
		return
	}

	if token.AccessToken == "" {
		debuglog.Infof("auth: token refresh returned no access token")
		return
	}

	f.mu.Lock()
	f.tokens.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		f.tokens.RefreshToken = token.RefreshToken
	}
	pair := f.tokens
	f.state = StateAuthenticated
	f.mu.Unlock()

	f.store.SaveTokens(pair)
	f.emitAuthenticated()
}

// Logout clears the in-memory and persisted tokens synchronously.
func (f *Flow) Logout() {
	f.mu.Lock()
	f.tokens = storage.TokenPair{}
	f.state = StateIdle
	listener := f.listener
	f.listener = nil
	f.mu.Unlock()

	if listener != nil {
		listener.Close()
	}

	f.store.ClearTokens()

	if f.events.LoggedOut != nil {
		f.events.LoggedOut()
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (f *Flow) postTokenRequest(ctx context.Context, data url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed: status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}

	return &token, nil
}

func (f *Flow) fail(err error) {
	f.mu.Lock()
	f.state = StateFailed
	f.mu.Unlock()

	debuglog.Warnf("auth: login failed: %v", err)
	if f.events.Failed != nil {
		f.events.Failed(err)
	}
}

func (f *Flow) emitAuthenticated() {
	if f.events.Authenticated != nil {
		f.events.Authenticated()
	}
}
