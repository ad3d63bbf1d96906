// Package auth talks to the backing store's GoTrue-compatible auth API and keeps the
// signed-in session in memory.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tropicaldog17/folio/internal/logger"
)

// Event names an auth state change.
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// User is the authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an access token pair for one user.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Expired reports whether the access token is past its expiry, with a small margin.
func (s *Session) Expired(now time.Time) bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return now.Add(10*time.Second).Unix() >= s.ExpiresAt
}

// Listener receives auth state changes. session is nil for EventSignedOut.
type Listener func(event Event, session *Session)

// Client is an auth API client.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	log        *zap.Logger
	now        func() time.Time

	mu        sync.RWMutex
	session   *Session
	listeners map[int]Listener
	nextID    int
}

// NewClient creates an auth client for the store at baseURL, authorised by anonKey.
func NewClient(baseURL, anonKey string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/auth/v1",
		anonKey:    anonKey,
		httpClient: httpClient,
		log:        logger.OrNop(log),
		now:        time.Now,
		listeners:  make(map[int]Listener),
	}
}

// OnAuthStateChange registers fn and returns a function that removes it.
func (c *Client) OnAuthStateChange(fn Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/token?grant_type=password", "", body, &s); err != nil {
		return nil, err
	}
	c.setSession(&s, EventSignedIn)
	return &s, nil
}

// SignUp registers a new account. When the service requires email confirmation no
// session is returned and the user stays signed out.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var raw json.RawMessage
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/signup", "", body, &raw); err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode signup response: %w", err)
	}
	if s.AccessToken == "" {
		return nil, nil
	}
	c.setSession(&s, EventSignedIn)
	return &s, nil
}

// SignOut revokes the current session. The local session is cleared even if the
// remote call fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.RLock()
	s := c.session
	c.mu.RUnlock()
	if s == nil {
		return nil
	}

	err := c.post(ctx, "/logout", s.AccessToken, nil, nil)
	c.setSession(nil, EventSignedOut)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// GetSession returns the current session, refreshing it when it has expired.
// A nil session without error means nobody is signed in.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.RLock()
	s := c.session
	c.mu.RUnlock()

	if s == nil || !s.Expired(c.now()) {
		return s, nil
	}
	if s.RefreshToken == "" {
		c.setSession(nil, EventSignedOut)
		return nil, nil
	}

	var refreshed Session
	body := map[string]string{"refresh_token": s.RefreshToken}
	if err := c.post(ctx, "/token?grant_type=refresh_token", "", body, &refreshed); err != nil {
		c.log.Warn("session refresh failed", zap.Error(err))
		c.setSession(nil, EventSignedOut)
		return nil, nil
	}
	c.setSession(&refreshed, EventTokenRefreshed)
	return &refreshed, nil
}

func (c *Client) setSession(s *Session, event Event) {
	c.mu.Lock()
	c.session = s
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(event, s)
	}
}

// APIError is a non-2xx response from the auth service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth service returned %d: %s", e.StatusCode, e.Message)
}

func (c *Client) post(ctx context.Context, path, bearer string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Msg              string `json:"msg"`
			Message          string `json:"message"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		msg := payload.ErrorDescription
		if msg == "" {
			msg = payload.Msg
		}
		if msg == "" {
			msg = payload.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
