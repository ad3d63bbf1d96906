// Package store is the single point of access to the backing store: row storage,
// auth session and realtime change notifications.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tropicaldog17/folio/internal/auth"
	"github.com/tropicaldog17/folio/internal/db"
	apperrors "github.com/tropicaldog17/folio/internal/errors"
	"github.com/tropicaldog17/folio/internal/logger"
	"github.com/tropicaldog17/folio/internal/realtime"
	"github.com/tropicaldog17/folio/internal/repositories"
)

// Authenticator is the part of the auth service the store depends on.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*auth.Session, error)
	OnAuthStateChange(fn auth.Listener) func()
}

// Publisher republishes row changes for backends without database triggers.
type Publisher interface {
	Publish(channel string, payload []byte) int
}

// Backend is what a Dialer connects for a (url, key) pair. Publisher is nil when
// the database publishes its own changes.
type Backend struct {
	DB        *db.DB
	Auth      Authenticator
	Realtime  realtime.Source
	Publisher Publisher
}

// Dialer connects the backend for the given store url and anonymous key.
type Dialer func(ctx context.Context, url, key string) (*Backend, error)

// Handle is the initialized store connection.
type Handle struct {
	backend         *Backend
	projects        repositories.ProjectRepository
	items           repositories.PortfolioItemRepository
	unsubscribeAuth func()
}

// DB returns the row store connection.
func (h *Handle) DB() *db.DB { return h.backend.DB }

// Client moves from uninitialized to initialized exactly once. The session is
// cached from the auth-change stream, or fetched once on first use.
type Client struct {
	dial  Dialer
	log   *zap.Logger
	now   func() time.Time
	newID func() string

	mu           sync.RWMutex
	handle       *Handle
	session      *auth.Session
	sessionKnown bool
}

// NewClient returns an uninitialized client that will connect through dial.
func NewClient(dial Dialer, log *zap.Logger) *Client {
	return &Client{
		dial:  dial,
		log:   logger.OrNop(log),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Initialize connects the store. Calling it again returns the existing handle.
func (c *Client) Initialize(ctx context.Context, url, key string) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != nil {
		return c.handle, nil
	}

	var missing []string
	if url == "" || strings.Contains(url, "<") {
		missing = append(missing, "url")
	}
	if key == "" || strings.Contains(key, "<") {
		missing = append(missing, "key")
	}
	if len(missing) > 0 {
		return nil, &apperrors.ConfigurationError{Missing: missing}
	}

	backend, err := c.dial(ctx, url, key)
	if err != nil {
		return nil, fmt.Errorf("failed to connect store: %w", err)
	}

	h := &Handle{
		backend:  backend,
		projects: repositories.NewProjectRepository(backend.DB),
		items:    repositories.NewPortfolioItemRepository(backend.DB, c.log),
	}
	h.unsubscribeAuth = backend.Auth.OnAuthStateChange(c.onAuthChange)
	c.handle = h

	c.log.Info("store client initialized")
	return h, nil
}

// Initialized reports whether Initialize has succeeded.
func (c *Client) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handle != nil
}

// Close releases the backend. The client is unusable afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.mu.Unlock()

	if h == nil {
		return nil
	}
	h.unsubscribeAuth()

	var errs []error
	if h.backend.Realtime != nil {
		errs = append(errs, h.backend.Realtime.Close())
	}
	errs = append(errs, h.backend.DB.Close())
	return errors.Join(errs...)
}

// Health pings the row store.
func (c *Client) Health() error {
	h, err := c.getHandle()
	if err != nil {
		return err
	}
	return h.backend.DB.Health()
}

func (c *Client) onAuthChange(event auth.Event, s *auth.Session) {
	c.mu.Lock()
	c.session = s
	c.sessionKnown = true
	c.mu.Unlock()
	c.log.Debug("auth state changed", zap.String("event", string(event)))
}

func (c *Client) getHandle() (*Handle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.handle == nil {
		return nil, apperrors.ErrNotInitialized
	}
	return c.handle, nil
}

// GetSession returns the cached session, fetching it when no auth change has been
// observed yet or when the cached token has expired. A nil session means signed out.
func (c *Client) GetSession(ctx context.Context) (*auth.Session, error) {
	h, err := c.getHandle()
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	cached, known := c.session, c.sessionKnown
	c.mu.RUnlock()
	if known && (cached == nil || !cached.Expired(c.now())) {
		return cached, nil
	}

	s, err := h.backend.Auth.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	c.mu.Lock()
	// an auth change that landed during the fetch wins
	if !c.sessionKnown || c.session == cached {
		c.session = s
		c.sessionKnown = true
	}
	s = c.session
	c.mu.Unlock()
	return s, nil
}

// AuthenticatedUserID returns the signed-in user's id or ErrAuthenticationRequired.
func (c *Client) AuthenticatedUserID(ctx context.Context) (string, error) {
	s, err := c.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if s == nil || s.User.ID == "" {
		return "", apperrors.ErrAuthenticationRequired
	}
	return s.User.ID, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	h, err := c.getHandle()
	if err != nil {
		return nil, err
	}
	return h.backend.Auth.SignIn(ctx, email, password)
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	h, err := c.getHandle()
	if err != nil {
		return nil, err
	}
	return h.backend.Auth.SignUp(ctx, email, password)
}

func (c *Client) SignOut(ctx context.Context) error {
	h, err := c.getHandle()
	if err != nil {
		return err
	}
	return h.backend.Auth.SignOut(ctx)
}
