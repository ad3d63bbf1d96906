package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tropicaldog17/folio/internal/auth"
	"github.com/tropicaldog17/folio/internal/db"
	apperrors "github.com/tropicaldog17/folio/internal/errors"
	"github.com/tropicaldog17/folio/internal/models"
	"github.com/tropicaldog17/folio/internal/realtime"
)

type fakeAuth struct {
	mu        sync.Mutex
	session   *auth.Session
	getCalls  int
	listeners []auth.Listener
}

func (f *fakeAuth) set(s *auth.Session, event auth.Event) {
	f.mu.Lock()
	f.session = s
	listeners := append([]auth.Listener(nil), f.listeners...)
	f.mu.Unlock()
	for _, l := range listeners {
		l(event, s)
	}
}

func (f *fakeAuth) SignIn(_ context.Context, email, _ string) (*auth.Session, error) {
	s := &auth.Session{AccessToken: "token-" + email, User: auth.User{ID: email, Email: email}}
	f.set(s, auth.EventSignedIn)
	return s, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	return f.SignIn(ctx, email, password)
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.set(nil, auth.EventSignedOut)
	return nil
}

func (f *fakeAuth) GetSession(context.Context) (*auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	return f.session, nil
}

func (f *fakeAuth) OnAuthStateChange(fn auth.Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {}
}

type testStore struct {
	client *Client
	auth   *fakeAuth
	hub    *realtime.MemorySource
	dials  int
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	ts := &testStore{auth: &fakeAuth{}, hub: realtime.NewMemorySource()}
	dial := func(ctx context.Context, url, key string) (*Backend, error) {
		ts.dials++
		database, err := db.OpenSQLite(":memory:")
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(database); err != nil {
			return nil, err
		}
		return &Backend{DB: database, Auth: ts.auth, Realtime: ts.hub, Publisher: ts.hub}, nil
	}
	ts.client = NewClient(dial, zap.NewNop())
	t.Cleanup(func() { _ = ts.client.Close() })
	return ts
}

func (ts *testStore) init(t *testing.T) {
	t.Helper()
	_, err := ts.client.Initialize(context.Background(), "https://store.local", "anon-key")
	require.NoError(t, err)
}

func newPortfolioItem(symbol string) models.PortfolioItem {
	return models.PortfolioItem{
		CoinID:   "bitcoin",
		Name:     "Bitcoin",
		Symbol:   symbol,
		Quantity: decimal.NewFromInt(1),
	}
}

func TestClient_OperationsBeforeInitialize(t *testing.T) {
	ctx := context.Background()
	ts := newTestStore(t)

	_, err := ts.client.ListProjects(ctx)
	require.ErrorIs(t, err, apperrors.ErrNotInitialized)
	_, err = ts.client.ListPortfolioItems(ctx, "")
	require.ErrorIs(t, err, apperrors.ErrNotInitialized)
	_, err = ts.client.AddPortfolioItem(ctx, newPortfolioItem("btc"))
	require.ErrorIs(t, err, apperrors.ErrNotInitialized)
	_, err = ts.client.GetSession(ctx)
	require.ErrorIs(t, err, apperrors.ErrNotInitialized)
	_, err = ts.client.SubscribeToProjectChanges(ctx, func(models.ChangeEvent, models.Project) error { return nil })
	require.ErrorIs(t, err, apperrors.ErrNotInitialized)
	require.False(t, ts.client.Initialized())
}

func TestClient_InitializeRejectsMissingCredentials(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		url     string
		key     string
		missing []string
	}{
		{name: "both empty", missing: []string{"url", "key"}},
		{name: "placeholder url", url: "<your-project-url>", key: "k", missing: []string{"url"}},
		{name: "placeholder key", url: "https://x", key: "<anon-key>", missing: []string{"key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestStore(t)
			_, err := ts.client.Initialize(ctx, tt.url, tt.key)
			var cfgErr *apperrors.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			require.Equal(t, tt.missing, cfgErr.Missing)
			require.Zero(t, ts.dials)
		})
	}
}

func TestClient_InitializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ts := newTestStore(t)

	first, err := ts.client.Initialize(ctx, "https://store.local", "anon-key")
	require.NoError(t, err)
	_, err = ts.client.SignIn(ctx, "u1", "pw")
	require.NoError(t, err)

	second, err := ts.client.Initialize(ctx, "https://other.local", "other-key")
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, ts.dials)

	s, err := ts.client.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, "u1", s.User.ID)
	require.Zero(t, ts.auth.getCalls)
}

func TestClient_GetSessionFetchesOnce(t *testing.T) {
	ctx := context.Background()
	ts := newTestStore(t)
	ts.auth.session = &auth.Session{User: auth.User{ID: "u1"}}
	ts.init(t)

	for i := 0; i < 3; i++ {
		uid, err := ts.client.AuthenticatedUserID(ctx)
		require.NoError(t, err)
		require.Equal(t, "u1", uid)
	}
	require.Equal(t, 1, ts.auth.getCalls)

	require.NoError(t, ts.client.SignOut(ctx))
	_, err := ts.client.AuthenticatedUserID(ctx)
	require.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)
}

func TestClient_GetSessionRefetchesExpiredSession(t *testing.T) {
	ctx := context.Background()
	ts := newTestStore(t)
	ts.init(t)

	stale := &auth.Session{AccessToken: "old", ExpiresAt: time.Now().Add(-time.Minute).Unix(), User: auth.User{ID: "u1"}}
	ts.auth.set(stale, auth.EventSignedIn)

	fresh := &auth.Session{AccessToken: "new", ExpiresAt: time.Now().Add(time.Hour).Unix(), User: auth.User{ID: "u1"}}
	ts.auth.mu.Lock()
	ts.auth.session = fresh
	ts.auth.mu.Unlock()

	s, err := ts.client.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "new", s.AccessToken)
	require.Equal(t, 1, ts.auth.getCalls)

	s, err = ts.client.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "new", s.AccessToken)
	require.Equal(t, 1, ts.auth.getCalls)
}

func TestClient_ProjectsRequireAuthentication(t *testing.T) {
	ctx := context.Background()
	ts := newTestStore(t)
	ts.init(t)

	list, err := ts.client.ListProjects(ctx)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	_, err = ts.client.CreateProject(ctx, models.Project{Title: "x", URL: "https://x.com"})
	require.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)
	title := "y"
	_, err = ts.client.UpdateProject(ctx, "p1", models.ProjectPatch{Title: &title})
	require.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)
	require.ErrorIs(t, ts.client.DeleteProject(ctx, "p1"), apperrors.ErrAuthenticationRequired)
}

func TestClient_ProjectsAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	ts := newTestStore(t)
	ts.init(t)

	_, err := ts.client.SignIn(ctx, "alice", "pw")
	require.NoError(t, err)
	created, err := ts.client.CreateProject(ctx, models.Project{Title: " Docs ", URL: "https://docs.example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "alice", created.UserID)
	require.Equal(t, "Docs", created.Title)
	require.NotNil(t, created.CreatedAt)

	_, err = ts.client.SignIn(ctx, "bob", "pw")
	require.NoError(t, err)
	list, err := ts.client.ListProjects(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
	require.ErrorIs(t, ts.client.DeleteProject(ctx, created.ID), apperrors.ErrNotFound)

	_, err = ts.client.SignIn(ctx, "alice", "pw")
	require.NoError(t, err)
	title := "Handbook"
	updated, err := ts.client.UpdateProject(ctx, created.ID, models.ProjectPatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Handbook", updated.Title)
	require.NoError(t, ts.client.DeleteProject(ctx, created.ID))
}

func TestClient_AddPortfolioItemOwnership(t *testing.T) {
	ctx := context.Background()
	ts := newTestStore(t)
	ts.init(t)

	public, err := ts.client.AddPortfolioItem(ctx, newPortfolioItem("btc"))
	require.NoError(t, err)
	require.Nil(t, public.UserID)
	require.Equal(t, "BTC", public.Symbol)

	_, err = ts.client.SignIn(ctx, "alice", "pw")
	require.NoError(t, err)
	owned, err := ts.client.AddPortfolioItem(ctx, newPortfolioItem("eth"))
	require.NoError(t, err)
	require.NotNil(t, owned.UserID)
	require.Equal(t, "alice", *owned.UserID)

	byOwner, err := ts.client.ListPortfolioItems(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	require.Equal(t, owned.ID, byOwner[0].ID)

	q := decimal.NewFromInt(5)
	patched, err := ts.client.UpdatePortfolioItem(ctx, owned.ID, models.PortfolioItemPatch{Quantity: &q})
	require.NoError(t, err)
	require.True(t, patched.Quantity.Equal(q))

	_, err = ts.client.UpdatePortfolioItem(ctx, public.ID, models.PortfolioItemPatch{Quantity: &q})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.NoError(t, ts.client.DeletePortfolioItem(ctx, owned.ID))
}

func TestClient_PortfolioItemQuantityMustBePositive(t *testing.T) {
	ctx := context.Background()
	ts := newTestStore(t)
	ts.init(t)
	_, err := ts.client.SignIn(ctx, "alice", "pw")
	require.NoError(t, err)

	for _, qty := range []int64{-3, 0} {
		item := newPortfolioItem("btc")
		item.Quantity = decimal.NewFromInt(qty)
		_, err := ts.client.AddPortfolioItem(ctx, item)
		require.True(t, apperrors.IsValidation(err), "quantity %d", qty)
	}
	rows, err := ts.client.ListPortfolioItems(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, rows)

	owned, err := ts.client.AddPortfolioItem(ctx, newPortfolioItem("btc"))
	require.NoError(t, err)

	negative := decimal.NewFromInt(-1)
	_, err = ts.client.UpdatePortfolioItem(ctx, owned.ID, models.PortfolioItemPatch{Quantity: &negative})
	require.True(t, apperrors.IsValidation(err))

	rows, err = ts.client.ListPortfolioItems(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].Quantity.Equal(decimal.NewFromInt(1)))
}

func TestClient_PublicAndOwnedItemsAreDisjoint(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("signed-out and signed-in lists partition the inserts", prop.ForAll(
		func(signedIn []bool) bool {
			ctx := context.Background()
			ts := newTestStore(t)
			ts.init(t)

			for _, in := range signedIn {
				if in {
					_, _ = ts.client.SignIn(ctx, "owner", "pw")
				} else {
					_ = ts.client.SignOut(ctx)
				}
				if _, err := ts.client.AddPortfolioItem(ctx, newPortfolioItem("btc")); err != nil {
					return false
				}
			}

			_ = ts.client.SignOut(ctx)
			public, err := ts.client.ListPortfolioItems(ctx, "")
			if err != nil {
				return false
			}
			_, _ = ts.client.SignIn(ctx, "owner", "pw")
			owned, err := ts.client.ListPortfolioItems(ctx, "")
			if err != nil {
				return false
			}

			seen := make(map[string]bool)
			for _, it := range public {
				if it.UserID != nil {
					return false
				}
				seen[it.ID] = true
			}
			for _, it := range owned {
				if it.UserID == nil || *it.UserID != "owner" || seen[it.ID] {
					return false
				}
			}
			return len(public)+len(owned) == len(signedIn)
		},
		gen.SliceOfN(8, gen.Bool()),
	))

	properties.TestingRun(t)
}

func TestClient_SubscribeToProjectChanges(t *testing.T) {
	ctx := context.Background()
	ts := newTestStore(t)
	ts.init(t)

	_, err := ts.client.SubscribeToProjectChanges(ctx, func(models.ChangeEvent, models.Project) error { return nil })
	require.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)

	_, err = ts.client.SignIn(ctx, "alice", "pw")
	require.NoError(t, err)

	events := make(chan models.ChangeEvent, 8)
	calls := 0
	dispose, err := ts.client.SubscribeToProjectChanges(ctx, func(event models.ChangeEvent, p models.Project) error {
		calls++
		if calls == 1 {
			panic("handler blew up")
		}
		events <- event
		if calls == 2 {
			return errors.New("handler failed")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, ts.hub.Subscribers(realtime.ProjectsChannel))

	foreign, err := realtime.EncodeChange("INSERT", models.Project{ID: "x", UserID: "mallory"}, nil)
	require.NoError(t, err)
	ts.hub.Publish(realtime.ProjectsChannel, foreign)

	created, err := ts.client.CreateProject(ctx, models.Project{Title: "A", URL: "https://a.io"})
	require.NoError(t, err)
	title := "B"
	_, err = ts.client.UpdateProject(ctx, created.ID, models.ProjectPatch{Title: &title})
	require.NoError(t, err)
	require.NoError(t, ts.client.DeleteProject(ctx, created.ID))

	var got []models.ChangeEvent
	for len(got) < 2 {
		select {
		case e := <-events:
			got = append(got, e)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for events, got %v", got)
		}
	}
	require.Equal(t, []models.ChangeEvent{models.ChangeUpdate, models.ChangeDelete}, got)

	require.NoError(t, dispose())
	require.NoError(t, dispose())
	require.Zero(t, ts.hub.Subscribers(realtime.ProjectsChannel))
}
