package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthServer(t *testing.T, refreshes *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "anon", r.Header.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "password":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret" {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error_description": "Invalid login credentials"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token":  "at-1",
				"refresh_token": "rt-1",
				"expires_at":    time.Now().Add(-time.Minute).Unix(),
				"user":          map[string]string{"id": "u1", "email": body["email"]},
			})
		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "refresh_token":
			atomic.AddInt32(refreshes, 1)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token":  "at-2",
				"refresh_token": "rt-2",
				"expires_at":    time.Now().Add(time.Hour).Unix(),
				"user":          map[string]string{"id": "u1"},
			})
		case r.URL.Path == "/auth/v1/signup":
			// email confirmation pending: user only, no session
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "u9", "email": "new@example.com"})
		case r.URL.Path == "/auth/v1/logout":
			require.Equal(t, "Bearer at-2", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestClient_SignInRefreshSignOut(t *testing.T) {
	var refreshes int32
	srv := newAuthServer(t, &refreshes)
	defer srv.Close()

	c := NewClient(srv.URL, "anon", srv.Client(), zap.NewNop())

	var events []Event
	unsubscribe := c.OnAuthStateChange(func(e Event, s *Session) { events = append(events, e) })
	defer unsubscribe()

	ctx := context.Background()
	s, err := c.SignIn(ctx, "me@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "u1", s.User.ID)

	// the token from sign-in is already expired, so the next read refreshes it
	current, err := c.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "at-2", current.AccessToken)
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshes))

	current, err = c.GetSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "at-2", current.AccessToken)
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshes))

	require.NoError(t, c.SignOut(ctx))
	current, err = c.GetSession(ctx)
	require.NoError(t, err)
	require.Nil(t, current)

	require.Equal(t, []Event{EventSignedIn, EventTokenRefreshed, EventSignedOut}, events)
}

func TestClient_SignInRejected(t *testing.T) {
	var refreshes int32
	srv := newAuthServer(t, &refreshes)
	defer srv.Close()

	c := NewClient(srv.URL, "anon", srv.Client(), zap.NewNop())
	_, err := c.SignIn(context.Background(), "me@example.com", "wrong")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "Invalid login credentials", apiErr.Message)
}

func TestClient_SignUpPendingConfirmation(t *testing.T) {
	var refreshes int32
	srv := newAuthServer(t, &refreshes)
	defer srv.Close()

	c := NewClient(srv.URL, "anon", srv.Client(), zap.NewNop())
	s, err := c.SignUp(context.Background(), "new@example.com", "secret")
	require.NoError(t, err)
	require.Nil(t, s)

	current, err := c.GetSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, current)
}

func TestSessionExpired(t *testing.T) {
	now := time.Unix(1000, 0)
	require.False(t, (&Session{}).Expired(now))
	require.True(t, (&Session{ExpiresAt: 1005}).Expired(now))
	require.False(t, (&Session{ExpiresAt: 2000}).Expired(now))
}
