package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tropicaldog17/folio/internal/auth"
)

type AuthHandler struct {
	store StoreClient
}

func NewAuthHandler(store StoreClient) *AuthHandler {
	return &AuthHandler{store: store}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes the current auth state.
type SessionResponse struct {
	SignedIn bool       `json:"signed_in"`
	User     *auth.User `json:"user,omitempty"`
}

func sessionResponse(s *auth.Session) SessionResponse {
	if s == nil {
		return SessionResponse{}
	}
	u := s.User
	return SessionResponse{SignedIn: true, User: &u}
}

func decodeCredentials(r *http.Request) (credentials, bool) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		return c, false
	}
	c.Email = strings.TrimSpace(c.Email)
	return c, c.Email != "" && c.Password != ""
}

// HandleSignIn handles POST /api/auth/signin
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body credentials true "Email and password"
// @Success 200 {object} SessionResponse
// @Failure 400 {string} string "Bad request"
// @Failure 401 {string} string "Invalid credentials"
// @Router /auth/signin [post]
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(r)
	if !ok {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}
	s, err := h.store.SignIn(r.Context(), c.Email, c.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// HandleSignUp handles POST /api/auth/signup. When the account needs email
// confirmation the response reports signed_in=false.
// @Summary Sign up
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body credentials true "Email and password"
// @Success 201 {object} SessionResponse
// @Failure 400 {string} string "Bad request"
// @Router /auth/signup [post]
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(r)
	if !ok {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}
	s, err := h.store.SignUp(r.Context(), c.Email, c.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse(s))
}

// HandleSignOut handles POST /api/auth/signout
// @Summary Sign out
// @Tags auth
// @Success 204
// @Router /auth/signout [post]
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SignOut(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession handles GET /api/auth/session
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /auth/session [get]
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.GetSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}
