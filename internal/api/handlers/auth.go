// Package handlers contains the HTTP handler implementations for the
// Subtrack API. Each handler declares the narrow service interfaces it
// depends on and receives implementations via its constructor, which keeps
// handlers decoupled from concrete services and easy to test.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"subtrack/internal/core"
	"subtrack/internal/types"
)

// AuthService abstracts account registration and session management for the
// auth endpoints.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (*types.User, *types.Session, error)
	Login(ctx context.Context, email, password string) (*types.User, *types.Session, error)
	Logout(ctx context.Context, token string) error
}

// SignupRequest is the request body for POST /v1/auth/signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the request body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by signup and login. The token is the opaque
// bearer credential clients send on subsequent requests.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expires_at"`
	User      *types.User `json:"user"`
}

// AuthHandler handles signup, login, and logout.
type AuthHandler struct {
	service   AuthService
	validator *core.Validator
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler with the provided dependencies.
func NewAuthHandler(svc AuthService, v *core.Validator, l *slog.Logger) *AuthHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AuthHandler{
		service:   svc,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts the auth endpoints. Signup and login are exempted
// from auth middleware by path; logout requires a valid session.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.Signup)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
}

// Signup handles POST /v1/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	user, session, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: AuthResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(timeFormat),
		User:      user,
	}})
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	user, session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: AuthResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(timeFormat),
		User:      user,
	}})
}

// Logout handles POST /v1/auth/logout. The auth middleware has already
// resolved the token; the handler re-extracts it to delete the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeAuthTokenMissing,
			"Authorization header is required",
			nil,
		))
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		core.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// timeFormat is the RFC3339 layout used for timestamps in auth responses.
const timeFormat = "2006-01-02T15:04:05Z07:00"

// bearerToken extracts the bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
