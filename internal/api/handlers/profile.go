package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"subtrack/internal/core"
	"subtrack/internal/types"
)

// ProfileStore abstracts profile persistence for the profile endpoints.
type ProfileStore interface {
	// GetOrCreate returns the profile for the user, creating it with
	// defaults (free plan, EUR) on first read.
	GetOrCreate(ctx context.Context, userID string) (*types.UserProfile, error)
	UpdateCurrency(ctx context.Context, userID string, currency types.Currency) error
}

// UpdateProfileRequest is the request body for PATCH /v1/profile. Only the
// display currency is client-writable; the plan field moves exclusively
// through verified billing events.
type UpdateProfileRequest struct {
	Currency types.Currency `json:"currency" validate:"required,currency"`
}

// ProfileHandler serves the user profile endpoints.
type ProfileHandler struct {
	store     ProfileStore
	validator *core.Validator
	logger    *slog.Logger
}

// NewProfileHandler creates a ProfileHandler with the provided dependencies.
func NewProfileHandler(store ProfileStore, v *core.Validator, l *slog.Logger) *ProfileHandler {
	if l == nil {
		l = slog.Default()
	}
	return &ProfileHandler{
		store:     store,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts the profile endpoints.
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.Get)
	r.Patch("/profile", h.Update)
}

// Get handles GET /v1/profile. A missing profile row is not an error: the
// store creates one with defaults so every authenticated user always has a
// readable profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeAuthTokenMissing,
			"Authentication required",
			nil,
		))
		return
	}

	profile, err := h.store.GetOrCreate(r.Context(), actor.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: profile})
}

// Update handles PATCH /v1/profile. Requests carrying fields other than
// currency are rejected by the strict JSON decoder.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeAuthTokenMissing,
			"Authentication required",
			nil,
		))
		return
	}

	var req UpdateProfileRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.store.UpdateCurrency(r.Context(), actor.ID, req.Currency); err != nil {
		core.Error(w, r, err)
		return
	}

	profile, err := h.store.GetOrCreate(r.Context(), actor.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: profile})
}
