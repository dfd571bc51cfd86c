package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"subtrack/internal/core"
	"subtrack/internal/stats"
	"subtrack/internal/types"
)

// SubscriptionStore abstracts subscription persistence. Every method is
// scoped to the owning user; a foreign subscription ID behaves exactly like
// a missing one.
type SubscriptionStore interface {
	Create(ctx context.Context, sub *types.Subscription) error
	GetByID(ctx context.Context, id, userID string) (*types.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]types.Subscription, error)
	Update(ctx context.Context, sub *types.Subscription) error
	Delete(ctx context.Context, id, userID string) error
}

// SubscriptionRequest is the request body for creating and updating a
// tracked subscription.
type SubscriptionRequest struct {
	Name            string             `json:"name" validate:"required,max=100"`
	PriceCents      int64              `json:"price_cents" validate:"required,min=1"`
	BillingCycle    types.BillingCycle `json:"billing_cycle" validate:"required,billing_cycle"`
	StartDate       time.Time          `json:"start_date" validate:"required"`
	NextBillingDate time.Time          `json:"next_billing_date" validate:"required"`
	Category        string             `json:"category" validate:"required,max=50"`
	LogoURL         string             `json:"logo_url" validate:"omitempty,url"`
}

// SubscriptionsHandler serves the tracked-subscription CRUD and the spending
// statistics endpoint.
type SubscriptionsHandler struct {
	store     SubscriptionStore
	validator *core.Validator
	logger    *slog.Logger
}

// NewSubscriptionsHandler creates a SubscriptionsHandler with the provided
// dependencies.
func NewSubscriptionsHandler(store SubscriptionStore, v *core.Validator, l *slog.Logger) *SubscriptionsHandler {
	if l == nil {
		l = slog.Default()
	}
	return &SubscriptionsHandler{
		store:     store,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts the subscription endpoints.
func (h *SubscriptionsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/stats", h.Stats)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /v1/subscriptions. Results come back sorted by next
// billing date.
func (h *SubscriptionsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, errAuthRequired())
		return
	}

	subs, err := h.store.ListByUser(r.Context(), actor.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: subs})
}

// Create handles POST /v1/subscriptions.
func (h *SubscriptionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, errAuthRequired())
		return
	}

	var req SubscriptionRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	sub := &types.Subscription{
		ID:              uuid.NewString(),
		UserID:          actor.ID,
		Name:            req.Name,
		PriceCents:      req.PriceCents,
		BillingCycle:    req.BillingCycle,
		StartDate:       req.StartDate,
		NextBillingDate: req.NextBillingDate,
		Category:        req.Category,
		LogoURL:         req.LogoURL,
	}
	if err := h.store.Create(r.Context(), sub); err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "subscription created",
		"subscription_id", sub.ID,
		"user_id", actor.ID,
	)
	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: sub})
}

// Get handles GET /v1/subscriptions/{id}.
func (h *SubscriptionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, errAuthRequired())
		return
	}

	sub, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"), actor.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: sub})
}

// Update handles PUT /v1/subscriptions/{id}. Full replacement of the
// client-writable fields.
func (h *SubscriptionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, errAuthRequired())
		return
	}

	var req SubscriptionRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	sub := &types.Subscription{
		ID:              chi.URLParam(r, "id"),
		UserID:          actor.ID,
		Name:            req.Name,
		PriceCents:      req.PriceCents,
		BillingCycle:    req.BillingCycle,
		StartDate:       req.StartDate,
		NextBillingDate: req.NextBillingDate,
		Category:        req.Category,
		LogoURL:         req.LogoURL,
	}
	if err := h.store.Update(r.Context(), sub); err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: sub})
}

// Delete handles DELETE /v1/subscriptions/{id}.
func (h *SubscriptionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, errAuthRequired())
		return
	}

	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id"), actor.ID); err != nil {
		core.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /v1/subscriptions/stats.
func (h *SubscriptionsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, errAuthRequired())
		return
	}

	subs, err := h.store.ListByUser(r.Context(), actor.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: stats.Compute(subs)})
}

// errAuthRequired is the error returned when a handler runs without an actor
// in context, which only happens if the auth middleware was bypassed.
func errAuthRequired() *types.AppError {
	return types.NewAppError(types.ErrCodeAuthTokenMissing, "Authentication required", nil)
}
