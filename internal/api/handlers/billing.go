package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"subtrack/internal/core"
	"subtrack/internal/types"
)

// CheckoutIssuer abstracts checkout session creation for the billing handler.
type CheckoutIssuer interface {
	IssueCheckoutSession(ctx context.Context, userID, requestedPriceID string) (sessionID string, err error)
}

// CreateCheckoutRequest is the request body for POST /v1/billing/checkout-session.
// The price is optional when the server has a default configured.
type CreateCheckoutRequest struct {
	PriceID string `json:"price_id"`
}

// CheckoutResponse is the response body for POST /v1/billing/checkout-session.
// Clients pass the ID to Stripe.js to redirect into hosted checkout.
type CheckoutResponse struct {
	ID string `json:"id"`
}

// BillingHandler handles checkout session requests.
type BillingHandler struct {
	issuer CheckoutIssuer
	logger *slog.Logger
}

// NewBillingHandler creates a BillingHandler with the provided dependencies.
func NewBillingHandler(issuer CheckoutIssuer, l *slog.Logger) *BillingHandler {
	if l == nil {
		l = slog.Default()
	}
	return &BillingHandler{
		issuer: issuer,
		logger: l,
	}
}

// RegisterRoutes mounts the billing endpoints.
func (h *BillingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/billing/checkout-session", h.CreateCheckoutSession)
}

// CreateCheckoutSession handles POST /v1/billing/checkout-session. The body
// is optional; an absent body means "use the configured default price".
func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeAuthTokenMissing,
			"Authentication required",
			nil,
		))
		return
	}

	var req CreateCheckoutRequest
	if r.ContentLength > 0 {
		if err := core.DecodeJSON(w, r, &req); err != nil {
			core.Error(w, r, err)
			return
		}
	}

	sessionID, err := h.issuer.IssueCheckoutSession(r.Context(), actor.ID, req.PriceID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, CheckoutResponse{ID: sessionID})
}
