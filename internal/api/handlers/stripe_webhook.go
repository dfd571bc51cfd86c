// This file implements the Stripe webhook receiver. The endpoint is NOT
// behind auth middleware; it is called directly by Stripe and authenticates
// via the Stripe-Signature header (HMAC-SHA256 over the raw payload).
//
// Unlike the rest of the API, this endpoint answers in plain text: Stripe
// only inspects the status code, and a text reason is what shows up in the
// Stripe dashboard's delivery log.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"subtrack/internal/config"
	"subtrack/internal/types"
)

// maxWebhookBodySize caps Stripe webhook payloads at 64 KB. Real payloads
// are far smaller; the limit protects against abuse.
const maxWebhookBodySize = 64 * 1024

// eventCheckoutCompleted is the only event kind the reconciler acts on.
const eventCheckoutCompleted = "checkout.session.completed"

// WebhookVerifier checks a webhook payload signature. The payload must be
// the raw, untouched request bytes.
type WebhookVerifier interface {
	Verify(payload []byte, header string, secret string) error
}

// PlanWriter applies a verified plan change to a user's profile.
type PlanWriter interface {
	SetPlan(ctx context.Context, userID string, plan types.Plan) error
}

// StripeWebhookHandler receives billing events from Stripe and reconciles
// the local profile plan.
type StripeWebhookHandler struct {
	verifier WebhookVerifier
	profiles PlanWriter
	secret   types.SecretString
	logger   *slog.Logger
}

// NewStripeWebhookHandler creates a StripeWebhookHandler. The signing secret
// may be empty; requests are then rejected per delivery rather than at boot.
func NewStripeWebhookHandler(
	verifier WebhookVerifier,
	profiles PlanWriter,
	billingCfg config.BillingConfig,
	logger *slog.Logger,
) *StripeWebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeWebhookHandler{
		verifier: verifier,
		profiles: profiles,
		secret:   billingCfg.StripeWebhookSecret,
		logger:   logger,
	}
}

// RegisterRoutes mounts the webhook endpoint. Registered under the public
// /webhooks group, not /v1.
func (h *StripeWebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/stripe", h.Handle)
}

// Handle processes one webhook delivery.
//
//  1. Missing signing secret: 400 text reason. Configuration fault, but the
//     process stays up and every other endpoint keeps working.
//  2. Read the raw body (64 KB cap) and the Stripe-Signature header.
//  3. Verify the signature over the untouched bytes BEFORE any parsing.
//  4. Dispatch on event type. checkout.session.completed upgrades the
//     profile named by metadata.userId to pro; everything else is
//     acknowledged with 200 and no write.
//  5. A failed profile write returns 400 so Stripe redelivers.
func (h *StripeWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.secret.IsSet() {
		h.logger.ErrorContext(ctx, "webhook received but signing secret is not configured")
		textError(w, http.StatusBadRequest, "webhook not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read webhook body", "error", err)
		textError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		h.logger.WarnContext(ctx, "missing Stripe-Signature header")
		textError(w, http.StatusBadRequest, "missing Stripe-Signature header")
		return
	}

	if err := h.verifier.Verify(payload, sigHeader, h.secret.Unmask()); err != nil {
		h.logger.WarnContext(ctx, "webhook signature verification failed", "error", err)
		textError(w, http.StatusBadRequest, "signature verification failed")
		return
	}

	var event stripeWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.WarnContext(ctx, "failed to parse webhook event", "error", err)
		textError(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	h.logger.InfoContext(ctx, "processing stripe webhook event",
		"event_id", event.ID,
		"event_type", event.Type,
	)

	if event.Type != eventCheckoutCompleted {
		// Not subscribed-to or not relevant; acknowledge so Stripe stops.
		w.WriteHeader(http.StatusOK)
		return
	}

	userID := event.Data.Object.Metadata["userId"]
	if userID == "" {
		h.logger.WarnContext(ctx, "checkout completed without userId metadata",
			"event_id", event.ID,
		)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.profiles.SetPlan(ctx, userID, types.PlanPro); err != nil {
		h.logger.ErrorContext(ctx, "failed to apply plan upgrade",
			"event_id", event.ID,
			"user_id", userID,
			"error", err,
		)
		// Non-2xx makes Stripe redeliver; the upsert is idempotent so the
		// retry is safe.
		textError(w, http.StatusBadRequest, "failed to update profile")
		return
	}

	h.logger.InfoContext(ctx, "profile upgraded to pro",
		"event_id", event.ID,
		"user_id", userID,
	)
	w.WriteHeader(http.StatusOK)
}

// textError writes a plain-text error response.
func textError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, reason)
}

// stripeWebhookEvent is a minimal representation of a Stripe webhook event,
// just the fields the reconciler needs. Avoiding the full stripe.Event type
// keeps parsing strict and tests simple.
type stripeWebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}
