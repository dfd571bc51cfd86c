// Package billing provides the checkout session issuing logic that sits
// between the HTTP handlers and the Stripe client.
package billing

import (
	"context"
	"log/slog"
	"strings"

	"subtrack/internal/config"
	"subtrack/internal/external"
	"subtrack/internal/types"
)

// StripeClientSource yields the lazily-constructed Stripe client. Returns a
// configuration error when billing credentials are absent.
type StripeClientSource interface {
	Client() (*external.StripeClient, error)
}

// Service issues Stripe Checkout Sessions. It owns price resolution and
// redirect URL construction; handlers never see provider details.
type Service struct {
	source StripeClientSource
	cfg    config.BillingConfig
	// baseURL is the public web app URL redirect targets are derived from.
	// Never taken from client input.
	baseURL string
	logger  *slog.Logger
}

// NewService creates a billing Service.
func NewService(source StripeClientSource, billingCfg config.BillingConfig, baseURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:  source,
		cfg:     billingCfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// IssueCheckoutSession creates a subscription-mode checkout session for the
// given user and returns its ID.
//
// Price resolution: when FixedPrice is set the configured default always
// wins; otherwise a client-supplied price is honored and the default fills
// in when the request omitted one. No resolvable price is a validation
// error, not a provider call.
//
// Provider and configuration failures are logged with detail and surfaced as
// a generic internal error so callers cannot probe billing configuration.
func (s *Service) IssueCheckoutSession(ctx context.Context, userID, requestedPriceID string) (string, error) {
	priceID := s.resolvePrice(requestedPriceID)
	if priceID == "" {
		return "", types.NewAppError(
			types.ErrCodeValidationMissingField,
			"price_id is required",
			nil,
		)
	}

	client, err := s.source.Client()
	if err != nil {
		s.logger.ErrorContext(ctx, "stripe client unavailable",
			"user_id", userID,
			"error", err,
		)
		return "", types.NewAppError(
			types.ErrCodeInternalConfig,
			"billing is not available",
			err,
		)
	}

	session, err := client.CreateCheckoutSession(ctx, external.CheckoutParams{
		UserID:     userID,
		PriceID:    priceID,
		SuccessURL: s.baseURL + "/profile?upgrade=success",
		CancelURL:  s.baseURL + "/upgrade",
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create checkout session",
			"user_id", userID,
			"price_id", priceID,
			"error", err,
		)
		return "", types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create checkout session",
			err,
		)
	}

	s.logger.InfoContext(ctx, "checkout session created",
		"user_id", userID,
		"session_id", session.ID,
	)
	return session.ID, nil
}

// resolvePrice applies the price selection policy.
func (s *Service) resolvePrice(requested string) string {
	if s.cfg.FixedPrice {
		return s.cfg.DefaultPriceID
	}
	if requested != "" {
		return requested
	}
	return s.cfg.DefaultPriceID
}
