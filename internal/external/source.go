package external

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"subtrack/internal/config"
	"subtrack/internal/types"
)

// StripeSource lazily constructs the Stripe client on first use. The secret
// key is optional at boot so the service can start without billing
// credentials; callers get a configuration error per request instead of a
// crashed process.
type StripeSource struct {
	cfg    config.BillingConfig
	logger *slog.Logger
	client atomic.Pointer[StripeClient]
}

// NewStripeSource creates a StripeSource from billing configuration.
func NewStripeSource(cfg config.BillingConfig, logger *slog.Logger) *StripeSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeSource{cfg: cfg, logger: logger}
}

// Client returns the Stripe client, constructing it on first call. Returns
// an internal configuration error when the secret key is not set.
func (s *StripeSource) Client() (*StripeClient, error) {
	if c := s.client.Load(); c != nil {
		return c, nil
	}

	if !s.cfg.StripeSecretKey.IsSet() {
		return nil, types.NewAppError(
			types.ErrCodeInternalConfig,
			"Stripe secret key is not configured",
			nil,
		)
	}

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := NewStripeClient(
		&http.Client{Timeout: timeout},
		StripeClientConfig{
			SecretKey: s.cfg.StripeSecretKey.Unmask(),
			BaseURL:   s.cfg.APIBaseURL,
			Timeout:   timeout,
			Logger:    s.logger,
		},
	)

	// Another goroutine may have won the race; keep the first stored client.
	if !s.client.CompareAndSwap(nil, c) {
		return s.client.Load(), nil
	}
	return c, nil
}
