package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"subtrack/internal/types"
)

// SubscriptionRepository provides data access for the subscriptions table.
// Every query is scoped to the owning user; cross-user access surfaces as
// not-found rather than forbidden, so IDs leak nothing.
type SubscriptionRepository struct {
	db DBTX
}

// NewSubscriptionRepository creates a new SubscriptionRepository backed by
// the given database connection (pool or transaction).
func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, user_id, name, price_cents, billing_cycle, start_date,
	next_billing_date, category, logo_url, created_at, updated_at`

func scanSubscription(row pgx.Row) (*types.Subscription, error) {
	var s types.Subscription
	var logoURL *string
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&s.PriceCents,
		&s.BillingCycle,
		&s.StartDate,
		&s.NextBillingDate,
		&s.Category,
		&logoURL,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if logoURL != nil {
		s.LogoURL = *logoURL
	}
	return &s, nil
}

// Create inserts a new subscription row.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *types.Subscription) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO subscriptions (id, user_id, name, price_cents, billing_cycle,
		 start_date, next_billing_date, category, logo_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`,
		sub.ID,
		sub.UserID,
		sub.Name,
		sub.PriceCents,
		sub.BillingCycle,
		sub.StartDate,
		sub.NextBillingDate,
		sub.Category,
		nilIfEmpty(sub.LogoURL),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create subscription", err)
	}
	return nil
}

// GetByID retrieves one subscription owned by userID.
// Returns ErrCodeNotFoundSubscription if absent or owned by someone else.
func (r *SubscriptionRepository) GetByID(ctx context.Context, id, userID string) (*types.Subscription, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions WHERE id = $1 AND user_id = $2`,
		id,
		userID,
	)

	s, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundSubscription, "subscription not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve subscription", err)
	}
	return s, nil
}

// ListByUser returns all subscriptions for userID ordered by the next
// billing date, soonest first.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]types.Subscription, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions WHERE user_id = $1
		 ORDER BY next_billing_date ASC, name ASC`,
		userID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list subscriptions", err)
	}
	defer rows.Close()

	subs := []types.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan subscription", err)
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate subscriptions", err)
	}
	return subs, nil
}

// Update applies changes to a subscription owned by userID.
// Returns ErrCodeNotFoundSubscription when no owned row matches.
func (r *SubscriptionRepository) Update(ctx context.Context, sub *types.Subscription) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE subscriptions
		 SET name = $1, price_cents = $2, billing_cycle = $3, start_date = $4,
		     next_billing_date = $5, category = $6, logo_url = $7, updated_at = NOW()
		 WHERE id = $8 AND user_id = $9`,
		sub.Name,
		sub.PriceCents,
		sub.BillingCycle,
		sub.StartDate,
		sub.NextBillingDate,
		sub.Category,
		nilIfEmpty(sub.LogoURL),
		sub.ID,
		sub.UserID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update subscription", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundSubscription, "subscription not found", nil)
	}
	return nil
}

// Delete removes a subscription owned by userID.
// Returns ErrCodeNotFoundSubscription when no owned row matches.
func (r *SubscriptionRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM subscriptions WHERE id = $1 AND user_id = $2`,
		id,
		userID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete subscription", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundSubscription, "subscription not found", nil)
	}
	return nil
}
