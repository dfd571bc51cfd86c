package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"subtrack/internal/types"
)

// ProfileRepository provides data access for the profiles table. Profiles
// are created lazily: the first read for a user inserts a row with default
// plan "free" and currency "EUR".
type ProfileRepository struct {
	db DBTX
}

// NewProfileRepository creates a new ProfileRepository backed by the given
// database connection (pool or transaction).
func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `user_id, plan, currency, created_at, updated_at`

func scanProfile(row pgx.Row) (*types.UserProfile, error) {
	var p types.UserProfile
	if err := row.Scan(&p.UserID, &p.Plan, &p.Currency, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOrCreate returns the profile for userID, inserting the default row if
// none exists. The INSERT uses ON CONFLICT DO NOTHING so concurrent first
// reads race safely; the follow-up SELECT then observes whichever row won.
func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID string) (*types.UserProfile, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO profiles (user_id, plan, currency, created_at, updated_at)
		 VALUES ($1, 'free', 'EUR', NOW(), NOW())
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to initialize profile", err)
	}

	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`,
		userID,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve profile", err)
	}
	return p, nil
}

// SetPlan sets the billing plan for a user's profile, creating the profile
// with defaults if it does not exist yet. The upsert is idempotent: applying
// a plan the profile already has succeeds, so webhook redeliveries are
// harmless, and a paying user who never opened their profile page still gets
// upgraded.
func (r *ProfileRepository) SetPlan(ctx context.Context, userID string, plan types.Plan) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO profiles (user_id, plan, currency, created_at, updated_at)
		 VALUES ($1, $2, 'EUR', NOW(), NOW())
		 ON CONFLICT (user_id) DO UPDATE SET plan = EXCLUDED.plan, updated_at = NOW()`,
		userID,
		plan,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update plan", err)
	}
	return nil
}

// UpdateCurrency changes the display currency for a user's profile. The plan
// field is never touched here; it moves only through SetPlan.
func (r *ProfileRepository) UpdateCurrency(ctx context.Context, userID string, currency types.Currency) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET currency = $1, updated_at = NOW() WHERE user_id = $2`,
		currency,
		userID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update currency", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found", nil)
	}
	return nil
}
