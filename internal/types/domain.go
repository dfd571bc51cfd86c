package types

import "time"

// Plan identifies the subscription tier of a user profile.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// IsValid reports whether p is a recognized plan tier.
func (p Plan) IsValid() bool {
	return p == PlanFree || p == PlanPro
}

// Currency is the display currency for a user's spending figures.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
)

// IsValid reports whether c is a supported currency.
func (c Currency) IsValid() bool {
	switch c {
	case CurrencyEUR, CurrencyUSD, CurrencyGBP:
		return true
	}
	return false
}

// BillingCycle describes how often a tracked subscription renews.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

// IsValid reports whether b is a recognized billing cycle.
func (b BillingCycle) IsValid() bool {
	return b == CycleMonthly || b == CycleYearly
}

// User represents a registered account.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Session is an opaque bearer-token login session.
type Session struct {
	Token     string    `json:"-" db:"token"`
	UserID    string    `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the session is past its expiry at the given instant.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// UserProfile holds per-user preferences and the billing plan. A profile is
// created lazily with defaults (free plan, EUR) the first time it is read.
// The plan field moves free -> pro only through a verified billing event;
// there is no downgrade path.
type UserProfile struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Plan      Plan      `json:"plan" db:"plan"`
	Currency  Currency  `json:"currency" db:"currency"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Subscription is a recurring expense tracked by a user. Price is stored in
// minor units (cents) to avoid floating-point money arithmetic.
type Subscription struct {
	ID              string       `json:"id" db:"id"`
	UserID          string       `json:"-" db:"user_id"`
	Name            string       `json:"name" db:"name"`
	PriceCents      int64        `json:"price_cents" db:"price_cents"`
	BillingCycle    BillingCycle `json:"billing_cycle" db:"billing_cycle"`
	StartDate       time.Time    `json:"start_date" db:"start_date"`
	NextBillingDate time.Time    `json:"next_billing_date" db:"next_billing_date"`
	Category        string       `json:"category" db:"category"`
	LogoURL         string       `json:"logo_url,omitempty" db:"logo_url"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
}

// MonthlyPriceCents normalizes the subscription price to a monthly figure.
// Yearly prices are divided by 12 using integer division.
func (s Subscription) MonthlyPriceCents() int64 {
	if s.BillingCycle == CycleYearly {
		return s.PriceCents / 12
	}
	return s.PriceCents
}

// CategorySpend is one row of the per-category monthly breakdown.
type CategorySpend struct {
	Category   string `json:"category"`
	MonthCents int64  `json:"month_cents"`
}

// SpendingStats aggregates a user's subscription costs for the analysis view.
type SpendingStats struct {
	MonthlyTotalCents  int64           `json:"monthly_total_cents"`
	YearlyTotalCents   int64           `json:"yearly_total_cents"`
	Categories         []CategorySpend `json:"categories"`
	TopCategory        string          `json:"top_category,omitempty"`
	MostExpensive      *Subscription   `json:"most_expensive,omitempty"`
	YearlySavingsCents int64           `json:"yearly_savings_cents"`
	Count              int             `json:"count"`
}
