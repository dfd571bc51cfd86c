package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrencyIsValid(t *testing.T) {
	assert.True(t, CurrencyEUR.IsValid())
	assert.True(t, CurrencyUSD.IsValid())
	assert.True(t, CurrencyGBP.IsValid())
	assert.False(t, Currency("JPY").IsValid())
	assert.False(t, Currency("").IsValid())
}

func TestPlanIsValid(t *testing.T) {
	assert.True(t, PlanFree.IsValid())
	assert.True(t, PlanPro.IsValid())
	assert.False(t, Plan("enterprise").IsValid())
}

func TestMonthlyPriceCents(t *testing.T) {
	monthly := Subscription{PriceCents: 999, BillingCycle: CycleMonthly}
	assert.Equal(t, int64(999), monthly.MonthlyPriceCents())

	yearly := Subscription{PriceCents: 12000, BillingCycle: CycleYearly}
	assert.Equal(t, int64(1000), yearly.MonthlyPriceCents())
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	live := Session{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, live.Expired(now))

	dead := Session{ExpiresAt: now.Add(-time.Hour)}
	assert.True(t, dead.Expired(now))

	boundary := Session{ExpiresAt: now}
	assert.True(t, boundary.Expired(now))
}
