package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/types"
)

func sub(name string, cents int64, cycle types.BillingCycle, category string) types.Subscription {
	return types.Subscription{
		Name:         name,
		PriceCents:   cents,
		BillingCycle: cycle,
		Category:     category,
	}
}

func TestCompute_Empty(t *testing.T) {
	got := Compute(nil)

	assert.Zero(t, got.MonthlyTotalCents)
	assert.Zero(t, got.YearlyTotalCents)
	assert.NotNil(t, got.Categories, "categories must serialize as [] not null")
	assert.Empty(t, got.TopCategory)
	assert.Nil(t, got.MostExpensive)
	assert.Zero(t, got.Count)
}

func TestCompute_MixedCycles(t *testing.T) {
	subs := []types.Subscription{
		sub("Netflix", 1299, types.CycleMonthly, "Entertainment"),
		sub("Spotify", 999, types.CycleMonthly, "Entertainment"),
		sub("iCloud", 11988, types.CycleYearly, "Storage"), // 999/month
	}

	got := Compute(subs)

	assert.Equal(t, int64(1299+999+999), got.MonthlyTotalCents)
	assert.Equal(t, int64(1299+999+999)*12, got.YearlyTotalCents)
	assert.Equal(t, 3, got.Count)

	require.Len(t, got.Categories, 2)
	assert.Equal(t, "Entertainment", got.Categories[0].Category)
	assert.Equal(t, int64(2298), got.Categories[0].MonthCents)
	assert.Equal(t, "Storage", got.Categories[1].Category)
	assert.Equal(t, int64(999), got.Categories[1].MonthCents)
	assert.Equal(t, "Entertainment", got.TopCategory)

	require.NotNil(t, got.MostExpensive)
	assert.Equal(t, "Netflix", got.MostExpensive.Name)

	// 10% of the annualized yearly-billed spend.
	assert.Equal(t, int64(1198), got.YearlySavingsCents)
}

func TestCompute_YearlyIntegerDivision(t *testing.T) {
	// 1000 cents yearly -> 83 cents monthly via integer division.
	got := Compute([]types.Subscription{
		sub("Domain", 1000, types.CycleYearly, "Tools"),
	})

	assert.Equal(t, int64(83), got.MonthlyTotalCents)
	assert.Equal(t, int64(83*12), got.YearlyTotalCents)
	assert.Equal(t, int64(100), got.YearlySavingsCents)
}

func TestCompute_MostExpensiveComparesMonthlyNormalized(t *testing.T) {
	// The yearly item costs more in absolute cents but less per month.
	got := Compute([]types.Subscription{
		sub("CheapYearly", 6000, types.CycleYearly, "Tools"),       // 500/month
		sub("PriceyMonthly", 1500, types.CycleMonthly, "Software"), // 1500/month
	})

	require.NotNil(t, got.MostExpensive)
	assert.Equal(t, "PriceyMonthly", got.MostExpensive.Name)
}

func TestCompute_CategoryTiesBreakAlphabetically(t *testing.T) {
	got := Compute([]types.Subscription{
		sub("A", 500, types.CycleMonthly, "Zeta"),
		sub("B", 500, types.CycleMonthly, "Alpha"),
	})

	require.Len(t, got.Categories, 2)
	assert.Equal(t, "Alpha", got.Categories[0].Category)
	assert.Equal(t, "Alpha", got.TopCategory)
}
