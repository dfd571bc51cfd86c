// Package stats computes spending aggregates over a user's tracked
// subscriptions for the analysis view.
package stats

import (
	"sort"

	"subtrack/internal/types"
)

// yearlySavingsPercent is the assumed discount for switching monthly-billed
// subscriptions to yearly billing. The savings estimate is 10% of the
// annualized cost of yearly-billed items already captured, matching the
// product's analysis display.
const yearlySavingsPercent = 10

// Compute aggregates the given subscriptions into SpendingStats. All money
// math is integer cents; yearly prices normalize to monthly via integer
// division by 12.
func Compute(subs []types.Subscription) types.SpendingStats {
	result := types.SpendingStats{
		Categories: []types.CategorySpend{},
		Count:      len(subs),
	}
	if len(subs) == 0 {
		return result
	}

	byCategory := make(map[string]int64)
	var yearlyBilledCents int64
	var mostExpensive *types.Subscription

	for i := range subs {
		sub := &subs[i]
		monthly := sub.MonthlyPriceCents()
		result.MonthlyTotalCents += monthly
		byCategory[sub.Category] += monthly

		if sub.BillingCycle == types.CycleYearly {
			yearlyBilledCents += sub.PriceCents
		}

		if mostExpensive == nil || monthly > mostExpensive.MonthlyPriceCents() {
			mostExpensive = sub
		}
	}

	result.YearlyTotalCents = result.MonthlyTotalCents * 12
	result.MostExpensive = mostExpensive
	result.YearlySavingsCents = yearlyBilledCents * yearlySavingsPercent / 100

	result.Categories = make([]types.CategorySpend, 0, len(byCategory))
	for category, cents := range byCategory {
		result.Categories = append(result.Categories, types.CategorySpend{
			Category:   category,
			MonthCents: cents,
		})
	}
	// Sort descending by spend; ties break alphabetically for stable output.
	sort.Slice(result.Categories, func(i, j int) bool {
		if result.Categories[i].MonthCents != result.Categories[j].MonthCents {
			return result.Categories[i].MonthCents > result.Categories[j].MonthCents
		}
		return result.Categories[i].Category < result.Categories[j].Category
	})

	result.TopCategory = result.Categories[0].Category
	return result
}
