package aggregate

import "github.com/clustercost/clustercost-aws/internal/costing"

// CostTier selects a distribution bucket for filtering.
type CostTier string

const (
	TierHigh   CostTier = "high"
	TierMedium CostTier = "medium"
	TierLow    CostTier = "low"
	TierZero   CostTier = "zero"
)

// The filters below never mutate the input summary. Each one selects a
// subset of the per-resource summaries and recomputes every aggregate field
// for that subset, so totals, breakdowns, counts, distribution, and
// optimization analysis all describe the filtered view.

// FilterMinCost returns a new summary restricted to resources whose period
// cost is at least minCost.
func (a *Aggregator) FilterMinCost(s ComprehensiveCostSummary, minCost float64) ComprehensiveCostSummary {
	return a.refine(s, func(r ResourceCostSummary) bool {
		return r.TotalCost >= minCost
	})
}

// FilterTier returns a new summary restricted to one cost tier. Bucket
// boundaries match the distribution analysis: the medium tier excludes the
// high boundary.
func (a *Aggregator) FilterTier(s ComprehensiveCostSummary, tier CostTier) ComprehensiveCostSummary {
	return a.refine(s, func(r ResourceCostSummary) bool {
		switch tier {
		case TierHigh:
			return r.TotalCost >= a.thresholds.HighCostResource
		case TierMedium:
			return r.TotalCost >= a.thresholds.MediumCostResource && r.TotalCost < a.thresholds.HighCostResource
		case TierLow:
			return r.TotalCost > 0 && r.TotalCost < a.thresholds.MediumCostResource
		case TierZero:
			return r.TotalCost == 0
		}
		return true
	})
}

// FilterBillable returns a new summary containing only billable resources.
func (a *Aggregator) FilterBillable(s ComprehensiveCostSummary) ComprehensiveCostSummary {
	return a.refine(s, func(r ResourceCostSummary) bool {
		return costing.IsBillable(r.ResourceType)
	})
}

// SortedByCost returns a new summary whose resource list is ordered by
// descending cost. Aggregates are recomputed; since the subset is the whole
// set, only orderings change.
func (a *Aggregator) SortedByCost(s ComprehensiveCostSummary) ComprehensiveCostSummary {
	ordered := topByCost(s.ResourceSummaries, len(s.ResourceSummaries))
	return a.build(ordered, s.ClusterID, s.Region, s.PeriodDays, s.Defects)
}

func (a *Aggregator) refine(s ComprehensiveCostSummary, keep func(ResourceCostSummary) bool) ComprehensiveCostSummary {
	kept := make([]ResourceCostSummary, 0, len(s.ResourceSummaries))
	for _, r := range s.ResourceSummaries {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	return a.build(kept, s.ClusterID, s.Region, s.PeriodDays, s.Defects)
}
