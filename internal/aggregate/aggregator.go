package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/clustercost/clustercost-aws/internal/costing"
)

// Thresholds are the documented cost boundaries used for distribution
// buckets and optimization flags, in USD per month.
type Thresholds struct {
	HighCostResource   float64
	MediumCostResource float64
	Optimization       float64
}

// DefaultThresholds returns the standard boundaries: $50 high, $10 medium,
// $100 total before optimization is flagged.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighCostResource:   50,
		MediumCostResource: 10,
		Optimization:       100,
	}
}

// Heuristic savings fractions for optimization suggestions. These are
// planning estimates carried over from operational experience, not figures
// derived from billing data.
const (
	natConsolidationSavings = 0.5
	rightSizingSavings      = 0.2
	s3TieringSavings        = 0.3

	// rightSizingFloor is the per-resource monthly cost above which a
	// compute right-sizing suggestion is emitted.
	rightSizingFloor = 100.0

	// topResourceCount is the length of the highest-cost list.
	topResourceCount = 10

	// concentrationCount is how many top resources the concentration
	// percentage covers.
	concentrationCount = 5
)

// Aggregator builds comprehensive summaries. It holds only configuration;
// Aggregate is a pure, deterministic function of its inputs.
type Aggregator struct {
	thresholds Thresholds
	now        func() time.Time
}

// Option adjusts an Aggregator.
type Option func(*Aggregator)

// WithThresholds overrides the documented default boundaries.
func WithThresholds(t Thresholds) Option {
	return func(a *Aggregator) { a.thresholds = t }
}

// WithNow fixes the clock used for the analysis timestamp.
func WithNow(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// New returns an Aggregator with the default thresholds.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		thresholds: DefaultThresholds(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate joins results to resources by ID and builds the summary.
// Resources without a result are skipped; results whose totals violate the
// CostResult contract are recorded in the Defects list and excluded from
// totals. Given identical inputs in identical order the output is
// structurally identical except for the analysis timestamp.
func (a *Aggregator) Aggregate(results map[string]costing.CostResult, resources []costing.ResourceRecord, clusterID, region string, periodDays int) ComprehensiveCostSummary {
	summaries := make([]ResourceCostSummary, 0, len(resources))
	var defects []string

	for _, resource := range resources {
		result, ok := results[resource.ID]
		if !ok {
			continue
		}
		if result.TotalCost < 0 || math.IsNaN(result.TotalCost) || math.IsInf(result.TotalCost, 0) {
			defects = append(defects, resource.ID)
			continue
		}

		kind := costing.NormalizeKind(resource)
		resourceRegion := resource.Region
		if resourceRegion == "" {
			resourceRegion = region
		}

		summaries = append(summaries, ResourceCostSummary{
			ResourceID:   resource.ID,
			ResourceName: resource.Name,
			ResourceType: kind,
			Service:      serviceOrUnknown(result.Service),
			Region:       resourceRegion,
			CostCategory: costing.CategoryOf(kind),
			CostPriority: costing.PriorityOf(kind),
			TotalCost:    result.TotalCost,
			Breakdown:    result.Breakdown,
			IsEstimated:  result.IsEstimated,
			Source:       result.PricingSource,
			Details:      details(result),
		})
	}

	return a.build(summaries, clusterID, region, periodDays, defects)
}

// build computes every aggregate field from a slice of per-resource
// summaries. Aggregate and the re-aggregating filters share this path so a
// filtered summary is recomputed wholesale, never patched.
func (a *Aggregator) build(summaries []ResourceCostSummary, clusterID, region string, periodDays int, defects []string) ComprehensiveCostSummary {
	if periodDays <= 0 {
		periodDays = 30
	}

	totalCost := 0.0
	billableCost := 0.0
	billableCount := 0
	freeCount := 0
	for _, s := range summaries {
		totalCost += s.TotalCost
		switch {
		case costing.IsBillable(s.ResourceType):
			billableCost += s.TotalCost
			billableCount++
		case costing.IsFree(s.ResourceType):
			freeCount++
		}
	}

	monthlyMultiplier := 1.0
	if periodDays != 30 {
		monthlyMultiplier = 30.0 / float64(periodDays)
	}

	return ComprehensiveCostSummary{
		ClusterID:    clusterID,
		Region:       region,
		AnalysisDate: a.now().UTC(),
		PeriodDays:   periodDays,

		TotalMonthlyCost:  totalCost * monthlyMultiplier,
		TotalBillableCost: billableCost * monthlyMultiplier,
		TotalResources:    len(summaries),
		BillableResources: billableCount,
		FreeResources:     freeCount,

		CostByCategory: sumBy(summaries, func(s ResourceCostSummary) costing.CostCategory { return s.CostCategory }),
		CostByService:  sumBy(summaries, func(s ResourceCostSummary) string { return s.Service }),
		CostByPriority: sumBy(summaries, func(s ResourceCostSummary) costing.CostPriority { return s.CostPriority }),
		CostByRegion:   sumBy(summaries, regionOrUnknown),

		ResourceSummaries:    summaries,
		HighestCostResources: topByCost(summaries, topResourceCount),

		Distribution: a.analyzeDistribution(summaries),
		Optimization: a.analyzeOptimization(summaries, totalCost),

		Defects: defects,
	}
}

func sumBy[K comparable](summaries []ResourceCostSummary, key func(ResourceCostSummary) K) map[K]float64 {
	out := make(map[K]float64)
	for _, s := range summaries {
		out[key(s)] += s.TotalCost
	}
	return out
}

func regionOrUnknown(s ResourceCostSummary) string {
	if s.Region == "" {
		return "Unknown"
	}
	return s.Region
}

func serviceOrUnknown(service string) string {
	if service == "" {
		return "Unknown"
	}
	return service
}

func details(result costing.CostResult) map[string]any {
	d := map[string]any{
		"calculation_failed": result.CalculationFailed,
	}
	if result.HourlyRate != 0 {
		d["hourly_rate"] = result.HourlyRate
	}
	if result.MonthlyRatePerGB != 0 {
		d["monthly_rate_per_gb"] = result.MonthlyRatePerGB
	}
	if result.Err != "" {
		d["error"] = result.Err
	}
	return d
}

// topByCost ranks by descending cost, stable in input order for ties, and
// returns the first n.
func topByCost(summaries []ResourceCostSummary, n int) []ResourceCostSummary {
	ranked := make([]ResourceCostSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalCost > ranked[j].TotalCost
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func (a *Aggregator) analyzeDistribution(summaries []ResourceCostSummary) Distribution {
	if len(summaries) == 0 {
		return Distribution{}
	}

	var dist Distribution
	costs := make([]float64, 0, len(summaries))
	for _, s := range summaries {
		costs = append(costs, s.TotalCost)
		dist.TotalCost += s.TotalCost

		switch {
		case s.TotalCost >= a.thresholds.HighCostResource:
			dist.ResourceCounts.HighCost++
		case s.TotalCost >= a.thresholds.MediumCostResource:
			dist.ResourceCounts.MediumCost++
		case s.TotalCost > 0:
			dist.ResourceCounts.LowCost++
		default:
			dist.ResourceCounts.ZeroCost++
		}
	}

	ranked := topByCost(summaries, concentrationCount)
	top5 := 0.0
	for _, s := range ranked {
		top5 += s.TotalCost
	}
	dist.Concentration.Top5Cost = top5
	if dist.TotalCost > 0 {
		dist.Concentration.Top5Percentage = top5 / dist.TotalCost * 100
	}
	dist.Concentration.AverageCost = dist.TotalCost / float64(len(summaries))

	sort.Float64s(costs)
	// Lower middle element for even counts, matching the documented
	// median definition on Concentration.
	dist.Concentration.MedianCost = costs[len(costs)/2]

	return dist
}

func (a *Aggregator) analyzeOptimization(summaries []ResourceCostSummary, totalCost float64) OptimizationPotential {
	var suggestions []Suggestion
	potential := 0.0
	highCostCount := 0

	for _, s := range summaries {
		if s.TotalCost < a.thresholds.HighCostResource {
			continue
		}
		highCostCount++
		for _, sg := range suggestFor(s) {
			suggestions = append(suggestions, sg)
			potential += sg.Savings
		}
	}

	priority := "LOW"
	switch {
	case totalCost > 200:
		priority = "HIGH"
	case totalCost > 100:
		priority = "MEDIUM"
	}

	opt := OptimizationPotential{
		NeedsOptimization: totalCost > a.thresholds.Optimization,
		Priority:          priority,
		PotentialSavings:  potential,
		HighCostResources: highCostCount,
		Suggestions:       suggestions,
	}
	if totalCost > 0 {
		opt.SavingsPercentage = potential / totalCost * 100
	}
	return opt
}

// suggestFor emits category-specific suggestions for one high-cost
// resource. Savings fractions are the documented heuristics.
func suggestFor(s ResourceCostSummary) []Suggestion {
	switch s.CostCategory {
	case costing.CategoryBillableNetworking:
		switch s.ResourceType {
		case costing.KindNATGateways:
			return []Suggestion{{
				ResourceID: s.ResourceID,
				Type:       "NAT Gateway Optimization",
				Detail:     "Consider consolidating NAT Gateways or using NAT instances for dev environments",
				Savings:    s.TotalCost * natConsolidationSavings,
				Complexity: "MEDIUM",
			}}
		case costing.KindElasticIPs:
			// An unused elastic IP is fully recoverable cost.
			return []Suggestion{{
				ResourceID: s.ResourceID,
				Type:       "Elastic IP Optimization",
				Detail:     "Release unused Elastic IPs or associate them with running instances",
				Savings:    s.TotalCost,
				Complexity: "LOW",
			}}
		}
	case costing.CategoryBillableCompute:
		if s.TotalCost > rightSizingFloor {
			return []Suggestion{{
				ResourceID: s.ResourceID,
				Type:       "Instance Right-sizing",
				Detail:     "Analyze instance utilization and consider right-sizing",
				Savings:    s.TotalCost * rightSizingSavings,
				Complexity: "MEDIUM",
			}}
		}
	case costing.CategoryBillableStorage:
		if s.ResourceType == costing.KindS3Buckets {
			return []Suggestion{{
				ResourceID: s.ResourceID,
				Type:       "S3 Storage Class Optimization",
				Detail:     "Consider Intelligent-Tiering or cheaper storage classes",
				Savings:    s.TotalCost * s3TieringSavings,
				Complexity: "LOW",
			}}
		}
	}
	return nil
}

// String implements fmt.Stringer with a one-line operator-facing digest.
func (s ComprehensiveCostSummary) String() string {
	return fmt.Sprintf("cluster %s: $%.2f/month across %d resources (%d billable, %d free)",
		s.ClusterID, s.TotalMonthlyCost, s.TotalResources, s.BillableResources, s.FreeResources)
}
