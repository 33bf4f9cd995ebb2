package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clustercost/clustercost-aws/internal/costing"
)

func clusterFixture() (map[string]costing.CostResult, []costing.ResourceRecord) {
	resources := []costing.ResourceRecord{
		{
			ID:       "i-0abc",
			Name:     "worker-1",
			Type:     "m5.large",
			Metadata: map[string]string{costing.MetaCategory: "instances"},
		},
		{
			ID:       "vol-0def",
			Name:     "worker-1-root",
			Metadata: map[string]string{costing.MetaCategory: "volumes"},
		},
		{
			ID:       "sg-0123",
			Name:     "cluster-sg",
			Metadata: map[string]string{costing.MetaCategory: "security_groups"},
		},
	}
	results := map[string]costing.CostResult{
		"i-0abc": {
			TotalCost:     69.12,
			Breakdown:     map[string]float64{"compute": 69.12},
			Service:       "EC2-Instance",
			IsEstimated:   true,
			PricingSource: costing.SourceStaticTable,
			HourlyRate:    0.096,
		},
		"vol-0def": {
			TotalCost:     1.60,
			Breakdown:     map[string]float64{"storage": 1.60},
			Service:       "EBS-Volume",
			IsEstimated:   true,
			PricingSource: costing.SourceStaticTable,
		},
		"sg-0123": {
			TotalCost:     0,
			Service:       "Security-Group",
			PricingSource: costing.SourceFreeService,
		},
	}
	return results, resources
}

func TestAggregateClusterScenario(t *testing.T) {
	results, resources := clusterFixture()
	agg := New()

	summary := agg.Aggregate(results, resources, "prod-cluster", "us-east-1", 30)

	assert.Equal(t, "prod-cluster", summary.ClusterID)
	assert.Equal(t, "us-east-1", summary.Region)
	assert.Equal(t, 30, summary.PeriodDays)

	assert.InDelta(t, 70.72, summary.TotalMonthlyCost, 1e-9)
	assert.InDelta(t, 70.72, summary.TotalBillableCost, 1e-9)
	assert.Equal(t, 3, summary.TotalResources)
	assert.Equal(t, 2, summary.BillableResources)
	assert.Equal(t, 1, summary.FreeResources)

	assert.InDelta(t, 69.12, summary.CostByCategory[costing.CategoryBillableCompute], 1e-9)
	assert.InDelta(t, 1.60, summary.CostByCategory[costing.CategoryBillableStorage], 1e-9)
	assert.InDelta(t, 0, summary.CostByCategory[costing.CategoryFreeSecurity], 1e-9)

	assert.InDelta(t, 69.12, summary.CostByPriority[costing.PriorityHigh], 1e-9)
	assert.InDelta(t, 1.60, summary.CostByPriority[costing.PriorityMedium], 1e-9)

	assert.InDelta(t, 69.12, summary.CostByService["EC2-Instance"], 1e-9)
	assert.InDelta(t, 70.72, summary.CostByRegion["us-east-1"], 1e-9)

	require.NotEmpty(t, summary.HighestCostResources)
	assert.Equal(t, "i-0abc", summary.HighestCostResources[0].ResourceID)

	assert.InDelta(t, 70.72/3, summary.Distribution.Concentration.AverageCost, 1e-9)
	assert.InDelta(t, 1.60, summary.Distribution.Concentration.MedianCost, 1e-9)
	assert.Equal(t, TierCounts{HighCost: 1, MediumCost: 0, LowCost: 1, ZeroCost: 1}, summary.Distribution.ResourceCounts)

	assert.False(t, summary.Optimization.NeedsOptimization, "total under $100")
	assert.Equal(t, "LOW", summary.Optimization.Priority)
	assert.Empty(t, summary.Defects)
}

// Breakdown maps must be additive against the raw period total.
func TestAggregateBreakdownsAreAdditive(t *testing.T) {
	results, resources := clusterFixture()
	summary := New().Aggregate(results, resources, "c", "us-east-1", 30)

	raw := 0.0
	for _, s := range summary.ResourceSummaries {
		raw += s.TotalCost
	}

	for name, breakdown := range map[string]float64{
		"category": sumMap(summary.CostByCategory),
		"service":  sumMap(summary.CostByService),
		"priority": sumMap(summary.CostByPriority),
		"region":   sumMap(summary.CostByRegion),
	} {
		assert.InDelta(t, raw, breakdown, 1e-6, "%s breakdown", name)
	}
}

func sumMap[K comparable](m map[K]float64) float64 {
	total := 0.0
	for _, v := range m {
		total += v
	}
	return total
}

// A 7-day period scales the monthly totals by 30/7; breakdown maps stay at
// raw period figures.
func TestAggregateMonthlyScaling(t *testing.T) {
	results := map[string]costing.CostResult{
		"i-1": {TotalCost: 7, Service: "EC2-Instance"},
	}
	resources := []costing.ResourceRecord{
		{ID: "i-1", Metadata: map[string]string{costing.MetaCategory: "instances"}},
	}

	summary := New().Aggregate(results, resources, "c", "us-east-1", 7)

	assert.InDelta(t, 30, summary.TotalMonthlyCost, 1e-9)
	assert.InDelta(t, 30, summary.TotalBillableCost, 1e-9)
	assert.InDelta(t, 7, summary.CostByService["EC2-Instance"], 1e-9, "breakdowns stay at period cost")
}

func TestAggregateSkipsResourcesWithoutResults(t *testing.T) {
	results := map[string]costing.CostResult{
		"i-1": {TotalCost: 10, Service: "EC2-Instance"},
	}
	resources := []costing.ResourceRecord{
		{ID: "i-1", Metadata: map[string]string{costing.MetaCategory: "instances"}},
		{ID: "i-orphan", Metadata: map[string]string{costing.MetaCategory: "instances"}},
	}

	summary := New().Aggregate(results, resources, "c", "us-east-1", 30)

	assert.Equal(t, 1, summary.TotalResources)
	assert.InDelta(t, 10, summary.TotalMonthlyCost, 1e-9)
}

// Contract-violating totals go to the defects list instead of poisoning the
// aggregates.
func TestAggregateRecordsDefects(t *testing.T) {
	results := map[string]costing.CostResult{
		"good": {TotalCost: 5, Service: "EC2-Instance"},
		"neg":  {TotalCost: -1, Service: "EC2-Instance"},
		"nan":  {TotalCost: math.NaN(), Service: "EC2-Instance"},
		"inf":  {TotalCost: math.Inf(1), Service: "EC2-Instance"},
	}
	resources := []costing.ResourceRecord{
		{ID: "good", Metadata: map[string]string{costing.MetaCategory: "instances"}},
		{ID: "neg", Metadata: map[string]string{costing.MetaCategory: "instances"}},
		{ID: "nan", Metadata: map[string]string{costing.MetaCategory: "instances"}},
		{ID: "inf", Metadata: map[string]string{costing.MetaCategory: "instances"}},
	}

	summary := New().Aggregate(results, resources, "c", "us-east-1", 30)

	assert.Equal(t, 1, summary.TotalResources)
	assert.InDelta(t, 5, summary.TotalMonthlyCost, 1e-9)
	assert.ElementsMatch(t, []string{"neg", "nan", "inf"}, summary.Defects)
	assert.False(t, math.IsNaN(summary.TotalMonthlyCost))
}

func TestAggregateEmptyInput(t *testing.T) {
	summary := New().Aggregate(nil, nil, "c", "us-east-1", 30)

	assert.Zero(t, summary.TotalMonthlyCost)
	assert.Zero(t, summary.TotalResources)
	assert.Empty(t, summary.HighestCostResources)
	assert.Zero(t, summary.Distribution.Concentration.AverageCost)
	assert.False(t, summary.Optimization.NeedsOptimization)
}

// With a fixed clock, aggregation of identical inputs is structurally
// identical.
func TestAggregateIsDeterministic(t *testing.T) {
	results, resources := clusterFixture()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	agg := New(WithNow(func() time.Time { return now }))

	first := agg.Aggregate(results, resources, "c", "us-east-1", 30)
	second := agg.Aggregate(results, resources, "c", "us-east-1", 30)

	assert.Equal(t, first, second)
}

func TestAggregateRegionFallback(t *testing.T) {
	results := map[string]costing.CostResult{
		"i-1": {TotalCost: 1, Service: "EC2-Instance"},
		"i-2": {TotalCost: 2, Service: "EC2-Instance"},
	}
	resources := []costing.ResourceRecord{
		{ID: "i-1", Region: "eu-west-1", Metadata: map[string]string{costing.MetaCategory: "instances"}},
		{ID: "i-2", Metadata: map[string]string{costing.MetaCategory: "instances"}},
	}

	summary := New().Aggregate(results, resources, "c", "us-east-1", 30)

	assert.InDelta(t, 1, summary.CostByRegion["eu-west-1"], 1e-9)
	assert.InDelta(t, 2, summary.CostByRegion["us-east-1"], 1e-9)
}

func TestMedianUsesLowerMiddleForEvenCounts(t *testing.T) {
	results := map[string]costing.CostResult{
		"a": {TotalCost: 10, Service: "EC2-Instance"},
		"b": {TotalCost: 20, Service: "EC2-Instance"},
		"c": {TotalCost: 30, Service: "EC2-Instance"},
		"d": {TotalCost: 40, Service: "EC2-Instance"},
	}
	resources := []costing.ResourceRecord{
		{ID: "a", Metadata: map[string]string{costing.MetaCategory: "instances"}},
		{ID: "b", Metadata: map[string]string{costing.MetaCategory: "instances"}},
		{ID: "c", Metadata: map[string]string{costing.MetaCategory: "instances"}},
		{ID: "d", Metadata: map[string]string{costing.MetaCategory: "instances"}},
	}

	summary := New().Aggregate(results, resources, "c", "us-east-1", 30)

	assert.InDelta(t, 30, summary.Distribution.Concentration.MedianCost, 1e-9)
}

func TestOptimizationSuggestions(t *testing.T) {
	results := map[string]costing.CostResult{
		"nat-1": {TotalCost: 97.2, Service: "NAT-Gateway"},
		"eip-1": {TotalCost: 108, Service: "Elastic-IP"},
		"i-big": {TotalCost: 150, Service: "EC2-Instance"},
		"s3-1":  {TotalCost: 60, Service: "S3-Bucket"},
		"i-sml": {TotalCost: 5, Service: "EC2-Instance"},
	}
	resources := []costing.ResourceRecord{
		{ID: "nat-1", Metadata: map[string]string{costing.MetaCategory: "nat_gateways"}},
		{ID: "eip-1", Metadata: map[string]string{costing.MetaCategory: "elastic_ips"}},
		{ID: "i-big", Metadata: map[string]string{costing.MetaCategory: "instances"}},
		{ID: "s3-1", Metadata: map[string]string{costing.MetaCategory: "s3_buckets"}},
		{ID: "i-sml", Metadata: map[string]string{costing.MetaCategory: "instances"}},
	}

	summary := New().Aggregate(results, resources, "c", "us-east-1", 30)
	opt := summary.Optimization

	assert.True(t, opt.NeedsOptimization)
	assert.Equal(t, "HIGH", opt.Priority, "total over $200")
	assert.Equal(t, 4, opt.HighCostResources)
	require.Len(t, opt.Suggestions, 4)

	savings := make(map[string]float64)
	for _, sg := range opt.Suggestions {
		savings[sg.ResourceID] = sg.Savings
	}
	assert.InDelta(t, 97.2*0.5, savings["nat-1"], 1e-9, "NAT consolidation saves half")
	assert.InDelta(t, 108, savings["eip-1"], 1e-9, "elastic IP is fully recoverable")
	assert.InDelta(t, 150*0.2, savings["i-big"], 1e-9, "right-sizing saves a fifth")
	assert.InDelta(t, 60*0.3, savings["s3-1"], 1e-9, "tiering saves roughly a third")

	total := 97.2*0.5 + 108 + 150*0.2 + 60*0.3
	assert.InDelta(t, total, opt.PotentialSavings, 1e-9)
	assert.Greater(t, opt.SavingsPercentage, 0.0)
}

func TestOptimizationPriorityBands(t *testing.T) {
	tests := []struct {
		name      string
		totalCost float64
		priority  string
		needsOpt  bool
	}{
		{"low", 80, "LOW", false},
		{"medium", 150, "MEDIUM", true},
		{"high", 250, "HIGH", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := map[string]costing.CostResult{
				"i-1": {TotalCost: tt.totalCost, Service: "EC2-Instance"},
			}
			resources := []costing.ResourceRecord{
				{ID: "i-1", Metadata: map[string]string{costing.MetaCategory: "instances"}},
			}

			summary := New().Aggregate(results, resources, "c", "us-east-1", 30)

			assert.Equal(t, tt.priority, summary.Optimization.Priority)
			assert.Equal(t, tt.needsOpt, summary.Optimization.NeedsOptimization)
		})
	}
}

func TestSummaryString(t *testing.T) {
	results, resources := clusterFixture()
	summary := New().Aggregate(results, resources, "prod-cluster", "us-east-1", 30)

	assert.Equal(t,
		"cluster prod-cluster: $70.72/month across 3 resources (2 billable, 1 free)",
		summary.String())
}
