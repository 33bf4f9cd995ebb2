// Package aggregate joins per-resource cost results with their discovery
// records and produces one immutable comprehensive summary per run:
// classification, multi-dimensional breakdowns, distribution statistics,
// and optimization signals.
package aggregate

import (
	"time"

	"github.com/clustercost/clustercost-aws/internal/costing"
)

// ResourceCostSummary joins one resource's classification with its cost
// result. Built once during aggregation and never mutated afterwards.
type ResourceCostSummary struct {
	ResourceID   string               `json:"resource_id"`
	ResourceName string               `json:"resource_name,omitempty"`
	ResourceType costing.ResourceKind `json:"resource_type"`
	Service      string               `json:"service"`
	Region       string               `json:"region"`
	CostCategory costing.CostCategory `json:"cost_category"`
	CostPriority costing.CostPriority `json:"cost_priority"`
	TotalCost    float64              `json:"total_cost"`
	Breakdown    map[string]float64   `json:"service_breakdown"`
	IsEstimated  bool                 `json:"is_estimated"`
	Source       string               `json:"pricing_source"`

	// Details carries diagnostic extras such as rate echoes and the
	// calculation-failed flag.
	Details map[string]any `json:"additional_details,omitempty"`
}

// TierCounts buckets resources by monthly cost tier. Boundaries are the
// documented thresholds: high is >= $50, medium is $10 up to but excluding
// $50, low is above $0 up to but excluding $10, zero is exactly $0.
type TierCounts struct {
	HighCost   int `json:"high_cost"`
	MediumCost int `json:"medium_cost"`
	LowCost    int `json:"low_cost"`
	ZeroCost   int `json:"zero_cost"`
}

// Concentration describes how much of the total the most expensive
// resources account for.
//
// MedianCost uses the sorted middle element; for an even count the lower of
// the two middle elements is taken, not their average.
type Concentration struct {
	Top5Cost       float64 `json:"top_5_resources_cost"`
	Top5Percentage float64 `json:"top_5_percentage"`
	AverageCost    float64 `json:"average_cost_per_resource"`
	MedianCost     float64 `json:"median_cost"`
}

// Distribution is the cost-distribution analysis block of a summary.
type Distribution struct {
	TotalCost      float64       `json:"total_cost"`
	ResourceCounts TierCounts    `json:"resource_counts"`
	Concentration  Concentration `json:"cost_concentration"`
}

// Suggestion is one cost-optimization recommendation. Savings figures are
// heuristic planning numbers, not billing-precise amounts.
type Suggestion struct {
	ResourceID string  `json:"resource_id"`
	Type       string  `json:"type"`
	Detail     string  `json:"description"`
	Savings    float64 `json:"potential_monthly_savings"`
	Complexity string  `json:"complexity"`
}

// OptimizationPotential is the optimization analysis block of a summary.
type OptimizationPotential struct {
	NeedsOptimization bool         `json:"needs_optimization"`
	Priority          string       `json:"optimization_priority"`
	PotentialSavings  float64      `json:"total_potential_savings"`
	SavingsPercentage float64      `json:"savings_percentage"`
	HighCostResources int          `json:"high_cost_resource_count"`
	Suggestions       []Suggestion `json:"optimization_suggestions"`
}

// ComprehensiveCostSummary is the aggregate root for one analysis run.
// It is built once by Aggregate and read-only afterwards; filters and sorts
// produce fresh summaries with recomputed aggregates.
//
// TotalMonthlyCost and TotalBillableCost are scaled to a 30-day month when
// the analysis period differs from 30 days. The breakdown maps deliberately
// stay at raw period figures, so for non-30-day periods the monthly total
// will not reconcile exactly against a breakdown sum.
type ComprehensiveCostSummary struct {
	ClusterID    string    `json:"cluster_id"`
	Region       string    `json:"region"`
	AnalysisDate time.Time `json:"analysis_date"`
	PeriodDays   int       `json:"period_days"`

	TotalMonthlyCost  float64 `json:"total_monthly_cost"`
	TotalBillableCost float64 `json:"total_billable_cost"`
	TotalResources    int     `json:"total_resources"`
	BillableResources int     `json:"billable_resources"`
	FreeResources     int     `json:"free_resources"`

	CostByCategory map[costing.CostCategory]float64 `json:"cost_by_category"`
	CostByService  map[string]float64               `json:"cost_by_service"`
	CostByPriority map[costing.CostPriority]float64 `json:"cost_by_priority"`
	CostByRegion   map[string]float64               `json:"cost_by_region"`

	ResourceSummaries    []ResourceCostSummary `json:"resource_summaries"`
	HighestCostResources []ResourceCostSummary `json:"highest_cost_resources"`

	Distribution Distribution          `json:"cost_distribution_analysis"`
	Optimization OptimizationPotential `json:"optimization_potential"`

	// Defects lists resource IDs whose inputs violated the CostResult
	// contract (negative or non-finite totals); they are reported here
	// instead of aborting the aggregation.
	Defects []string `json:"defects,omitempty"`
}
