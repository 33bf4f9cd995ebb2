package costing

// Pricing source labels recorded in CostResult.PricingSource.
const (
	SourceLive        = "live pricing"
	SourceStaticTable = "static rate table"
	SourceDefault     = "conservative default"
	SourceFreeService = "free service"
	SourceUnknownType = "unknown resource type"
	SourceUsageBased  = "usage-based service"
)

// CostResult is the cost estimate for one resource over the analysis
// period. Results are immutable once returned: TotalCost is always present,
// finite, and non-negative, even when the calculation failed.
type CostResult struct {
	// TotalCost is the cost over the analysis period in USD.
	TotalCost float64 `json:"total_cost"`

	// Breakdown maps cost component names to sub-amounts; components sum
	// to TotalCost within floating tolerance.
	Breakdown map[string]float64 `json:"service_breakdown"`

	// Service is the billing service label, e.g. "EC2-Instance".
	Service string `json:"service"`

	// IsEstimated is true when any fallback rate or documented default was
	// used. A free service is a confident fact, not an estimate.
	IsEstimated bool `json:"is_estimated"`

	// PricingSource describes how the figure was obtained.
	PricingSource string `json:"pricing_source"`

	// HourlyRate and MonthlyRatePerGB are diagnostic echoes of the rate
	// that produced TotalCost, when one applies.
	HourlyRate       float64 `json:"hourly_rate,omitempty"`
	MonthlyRatePerGB float64 `json:"monthly_rate_per_gb,omitempty"`

	// CalculationFailed marks results synthesized after an unrecoverable
	// pricing failure. Err carries the truncated error text.
	CalculationFailed bool   `json:"calculation_failed,omitempty"`
	Err               string `json:"error,omitempty"`
}

// maxErrLen bounds the error text carried inside a CostResult.
const maxErrLen = 100

// FailedResult builds the guaranteed fallback result for a resource whose
// cost could not be calculated: zero cost, estimated, with the error noted.
func FailedResult(err error) CostResult {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if len(msg) > maxErrLen {
		msg = msg[:maxErrLen]
	}
	return CostResult{
		TotalCost:         0,
		Breakdown:         map[string]float64{"Unknown": 0},
		Service:           "Unknown",
		IsEstimated:       true,
		PricingSource:     "fallback (error: " + msg + ")",
		CalculationFailed: true,
		Err:               msg,
	}
}
