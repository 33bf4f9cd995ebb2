package costing

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clustercost/clustercost-aws/internal/pricing"
)

func newTestCalculator(live pricing.RateSource) *Calculator {
	return NewCalculator(CalculatorConfig{
		Live:   live,
		Rates:  pricing.DefaultRates(),
		Logger: zerolog.Nop(),
	})
}

func TestEstimateInstanceFromStaticTable(t *testing.T) {
	calc := newTestCalculator(nil)

	result := calc.Estimate(ResourceRecord{
		ID:       "i-0abc",
		Type:     "m5.large",
		Metadata: map[string]string{MetaCategory: "instances"},
	}, "us-east-1", 30)

	// 0.096/hr * 24 * 30
	assert.InDelta(t, 69.12, result.TotalCost, 1e-9)
	assert.Equal(t, "EC2-Instance", result.Service)
	assert.True(t, result.IsEstimated, "static table rates are estimates")
	assert.Equal(t, SourceStaticTable, result.PricingSource)
	assert.InDelta(t, 0.096, result.HourlyRate, 1e-9)
}

func TestEstimateInstanceFromLiveSource(t *testing.T) {
	live := pricing.RateFunc(func(item, region string, params map[string]string) (float64, error) {
		require.Equal(t, pricing.ItemEC2Instance, item)
		require.Equal(t, "m5.large", params[pricing.ParamInstanceType])
		return 0.10, nil
	})
	calc := newTestCalculator(live)

	result := calc.Estimate(ResourceRecord{
		ID:       "i-0abc",
		Type:     "m5.large",
		Metadata: map[string]string{MetaCategory: "instances"},
	}, "us-east-1", 30)

	assert.InDelta(t, 72.0, result.TotalCost, 1e-9)
	assert.False(t, result.IsEstimated)
	assert.Equal(t, SourceLive, result.PricingSource)
}

// A failing live source must silently degrade to the static table, never
// surface an error.
func TestEstimateSurvivesLiveFailure(t *testing.T) {
	live := pricing.RateFunc(func(string, string, map[string]string) (float64, error) {
		return 0, errors.New("throttling: rate exceeded")
	})
	calc := newTestCalculator(live)

	result := calc.Estimate(ResourceRecord{ID: "i-1", Type: "t3.medium"}, "us-east-1", 30)

	assert.InDelta(t, 0.0416*24*30, result.TotalCost, 1e-9)
	assert.True(t, result.IsEstimated)
	assert.Equal(t, SourceStaticTable, result.PricingSource)
}

// An unspecified or unrecognized instance type must price at the mid-tier
// default, not the cheapest tier, and be flagged as estimated.
func TestUnknownInstanceTypeUsesConservativeDefault(t *testing.T) {
	calc := newTestCalculator(nil)

	result := calc.Estimate(ResourceRecord{
		ID:       "i-2",
		Metadata: map[string]string{MetaCategory: "instances"},
	}, "us-east-1", 30)

	assert.InDelta(t, 69.12, result.TotalCost, 1e-9, "mid-tier default, not t2.nano")
	assert.True(t, result.IsEstimated)
	assert.Equal(t, SourceDefault, result.PricingSource)
}

// A type that names a small burstable size gets the distinct small-instance
// default instead of the mid-tier one.
func TestKnownSmallInstanceDefault(t *testing.T) {
	calc := newTestCalculator(nil)

	result := calc.Estimate(ResourceRecord{
		ID:       "i-3",
		Type:     "t9.micro", // family not in the table, size recognizably small
		Metadata: map[string]string{MetaCategory: "instances"},
	}, "us-east-1", 30)

	assert.InDelta(t, 0.0116*24*30, result.TotalCost, 1e-9)
	assert.True(t, result.IsEstimated)
	assert.Equal(t, SourceDefault, result.PricingSource)
}

func TestEstimateVolume(t *testing.T) {
	calc := newTestCalculator(nil)

	tests := []struct {
		name      string
		metadata  map[string]string
		wantCost  float64
		estimated bool
	}{
		{
			name:      "explicit size and type",
			metadata:  map[string]string{MetaCategory: "volumes", MetaVolumeType: "gp3", MetaSizeGB: "20"},
			wantCost:  0.08 * 20, // per GB-month over a 30-day period
			estimated: true,      // static rate table
		},
		{
			name:      "missing size uses documented default",
			metadata:  map[string]string{MetaCategory: "volumes", MetaVolumeType: "gp2"},
			wantCost:  0.10 * 20,
			estimated: true,
		},
		{
			name:      "missing type defaults to gp2",
			metadata:  map[string]string{MetaCategory: "volumes", MetaSizeGB: "100"},
			wantCost:  0.10 * 100,
			estimated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calc.Estimate(ResourceRecord{ID: "vol-1", Metadata: tt.metadata}, "us-east-1", 30)
			assert.InDelta(t, tt.wantCost, result.TotalCost, 1e-9)
			assert.Equal(t, tt.estimated, result.IsEstimated)
			assert.Equal(t, "EBS-Volume", result.Service)
		})
	}
}

func TestEstimateVolumeScalesWithPeriod(t *testing.T) {
	calc := newTestCalculator(nil)

	result := calc.Estimate(ResourceRecord{
		ID:       "vol-2",
		Metadata: map[string]string{MetaCategory: "volumes", MetaVolumeType: "gp3", MetaSizeGB: "30"},
	}, "us-east-1", 15)

	assert.InDelta(t, 0.08*30*0.5, result.TotalCost, 1e-9)
}

func TestEstimateFreeService(t *testing.T) {
	calc := newTestCalculator(nil)

	result := calc.Estimate(ResourceRecord{
		ID:       "sg-1",
		Metadata: map[string]string{MetaService: "ec2", MetaResourceType: "security-group"},
	}, "us-east-1", 30)

	assert.Zero(t, result.TotalCost)
	assert.False(t, result.IsEstimated, "free classification is a fact, not an estimate")
	assert.Equal(t, SourceFreeService, result.PricingSource)
	assert.Equal(t, "Security-Group", result.Service)
}

func TestEstimateUnknownResource(t *testing.T) {
	calc := newTestCalculator(nil)

	result := calc.Estimate(ResourceRecord{ID: "??"}, "us-east-1", 30)

	assert.Zero(t, result.TotalCost)
	assert.True(t, result.IsEstimated)
	assert.Equal(t, SourceUnknownType, result.PricingSource)
}

func TestEstimateHourlyKinds(t *testing.T) {
	calc := newTestCalculator(nil)
	hours := 24.0 * 30

	tests := []struct {
		kind     string
		wantCost float64
		service  string
	}{
		{"nat_gateways", 0.045 * hours, "NAT-Gateway"},
		{"elastic_ips", 0.005 * hours, "Elastic-IP"},
		{"vpc_endpoints", 0.01 * hours, "VPC-Endpoint"},
		{"albs_nlbs", 0.025 * hours, "ELB-Application"},
		{"classic_elbs", 0.025 * hours, "ELB-Classic"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			result := calc.Estimate(ResourceRecord{
				ID:       "r-" + tt.kind,
				Metadata: map[string]string{MetaCategory: tt.kind},
			}, "us-east-1", 30)
			assert.InDelta(t, tt.wantCost, result.TotalCost, 1e-9)
			assert.Equal(t, tt.service, result.Service)
		})
	}
}

// Non-negativity and finiteness must hold even for hostile live sources.
func TestEstimateAlwaysFiniteNonNegative(t *testing.T) {
	sources := map[string]pricing.RateSource{
		"error":    pricing.RateFunc(func(string, string, map[string]string) (float64, error) { return 0, errors.New("boom") }),
		"negative": pricing.RateFunc(func(string, string, map[string]string) (float64, error) { return -5, nil }),
		"nan":      pricing.RateFunc(func(string, string, map[string]string) (float64, error) { return math.NaN(), nil }),
		"inf":      pricing.RateFunc(func(string, string, map[string]string) (float64, error) { return math.Inf(1), nil }),
	}
	records := []ResourceRecord{
		{ID: "a", Type: "m5.large"},
		{ID: "b", Metadata: map[string]string{MetaCategory: "volumes"}},
		{ID: "c", Metadata: map[string]string{MetaCategory: "s3_buckets"}},
		{ID: "d", Metadata: map[string]string{MetaCategory: "nat_gateways"}},
		{ID: "e"},
	}

	for name, live := range sources {
		t.Run(name, func(t *testing.T) {
			calc := newTestCalculator(live)
			for _, r := range records {
				result := calc.Estimate(r, "us-east-1", 30)
				assert.GreaterOrEqual(t, result.TotalCost, 0.0, "resource %s", r.ID)
				assert.False(t, math.IsNaN(result.TotalCost) || math.IsInf(result.TotalCost, 0), "resource %s", r.ID)
			}
		})
	}
}

// Breakdown components must sum to the total for every priced kind.
func TestBreakdownSumsToTotal(t *testing.T) {
	calc := newTestCalculator(nil)
	records := []ResourceRecord{
		{ID: "a", Type: "c5.xlarge"},
		{ID: "b", Metadata: map[string]string{MetaCategory: "volumes", MetaSizeGB: "50"}},
		{ID: "c", Metadata: map[string]string{MetaCategory: "s3_buckets"}},
		{ID: "d", Metadata: map[string]string{MetaCategory: "route53_zones"}},
		{ID: "e", Metadata: map[string]string{MetaCategory: "security_groups"}},
	}

	for _, r := range records {
		result := calc.Estimate(r, "us-east-1", 30)
		sum := 0.0
		for _, v := range result.Breakdown {
			sum += v
		}
		assert.InDelta(t, result.TotalCost, sum, 1e-6, "resource %s", r.ID)
	}
}

// The memoizing wrapper must collapse identical lookups into one upstream
// call per run.
func TestEstimateMemoizesLiveLookups(t *testing.T) {
	calls := 0
	live := pricing.RateFunc(func(string, string, map[string]string) (float64, error) {
		calls++
		return 0.10, nil
	})
	calc := newTestCalculator(live)

	record := ResourceRecord{ID: "i-1", Type: "m5.large"}
	for i := 0; i < 5; i++ {
		calc.Estimate(record, "us-east-1", 30)
	}
	assert.Equal(t, 1, calls)
}

func TestFailedResultTruncatesError(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	result := FailedResult(errors.New(string(long)))

	assert.True(t, result.CalculationFailed)
	assert.True(t, result.IsEstimated)
	assert.Zero(t, result.TotalCost)
	assert.Len(t, result.Err, 100)
}
