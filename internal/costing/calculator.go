package costing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clustercost/clustercost-aws/internal/pricing"
)

// Documented conservative defaults used when discovery metadata is missing.
// Any estimate built on one of these carries IsEstimated=true.
const (
	defaultVolumeSizeGB = 20.0
	defaultS3SizeGB     = 10.0
	defaultVolumeType   = "gp2"
)

// CalculatorConfig wires a Calculator. Live is the optional live-pricing
// collaborator; Rates is the static fallback table consulted when live
// pricing is absent or failing.
type CalculatorConfig struct {
	Live   pricing.RateSource
	Rates  pricing.Rates
	Logger zerolog.Logger
}

// Calculator estimates the cost of a single resource over an analysis
// period. Estimate never returns an error and never panics out: every
// failure path degrades to a zero-cost estimated result.
type Calculator struct {
	live   pricing.RateSource
	rates  pricing.Rates
	logger zerolog.Logger
}

// NewCalculator builds a Calculator. The live source, when present, is
// wrapped with run-lifetime memoization so identical lookups hit the
// collaborator at most once.
func NewCalculator(cfg CalculatorConfig) *Calculator {
	live := cfg.Live
	if live != nil {
		live = pricing.NewCached(live)
	}
	return &Calculator{
		live:   live,
		rates:  cfg.Rates,
		logger: cfg.Logger,
	}
}

// Estimate returns the cost of one resource over periodDays in region.
// The kind is resolved through NormalizeKind, the same chain the aggregator
// uses, so calculation and classification can never disagree.
func (c *Calculator) Estimate(resource ResourceRecord, region string, periodDays int) (result CostResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Str("resource_id", resource.ID).
				Interface("panic", r).
				Msg("cost calculation panicked")
			result = FailedResult(fmt.Errorf("cost calculation panic: %v", r))
		}
	}()

	if periodDays <= 0 {
		periodDays = 30
	}

	kind := NormalizeKind(resource)
	switch {
	case IsFree(kind):
		return freeResult(kind)
	case kind == KindOther:
		return CostResult{
			TotalCost:     0,
			Breakdown:     map[string]float64{"Unknown": 0},
			Service:       "Unknown",
			IsEstimated:   true,
			PricingSource: SourceUnknownType,
		}
	}

	switch kind {
	case KindInstances:
		return c.estimateInstance(resource, region, periodDays)
	case KindVolumes:
		return c.estimateVolume(resource, region, periodDays)
	case KindS3Buckets:
		return c.estimateS3(resource, region, periodDays)
	case KindALBsNLBs:
		return c.estimateHourly(pricing.ItemLoadBalancer, "ELB-Application", region, periodDays,
			map[string]string{pricing.ParamLBType: "application"}, c.rates.LoadBalancerHourly)
	case KindClassicELBs:
		return c.estimateHourly(pricing.ItemLoadBalancer, "ELB-Classic", region, periodDays,
			map[string]string{pricing.ParamLBType: "classic"}, c.rates.LoadBalancerHourly)
	case KindNATGateways:
		return c.estimateHourly(pricing.ItemNATGateway, "NAT-Gateway", region, periodDays, nil, c.rates.NATGatewayHourly)
	case KindElasticIPs:
		// Worst case: an elastic IP is assumed billed for the whole
		// period whether or not it is attached.
		return c.estimateHourly(pricing.ItemElasticIP, "Elastic-IP", region, periodDays, nil, c.rates.ElasticIPHourly)
	case KindVPCEndpoints:
		return c.estimateHourly(pricing.ItemVPCEndpoint, "VPC-Endpoint", region, periodDays, nil, c.rates.VPCEndpointHourly)
	case KindRoute53Zones:
		return c.estimateRoute53Zone(region, periodDays)
	case KindRDSInstances, KindRDSClusters:
		return c.estimateRDS(resource, kind, region, periodDays)
	case KindRoute53Records, KindLambdaFunctions:
		return usageBasedResult(kind)
	}

	// Classified kind with no pricing rule yet; treat as unknown rather
	// than guessing a rate.
	return CostResult{
		TotalCost:     0,
		Breakdown:     map[string]float64{serviceLabel(kind): 0},
		Service:       serviceLabel(kind),
		IsEstimated:   true,
		PricingSource: SourceUnknownType,
	}
}

func (c *Calculator) estimateInstance(resource ResourceRecord, region string, periodDays int) CostResult {
	instanceType := resource.Meta(MetaInstanceType)
	if instanceType == "" {
		instanceType = resource.Type
	}
	instanceType = strings.ToLower(strings.TrimSpace(instanceType))

	rate, source := c.instanceRate(instanceType, region)
	total := rate * 24 * float64(periodDays)

	c.logger.Debug().
		Str("resource_id", resource.ID).
		Str("instance_type", instanceType).
		Float64("hourly_rate", rate).
		Str("pricing_source", source).
		Msg("instance cost estimated")

	return CostResult{
		TotalCost:     total,
		Breakdown:     map[string]float64{"EC2-Instance": total},
		Service:       "EC2-Instance",
		IsEstimated:   source != SourceLive,
		PricingSource: source,
		HourlyRate:    rate,
	}
}

// instanceRate resolves an hourly rate for an instance type: live source,
// then the static table, then a documented default. The default is the
// mid-tier rate unless the type names a known small burstable size.
func (c *Calculator) instanceRate(instanceType, region string) (float64, string) {
	if instanceType != "" {
		if rate, ok := c.liveRate(pricing.ItemEC2Instance, region, map[string]string{pricing.ParamInstanceType: instanceType}); ok {
			return rate, SourceLive
		}
		if rate, ok := c.rates.InstanceHourlyRate(instanceType); ok {
			return rate, SourceStaticTable
		}
		if strings.Contains(instanceType, "nano") || strings.Contains(instanceType, "micro") {
			return c.rates.SmallInstanceHourly, SourceDefault
		}
	}
	return c.rates.DefaultInstanceHourly, SourceDefault
}

func (c *Calculator) estimateVolume(resource ResourceRecord, region string, periodDays int) CostResult {
	estimated := false

	volumeType := strings.ToLower(resource.Meta(MetaVolumeType))
	if volumeType == "" {
		volumeType = defaultVolumeType
		estimated = true
	}

	sizeGB, sizeKnown := parseSizeGB(resource.Meta(MetaSizeGB))
	if !sizeKnown {
		sizeGB = defaultVolumeSizeGB
		estimated = true
	}

	rate, source := c.perGBRate(pricing.ItemEBSVolume, region,
		map[string]string{pricing.ParamVolumeType: volumeType},
		func() (float64, bool) { return c.rates.VolumeRatePerGBMonth(volumeType) },
		c.rates.DefaultVolumePerGBMonth)

	total := rate * sizeGB * float64(periodDays) / 30.0

	return CostResult{
		TotalCost:        total,
		Breakdown:        map[string]float64{"EBS-Volume": total},
		Service:          "EBS-Volume",
		IsEstimated:      estimated || source != SourceLive,
		PricingSource:    source,
		MonthlyRatePerGB: rate,
	}
}

func (c *Calculator) estimateS3(resource ResourceRecord, region string, periodDays int) CostResult {
	estimated := false
	sizeGB, sizeKnown := parseSizeGB(resource.Meta(MetaStoredGB))
	if !sizeKnown {
		sizeGB = defaultS3SizeGB
		estimated = true
	}

	rate, source := c.perGBRate(pricing.ItemS3Storage, region,
		map[string]string{pricing.ParamStorageClass: "standard"},
		func() (float64, bool) { return c.rates.S3PerGBMonth, true },
		c.rates.S3PerGBMonth)

	total := rate * sizeGB * float64(periodDays) / 30.0

	return CostResult{
		TotalCost:        total,
		Breakdown:        map[string]float64{"S3-Bucket": total},
		Service:          "S3-Bucket",
		IsEstimated:      estimated || source != SourceLive,
		PricingSource:    source,
		MonthlyRatePerGB: rate,
	}
}

func (c *Calculator) estimateHourly(item, service, region string, periodDays int, params map[string]string, fallback float64) CostResult {
	rate, source := fallback, SourceStaticTable
	if live, ok := c.liveRate(item, region, params); ok {
		rate, source = live, SourceLive
	}
	total := rate * 24 * float64(periodDays)
	return CostResult{
		TotalCost:     total,
		Breakdown:     map[string]float64{service: total},
		Service:       service,
		IsEstimated:   source != SourceLive,
		PricingSource: source,
		HourlyRate:    rate,
	}
}

func (c *Calculator) estimateRoute53Zone(region string, periodDays int) CostResult {
	rate, source := c.rates.Route53ZoneMonthly, SourceStaticTable
	if live, ok := c.liveRate(pricing.ItemRoute53Zone, region, nil); ok {
		rate, source = live, SourceLive
	}
	total := rate * float64(periodDays) / 30.0
	return CostResult{
		TotalCost:     total,
		Breakdown:     map[string]float64{"Route53-HostedZone": total},
		Service:       "Route53-HostedZone",
		IsEstimated:   source != SourceLive,
		PricingSource: source,
	}
}

func (c *Calculator) estimateRDS(resource ResourceRecord, kind ResourceKind, region string, periodDays int) CostResult {
	service := "RDS-Instance"
	if kind == KindRDSClusters {
		service = "RDS-Cluster"
	}

	instanceType := strings.ToLower(resource.Meta(MetaInstanceType))
	if instanceType == "" {
		instanceType = strings.ToLower(resource.Type)
	}

	rate, source := c.rates.DefaultInstanceHourly, SourceDefault
	if instanceType != "" {
		if live, ok := c.liveRate(pricing.ItemRDSInstance, region, map[string]string{pricing.ParamInstanceType: instanceType}); ok {
			rate, source = live, SourceLive
		} else if static, ok := c.rates.RDSHourlyRate(instanceType); ok {
			rate, source = static, SourceStaticTable
		}
	}

	total := rate * 24 * float64(periodDays)
	return CostResult{
		TotalCost:     total,
		Breakdown:     map[string]float64{service: total},
		Service:       service,
		IsEstimated:   source != SourceLive,
		PricingSource: source,
		HourlyRate:    rate,
	}
}

// perGBRate resolves a GB-month rate: live source first, then the supplied
// static lookup, then the default.
func (c *Calculator) perGBRate(item, region string, params map[string]string, static func() (float64, bool), def float64) (float64, string) {
	if rate, ok := c.liveRate(item, region, params); ok {
		return rate, SourceLive
	}
	if rate, ok := static(); ok {
		return rate, SourceStaticTable
	}
	return def, SourceDefault
}

// liveRate asks the live source and reports whether a usable rate came
// back. Any error, negative rate, or non-finite rate is a miss.
func (c *Calculator) liveRate(item, region string, params map[string]string) (float64, bool) {
	if c.live == nil {
		return 0, false
	}
	rate, err := c.live.Rate(item, region, params)
	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("item", item).
			Str("aws_region", region).
			Msg("live pricing lookup failed, using fallback")
		return 0, false
	}
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, false
	}
	return rate, true
}

func parseSizeGB(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	size, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || size < 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return 0, false
	}
	return size, true
}

// kindServices labels free kinds for breakdown reporting.
var kindServices = map[ResourceKind]string{
	KindSecurityGroups:       "Security-Group",
	KindNetworkInterfaces:    "Network-Interface",
	KindVPCs:                 "VPC",
	KindSubnets:              "Subnet",
	KindRouteTables:          "Route-Table",
	KindInternetGateways:     "Internet-Gateway",
	KindTargetGroups:         "Target-Group",
	KindIAMRoles:             "IAM-Role",
	KindIAMPolicies:          "IAM-Policy",
	KindCloudFormationStacks: "CloudFormation-Stack",
	KindRoute53Records:       "Route53-RecordSet",
	KindLambdaFunctions:      "Lambda-Function",
}

func serviceLabel(kind ResourceKind) string {
	if s, ok := kindServices[kind]; ok {
		return s
	}
	return "Unknown"
}

func freeResult(kind ResourceKind) CostResult {
	service := serviceLabel(kind)
	return CostResult{
		TotalCost: 0,
		Breakdown: map[string]float64{service: 0},
		Service:   service,
		// A free classification is a fact, not an estimate.
		IsEstimated:   false,
		PricingSource: SourceFreeService,
	}
}

func usageBasedResult(kind ResourceKind) CostResult {
	service := serviceLabel(kind)
	return CostResult{
		TotalCost:     0,
		Breakdown:     map[string]float64{service: 0},
		Service:       service,
		IsEstimated:   true,
		PricingSource: SourceUsageBased,
	}
}
