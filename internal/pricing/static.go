package pricing

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rates holds the static fallback rate tables used when live pricing is
// unavailable. All figures are rough public on-demand rates in USD and are
// deliberately conservative; results priced from them are estimates.
type Rates struct {
	// InstanceHourly maps EC2 instance types to hourly rates.
	InstanceHourly map[string]float64 `yaml:"instance_hourly"`

	// VolumePerGBMonth maps EBS volume types to per GB-month rates.
	VolumePerGBMonth map[string]float64 `yaml:"volume_per_gb_month"`

	// RDSHourly maps db.* instance types to hourly rates.
	RDSHourly map[string]float64 `yaml:"rds_hourly"`

	LoadBalancerHourly float64 `yaml:"load_balancer_hourly"`
	NATGatewayHourly   float64 `yaml:"nat_gateway_hourly"`
	ElasticIPHourly    float64 `yaml:"elastic_ip_hourly"`
	VPCEndpointHourly  float64 `yaml:"vpc_endpoint_hourly"`
	S3PerGBMonth       float64 `yaml:"s3_per_gb_month"`
	Route53ZoneMonthly float64 `yaml:"route53_zone_monthly"`

	// DefaultInstanceHourly prices instances whose type is unknown or
	// unspecified. It is a mid-tier rate (m5.large) on purpose: defaulting
	// to the cheapest tier hides expensive resources behind
	// order-of-magnitude underestimates.
	DefaultInstanceHourly float64 `yaml:"default_instance_hourly"`

	// SmallInstanceHourly prices instances known to be small burstable
	// types when the exact type is missing from the table.
	SmallInstanceHourly float64 `yaml:"small_instance_hourly"`

	DefaultVolumePerGBMonth float64 `yaml:"default_volume_per_gb_month"`
}

// DefaultRates returns the built-in fallback table.
func DefaultRates() Rates {
	return Rates{
		InstanceHourly: map[string]float64{
			"t2.nano": 0.0058, "t2.micro": 0.0116, "t2.small": 0.023, "t2.medium": 0.0464,
			"t2.large": 0.0928, "t3.nano": 0.0052, "t3.micro": 0.0104, "t3.small": 0.0208,
			"t3.medium": 0.0416, "t3.large": 0.0832, "t3.xlarge": 0.1664, "t3.2xlarge": 0.3328,
			"m5.large": 0.096, "m5.xlarge": 0.192, "m5.2xlarge": 0.384, "m5.4xlarge": 0.768,
			"c5.large": 0.085, "c5.xlarge": 0.17, "c5.2xlarge": 0.34, "c5.4xlarge": 0.68,
			"c5d.metal": 3.888,
			"r5.large":  0.126, "r5.xlarge": 0.252, "r5.2xlarge": 0.504,
		},
		VolumePerGBMonth: map[string]float64{
			"gp2": 0.10, "gp3": 0.08, "io1": 0.125, "io2": 0.125,
			"sc1": 0.025, "st1": 0.045,
		},
		RDSHourly: map[string]float64{
			"db.t3.micro": 0.017, "db.t3.small": 0.034, "db.t3.medium": 0.068,
			"db.m5.large": 0.171, "db.m5.xlarge": 0.342, "db.r5.large": 0.24,
		},
		LoadBalancerHourly:      0.025,
		NATGatewayHourly:        0.045,
		ElasticIPHourly:         0.005,
		VPCEndpointHourly:       0.01,
		S3PerGBMonth:            0.023,
		Route53ZoneMonthly:      0.50,
		DefaultInstanceHourly:   0.096,
		SmallInstanceHourly:     0.0116,
		DefaultVolumePerGBMonth: 0.10,
	}
}

// LoadRates reads YAML overrides from path and merges them over the
// defaults. Only fields present in the file replace the built-ins.
func LoadRates(path string) (Rates, error) {
	rates := DefaultRates()
	data, err := os.ReadFile(path)
	if err != nil {
		return rates, fmt.Errorf("reading rate overrides: %w", err)
	}
	var overrides Rates
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return rates, fmt.Errorf("parsing rate overrides: %w", err)
	}
	rates.merge(overrides)
	return rates, nil
}

func (r *Rates) merge(o Rates) {
	for k, v := range o.InstanceHourly {
		r.InstanceHourly[k] = v
	}
	for k, v := range o.VolumePerGBMonth {
		r.VolumePerGBMonth[k] = v
	}
	for k, v := range o.RDSHourly {
		r.RDSHourly[k] = v
	}
	if o.LoadBalancerHourly > 0 {
		r.LoadBalancerHourly = o.LoadBalancerHourly
	}
	if o.NATGatewayHourly > 0 {
		r.NATGatewayHourly = o.NATGatewayHourly
	}
	if o.ElasticIPHourly > 0 {
		r.ElasticIPHourly = o.ElasticIPHourly
	}
	if o.VPCEndpointHourly > 0 {
		r.VPCEndpointHourly = o.VPCEndpointHourly
	}
	if o.S3PerGBMonth > 0 {
		r.S3PerGBMonth = o.S3PerGBMonth
	}
	if o.Route53ZoneMonthly > 0 {
		r.Route53ZoneMonthly = o.Route53ZoneMonthly
	}
	if o.DefaultInstanceHourly > 0 {
		r.DefaultInstanceHourly = o.DefaultInstanceHourly
	}
	if o.SmallInstanceHourly > 0 {
		r.SmallInstanceHourly = o.SmallInstanceHourly
	}
	if o.DefaultVolumePerGBMonth > 0 {
		r.DefaultVolumePerGBMonth = o.DefaultVolumePerGBMonth
	}
}

// InstanceHourlyRate looks up an instance type, exact match first, then
// substring. The second return is false on a miss.
func (r Rates) InstanceHourlyRate(instanceType string) (float64, bool) {
	return lookup(r.InstanceHourly, instanceType)
}

// VolumeRatePerGBMonth looks up an EBS volume type.
func (r Rates) VolumeRatePerGBMonth(volumeType string) (float64, bool) {
	return lookup(r.VolumePerGBMonth, volumeType)
}

// RDSHourlyRate looks up an RDS instance class.
func (r Rates) RDSHourlyRate(instanceType string) (float64, bool) {
	return lookup(r.RDSHourly, instanceType)
}

func lookup(table map[string]float64, key string) (float64, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	if rate, ok := table[key]; ok {
		return rate, true
	}
	for k, rate := range table {
		if k != "" && strings.Contains(key, k) {
			return rate, true
		}
	}
	return 0, false
}
