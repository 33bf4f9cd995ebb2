// Package pricing provides rate lookups for the cost calculator: a
// RateSource boundary for live pricing collaborators, a static fallback
// rate table, and a memoizing cache wrapper.
package pricing

// Items a RateSource can be asked to price. Hourly items return USD per
// hour; storage items return USD per GB-month; zone items return USD per
// month.
const (
	ItemEC2Instance  = "ec2-instance"
	ItemEBSVolume    = "ebs-volume"
	ItemLoadBalancer = "load-balancer"
	ItemNATGateway   = "nat-gateway"
	ItemElasticIP    = "elastic-ip"
	ItemVPCEndpoint  = "vpc-endpoint"
	ItemS3Storage    = "s3-storage"
	ItemRoute53Zone  = "route53-zone"
	ItemRDSInstance  = "rds-instance"
)

// Common parameter keys passed to Rate.
const (
	ParamInstanceType = "instance_type"
	ParamVolumeType   = "volume_type"
	ParamLBType       = "lb_type"
	ParamStorageClass = "storage_class"
)

// RateSource is the live-pricing collaborator boundary. Implementations may
// fail for any reason (throttling, auth, missing data, malformed payloads);
// callers must tolerate arbitrary errors and fall back to static rates.
type RateSource interface {
	Rate(item, region string, params map[string]string) (float64, error)
}

// RateFunc adapts a function to the RateSource interface.
type RateFunc func(item, region string, params map[string]string) (float64, error)

// Rate calls f.
func (f RateFunc) Rate(item, region string, params map[string]string) (float64, error) {
	return f(item, region, params)
}
