package costing

import "strings"

// ResourceKind is the normalized identifier a resource is classified and
// priced under. The set is open: unknown discovery output normalizes to
// KindOther rather than failing.
type ResourceKind string

const (
	KindInstances            ResourceKind = "instances"
	KindVolumes              ResourceKind = "volumes"
	KindNATGateways          ResourceKind = "nat_gateways"
	KindElasticIPs           ResourceKind = "elastic_ips"
	KindVPCEndpoints         ResourceKind = "vpc_endpoints"
	KindS3Buckets            ResourceKind = "s3_buckets"
	KindRoute53Zones         ResourceKind = "route53_zones"
	KindRoute53Records       ResourceKind = "route53_records"
	KindALBsNLBs             ResourceKind = "albs_nlbs"
	KindClassicELBs          ResourceKind = "classic_elbs"
	KindTargetGroups         ResourceKind = "target_groups"
	KindLambdaFunctions      ResourceKind = "lambda_functions"
	KindRDSInstances         ResourceKind = "rds_instances"
	KindRDSClusters          ResourceKind = "rds_clusters"
	KindSecurityGroups       ResourceKind = "security_groups"
	KindNetworkInterfaces    ResourceKind = "network_interfaces"
	KindVPCs                 ResourceKind = "vpcs"
	KindSubnets              ResourceKind = "subnets"
	KindRouteTables          ResourceKind = "route_tables"
	KindInternetGateways     ResourceKind = "internet_gateways"
	KindIAMRoles             ResourceKind = "iam_roles"
	KindIAMPolicies          ResourceKind = "iam_policies"
	KindCloudFormationStacks ResourceKind = "cloudformation_stacks"
	KindOther                ResourceKind = "other_resources"
)

// Metadata keys recognized by the normalization chain. Discovery writes
// these; this package only reads them.
const (
	MetaCategory     = "resource_category"
	MetaService      = "service"
	MetaResourceType = "resource_type"
	MetaInstanceType = "instance_type"
	MetaVolumeType   = "volume_type"
	MetaSizeGB       = "size_gb"
	MetaStoredGB     = "estimated_gb_stored"
)

// serviceTypeKinds maps ARN service and resource-type components to kinds.
// Within a service the lookup is exact first, then substring, then the ""
// entry as a service-wide default (S3 ARNs carry no resource-type part).
var serviceTypeKinds = map[string]map[string]ResourceKind{
	"ec2": {
		"instance":          KindInstances,
		"volume":            KindVolumes,
		"natgateway":        KindNATGateways,
		"nat-gateway":       KindNATGateways,
		"elastic-ip":        KindElasticIPs,
		"vpc-endpoint":      KindVPCEndpoints,
		"security-group":    KindSecurityGroups,
		"network-interface": KindNetworkInterfaces,
		"vpc":               KindVPCs,
		"subnet":            KindSubnets,
		"route-table":       KindRouteTables,
		"internet-gateway":  KindInternetGateways,
	},
	"elasticloadbalancing": {
		"loadbalancer": KindALBsNLBs,
		"targetgroup":  KindTargetGroups,
	},
	"s3": {
		"": KindS3Buckets,
	},
	"route53": {
		"hostedzone": KindRoute53Zones,
		"rrset":      KindRoute53Records,
	},
	"rds": {
		"db":      KindRDSInstances,
		"cluster": KindRDSClusters,
	},
	"lambda": {
		"function": KindLambdaFunctions,
	},
	"iam": {
		"role":   KindIAMRoles,
		"policy": KindIAMPolicies,
	},
	"cloudformation": {
		"stack": KindCloudFormationStacks,
	},
}

// instanceFamilies are type-string prefixes that identify an EC2 instance
// type (e.g. "t3.medium") when no structured metadata is present.
var instanceFamilies = []string{"t2.", "t3.", "t3a.", "m5.", "m5a.", "m6i.", "c5.", "c5d.", "c6i.", "r5.", "r5a.", "r6i."}

// typePatterns are last-resort substring heuristics over the free-form type
// string, checked in order.
var typePatterns = []struct {
	substr string
	kind   ResourceKind
}{
	{"nat", KindNATGateways},
	{"volume", KindVolumes},
	{"gp2", KindVolumes},
	{"gp3", KindVolumes},
	{"bucket", KindS3Buckets},
	{"security", KindSecurityGroups},
	{"subnet", KindSubnets},
	{"loadbalancer", KindALBsNLBs},
	{"load-balancer", KindALBsNLBs},
}

// NormalizeKind resolves a record to its canonical kind. The chain is, in
// order: explicit category hint, ARN service/resource-type mapping, type
// string heuristics, then a conservative default.
//
// A record whose type string cannot be recognized still normalizes to
// KindInstances, not to the cheapest possible tier: the original tool
// silently priced such resources as the smallest instance, which produced
// order-of-magnitude underestimates. Records with no classification signal
// at all normalize to KindOther.
//
// The calculator and the aggregator both classify through this single
// function so the same record can never be classified two different ways.
func NormalizeKind(r ResourceRecord) ResourceKind {
	if hint := r.Meta(MetaCategory); hint != "" {
		if k, ok := knownKind(hint); ok {
			return k
		}
	}

	if k, ok := kindFromARNParts(r.Meta(MetaService), r.Meta(MetaResourceType)); ok {
		return k
	}

	t := strings.ToLower(strings.TrimSpace(r.Type))
	if t == "" {
		return KindOther
	}
	for _, fam := range instanceFamilies {
		if strings.HasPrefix(t, fam) {
			return KindInstances
		}
	}
	for _, p := range typePatterns {
		if strings.Contains(t, p.substr) {
			return p.kind
		}
	}

	// Typed but unrecognized: assume a compute instance and let the
	// calculator apply the mid-tier default rate with IsEstimated set.
	return KindInstances
}

func knownKind(s string) (ResourceKind, bool) {
	k := ResourceKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kindCategories[k]; ok {
		return k, true
	}
	return KindOther, false
}

func kindFromARNParts(service, resourceType string) (ResourceKind, bool) {
	m, ok := serviceTypeKinds[strings.ToLower(service)]
	if !ok {
		return KindOther, false
	}
	rt := strings.ToLower(resourceType)
	if k, ok := m[rt]; ok {
		return k, true
	}
	for key, k := range m {
		if key != "" && strings.Contains(rt, key) {
			return k, true
		}
	}
	if k, ok := m[""]; ok {
		return k, true
	}
	return KindOther, false
}
