package costing

import "strings"

// CostCategory is the coarse billing classification used for reporting
// breakdowns. Values marshal as their string form.
type CostCategory string

const (
	CategoryBillableCompute       CostCategory = "billable_compute"
	CategoryBillableStorage       CostCategory = "billable_storage"
	CategoryBillableNetworking    CostCategory = "billable_networking"
	CategoryBillableDatabase      CostCategory = "billable_database"
	CategoryBillableLoadBalancing CostCategory = "billable_load_balancing"
	CategoryBillableDNS           CostCategory = "billable_dns"
	CategoryFreeNetworking        CostCategory = "free_networking"
	CategoryFreeSecurity          CostCategory = "free_security"
	CategoryFreeIAM               CostCategory = "free_iam"
	CategoryFreeManagement        CostCategory = "free_management"
	CategoryUnknown               CostCategory = "unknown"
)

// CostPriority is the expense-significance tier used to order batch
// processing and to flag resources for optimization review.
type CostPriority string

const (
	PriorityHigh    CostPriority = "high"
	PriorityMedium  CostPriority = "medium"
	PriorityLow     CostPriority = "low"
	PriorityFree    CostPriority = "free"
	PriorityUnknown CostPriority = "unknown"
)

// kindCategories maps every known kind to exactly one category. The map is
// read-only after init; new kinds get an entry here, never a switch arm.
var kindCategories = map[ResourceKind]CostCategory{
	KindInstances:       CategoryBillableCompute,
	KindLambdaFunctions: CategoryBillableCompute,

	KindVolumes:   CategoryBillableStorage,
	KindS3Buckets: CategoryBillableStorage,

	KindNATGateways:  CategoryBillableNetworking,
	KindElasticIPs:   CategoryBillableNetworking,
	KindVPCEndpoints: CategoryBillableNetworking,

	KindClassicELBs: CategoryBillableLoadBalancing,
	KindALBsNLBs:    CategoryBillableLoadBalancing,

	KindRDSInstances: CategoryBillableDatabase,
	KindRDSClusters:  CategoryBillableDatabase,

	KindRoute53Zones:   CategoryBillableDNS,
	KindRoute53Records: CategoryBillableDNS,

	// Target groups themselves are free; only the load balancer bills.
	KindTargetGroups:      CategoryFreeNetworking,
	KindVPCs:              CategoryFreeNetworking,
	KindSubnets:           CategoryFreeNetworking,
	KindRouteTables:       CategoryFreeNetworking,
	KindInternetGateways:  CategoryFreeNetworking,
	KindNetworkInterfaces: CategoryFreeNetworking,

	KindSecurityGroups: CategoryFreeSecurity,

	KindIAMRoles:    CategoryFreeIAM,
	KindIAMPolicies: CategoryFreeIAM,

	KindCloudFormationStacks: CategoryFreeManagement,

	KindOther: CategoryUnknown,
}

// categoryPriorities maps every category to exactly one priority.
var categoryPriorities = map[CostCategory]CostPriority{
	CategoryBillableCompute:       PriorityHigh,
	CategoryBillableStorage:       PriorityMedium,
	CategoryBillableNetworking:    PriorityHigh,
	CategoryBillableDatabase:      PriorityHigh,
	CategoryBillableLoadBalancing: PriorityMedium,
	CategoryBillableDNS:           PriorityLow,
	CategoryFreeNetworking:        PriorityFree,
	CategoryFreeSecurity:          PriorityFree,
	CategoryFreeIAM:               PriorityFree,
	CategoryFreeManagement:        PriorityFree,
	CategoryUnknown:               PriorityUnknown,
}

// CategoryOf returns the billing category for a kind. Total: unknown kinds
// yield CategoryUnknown.
func CategoryOf(kind ResourceKind) CostCategory {
	if c, ok := kindCategories[kind]; ok {
		return c
	}
	return CategoryUnknown
}

// PriorityOf returns the cost priority for a kind. Total: unknown kinds
// yield PriorityUnknown.
func PriorityOf(kind ResourceKind) CostPriority {
	if p, ok := categoryPriorities[CategoryOf(kind)]; ok {
		return p
	}
	return PriorityUnknown
}

// IsBillable reports whether the kind's category is a billable one.
func IsBillable(kind ResourceKind) bool {
	return strings.HasPrefix(string(CategoryOf(kind)), "billable_")
}

// IsFree reports whether the kind's category is a free one.
func IsFree(kind ResourceKind) bool {
	return strings.HasPrefix(string(CategoryOf(kind)), "free_")
}

// priorityRank orders priorities for batch scheduling; higher runs first.
var priorityRank = map[CostPriority]int{
	PriorityHigh:    4,
	PriorityMedium:  3,
	PriorityLow:     2,
	PriorityFree:    1,
	PriorityUnknown: 0,
}

// PriorityRank returns a sortable rank for a priority; higher means the
// resource should be processed earlier.
func PriorityRank(p CostPriority) int {
	return priorityRank[p]
}
