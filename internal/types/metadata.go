package types

// Metadata is a string key-value bag attached to provider objects.
type Metadata map[string]string

// Keys we set on Stripe objects so webhook payloads can be traced back to the
// owning organization and requested plan without extra lookups.
const (
	MetadataKeyOrganizationID = "organization_id"
	MetadataKeyPlanType       = "plan_type"
	MetadataKeySource         = "source"
)
