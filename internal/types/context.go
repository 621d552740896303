package types

import "context"

type ContextKey string

const (
	CtxTenantID       ContextKey = "ctx_tenant_id"
	CtxUserID         ContextKey = "ctx_user_id"
	CtxOrganizationID ContextKey = "ctx_organization_id"
	CtxRequestID      ContextKey = "ctx_request_id"
)

const (
	DefaultTenantID = "00000000-0000-0000-0000-000000000000"
	DefaultUserID   = "00000000-0000-0000-0000-000000000000"

	// SystemUserID marks writes made by background workers rather than a
	// request principal.
	SystemUserID = "system"
)

// Headers the HTTP layer maps onto context values. Authentication itself
// happens upstream of this service.
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderTenantID       = "X-Tenant-ID"
	HeaderUserID         = "X-User-ID"
	HeaderOrganizationID = "X-Organization-ID"
)

func GetTenantID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxTenantID).(string); ok && id != "" {
		return id
	}
	return DefaultTenantID
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxUserID).(string); ok && id != "" {
		return id
	}
	return DefaultUserID
}

func GetOrganizationID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxOrganizationID).(string); ok {
		return id
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxRequestID).(string); ok {
		return id
	}
	return ""
}
