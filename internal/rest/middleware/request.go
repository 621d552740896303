package middleware

import (
	"context"

	"github.com/docuchat/billing/internal/types"
	"github.com/gin-gonic/gin"
)

// RequestIDMiddleware propagates or generates a request id and exposes it on
// the response.
func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUID()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// ContextMiddleware lifts the identity headers set by the upstream proxy
// into context values the service and repository layers read.
func ContextMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	if tenantID := c.GetHeader(types.HeaderTenantID); tenantID != "" {
		ctx = context.WithValue(ctx, types.CtxTenantID, tenantID)
	}
	if userID := c.GetHeader(types.HeaderUserID); userID != "" {
		ctx = context.WithValue(ctx, types.CtxUserID, userID)
	}
	if organizationID := c.GetHeader(types.HeaderOrganizationID); organizationID != "" {
		ctx = context.WithValue(ctx, types.CtxOrganizationID, organizationID)
	}

	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
