package middleware

import (
	"rov_inventory_go/services"

	"github.com/labstack/echo/v4"
)

const ContextKeyAuditContext = "audit_context"

// AuditContext captures who is acting for the audit trail. It runs after
// RequireAuth so the resolved profile is available.
func AuditContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := services.AuditContextFor(GetProfile(c), c.RealIP(), c.Request().UserAgent())
			c.Set(ContextKeyAuditContext, ctx)
			return next(c)
		}
	}
}

// GetAuditContext retrieves the audit context from the request. Without the
// middleware it still carries the client address.
func GetAuditContext(c echo.Context) services.AuditContext {
	if ctx, ok := c.Get(ContextKeyAuditContext).(services.AuditContext); ok {
		return ctx
	}
	return services.AuditContextFor(GetProfile(c), c.RealIP(), c.Request().UserAgent())
}
