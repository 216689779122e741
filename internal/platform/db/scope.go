// Package db provides the PostgreSQL connection pool, the tenant scope that
// every query runs under, and the transaction manager that binds the two
// together for exactly one unit of work.
package db

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	tenantKey contextKey = "tenant_id"
	txKey     contextKey = "db_tx"
)

// ErrTenantRequired is returned when an operation runs without a tenant scope.
var ErrTenantRequired = errors.New("tenant required")

// WithTenant returns a context carrying the given tenant identifier.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, strings.TrimSpace(tenantID))
}

// TenantFromContext returns the tenant identifier bound to ctx. It fails with
// ErrTenantRequired when no identifier is present or it is empty.
func TenantFromContext(ctx context.Context) (string, error) {
	tid, _ := ctx.Value(tenantKey).(string)
	if strings.TrimSpace(tid) == "" {
		return "", ErrTenantRequired
	}
	return tid, nil
}

// TenantMiddleware resolves the caller's tenant and binds it to the request
// context for the duration of that request only. The identifier is taken from
// the authenticated session when present, then the X-Tenant-ID header, then an
// explicit tenant_id query parameter.
func TenantMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tid := extractTenantID(c)
			if strings.TrimSpace(tid) == "" {
				return echo.NewHTTPError(http.StatusBadRequest, ErrTenantRequired.Error())
			}

			ctx := WithTenant(c.Request().Context(), tid)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("tenant_id", strings.TrimSpace(tid))
			return next(c)
		}
	}
}

func extractTenantID(c echo.Context) string {
	if tid, ok := c.Get("session_tenant_id").(string); ok && tid != "" {
		return tid
	}
	if tid := c.Request().Header.Get("X-Tenant-ID"); tid != "" {
		return tid
	}
	return c.QueryParam("tenant_id")
}
