package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkthread/storefront/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	// Enabled controls whether profiling labels are added to requests.
	Enabled bool
	// SkipPaths are paths that don't need profiling labels.
	SkipPaths []string
}

// DefaultProfilingConfig returns default profiling middleware configuration.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:   true,
		SkipPaths: []string{"/health"},
	}
}

// Profiling tags each request's CPU samples with its route, method and
// operation so Pyroscope can split flame graphs per endpoint. The
// operation is the resource segment of the route, e.g. "campaigns" for
// "/api/campaigns/:slug/orders" and "admin.orders" for "/api/admin/orders/:id".
func Profiling(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		route := c.FullPath()
		labels := map[string]string{
			telemetry.LabelMethod:    c.Request.Method,
			telemetry.LabelRoute:     route,
			telemetry.LabelOperation: operationFromRoute(route),
		}
		telemetry.WithLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// operationFromRoute derives a low-cardinality operation name from a route pattern
func operationFromRoute(route string) string {
	var parts []string
	for _, seg := range strings.Split(route, "/") {
		if seg == "" || seg == "api" {
			continue
		}
		if strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			break
		}
		parts = append(parts, seg)
		if seg != "admin" {
			break
		}
	}
	return strings.Join(parts, ".")
}
