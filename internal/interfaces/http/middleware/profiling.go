package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/pos/backend/internal/infrastructure/telemetry"
)

// Profiling label keys set per request
const (
	ProfilingLabelRoute  = "route"
	ProfilingLabelMethod = "http_method"
)

// Profiling tags CPU samples taken while serving a request with the route
// pattern and HTTP method, so Pyroscope can slice profiles per endpoint.
func Profiling(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if !enabled || route == "" || route == "/health" {
			c.Next()
			return
		}

		labels := map[string]string{
			ProfilingLabelRoute:  route,
			ProfilingLabelMethod: c.Request.Method,
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
