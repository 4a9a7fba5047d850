package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func labelsFor(t *testing.T, enabled bool, path, route string) map[string]string {
	t.Helper()
	got := map[string]string{}
	router := gin.New()
	router.Use(Profiling(enabled))
	router.GET(route, func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(k, v string) bool {
			got[k] = v
			return true
		})
		c.Status(http.StatusOK)
	})
	serve(router, httptest.NewRequest(http.MethodGet, path, nil))
	return got
}

func TestProfiling(t *testing.T) {
	t.Run("labels route and method", func(t *testing.T) {
		got := labelsFor(t, true, "/payments/5", "/payments/:id")
		assert.Equal(t, "/payments/:id", got[ProfilingLabelRoute])
		assert.Equal(t, http.MethodGet, got[ProfilingLabelMethod])
	})

	t.Run("disabled", func(t *testing.T) {
		assert.Empty(t, labelsFor(t, false, "/payments/5", "/payments/:id"))
	})

	t.Run("health skipped", func(t *testing.T) {
		assert.Empty(t, labelsFor(t, true, "/health", "/health"))
	})
}
