package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// LivenessHandler always answers 200 while the process runs.
func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": StatusUp})
	}
}

// ReadinessHandler answers 200 when every check is up and 503 otherwise.
func ReadinessHandler(registry *Registry, timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		response := registry.CheckAll(ctx)

		status := http.StatusOK
		if response.Status == StatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, response)
	}
}

// Mount registers /health/live and /health/ready on r.
func Mount(r gin.IRoutes, registry *Registry, timeout time.Duration) {
	r.GET("/health/live", LivenessHandler())
	r.GET("/health/ready", ReadinessHandler(registry, timeout))
}
