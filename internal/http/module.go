// Package http provides HTTP server infrastructure including the Module interface
// that all domain modules must implement for route registration.
package http

import (
	"webjs_backend/platform/metrics"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine, used for raw endpoints outside /api.
	Engine *gin.Engine
	// V1 is the /api/v1 route group (CORS and rate limiting applied).
	V1 *gin.RouterGroup
	// Metrics is the process-wide metrics sink.
	Metrics *metrics.Metrics
}
