package webjs

import (
	apphttp "webjs_backend/internal/http"
	"webjs_backend/platform/logger"
	"webjs_backend/platform/metrics"
	"webjs_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the webjs bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	metrics *metrics.Metrics
}

// NewModule wires the webjs repository, service and handler.
func NewModule(pool *pgxpool.Pool, m *metrics.Metrics, val *validator.Validator, log *logger.Logger) *Module {
	return newModule(NewRepository(pool), m, val, log)
}

func newModule(store Store, m *metrics.Metrics, val *validator.Validator, log *logger.Logger) *Module {
	service := NewService(store)
	return &Module{
		handler: NewHandler(service, m, val, log),
		metrics: m,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webjs"
}

// RegisterRoutes mounts the raw script routes on the engine and the site app
// listing on /api/v1.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Raw script endpoints (public, token in path, own CORS handling)
	timed := m.metrics.Timed(EndpointName)
	for _, path := range []string{
		"/web_js/:id/",
		"/web_js/:id/:token/",
		"/web_js/:id/:token/:hash/",
	} {
		ctx.Engine.GET(path, timed, m.handler.HandleGetWebJS)
		ctx.Engine.OPTIONS(path, timed, m.handler.HandleGetWebJS)
	}

	ctx.V1.GET("/site-apps", m.handler.HandleListSiteApps)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
