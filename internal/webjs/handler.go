package webjs

import (
	"net/http"
	"strconv"

	"webjs_backend/platform/apperr"
	"webjs_backend/platform/httpkit"
	"webjs_backend/platform/logger"
	"webjs_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	// EndpointName labels the success counter and the endpoint timer.
	EndpointName = "web_js"

	contentTypeJavaScript = "application/javascript"
)

// SuccessCounter is the metrics sink the handler reports to.
type SuccessCounter interface {
	IncRawEndpointSuccess(endpoint string)
}

// Handler handles web script HTTP requests.
type Handler struct {
	service *Service
	metrics SuccessCounter
	val     *validator.Validator
	log     *logger.Logger
}

// NewHandler creates a new webjs handler.
func NewHandler(service *Service, metrics SuccessCounter, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{service: service, metrics: metrics, val: val, log: log}
}

type webJSParams struct {
	ID string `validate:"required,number"`
}

// HandleGetWebJS serves the injection script of a web plugin config.
// GET|OPTIONS /web_js/:id/:token/
//
// Misses (no token, unknown id, wrong token, lookup failure) answer 200 with
// an empty script so the embedding page never breaks.
func (h *Handler) HandleGetWebJS(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	if httpkit.IsPreflight(c) {
		httpkit.Preflight(c)
		return
	}

	ctx := c.Request.Context()
	script, err := h.service.WebJS(ctx, id, c.Param("token"))
	if err != nil {
		h.log.WithContext(ctx).SourceLookupFailed(id, err)
		script = ""
	}

	h.metrics.IncRawEndpointSuccess(EndpointName)

	httpkit.CORSResponse(c)
	c.Data(http.StatusOK, contentTypeJavaScript, []byte(script))
}

func (h *Handler) parseID(c *gin.Context) (int64, bool) {
	params := webJSParams{ID: c.Param("id")}
	if err := h.val.Struct(params); err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(params.ID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

type siteAppsQuery struct {
	Token string `form:"token" validate:"required,max=200"`
}

// SiteAppsResponse lists the web plugins a page should load.
type SiteAppsResponse struct {
	SiteApps []SiteApp `json:"siteApps"`
}

// HandleListSiteApps lists servable web plugins for a project API token.
// GET /api/v1/site-apps?token=...
func (h *Handler) HandleListSiteApps(c *gin.Context) {
	var query siteAppsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid query"))
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid query").WithDetails(validator.FieldErrors(err)))
		return
	}

	ctx := c.Request.Context()
	apps, err := h.service.SiteApps(ctx, query.Token)
	if apperr.Is(err, apperr.KindInternal) {
		h.log.WithContext(ctx).DatabaseError("list site apps", err)
	}
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, SiteAppsResponse{SiteApps: apps})
}
