package webjs

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "webjs_backend/internal/http"
	"webjs_backend/platform/logger"
	"webjs_backend/platform/metrics"
	"webjs_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type testServer struct {
	engine  *gin.Engine
	metrics *metrics.Metrics
}

func newTestServer(store Store) testServer {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	engine := gin.New()

	module := newModule(store, m, validator.New(), logger.Discard())
	module.RegisterRoutes(&apphttp.RouterContext{
		Engine:  engine,
		V1:      engine.Group("/api/v1"),
		Metrics: m,
	})

	return testServer{engine: engine, metrics: m}
}

func (s testServer) do(method, path, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s testServer) successCount() float64 {
	return testutil.ToFloat64(s.metrics.RawEndpointSuccess().WithLabelValues(EndpointName))
}

func assertScriptResponse(t *testing.T, rec *httptest.ResponseRecorder, body string) {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/javascript" {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("expected CORS headers on script response")
	}
	if rec.Body.String() != body {
		t.Fatalf("got body %q, want %q", rec.Body.String(), body)
	}
}

func TestGetWebJSHit(t *testing.T) {
	store := hitStore()
	srv := newTestServer(store)

	rec := srv.do(http.MethodGet, "/web_js/7/tok/", "https://shop.example.com")

	assertScriptResponse(t, rec, testSource+`().inject({config:{"name": "Ada"},posthog:window['__$$ph_web_js_42']})`)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Fatalf("expected origin to be echoed, got %q", got)
	}
	if srv.successCount() != 1 {
		t.Fatalf("expected one success increment, got %v", srv.successCount())
	}
}

func TestGetWebJSHashedPath(t *testing.T) {
	srv := newTestServer(hitStore())

	rec := srv.do(http.MethodGet, "/web_js/7/tok/0123abcd/", "")

	assertScriptResponse(t, rec, testSource+`().inject({config:{"name": "Ada"},posthog:window['__$$ph_web_js_42']})`)
}

func TestGetWebJSMissingToken(t *testing.T) {
	store := hitStore()
	srv := newTestServer(store)

	rec := srv.do(http.MethodGet, "/web_js/7/", "")

	assertScriptResponse(t, rec, "")
	if store.sourceHits != 0 {
		t.Fatalf("expected no lookup without token, got %d", store.sourceHits)
	}
	if srv.successCount() != 1 {
		t.Fatalf("expected one success increment, got %v", srv.successCount())
	}
}

func TestGetWebJSUnknownToken(t *testing.T) {
	srv := newTestServer(&fakeStore{err: ErrSourceNotFound})

	rec := srv.do(http.MethodGet, "/web_js/7/wrong/", "")

	assertScriptResponse(t, rec, "")
	if srv.successCount() != 1 {
		t.Fatalf("expected one success increment, got %v", srv.successCount())
	}
}

func TestGetWebJSLookupErrorDegradesToEmpty(t *testing.T) {
	srv := newTestServer(&fakeStore{err: errors.New("connection refused")})

	rec := srv.do(http.MethodGet, "/web_js/7/tok/", "")

	assertScriptResponse(t, rec, "")
	if srv.successCount() != 1 {
		t.Fatalf("expected one success increment, got %v", srv.successCount())
	}
}

func TestGetWebJSPreflight(t *testing.T) {
	store := hitStore()
	srv := newTestServer(store)

	rec := srv.do(http.MethodOptions, "/web_js/7/tok/", "https://shop.example.com")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["status"] != 1 {
		t.Fatalf("unexpected preflight body %q", rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Fatalf("expected CORS headers on preflight, got %q", got)
	}
	if store.sourceHits != 0 {
		t.Fatalf("preflight must not look up sources, got %d", store.sourceHits)
	}
	if srv.successCount() != 0 {
		t.Fatalf("preflight must not count as success, got %v", srv.successCount())
	}
}

func TestGetWebJSNonNumericID(t *testing.T) {
	store := hitStore()
	srv := newTestServer(store)

	for _, path := range []string{"/web_js/abc/tok/", "/web_js/-1/tok/", "/web_js/99999999999999999999/tok/"} {
		rec := srv.do(http.MethodGet, path, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
	}
	if store.sourceHits != 0 || srv.successCount() != 0 {
		t.Fatalf("invalid ids must not reach the lookup (hits=%d, count=%v)", store.sourceHits, srv.successCount())
	}
}

func TestListSiteApps(t *testing.T) {
	store := &fakeStore{teamExists: true, apps: []SiteAppSource{{ID: 3, WebToken: "wt"}}}
	srv := newTestServer(store)

	rec := srv.do(http.MethodGet, "/api/v1/site-apps?token=phc_team", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SiteAppsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.SiteApps) != 1 || resp.SiteApps[0].ID != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestListSiteAppsErrors(t *testing.T) {
	cases := []struct {
		name  string
		path  string
		store *fakeStore
		want  int
	}{
		{"missing token", "/api/v1/site-apps", &fakeStore{teamExists: true}, http.StatusBadRequest},
		{"unknown token", "/api/v1/site-apps?token=phc_nope", &fakeStore{teamExists: false}, http.StatusUnauthorized},
		{"store failure", "/api/v1/site-apps?token=phc_team", &fakeStore{teamErr: errors.New("down")}, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newTestServer(tc.store).do(http.MethodGet, tc.path, "")
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}
