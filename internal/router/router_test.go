package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/formkit/internal/form"
	"github.com/jwalitptl/formkit/internal/handler"
	formHandler "github.com/jwalitptl/formkit/internal/handler/form"
	promHandler "github.com/jwalitptl/formkit/internal/handler/prometheus"
	strengthHandler "github.com/jwalitptl/formkit/internal/handler/strength"
	"github.com/jwalitptl/formkit/internal/middleware"
	"github.com/jwalitptl/formkit/internal/submit"
	"github.com/jwalitptl/formkit/pkg/metrics"
)

func newRouter(t *testing.T, cfg RouterConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := form.DefaultCatalog(nil)
	require.NoError(t, err)

	promH := promHandler.New("formkit")
	m := metrics.NewMetrics("formkit", "forms", promH.Registry())
	ctrl := submit.NewController(catalog, submit.Config{BaseURL: "http://backend.invalid"}, nil, m)

	h := handler.NewHandler(map[string]handler.ReadinessChecker{"backend": ctrl})
	r, err := NewRouter(h, promH, cfg, strengthHandler.NewHandler(ctrl), formHandler.NewHandler(ctrl))
	require.NoError(t, err)
	r.Setup()
	return r.Engine()
}

func defaultConfig() RouterConfig {
	return RouterConfig{
		CORSConfig:   middleware.DefaultCORSConfig(),
		Security:     middleware.DefaultSecurityConfig(),
		MaxBodyBytes: 4 << 10,
		MetricsPath:  "/metrics",
	}
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	r := newRouter(t, defaultConfig())

	tests := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodGet, "/api/v1/health/live", "", http.StatusOK},
		{http.MethodGet, "/api/v1/health/ready", "", http.StatusOK},
		{http.MethodPost, "/api/v1/password/strength", `{"password":"Abc1!"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/forms", "", http.StatusOK},
		{http.MethodGet, "/api/v1/forms/login_farmer", "", http.StatusOK},
		{http.MethodPost, "/api/v1/forms/login_farmer/check", `{"values":{"identifier":"a","password":"b"}}`, http.StatusOK},
		{http.MethodGet, "/api/v1/forms/unknown", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
			assert.Equal(t, "1.0", w.Header().Get("X-API-Version"))
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRouter(t, defaultConfig())

	serve(r, http.MethodPost, "/api/v1/password/strength", `{"password":"abcdefgh"}`)

	w := serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `formkit_forms_password_evaluations_total{label="Weak"} 1`)
	assert.Contains(t, w.Body.String(), `formkit_http_requests_total{method="POST",path="/api/v1/password/strength",status="200"} 1`)
}

func TestRequestBodyLimit(t *testing.T) {
	r := newRouter(t, defaultConfig())

	body := `{"password":"` + strings.Repeat("a", 5<<10) + `"}`
	w := serve(r, http.MethodPost, "/api/v1/password/strength", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimit = middleware.RateLimiterConfig{RPS: 0.001, Burst: 1}
	r := newRouter(t, cfg)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/forms", "").Code)

	w := serve(r, http.MethodGet, "/api/v1/forms", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rate limit exceeded", resp["message"])
}
