package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oaib/exam-backend/internal/config"
	"github.com/oaib/exam-backend/internal/service"
	"github.com/rs/zerolog"
)

func testRouter() http.Handler {
	cfg := &config.Config{
		GinMode:        "test",
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
	return SetupRouter(service.NewAuthService(cfg), &Handlers{}, cfg, zerolog.Nop())
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestProtectedGroupsRequireToken(t *testing.T) {
	r := testRouter()
	for _, path := range []string{
		"/api/v1/candidate/exams",
		"/api/v1/admin/questions",
		"/api/v1/admin/exams/1/monitor",
		"/ws/v1/candidate/sessions/1/stream",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", path, w.Code)
		}
	}
}

func TestMetricsRouteDisabled(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when metrics are off", w.Code)
	}
}
