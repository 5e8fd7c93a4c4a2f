package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Noahbrat/scorepile/internal/database"
	"github.com/Noahbrat/scorepile/internal/engine"
	"github.com/Noahbrat/scorepile/internal/handler"
	"github.com/Noahbrat/scorepile/internal/middleware"
	"github.com/Noahbrat/scorepile/internal/scoring"
)

func testRoutes(t *testing.T) http.Handler {
	t.Helper()
	limiter := middleware.NewRateLimiter(3, time.Minute)
	t.Cleanup(limiter.Close)

	registry := engine.NewRegistry()
	coordinator := scoring.NewCoordinator(database.RoundStore{}, registry)
	return Setup(limiter, registry, coordinator, handler.NewLiveHub())
}

// 方法限定的路由模式下，mux 对 OPTIONS 直接返回 405，
// 预检必须在进入 mux 之前被拦截
func TestPreflightBypassesMux(t *testing.T) {
	routes := testRoutes(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/games/1/scores", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	routes.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("预检状态码 = %d, 期望 %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q, 期望回显 Origin", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("预检响应缺少 Access-Control-Allow-Credentials")
	}
}

func TestCORSHeadersOnNormalRequest(t *testing.T) {
	routes := testRoutes(t)

	req := httptest.NewRequest(http.MethodGet, "/isalive", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()

	routes.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 期望 %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q, 期望回显 Origin", got)
	}
}

func TestSameOriginRequestHasNoCORSHeaders(t *testing.T) {
	routes := testRoutes(t)

	req := httptest.NewRequest(http.MethodGet, "/isalive", nil)
	rec := httptest.NewRecorder()

	routes.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("无 Origin 请求不应携带 CORS 头, 实际 %q", got)
	}
}
