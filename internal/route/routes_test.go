package route

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"farmguardian/internal/config"
	"farmguardian/internal/logger"
	"farmguardian/internal/metrics"
	"farmguardian/internal/middleware"
	"farmguardian/internal/service"
	"farmguardian/internal/service/fleet"
	"farmguardian/internal/service/notify"
	"farmguardian/internal/service/websocket"
)

func setupRouter(t *testing.T, password string) http.Handler {
	t.Helper()

	cfg := &config.Config{
		Password:          password,
		LogDirectory:      t.TempDir(),
		CameraID:          "cam-001",
		DemoProfile:       "camera-feed",
		DetectionInterval: time.Second,
	}
	log := logger.NewWriterLogger(io.Discard, logger.LevelError)
	m := metrics.New()
	hub := websocket.NewHubService(log, m)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	mgr, err := service.NewManager(cfg, log, m, service.Dependencies{
		Fleet: fleet.NewRegistry(fleet.DefaultLayout()),
		Hub:   hub,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })

	return SetupRoutes(Dependencies{
		Manager:  mgr,
		Hub:      hub,
		Notifier: notify.NewService(cfg),
		Metrics:  m,
	}, cfg, log)
}

func TestRoutes_OpenWithoutPassword(t *testing.T) {
	router := setupRouter(t, "")

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/detections", http.StatusOK},
		{http.MethodGet, "/api/detections/latest", http.StatusNoContent},
		{http.MethodGet, "/api/stats", http.StatusOK},
		{http.MethodGet, "/api/status", http.StatusOK},
		{http.MethodGet, "/api/overlay", http.StatusNoContent},
		{http.MethodGet, "/api/cameras", http.StatusOK},
		{http.MethodGet, "/api/devices", http.StatusOK},
		{http.MethodPost, "/api/devices/deactivate", http.StatusOK},
		{http.MethodGet, "/api/alerts", http.StatusOK},
		{http.MethodGet, "/api/archive", http.StatusNotFound},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/logs/debug", http.StatusNotFound},
		{http.MethodDelete, "/api/cameras", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestRoutes_MetricsExposeGuardianCounters(t *testing.T) {
	router := setupRouter(t, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "guardian_window_detections") {
		t.Errorf("expected window gauge in metrics output")
	}
}

func TestRoutes_AuthRequired(t *testing.T) {
	router := setupRouter(t, "secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/detections", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for API without cookie, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("expected redirect to login, got %d %s", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected metrics to stay public, got %d", rec.Code)
	}

	form := strings.NewReader("password=wrong")
	req := httptest.NewRequest(http.MethodPost, "/auth/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong password, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("password=secret"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after login, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != middleware.SessionToken("secret") {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/detections", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with session cookie, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/detections", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: "true"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected forged cookie to be rejected, got %d", rec.Code)
	}
}
