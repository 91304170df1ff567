package route

import (
	"net/http"
	"os"
	"path/filepath"

	"farmguardian/internal/config"
	"farmguardian/internal/handler"
	"farmguardian/internal/logger"
	"farmguardian/internal/metrics"
	"farmguardian/internal/middleware"
	"farmguardian/internal/repository"
	"farmguardian/internal/service"
	"farmguardian/internal/service/notify"
	"farmguardian/internal/service/websocket"
)

// Dependencies are the services exposed over HTTP. Overlay and Archive may be nil.
type Dependencies struct {
	Manager  *service.Manager
	Hub      *websocket.HubService
	Overlay  handler.OverlaySource
	Notifier notify.Service
	Archive  repository.DetectionRepository
	Metrics  *metrics.Metrics
}

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", filepath.Clean(path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(deps Dependencies, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()
	manager := deps.Manager
	fleet := manager.Fleet()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	// Detections
	mux.HandleFunc("GET /api/detections", handler.GetDetectionsHandler(manager, logger))
	mux.HandleFunc("GET /api/detections/latest", handler.LatestDetectionHandler(manager, logger))
	mux.HandleFunc("GET /api/stats", handler.StatsHandler(manager, logger))
	mux.HandleFunc("GET /api/overlay", handler.OverlayHandler(deps.Overlay))
	mux.HandleFunc("GET /api/view", handler.ViewWebsocketHandler(deps.Hub, logger))

	// Monitoring
	mux.HandleFunc("GET /api/status", handler.StatusHandler(manager, logger))
	mux.HandleFunc("POST /api/monitoring/start", handler.StartMonitoringHandler(manager, logger))
	mux.HandleFunc("POST /api/monitoring/stop", handler.StopMonitoringHandler(manager, logger))

	// Cameras
	mux.HandleFunc("GET /api/cameras", handler.ListCamerasHandler(fleet, logger))
	mux.HandleFunc("POST /api/cameras", handler.AddCameraHandler(fleet, logger))
	mux.HandleFunc("POST /api/cameras/{id}/toggle", handler.ToggleCameraHandler(fleet, logger))

	// Deterrent devices
	mux.HandleFunc("GET /api/devices", handler.ListDevicesHandler(fleet, logger))
	mux.HandleFunc("POST /api/devices/emergency", handler.EmergencyHandler(fleet, logger))
	mux.HandleFunc("POST /api/devices/deactivate", handler.DeactivateAllHandler(fleet, logger))
	mux.HandleFunc("POST /api/devices/{id}/toggle", handler.ToggleDeviceHandler(fleet, logger))
	mux.HandleFunc("POST /api/devices/{id}/intensity", handler.SetIntensityHandler(fleet, logger))

	// Alerts
	mux.HandleFunc("GET /api/alerts", handler.GetAlertsHandler(manager.Alerts(), logger))
	mux.HandleFunc("POST /api/alerts", handler.UpdateAlertsHandler(manager.Alerts(), logger))
	mux.HandleFunc("POST /api/alerts/test", handler.TestNotificationHandler(deps.Notifier, logger))

	// Archive
	if deps.Archive != nil {
		mux.HandleFunc("GET /api/archive", handler.GetArchiveHandler(deps.Archive, logger))
		mux.HandleFunc("GET /api/archive/labels", handler.ArchiveLabelsHandler(deps.Archive, logger))
	}

	// Log endpoints
	mux.HandleFunc("GET /logs/{level}", handler.ShowLogsHandler(cfg))
	mux.HandleFunc("POST /logs/{level}/clear", handler.ClearLogsHandler(logger))

	// Auth endpoints
	mux.HandleFunc("POST /auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("GET /auth/logout", handler.LogoutHandler)
	mux.HandleFunc("POST /auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	mux.HandleFunc("GET /", dynamicHTMLHandler)

	// Apply middleware
	return middleware.AuthMiddleware(cfg.Password, mux)
}
