package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"farmguardian/internal/config"
	"farmguardian/internal/handler"
	"farmguardian/internal/logger"
	"farmguardian/internal/metrics"
	"farmguardian/internal/repository"
	"farmguardian/internal/repository/sqlite"
	"farmguardian/internal/route"
	"farmguardian/internal/service"
	"farmguardian/internal/service/ai"
	"farmguardian/internal/service/camera"
	"farmguardian/internal/service/camera/opencv"
	"farmguardian/internal/service/detection"
	"farmguardian/internal/service/fleet"
	"farmguardian/internal/service/notify"
	"farmguardian/internal/service/storage"
	"farmguardian/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config        *config.Config
	logger        *logger.Logger
	metrics       *metrics.Metrics
	db            *sqlite.DB
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	manager       *service.Manager
	router        http.Handler
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)
	m := metrics.New()

	layout, found, err := fleet.LoadLayout(cfg.LayoutPath)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Info("No layout file at %s, using built-in inventory", cfg.LayoutPath)
	}
	registry := fleet.NewRegistry(layout)
	registry.PersistTo(cfg.LayoutPath, func(err error) {
		log.Warning("Failed to save layout: %v", err)
	})

	// Brak modelu nie jest błędem: dashboard działa w trybie demo
	var classifier detection.Classifier
	var overlay *ai.Overlay
	if !cfg.DemoMode {
		classifier, err = detection.InitClassifier(log, ai.Loaders(cfg, log)...)
		if err != nil {
			log.Warning("AI detection unavailable, falling back to demo detections: %v", err)
		} else {
			overlay = ai.NewOverlay()
		}
	}

	hub := websocket.NewHubService(log, m)
	notifier := notify.NewService(cfg)

	a := &App{
		config:     cfg,
		logger:     log,
		metrics:    m,
		hubService: hub,
	}

	deps := service.Dependencies{
		Classifier: classifier,
		Enumerator: camera.SysfsEnumerator{},
		Opener:     opencv.Opener{},
		Fleet:      registry,
		Hub:        hub,
		Notifier:   notifier,
		Alerts:     notify.NewSettingsStore(),
	}
	var overlaySource handler.OverlaySource
	if overlay != nil {
		deps.Overlay = overlay
		overlaySource = overlay
	}

	var detectionRepo repository.DetectionRepository
	if cfg.ArchiveEnabled() {
		if err := os.MkdirAll(filepath.Dir(cfg.ArchiveDB), 0755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
		db, err := sqlite.New(cfg.ArchiveDB)
		if err != nil {
			return nil, err
		}
		a.db = db
		detections := sqlite.NewDetectionRepository(db)
		detectionRepo = detections
		a.bufferService = storage.NewBufferService(cfg, log, m, sqlite.NewSnapshotRepository(db), detections)
		deps.Archive = a.bufferService
		log.Info("Archive enabled at %s", cfg.ArchiveDB)
	}

	mgr, err := service.NewManager(cfg, log, m, deps)
	if err != nil {
		a.closeDB()
		return nil, err
	}
	a.manager = mgr

	a.router = route.SetupRoutes(route.Dependencies{
		Manager:  mgr,
		Hub:      hub,
		Overlay:  overlaySource,
		Notifier: notifier,
		Archive:  detectionRepo,
		Metrics:  m,
	}, cfg, log)

	return a, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down background services in order.
func (a *App) Run(ctx context.Context) error {
	bgCtx, cancelBg := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.hubService.Run(bgCtx)
	}()

	if a.bufferService != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.bufferService.Run(bgCtx)
		}()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🚜 Farm Guardian\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🤖 AI Model: %s\n", a.config.ModelPath)
	if a.config.ArchiveEnabled() {
		fmt.Printf("📁 Archive: %s (images in %s)\n", a.config.ArchiveDB, a.config.ImageDirectory)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down...")
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		a.logger.Warning("HTTP shutdown: %v", shutdownErr)
	}

	// Najpierw zatrzymaj detekcję, potem zrzuć bufor archiwum
	if closeErr := a.manager.Close(); closeErr != nil {
		a.logger.Warning("Manager shutdown: %v", closeErr)
	}
	cancelBg()
	wg.Wait()
	a.closeDB()

	return err
}

func (a *App) closeDB() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warning("Closing archive database: %v", err)
		}
	}
}
