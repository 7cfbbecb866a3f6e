// Package app provides application lifecycle management for the
// segmetric server.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	httpapi "github.com/segmetric/segmetric/internal/api/http"
	"github.com/segmetric/segmetric/internal/catalog"
	"github.com/segmetric/segmetric/internal/config"
	"github.com/segmetric/segmetric/internal/dataset"
	"github.com/segmetric/segmetric/internal/pivot"
	"github.com/segmetric/segmetric/internal/server"
	"github.com/segmetric/segmetric/internal/storage"
)

// App manages the segmetric server lifecycle.
type App struct {
	cfg *config.Config

	// Shared resources
	storage  storage.ObjectStore
	catalog  catalog.Catalog
	datasets *dataset.Service
	registry *pivot.Registry
	builder  *pivot.Builder
	shutdown *server.ShutdownManager

	httpServer *http.Server

	// Lifecycle
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return &App{
		cfg: cfg,
	}, nil
}

// Start initializes shared resources and starts the HTTP server.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.initSharedResources(ctx); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to initialize shared resources: %w", err)
	}

	if err := a.startHTTPServer(); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	log.Printf("segmetric started")
	return nil
}

// initSharedResources initializes storage, the catalog, and the engine.
func (a *App) initSharedResources(ctx context.Context) error {
	var err error

	switch a.cfg.Storage.Type {
	case "local":
		a.storage, err = storage.NewLocalStore(a.cfg.Storage.Path)
	case "s3":
		s3Cfg := storage.DefaultS3Config()
		if a.cfg.Storage.S3.Region != "" {
			s3Cfg.Region = a.cfg.Storage.S3.Region
		}
		if a.cfg.Storage.S3.Endpoint != "" {
			s3Cfg.Endpoint = a.cfg.Storage.S3.Endpoint
		}
		s3Cfg.UsePathStyle = a.cfg.Storage.S3.UsePathStyle
		a.storage, err = storage.NewS3Store(ctx, a.cfg.Storage.S3.Bucket, s3Cfg)
	default:
		return fmt.Errorf("unsupported storage type: %s", a.cfg.Storage.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Printf("Storage initialized: type=%s", a.cfg.Storage.Type)

	cat, err := catalog.NewCatalog(a.cfg.CatalogPath())
	if err != nil {
		return fmt.Errorf("failed to initialize catalog: %w", err)
	}
	a.catalog = cat
	log.Printf("Catalog initialized: %s", a.cfg.CatalogPath())

	a.datasets = dataset.NewService(a.storage, a.catalog)
	a.registry = pivot.DefaultRegistry()
	a.builder = pivot.NewBuilder(a.registry)

	a.shutdown = server.NewShutdownManager(server.ShutdownConfig{})
	a.shutdown.RegisterCloser(a.catalog)

	return nil
}

// startHTTPServer wires the handlers and starts listening.
func (a *App) startHTTPServer() error {
	pivotHandler := httpapi.NewPivotHandler(a.datasets, a.builder, a.catalog)
	compareHandler := httpapi.NewCompareHandler(a.datasets, a.builder, a.catalog)
	insightsHandler := httpapi.NewInsightsHandler(a.datasets, a.catalog)
	datasetsHandler := httpapi.NewDatasetsHandler(a.datasets, a.cfg.Dataset)
	audiencesHandler := httpapi.NewAudiencesHandler(a.catalog)
	metaHandler := httpapi.NewMetaHandler(a.registry)

	middleware := httpapi.ChainMiddleware(
		server.ShutdownMiddleware(a.shutdown),
		httpapi.RecoveryMiddleware,
		httpapi.RequestIDMiddleware,
		httpapi.LoggingMiddleware,
	)

	mux := http.NewServeMux()
	mux.Handle("/v1/pivot", middleware(pivotHandler))
	mux.Handle("/v1/compare", middleware(compareHandler))
	mux.Handle("/v1/insights", middleware(insightsHandler))
	mux.Handle("/v1/timewindows", middleware(http.HandlerFunc(insightsHandler.TimeWindows)))
	mux.Handle("/v1/datasets", middleware(datasetsHandler))
	mux.Handle("/v1/datasets/", middleware(datasetsHandler))
	mux.Handle("/v1/audiences", middleware(audiencesHandler))
	mux.Handle("/v1/meta", middleware(metaHandler))
	mux.HandleFunc("/health", a.healthHandler())

	a.httpServer = &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      mux,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		log.Printf("HTTP server listening on %s", a.cfg.HTTP.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Run starts the app and blocks until a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	if err := a.shutdown.ListenForSignals(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	return a.Stop(context.Background())
}

// Stop gracefully stops the server and releases resources.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	log.Printf("Initiating graceful shutdown...")

	if a.cancel != nil {
		a.cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Printf("Shutdown timeout, some goroutines may not have finished")
	}

	a.cleanup()

	log.Printf("segmetric stopped")
	return nil
}

// cleanup releases all shared resources.
func (a *App) cleanup() {
	if a.catalog != nil {
		a.catalog.Close()
	}
}

// healthHandler returns a health check handler.
func (a *App) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":"segmetric"}`)
	}
}
