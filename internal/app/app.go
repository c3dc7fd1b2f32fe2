package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"photocapture/internal/api"
	"photocapture/internal/cache"
	"photocapture/internal/config"
	"photocapture/internal/logger"
	"photocapture/internal/routes"
	"photocapture/internal/service"
	"photocapture/internal/service/capture"
	"photocapture/internal/view"
)

const (
	cacheKeyPrefix  = "photocapture:"
	shutdownTimeout = 10 * time.Second
)

type App struct {
	config  *config.Config
	logger  *logger.Logger
	cache   *cache.Cache
	manager *service.Manager
	server  *http.Server
}

func NewApp(ctx context.Context) (*App, error) {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	backend, err := cache.NewBackend(ctx, cfg.CacheBackend, cache.BackendOptions{
		RedisAddress:  cfg.RedisAddress,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		KeyPrefix:     cacheKeyPrefix,
	})
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("create %s cache: %w", cfg.CacheBackend, err)
	}
	snapshotCache := cache.New(backend, cfg.CacheTTL)

	client, err := api.NewClient(api.Config{
		BaseURL:      cfg.APIURL,
		AssetBaseURL: cfg.AssetBaseURL,
		Timeout:      cfg.HTTPTimeout,
	})
	if err != nil {
		snapshotCache.Close()
		log.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		snapshotCache.Close()
		log.Close()
		return nil, err
	}

	manager := service.NewManager(capture.GocvDevice{ID: cfg.CameraDevice}, client, snapshotCache, cfg, log)
	router := routes.SetupRoutes(manager, renderer, cfg, client.ImageURL, log)

	return &App{
		config:  cfg,
		logger:  log,
		cache:   snapshotCache,
		manager: manager,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts the server down.
func (a *App) Run(ctx context.Context) error {
	a.manager.Start(ctx)

	a.logger.Info("Photo capture server listening on http://localhost:%d", a.config.Port)
	a.logger.Info("Snapshots API: %s, cache: %s, layout: %s, review: %t",
		a.config.APIURL, a.config.CacheBackend, a.config.ListLayout, a.config.ReviewEnabled)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases the camera, previews, cache connection and log files. The
// context given to Run must be cancelled first.
func (a *App) Close() error {
	err := a.manager.Close()
	if cerr := a.cache.Close(); cerr != nil && err == nil {
		err = cerr
	}
	a.logger.Info("Photo capture server stopped")
	if cerr := a.logger.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
