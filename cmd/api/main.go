package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tryon/internal/http/handlers"
	"tryon/internal/http/httpapi"
	"tryon/internal/infra"
	"tryon/internal/infra/metrics"
	"tryon/internal/orchestrator"
	"tryon/internal/providers/tryon"
	"tryon/internal/storage"
	"tryon/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	logger.Info().
		Str("provider", cfg.Provider).
		Str("endpoint", cfg.StoreEndpoint).
		Str("database", cfg.DatabaseID).
		Str("bucket", cfg.ResultBucketID).
		Str("api_key", infra.Mask(cfg.StoreAPIKey)).
		Msg("configuration loaded")

	documents := store.NewClient(store.Options{
		Endpoint:        cfg.StoreEndpoint,
		ProjectID:       cfg.TenantID,
		APIKey:          cfg.StoreAPIKey,
		DatabaseID:      cfg.DatabaseID,
		Logger:          &logger,
		ProductCacheTTL: cfg.ProductCacheTTL,
	})

	blob := storage.NewBlobStore(storage.Options{
		Endpoint:  cfg.StoreEndpoint,
		ProjectID: cfg.TenantID,
		APIKey:    cfg.StoreAPIKey,
		BucketID:  cfg.ResultBucketID,
	})

	provider, err := tryon.New(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure try-on provider")
	}

	runner := orchestrator.NewRunner(orchestrator.Options{
		Store:        documents,
		Blob:         blob,
		Provider:     provider,
		ProviderName: cfg.Provider,
		Logger:       logger,
	})

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	app := handlers.NewApp(runner, logger)
	router := httpapi.NewRouter(app, logger, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
