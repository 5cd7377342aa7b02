// The server command runs the borrowing analytics HTTP service. It reads its
// configuration from an optional YAML file and LIBRETRACK_* environment
// variables, connects to the configured record store engine, and serves the
// analytics queries plus health and Prometheus metrics endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/libretrack/borrowing-analytics-go/internal/config"
	"github.com/libretrack/borrowing-analytics-go/internal/httpapi"
	"github.com/libretrack/borrowing-analytics-go/internal/wiring"
	"github.com/libretrack/borrowing-analytics-go/recordstore/promadapters"
	"github.com/libretrack/borrowing-analytics-go/recordstore/zerologadapters"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(*configFile)
	if err != nil {
		zl.Fatal().Err(err).Msg("loading configuration failed")
	}

	zl = zl.Level(zerologadapters.ParseLevel(cfg.Log.Level))
	logger := zerologadapters.NewLogger(zl)
	contextualLogger := zerologadapters.NewContextualLogger(zl)
	metricsCollector := promadapters.NewCollector(nil)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), connectTimeout)
	defer cancelConnect()

	store, closeStore, err := wiring.BuildRecordStore(connectCtx, cfg, wiring.EngineOptions{
		Logger:           logger,
		ContextualLogger: contextualLogger,
		MetricsCollector: metricsCollector,
	})
	if err != nil {
		zl.Fatal().Err(err).Str("engine", cfg.Store.Engine).Msg("building record store failed")
	}
	defer closeStore()

	api, err := httpapi.New(store,
		httpapi.WithMetrics(metricsCollector),
		httpapi.WithContextualLogging(contextualLogger),
		httpapi.WithLogging(logger),
		httpapi.WithMaxConcurrency(cfg.Query.MaxConcurrency))
	if err != nil {
		zl.Fatal().Err(err).Msg("building HTTP API failed")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		zl.Info().Str("addr", cfg.Server.Addr).Str("engine", cfg.Store.Engine).Msg("server listening")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal().Err(err).Msg("server failed")
		}
	case sig := <-shutdown:
		zl.Info().Str("signal", sig.String()).Msg("shutting down")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			zl.Error().Err(err).Msg("graceful shutdown failed, closing hard")
			_ = server.Close()
		}
	}
}
