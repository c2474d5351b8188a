// Command wxrelay relays events from the store to Kafka. It polls the store
// for events ingested after its cursor, enriches point locations with Mapbox
// when enabled, publishes them to KAFKA_SINK_TOPIC and keeps its cursor in
// the store under -cursor-key.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/wxstore-client/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/wxstore-client/internal/adapter/kafka"
	"github.com/couchcryptid/wxstore-client/internal/adapter/mapbox"
	"github.com/couchcryptid/wxstore-client/internal/adapter/natsrpc"
	"github.com/couchcryptid/wxstore-client/internal/config"
	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/observability"
	"github.com/couchcryptid/wxstore-client/internal/pipeline"
	"github.com/couchcryptid/wxstore-client/internal/rpc"
)

func main() {
	cursorKey := flag.String("cursor-key", "wxrelay.cursor", "store key holding the relay cursor; empty disables persistence")
	since := flag.Uint64("since", 0, "ingest timestamp (microseconds) to start after when no cursor is stored")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	transport, err := natsrpc.Dial(cfg.StoreURL, cfg.StoreSubject, logger)
	if err != nil {
		logger.Error("failed to connect to store", "url", cfg.StoreURL, "error", err)
		os.Exit(1)
	}
	client, err := rpc.New(transport, rpc.WithTimeout(cfg.StoreRequestTimeout), rpc.WithObserver(metrics))
	if err != nil {
		logger.Error("failed to create store client", "error", err)
		os.Exit(1)
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		mc := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(mc, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := pipeline.NewStoreSource(client, cfg.StorePollInterval, logger,
		pipeline.WithCursorKey(*cursorKey),
		pipeline.WithStartCursor(*since),
	)
	if err := source.Restore(ctx); err != nil {
		logger.Error("failed to restore relay cursor", "error", err)
		os.Exit(1)
	}

	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(geocoder, logger)

	p := pipeline.New(source, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger, httpadapter.WithFetchFailures(client))

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start relay.
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if err := p.Run(ctx); err != nil {
			logger.Error("relay error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	<-relayDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if err := client.Close(); err != nil {
		logger.Error("store client close error", "error", err)
	}

	logger.Info("shutdown complete", "cursor", source.Cursor())
}
