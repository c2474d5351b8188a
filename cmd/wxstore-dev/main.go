// Command wxstore-dev answers the store protocol from an in-memory store for
// local development. With -embedded it also runs the NATS server itself,
// listening on the host and port of STORE_URL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/couchcryptid/wxstore-client/internal/adapter/natsrpc"
	"github.com/couchcryptid/wxstore-client/internal/config"
	"github.com/couchcryptid/wxstore-client/internal/observability"
	"github.com/couchcryptid/wxstore-client/internal/storetest"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func main() {
	embedded := flag.Bool("embedded", false, "run an embedded NATS server on the STORE_URL address")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	if *embedded {
		srv, err := startNATS(cfg.StoreURL)
		if err != nil {
			logger.Error("failed to start embedded nats server", "error", err)
			os.Exit(1)
		}
		defer srv.Shutdown()
		logger.Info("embedded nats server listening", "url", srv.ClientURL())
	}

	nc, err := nats.Connect(cfg.StoreURL, nats.Name("wxstore-dev"))
	if err != nil {
		logger.Error("failed to connect to nats", "url", cfg.StoreURL, "error", err)
		os.Exit(1)
	}
	defer nc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := storetest.New(nil)
	if _, err := natsrpc.Serve(ctx, nc, cfg.StoreSubject, store, logger); err != nil {
		logger.Error("failed to serve store", "subject", cfg.StoreSubject, "error", err)
		os.Exit(1)
	}
	logger.Info("store responder ready", "subject", cfg.StoreSubject, "queue", natsrpc.QueueGroup)

	<-ctx.Done()
	logger.Info("shutting down", "events", store.Len())
}

func startNATS(storeURL string) (*server.Server, error) {
	host, port, err := listenAddr(storeURL)
	if err != nil {
		return nil, err
	}
	if port == 0 {
		port = server.RANDOM_PORT
	}
	srv, err := server.NewServer(&server.Options{Host: host, Port: port, NoSigs: true})
	if err != nil {
		return nil, err
	}
	go srv.Start()
	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		return nil, errors.New("nats server not ready for connections")
	}
	return srv, nil
}

func listenAddr(storeURL string) (string, int, error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return "", 0, fmt.Errorf("parse STORE_URL: %w", err)
	}
	host, portText, err := net.SplitHostPort(u.Host)
	if err != nil {
		return "", 0, fmt.Errorf("STORE_URL %q: %w", storeURL, err)
	}
	port, err := strconv.Atoi(portText)
	if err != nil {
		return "", 0, fmt.Errorf("STORE_URL %q: invalid port: %w", storeURL, err)
	}
	return host, port, nil
}
