// Command wxseed loads upstream feed files into the store.
//
// SPC storm report CSV files become NwsLsr events; the convective day is
// taken from the file name (240426_rpts_hail.csv) unless -day is set. NWS
// text products given with -product become payload-less events of
// -product-type. A file that cannot be read or parsed is recorded in the
// store as a fetch failure for -app and the remaining files are still
// loaded.
//
// Usage:
//
//	go run ./cmd/wxseed data/240426_rpts_hail.csv data/240426_rpts_torn.csv
//	go run ./cmd/wxseed -product AFDOUN.txt -product-type NwsAfd
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/wxstore-client/internal/adapter/natsrpc"
	"github.com/couchcryptid/wxstore-client/internal/config"
	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/feed"
	"github.com/couchcryptid/wxstore-client/internal/observability"
	"github.com/couchcryptid/wxstore-client/internal/rpc"
	"github.com/couchcryptid/wxstore-client/internal/timeutil"
)

// eventStore is the part of the store client the seeder uses.
type eventStore interface {
	PutEvent(ctx context.Context, event domain.Event) (uint64, error)
	PutFetchFailure(ctx context.Context, failure domain.FetchFailure) error
}

type seeder struct {
	store  eventStore
	app    domain.WxApp
	day    time.Time
	dryRun bool
	logger *slog.Logger
}

func main() {
	if err := run(); err != nil {
		slog.Error("wxseed failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	dayFlag := flag.String("day", "", "convective day (YYYY-MM-DD) for every CSV file; default is from the file name")
	appFlag := flag.String("app", domain.AppAdmin.String(), "producer name recorded with fetch failures")
	product := flag.String("product", "", "NWS text product file to load")
	productType := flag.String("product-type", domain.EventNwsAfd.String(), "event type for -product")
	dryRun := flag.Bool("dry-run", false, "parse and validate only; nothing is sent to the store")
	flag.Parse()

	if flag.NArg() == 0 && *product == "" {
		flag.Usage()
		return fmt.Errorf("no input files")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg)

	app, err := domain.ParseWxApp(*appFlag)
	if err != nil {
		return fmt.Errorf("-app: %w", err)
	}
	s := &seeder{app: app, dryRun: *dryRun, logger: logger}
	if *dayFlag != "" {
		if s.day, err = time.Parse(time.DateOnly, *dayFlag); err != nil {
			return fmt.Errorf("-day: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !*dryRun {
		transport, err := natsrpc.Dial(cfg.StoreURL, cfg.StoreSubject, logger)
		if err != nil {
			return err
		}
		client, err := rpc.New(transport, rpc.WithTimeout(cfg.StoreRequestTimeout))
		if err != nil {
			return err
		}
		defer client.Close()
		s.store = client
	}

	var total, failed int
	for _, path := range flag.Args() {
		n, err := s.loadReports(ctx, path)
		total += n
		if err != nil {
			failed++
			s.recordFailure(ctx, path, err)
		}
	}
	if *product != "" {
		eventType, err := domain.ParseEventType(*productType)
		if err != nil {
			return fmt.Errorf("-product-type: %w", err)
		}
		n, err := s.loadProduct(ctx, *product, eventType)
		total += n
		if err != nil {
			failed++
			s.recordFailure(ctx, *product, err)
		}
	}

	logger.Info("seed complete", "events", total, "failed_files", failed, "dry_run", *dryRun)
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}

func (s *seeder) loadReports(ctx context.Context, path string) (int, error) {
	day := s.day
	if day.IsZero() {
		var err error
		if day, err = feed.ReportDay(path); err != nil {
			return 0, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	events, err := feed.ReadEvents(f, day)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return s.putAll(ctx, path, events)
}

func (s *seeder) loadProduct(ctx context.Context, path string, eventType domain.EventType) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	event, err := feed.ReadProduct(f, eventType)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return s.putAll(ctx, path, []domain.Event{event})
}

func (s *seeder) putAll(ctx context.Context, path string, events []domain.Event) (int, error) {
	for i, ev := range events {
		if s.dryRun {
			if err := ev.Validate(); err != nil {
				return i, fmt.Errorf("%s: event %d: %w", path, i+1, err)
			}
			continue
		}
		if _, err := s.store.PutEvent(ctx, ev); err != nil {
			return i, fmt.Errorf("%s: event %d: %w", path, i+1, err)
		}
	}
	s.logger.Info("loaded file", "path", path, "events", len(events))
	return len(events), nil
}

func (s *seeder) recordFailure(ctx context.Context, path string, cause error) {
	s.logger.Error("load failed", "path", path, "error", cause)
	if s.dryRun {
		return
	}
	failure := domain.FetchFailure{App: s.app, IngestTS: timeutil.CurrentTimeMicros()}
	if err := s.store.PutFetchFailure(ctx, failure); err != nil {
		s.logger.Warn("record fetch failure failed", "path", path, "error", err)
	}
}
