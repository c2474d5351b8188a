// Command wxctl is an operator CLI for the event store.
//
// Usage:
//
//	wxctl [flags] put <key> <json-value>
//	wxctl [flags] get <key>
//	wxctl [flags] put-event <file.json | ->
//	wxctl [flags] events <since-micros>
//	wxctl [flags] all-events
//	wxctl [flags] failures
//	wxctl [flags] fail <app>
//
// Store URL, subject and timeout default to STORE_URL, STORE_SUBJECT and
// STORE_REQUEST_TIMEOUT.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"

	"github.com/couchcryptid/wxstore-client/internal/adapter/natsrpc"
	"github.com/couchcryptid/wxstore-client/internal/config"
	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/rpc"
	"github.com/couchcryptid/wxstore-client/internal/timeutil"
	"github.com/couchcryptid/wxstore-client/internal/wxerr"
	"github.com/fxamacker/cbor/v2"
)

var errUsage = errors.New("usage")

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	url := flag.String("url", cfg.StoreURL, "store NATS URL")
	subject := flag.String("subject", cfg.StoreSubject, "store request subject")
	timeout := flag.Duration("timeout", cfg.StoreRequestTimeout, "per-request timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	transport, err := natsrpc.Dial(*url, *subject, logger)
	if err != nil {
		fail(err)
	}
	client, err := rpc.New(transport, rpc.WithTimeout(*timeout))
	if err != nil {
		fail(err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, client, flag.Args(), os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
		}
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "wxctl: %v (%s error)\n", err, wxerr.KindOf(err))
	os.Exit(1)
}

func execute(ctx context.Context, client *rpc.Client, args []string, stdin io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "put":
		if len(args) != 2 {
			return fmt.Errorf("%w: put <key> <json-value>", errUsage)
		}
		var value any
		if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
			return fmt.Errorf("parse value: %w", err)
		}
		return client.Put(ctx, args[0], value)

	case "get":
		if len(args) != 1 {
			return fmt.Errorf("%w: get <key>", errUsage)
		}
		raw, err := client.Get(ctx, args[0])
		if err != nil {
			return err
		}
		diag, err := cbor.Diagnose(raw)
		if err != nil {
			return fmt.Errorf("diagnose value: %w", err)
		}
		_, err = fmt.Fprintln(out, diag)
		return err

	case "put-event":
		if len(args) != 1 {
			return fmt.Errorf("%w: put-event <file.json | ->", errUsage)
		}
		event, err := readEvent(args[0], stdin)
		if err != nil {
			return err
		}
		ts, err := client.PutEvent(ctx, event)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, ts)
		return err

	case "events":
		if len(args) != 1 {
			return fmt.Errorf("%w: events <since-micros>", errUsage)
		}
		since, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return wxerr.Parse("events since", err)
		}
		events, err := client.GetEvents(ctx, since)
		if err != nil {
			return err
		}
		return printEvents(out, events)

	case "all-events":
		events, err := client.GetAllEvents(ctx)
		if err != nil {
			return err
		}
		return printEvents(out, events)

	case "failures":
		counts, err := client.GetFetchFailures(ctx)
		if err != nil {
			return err
		}
		apps := make([]domain.WxApp, 0, len(counts))
		for app := range counts {
			apps = append(apps, app)
		}
		slices.Sort(apps)
		for _, app := range apps {
			if _, err := fmt.Fprintf(out, "%s\t%d\n", app, counts[app]); err != nil {
				return err
			}
		}
		return nil

	case "fail":
		if len(args) != 1 {
			return fmt.Errorf("%w: fail <app>", errUsage)
		}
		app, err := domain.ParseWxApp(args[0])
		if err != nil {
			return wxerr.Parse("fail app", err)
		}
		return client.PutFetchFailure(ctx, domain.FetchFailure{App: app, IngestTS: timeutil.CurrentTimeMicros()})

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func readEvent(path string, stdin io.Reader) (domain.Event, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return domain.Event{}, wxerr.IO("read event", err)
		}
		defer f.Close()
		r = f
	}
	var event domain.Event
	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return domain.Event{}, wxerr.Parse("read event", err)
	}
	return event, nil
}

func printEvents(out io.Writer, events []domain.Event) error {
	enc := json.NewEncoder(out)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}
