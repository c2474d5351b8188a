package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/wxstore-client/internal/codec"
	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/wxerr"
	"github.com/jonboulle/clockwork"
)

// EventStore is the subset of the store client the relay needs.
// *rpc.Client satisfies it.
type EventStore interface {
	GetEvents(ctx context.Context, since uint64) ([]domain.Event, error)
	Put(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// StoreSource polls the store for events ingested after its cursor.
// It implements BatchExtractor. It is not safe for concurrent use.
type StoreSource struct {
	store        EventStore
	clock        clockwork.Clock
	logger       *slog.Logger
	pollInterval time.Duration
	cursorKey    string

	cursor  uint64
	pending []domain.Event
}

// SourceOption configures a StoreSource.
type SourceOption func(*StoreSource)

// WithCursorKey persists the cursor in the store under key after each commit
// and restores it from there on Restore.
func WithCursorKey(key string) SourceOption {
	return func(s *StoreSource) { s.cursorKey = key }
}

// WithStartCursor starts relaying after the given ingest timestamp.
func WithStartCursor(since uint64) SourceOption {
	return func(s *StoreSource) { s.cursor = since }
}

// WithClock sets the clock used to wait between empty polls.
func WithClock(clock clockwork.Clock) SourceOption {
	return func(s *StoreSource) { s.clock = clock }
}

// NewStoreSource creates a source that waits pollInterval after a poll that
// returned no events.
func NewStoreSource(store EventStore, pollInterval time.Duration, logger *slog.Logger, opts ...SourceOption) *StoreSource {
	s := &StoreSource{
		store:        store,
		clock:        clockwork.NewRealClock(),
		logger:       logger,
		pollInterval: pollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cursor returns the ingest timestamp of the last committed event.
func (s *StoreSource) Cursor() uint64 { return s.cursor }

// Restore loads the persisted cursor. A missing value leaves the start
// cursor in place.
func (s *StoreSource) Restore(ctx context.Context) error {
	if s.cursorKey == "" {
		return nil
	}
	raw, err := s.store.Get(ctx, s.cursorKey)
	if errors.Is(err, wxerr.ErrApplication) {
		s.logger.Info("no stored relay cursor, starting fresh", "key", s.cursorKey, "cursor", s.cursor)
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore cursor %q: %w", s.cursorKey, err)
	}
	cursor, err := codec.Decode[uint64](raw)
	if err != nil {
		return fmt.Errorf("restore cursor %q: %w", s.cursorKey, err)
	}
	s.cursor = cursor
	s.logger.Info("restored relay cursor", "key", s.cursorKey, "cursor", cursor)
	return nil
}

// ExtractBatch returns up to batchSize uncommitted events in ingest order.
// When nothing is pending it polls the store once, and if the store has no
// new events it waits for the poll interval and returns an empty batch.
func (s *StoreSource) ExtractBatch(ctx context.Context, batchSize int) ([]domain.Event, error) {
	if len(s.pending) == 0 {
		events, err := s.store.GetEvents(ctx, s.cursor)
		if err != nil {
			return nil, err
		}
		s.pending = events
		if len(events) > 0 {
			s.logger.Debug("polled store", "cursor", s.cursor, "events", len(events))
		}
	}

	if len(s.pending) == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.clock.After(s.pollInterval):
			return nil, nil
		}
	}

	n := min(batchSize, len(s.pending))
	return s.pending[:n:n], nil
}

// Commit drops the given events from the pending queue and advances the
// cursor to the newest ingest timestamp among them. The cursor moves even if
// persisting it fails; the returned error reports the failed write.
func (s *StoreSource) Commit(ctx context.Context, events []domain.Event) (uint64, error) {
	for _, ev := range events {
		s.cursor = max(s.cursor, ev.IngestTS)
	}
	i := 0
	for i < len(s.pending) && s.pending[i].IngestTS <= s.cursor {
		i++
	}
	s.pending = s.pending[i:]

	if s.cursorKey == "" || len(events) == 0 {
		return s.cursor, nil
	}
	if err := s.store.Put(ctx, s.cursorKey, s.cursor); err != nil {
		return s.cursor, fmt.Errorf("persist cursor %q: %w", s.cursorKey, err)
	}
	return s.cursor, nil
}
