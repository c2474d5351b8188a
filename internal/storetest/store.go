// Package storetest provides an in-memory event store that speaks the store
// protocol through rpc.Handler. It stands in for the real store in tests and
// in the development responder.
package storetest

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/rpc"
	"github.com/couchcryptid/wxstore-client/internal/wxerr"
	"github.com/jonboulle/clockwork"
)

var _ rpc.Handler = (*Store)(nil)

// Store keeps values, events and fetch failures in memory. Events are
// stamped with the store clock on arrival; stamps are strictly increasing
// even when the clock does not move.
type Store struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	values   map[string][]byte
	events   []domain.Event
	failures []domain.FetchFailure
	lastTS   uint64
}

// New returns an empty store using clock for ingest timestamps.
func New(clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{clock: clock, values: make(map[string][]byte)}
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = slices.Clone(value)
	return nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, wxerr.Application("get", fmt.Sprintf("no value for key %q", key))
	}
	return slices.Clone(v), nil
}

// PutEvent records event under a fresh ingest timestamp.
func (s *Store) PutEvent(_ context.Context, event domain.Event) (uint64, error) {
	if err := event.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	event.IngestTS = s.nextTS()
	s.events = append(s.events, event)
	return event.IngestTS, nil
}

// GetEvents returns events with IngestTS strictly greater than since, in
// ingest order.
func (s *Store) GetEvents(_ context.Context, since uint64) ([]domain.Event, error) {
	if since == math.MaxUint64 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i, _ := slices.BinarySearchFunc(s.events, since+1, func(ev domain.Event, ts uint64) int {
		switch {
		case ev.IngestTS < ts:
			return -1
		case ev.IngestTS > ts:
			return 1
		}
		return 0
	})
	return slices.Clone(s.events[i:]), nil
}

func (s *Store) GetAllEvents(_ context.Context) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events), nil
}

func (s *Store) PutFetchFailure(_ context.Context, failure domain.FetchFailure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure)
	return nil
}

func (s *Store) GetFetchFailures(_ context.Context) ([]domain.FetchFailure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.failures), nil
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *Store) nextTS() uint64 {
	ts := uint64(s.clock.Now().UnixMicro())
	if ts <= s.lastTS {
		ts = s.lastTS + 1
	}
	s.lastTS = ts
	return ts
}
