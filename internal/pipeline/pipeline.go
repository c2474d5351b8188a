// Package pipeline relays events from the store to a sink: poll for events
// newer than a cursor, transform each into an output envelope, load the
// batch, then advance the cursor.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize events from the source. Events stay
// pending and are returned again until they are committed.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.Event, error)
	Commit(ctx context.Context, events []domain.Event) (uint64, error)
}

// Transformer converts a store event into an output event.
type Transformer interface {
	Transform(ctx context.Context, event domain.Event) (domain.OutputEvent, error)
}

// BatchLoader writes multiple output events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline orchestrates the poll-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the relay has completed a store poll,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("relay has not reached the store yet")
	}
	return nil
}

// Run executes the relay loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("relay started", "batch_size", p.batchSize)
	p.metrics.RelayRunning.Set(1)
	defer p.metrics.RelayRunning.Set(0)

	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("relay stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one poll-transform-load cycle. Returns false if the relay should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("poll store failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}
	p.ready.Store(true)

	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.EventsConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	ok := p.transformAndLoad(ctx, batch, backoff)
	if !ok {
		return false
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	return true
}

// transformAndLoad transforms each event in the batch, loads the successes,
// and commits the batch. Events that fail to transform are skipped and still
// committed. Returns false if the relay should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, batch []domain.Event, backoff *time.Duration) bool {
	outBatch := make([]domain.OutputEvent, 0, len(batch))

	for _, event := range batch {
		out, err := p.transformer.Transform(ctx, event)
		if err != nil {
			p.logger.Warn("transform failed, skipping event",
				"error", err,
				"event_type", event.Type.String(),
				"ingest_ts", event.IngestTS,
			)
			p.metrics.TransformErrors.Inc()
			continue
		}
		outBatch = append(outBatch, out)
	}

	if len(outBatch) > 0 {
		if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
			p.logger.Error("load batch failed", "error", err, "batch_size", len(outBatch))
			return p.backoffOrStop(ctx, backoff)
		}
		p.metrics.EventsProduced.Add(float64(len(outBatch)))
	}
	*backoff = initialBackoff

	cursor, err := p.extractor.Commit(ctx, batch)
	if err != nil {
		p.logger.Warn("commit cursor failed", "error", err, "cursor", cursor)
	}
	p.metrics.RelayCursor.Set(float64(cursor))
	return true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the relay should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
