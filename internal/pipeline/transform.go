package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/wxstore-client/internal/domain"
)

// EventTransformer implements Transformer using domain serialization
// with optional reverse geocoding enrichment.
type EventTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates an EventTransformer. Pass a nil geocoder to disable
// geocoding enrichment.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger) *EventTransformer {
	return &EventTransformer{
		geocoder: geocoder,
		logger:   logger,
	}
}

// Transform fails for events that break the payload rules for their type.
func (t *EventTransformer) Transform(ctx context.Context, event domain.Event) (domain.OutputEvent, error) {
	if err := event.Validate(); err != nil {
		return domain.OutputEvent{}, fmt.Errorf("event %s: %w", domain.EventKey(event), err)
	}

	place := domain.PlaceForEvent(ctx, event, t.geocoder, t.logger)
	return domain.SerializeEvent(event, place)
}
