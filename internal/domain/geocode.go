package domain

import (
	"context"
	"log/slog"
)

// PlaceForEvent reverse geocodes the point location of an event. It returns
// nil when there is no geocoder, the event has no point, the lookup fails, or
// the provider has no match. Failures are logged and otherwise ignored so
// enrichment never blocks delivery.
func PlaceForEvent(ctx context.Context, event Event, geocoder Geocoder, logger *slog.Logger) *GeocodingResult {
	if geocoder == nil {
		return nil
	}
	loc := event.Location()
	if loc == nil || loc.Point == nil {
		return nil
	}

	lat, lon := float64(loc.Point.Lat), float64(loc.Point.Lon)
	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"event_type", event.Type.String(),
			"ingest_ts", event.IngestTS,
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		return nil
	}
	if result.FormattedAddress == "" {
		return nil
	}
	return &result
}
