package domain_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/domain/domaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result domain.GeocodingResult
	err    error
	calls  int
	lat    float64
	lon    float64
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	m.calls++
	m.lat, m.lon = lat, lon
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestPlaceForEvent_NilGeocoder(t *testing.T) {
	place := domain.PlaceForEvent(context.Background(), domaintest.SpotterReport(), nil, discardLogger())
	assert.Nil(t, place)
}

func TestPlaceForEvent_UsesPoint(t *testing.T) {
	geo := &mockGeocoder{result: domain.GeocodingResult{
		FormattedAddress: "Norman, Oklahoma, United States",
		PlaceName:        "Norman",
		Confidence:       0.9,
	}}

	place := domain.PlaceForEvent(context.Background(), domaintest.SpotterReport(), geo, discardLogger())

	require.NotNil(t, place)
	assert.Equal(t, "Norman", place.PlaceName)
	assert.Equal(t, 1, geo.calls)
	assert.InDelta(t, 35.2226, geo.lat, 0.0001)
	assert.InDelta(t, -97.4395, geo.lon, 0.0001)
}

func TestPlaceForEvent_NoPoint(t *testing.T) {
	geo := &mockGeocoder{}

	for _, ev := range []domain.Event{
		domaintest.TornadoWarning(),
		domaintest.Day1Outlook(),
		domaintest.FloodWatch(),
	} {
		assert.Nil(t, domain.PlaceForEvent(context.Background(), ev, geo, discardLogger()))
	}
	assert.Equal(t, 0, geo.calls)
}

func TestPlaceForEvent_ErrorIsSwallowed(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("api down")}

	place := domain.PlaceForEvent(context.Background(), domaintest.DustStormReport(), geo, discardLogger())

	assert.Nil(t, place)
	assert.Equal(t, 1, geo.calls)
}

func TestPlaceForEvent_EmptyResult(t *testing.T) {
	geo := &mockGeocoder{}

	place := domain.PlaceForEvent(context.Background(), domaintest.DustStormReport(), geo, discardLogger())

	assert.Nil(t, place)
}
