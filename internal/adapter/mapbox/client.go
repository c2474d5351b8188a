// Package mapbox resolves event coordinates to place names with the Mapbox
// reverse geocoding API.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/wxstore-client/internal/domain"
	"github.com/couchcryptid/wxstore-client/internal/observability"
)

const defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// ReverseGeocode converts coordinates to place details. An empty result
// means Mapbox had no match.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	start := time.Now()
	places, err := c.lookup(ctx, c.reverseURL(lat, lon))
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Debug("mapbox reverse geocode failed", "lat", lat, "lon", lon, "error", err)
		return domain.GeocodingResult{}, err
	}
	if len(places) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.GeocodingResult{}, nil
	}
	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return places[0].result(), nil
}

// reverseURL addresses the reverse endpoint for one point. Mapbox orders
// coordinates lon,lat.
func (c *Client) reverseURL(lat, lon float64) string {
	q := url.Values{}
	q.Set("access_token", c.token)
	q.Set("limit", "1")
	q.Set("types", "place,locality")
	return fmt.Sprintf("%s/%.6f,%.6f.json?%s", c.baseURL, lon, lat, q.Encode())
}

// APIError is a non-200 reply from Mapbox.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mapbox: status %d: %s", e.Status, e.Body)
}

// lookup runs one geocoding query and returns the matched places, best first.
func (c *Client) lookup(ctx context.Context, endpoint string) ([]place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("mapbox: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mapbox: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var fc placeCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("mapbox: decode response: %w", err)
	}
	return fc.Features, nil
}

// placeCollection is the GeoJSON FeatureCollection Mapbox answers with; only
// the fields used for enrichment are decoded.
type placeCollection struct {
	Features []place `json:"features"`
}

type place struct {
	FullName  string  `json:"place_name"`
	ShortName string  `json:"text"`
	Relevance float64 `json:"relevance"`
}

func (p place) result() domain.GeocodingResult {
	return domain.GeocodingResult{
		FormattedAddress: p.FullName,
		PlaceName:        p.ShortName,
		Confidence:       p.Relevance,
	}
}
