package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/platform/obs"
	"courier-route-service/internal/ports"
)

// NominatimGeocoder resolves free-text addresses through the OpenStreetMap
// Nominatim search endpoint. Results go through an optional cache before
// any external call is made; Nominatim asks for a descriptive User-Agent.
type NominatimGeocoder struct {
	session   *http.Client
	baseURL   string
	userAgent string
	cache     ports.GeocodeCache
}

func NewNominatimGeocoder(baseURL string, cache ports.GeocodeCache) (*NominatimGeocoder, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("nominatim base URL is empty")
	}

	return &NominatimGeocoder{
		session:   &http.Client{Timeout: 5 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "courier-route-service/1.0",
		cache:     cache,
	}, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func (g *NominatimGeocoder) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves an address to coordinates, or (nil, nil) when the
// address has no match. Only transport-level failures return an error.
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (_ *domain.Coordinates, err error) {
	defer obs.Time(ctx, "nominatim.Geocode")(&err)

	norm := g.normalize(address)
	if norm == "" {
		return nil, errors.New("geocode: address must be non-empty")
	}

	if g.cache != nil {
		hit, err := g.cache.Get(ctx, norm)
		if err == nil && hit != nil {
			return hit, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search", nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	q := req.URL.Query()
	q.Set("q", norm)
	q.Set("format", "json")
	q.Set("limit", "1")
	req.URL.RawQuery = q.Encode()

	resp, err := g.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: unexpected status: %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: parse lat %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: parse lon %q: %w", results[0].Lon, err)
	}

	coords := &domain.Coordinates{Lon: lon, Lat: lat}

	if g.cache != nil {
		if err := g.cache.Put(ctx, norm, *coords); err != nil {
			obs.Log().Warnw("geocode cache write failed", "err", err)
		}
	}

	return coords, nil
}
