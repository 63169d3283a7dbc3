package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"courier-route-service/internal/domain"
)

type memCache struct {
	entries map[string]domain.Coordinates
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]domain.Coordinates)}
}

func (c *memCache) Get(ctx context.Context, address string) (*domain.Coordinates, error) {
	if coords, ok := c.entries[address]; ok {
		cp := coords
		return &cp, nil
	}
	return nil, nil
}

func (c *memCache) Put(ctx context.Context, address string, coords domain.Coordinates) error {
	c.entries[address] = coords
	c.puts++
	return nil
}

func TestGeocodeResolvesAddress(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat": "42.6136", "lon": "-5.5583"}]`))
	}))
	defer srv.Close()

	cache := newMemCache()
	g, err := NewNominatimGeocoder(srv.URL, cache)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	coords, err := g.Geocode(context.Background(), "  Campus de   Vegazana, Leon ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coords == nil || coords.Lat != 42.6136 || coords.Lon != -5.5583 {
		t.Fatalf("coords = %v, want 42.6136/-5.5583", coords)
	}

	// Whitespace collapses before the request and the cache key.
	if gotQuery != "Campus de Vegazana, Leon" {
		t.Errorf("query = %q, want normalized address", gotQuery)
	}
	if cache.puts != 1 {
		t.Errorf("cache puts = %d, want 1", cache.puts)
	}
}

func TestGeocodeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g, err := NewNominatimGeocoder(srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	coords, err := g.Geocode(context.Background(), "no such place")
	if err != nil {
		t.Fatalf("no match must not be an error, got %v", err)
	}
	if coords != nil {
		t.Errorf("coords = %v, want nil", coords)
	}
}

func TestGeocodeServesFromCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat": "42.6136", "lon": "-5.5583"}]`))
	}))
	defer srv.Close()

	g, err := NewNominatimGeocoder(srv.URL, newMemCache())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := g.Geocode(context.Background(), "Plaza Mayor 4, Leon"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (later lookups served from cache)", calls)
	}
}

func TestGeocodeRejectsEmptyAddress(t *testing.T) {
	g, err := NewNominatimGeocoder("https://nominatim.openstreetmap.org", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := g.Geocode(context.Background(), "   "); err == nil {
		t.Error("expected error for blank address")
	}
}
