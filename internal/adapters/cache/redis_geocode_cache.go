package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"courier-route-service/internal/domain"
)

// Redis-backed cache mapping address strings to geographic coordinates.
// Address keys are expected to be consistent (e.g., normalized) by the
// caller. Entries expire so stale geocodes eventually refresh.
type RedisGeocodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

const keyPrefix = "geocode:"

func NewRedisGeocodeCache(client *redis.Client, ttl time.Duration) *RedisGeocodeCache {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisGeocodeCache{client: client, ttl: ttl}
}

// Fetch cached coordinates for the given address; (nil, nil) on a miss.
func (c *RedisGeocodeCache) Get(ctx context.Context, address string) (*domain.Coordinates, error) {
	if c.client == nil {
		return nil, errors.New("geocode cache: client is nil")
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("get geocode cache: address must not be empty")
	}

	val, err := c.client.Get(ctx, keyPrefix+address).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: %w", err)
	}

	var lon, lat float64
	if _, err := fmt.Sscanf(val, "%f|%f", &lon, &lat); err != nil {
		return nil, fmt.Errorf("get geocode cache: parse value %q: %w", val, err)
	}

	return &domain.Coordinates{Lon: lon, Lat: lat}, nil
}

// Store an address -> coordinate mapping in the cache.
func (c *RedisGeocodeCache) Put(ctx context.Context, address string, coords domain.Coordinates) error {
	if c.client == nil {
		return errors.New("geocode cache: client is nil")
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return errors.New("insert geocode cache: address must not be empty")
	}

	val := fmt.Sprintf("%f|%f", coords.Lon, coords.Lat)
	if err := c.client.Set(ctx, keyPrefix+address, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("insert geocode cache: %w", err)
	}

	return nil
}
