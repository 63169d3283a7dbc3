package ports

import (
	"context"

	"courier-route-service/internal/domain"
)

// Port: forward geocoding of free-text destination addresses.
// A nil result with nil error means the address could not be resolved;
// the shipment is then stored without coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*domain.Coordinates, error)
}

// Port: cache of normalized address -> coordinates lookups.
// Get returns (nil, nil) on a miss.
type GeocodeCache interface {
	Get(ctx context.Context, address string) (*domain.Coordinates, error)
	Put(ctx context.Context, address string, coords domain.Coordinates) error
}
