package osrm

import (
	"context"
	"errors"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"
)

// MockTripOptimizer returns a canned result regardless of input.
// Intended for tests and local runs without an OSRM instance.
type MockTripOptimizer struct {
	Result *ports.TripResult
	Err    error
}

func (m *MockTripOptimizer) OptimizeTrip(ctx context.Context, points []domain.Coordinates) (*ports.TripResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result == nil {
		return nil, errors.New("mock optimizer: no result configured")
	}
	return m.Result, nil
}

// IdentityTripOptimizer solves nothing: it visits stops in input order with
// uniform legs. Useful where only the plumbing is under test.
type IdentityTripOptimizer struct {
	LegSeconds int
	LegMeters  int
}

func (m *IdentityTripOptimizer) OptimizeTrip(ctx context.Context, points []domain.Coordinates) (*ports.TripResult, error) {
	n := len(points)
	if n < 3 {
		return nil, errors.New("identity optimizer: need at least 3 points")
	}

	order := make([]int, n)
	legs := make([]domain.Leg, 0, n-1)
	for i := range order {
		order[i] = i
	}
	for i := 0; i < n-1; i++ {
		legs = append(legs, domain.Leg{DurationSeconds: m.LegSeconds, DistanceMeters: m.LegMeters})
	}

	return &ports.TripResult{
		TotalDurationSeconds: (n - 1) * m.LegSeconds,
		TotalDistanceMeters:  (n - 1) * m.LegMeters,
		Geometry:             points,
		VisitOrder:           order,
		Legs:                 legs,
	}, nil
}
