package ports

import (
	"context"

	"courier-route-service/internal/domain"
)

// Solved trip returned by the external route-optimization service.
//
// VisitOrder holds, for every position in the optimized visiting order, the
// index of the stop in the input list. Position 0 is always the start
// (input index 0) and the last position is always the depot (input index
// len-1); indices in between refer to package stops in their original input
// order. Legs has exactly len(VisitOrder)-1 entries, one per transition
// between consecutive visited points.
type TripResult struct {
	TotalDurationSeconds int
	TotalDistanceMeters  int
	Geometry             []domain.Coordinates
	VisitOrder           []int
	Legs                 []domain.Leg
}

// Port: contract for the external trip-optimization service.
//
// Given the point list [start, stop_1..stop_N, depot], the service computes
// the visiting order of stop_1..stop_N minimizing driving time with a fixed
// start and a fixed end. A failed call fails the whole request; the adapter
// never fabricates a plan.
type TripOptimizer interface {
	OptimizeTrip(ctx context.Context, points []domain.Coordinates) (*TripResult, error)
}
