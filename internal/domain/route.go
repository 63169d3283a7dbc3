package domain

// Leg is the travel segment between two consecutive visited stops.
type Leg struct {
	DurationSeconds int
	DistanceMeters  int
}

// Represents a single stop in a delivery route: one shipment reached at a
// position in the optimized visiting order.
type RouteStop struct {
	Shipment *Shipment
	Coords   Coordinates
}

// Represents the optimized visiting plan for one courier.
//
// A RoutePlan is the output of a single optimizer call and describes the
// ordered sequence of shipment stops, per-leg timing and aggregate metrics.
// It is transient planning data: computed on demand, never persisted.
type RoutePlan struct {
	CourierID            int64
	Start                Coordinates
	Depot                Coordinates
	Stops                []RouteStop
	Legs                 []Leg
	Geometry             []Coordinates
	TotalDurationSeconds int
	TotalDistanceMeters  int
}
