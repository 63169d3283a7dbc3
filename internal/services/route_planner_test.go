package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"
)

type funcOptimizer func(ctx context.Context, points []domain.Coordinates) (*ports.TripResult, error)

func (f funcOptimizer) OptimizeTrip(ctx context.Context, points []domain.Coordinates) (*ports.TripResult, error) {
	return f(ctx, points)
}

var depot = domain.Coordinates{Lon: -5.5583, Lat: 42.6136}

func activeWorkday(courierID int64, startedAt time.Time) *domain.Workday {
	return &domain.Workday{ID: 1, CourierID: courierID, StartedAt: startedAt, Status: domain.WorkdayActive}
}

// tripFor returns a solved trip visiting the N package stops in the given
// input-index order (sentinels added automatically).
func tripFor(n int, packageOrder ...int) *ports.TripResult {
	order := make([]int, 0, n+2)
	order = append(order, 0)
	order = append(order, packageOrder...)
	order = append(order, n+1)

	legs := make([]domain.Leg, n+1)
	for i := range legs {
		legs[i] = domain.Leg{DurationSeconds: 600, DistanceMeters: 4000}
	}

	return &ports.TripResult{
		TotalDurationSeconds: 600 * (n + 1),
		TotalDistanceMeters:  4000 * (n + 1),
		VisitOrder:           order,
		Legs:                 legs,
	}
}

func TestBuildRoutePlanReordersShipments(t *testing.T) {
	courierID := int64(7)
	shipments := newMemShipmentRepo(
		&domain.Shipment{ID: 11, Status: domain.StatusAssigned, CourierID: ptrInt64(courierID), Coords: coords(-5.57, 42.60)},
		&domain.Shipment{ID: 12, Status: domain.StatusAssigned, CourierID: ptrInt64(courierID), Coords: coords(-5.54, 42.62)},
	)
	workdays := newMemWorkdayRepo(activeWorkday(courierID, testNow.Add(-time.Hour)))

	// Visit the second input stop before the first.
	planner := &RoutePlanner{
		Shipments: shipments,
		Workdays:  workdays,
		Optimizer: funcOptimizer(func(ctx context.Context, points []domain.Coordinates) (*ports.TripResult, error) {
			return tripFor(2, 2, 1), nil
		}),
		Depot: depot,
	}

	res, err := planner.BuildRoutePlan(context.Background(), courierID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != PlanComputed {
		t.Fatalf("status = %q, want %q", res.Status, PlanComputed)
	}

	plan := res.Plan
	if len(plan.Stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(plan.Stops))
	}
	if plan.Stops[0].Shipment.ID != 12 {
		t.Errorf("first stop shipment = %d, want 12", plan.Stops[0].Shipment.ID)
	}
	if plan.Stops[1].Shipment.ID != 11 {
		t.Errorf("second stop shipment = %d, want 11", plan.Stops[1].Shipment.ID)
	}
	if len(plan.Legs) != 3 {
		t.Errorf("legs = %d, want 3", len(plan.Legs))
	}
}

func TestBuildRoutePlanIsPermutationOfRoutableShipments(t *testing.T) {
	courierID := int64(3)
	shipments := newMemShipmentRepo(
		&domain.Shipment{ID: 1, Status: domain.StatusAssigned, CourierID: ptrInt64(courierID), Coords: coords(-5.57, 42.60)},
		&domain.Shipment{ID: 2, Status: domain.StatusAssigned, CourierID: ptrInt64(courierID), Coords: coords(-5.54, 42.62)},
		&domain.Shipment{ID: 3, Status: domain.StatusAssigned, CourierID: ptrInt64(courierID), Coords: coords(-5.55, 42.61)},
		// Not routable: no coordinates, wrong status, wrong courier.
		&domain.Shipment{ID: 4, Status: domain.StatusAssigned, CourierID: ptrInt64(courierID)},
		&domain.Shipment{ID: 5, Status: domain.StatusPending, Coords: coords(-5.56, 42.63)},
		&domain.Shipment{ID: 6, Status: domain.StatusAssigned, CourierID: ptrInt64(99), Coords: coords(-5.52, 42.64)},
	)
	workdays := newMemWorkdayRepo(activeWorkday(courierID, testNow.Add(-time.Hour)))

	planner := &RoutePlanner{
		Shipments: shipments,
		Workdays:  workdays,
		Optimizer: funcOptimizer(func(ctx context.Context, points []domain.Coordinates) (*ports.TripResult, error) {
			return tripFor(3, 3, 1, 2), nil
		}),
		Depot: depot,
	}

	res, err := planner.BuildRoutePlan(context.Background(), courierID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[int64]int{}
	for _, stop := range res.Plan.Stops {
		seen[stop.Shipment.ID]++
	}
	for _, want := range []int64{1, 2, 3} {
		if seen[want] != 1 {
			t.Errorf("shipment %d appears %d times, want exactly once", want, seen[want])
		}
	}
	if len(res.Plan.Stops) != 3 {
		t.Errorf("stops = %d, want 3 (no invented or dropped shipments)", len(res.Plan.Stops))
	}
}

func TestBuildRoutePlanCourierInactive(t *testing.T) {
	planner := &RoutePlanner{
		Shipments: newMemShipmentRepo(),
		Workdays:  newMemWorkdayRepo(),
		Optimizer: funcOptimizer(func(ctx context.Context, points []domain.Coordinates) (*ports.TripResult, error) {
			t.Fatal("optimizer must not be called without an active workday")
			return nil, nil
		}),
		Depot: depot,
	}

	res, err := planner.BuildRoutePlan(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != PlanCourierInactive {
		t.Errorf("status = %q, want %q", res.Status, PlanCourierInactive)
	}
	if res.Plan != nil {
		t.Error("expected nil plan for inactive courier")
	}
}

func TestBuildRoutePlanNoRoutableShipments(t *testing.T) {
	courierID := int64(4)
	shipments := newMemShipmentRepo(
		// Other statuses and a coordinate-less assignment do not count.
		&domain.Shipment{ID: 1, Status: domain.StatusDelivered, CourierID: ptrInt64(courierID), Coords: coords(-5.57, 42.60), DeliveredAt: &testNow},
		&domain.Shipment{ID: 2, Status: domain.StatusAssigned, CourierID: ptrInt64(courierID)},
	)
	workdays := newMemWorkdayRepo(activeWorkday(courierID, testNow.Add(-time.Hour)))

	planner := &RoutePlanner{
		Shipments: shipments,
		Workdays:  workdays,
		Optimizer: funcOptimizer(func(ctx context.Context, points []domain.Coordinates) (*ports.TripResult, error) {
			return tripFor(1, 1), nil
		}),
		Depot: depot,
	}

	_, err := planner.BuildRoutePlan(context.Background(), courierID)
	if KindOf(err) != KindConflict {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestBuildRoutePlanStartsAtLastDeliveryInWorkday(t *testing.T) {
	courierID := int64(9)
	workdayStart := testNow.Add(-2 * time.Hour)
	deliveredAt := workdayStart.Add(30 * time.Minute)
	beforeShift := workdayStart.Add(-10 * time.Minute)

	deliveredCoords := coords(-5.50, 42.65)
	shipments := newMemShipmentRepo(
		&domain.Shipment{ID: 1, Status: domain.StatusDelivered, CourierID: ptrInt64(courierID), Coords: deliveredCoords, DeliveredAt: &deliveredAt},
		// Delivered before the shift started; must not become the start.
		&domain.Shipment{ID: 2, Status: domain.StatusDelivered, CourierID: ptrInt64(courierID), Coords: coords(-5.49, 42.66), DeliveredAt: &beforeShift},
		&domain.Shipment{ID: 3, Status: domain.StatusAssigned, CourierID: ptrInt64(courierID), Coords: coords(-5.54, 42.62)},
		&domain.Shipment{ID: 4, Status: domain.StatusAssigned, CourierID: ptrInt64(courierID), Coords: coords(-5.55, 42.61)},
	)
	workdays := newMemWorkdayRepo(activeWorkday(courierID, workdayStart))

	var gotStart, gotEnd domain.Coordinates
	planner := &RoutePlanner{
		Shipments: shipments,
		Workdays:  workdays,
		Optimizer: funcOptimizer(func(ctx context.Context, points []domain.Coordinates) (*ports.TripResult, error) {
			gotStart = points[0]
			gotEnd = points[len(points)-1]
			return tripFor(2, 1, 2), nil
		}),
		Depot: depot,
	}

	if _, err := planner.BuildRoutePlan(context.Background(), courierID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotStart != *deliveredCoords {
		t.Errorf("start = %v, want last delivery %v", gotStart, *deliveredCoords)
	}
	if gotEnd != depot {
		t.Errorf("end = %v, want depot %v", gotEnd, depot)
	}
}

func TestBuildRoutePlanStartsAtDepotWithoutDeliveries(t *testing.T) {
	courierID := int64(2)
	shipments := newMemShipmentRepo(
		&domain.Shipment{ID: 1, Status: domain.StatusAssigned, CourierID: ptrInt64(courierID), Coords: coords(-5.54, 42.62)},
	)
	workdays := newMemWorkdayRepo(activeWorkday(courierID, testNow.Add(-time.Hour)))

	var gotStart domain.Coordinates
	planner := &RoutePlanner{
		Shipments: shipments,
		Workdays:  workdays,
		Optimizer: funcOptimizer(func(ctx context.Context, points []domain.Coordinates) (*ports.TripResult, error) {
			gotStart = points[0]
			return tripFor(1, 1), nil
		}),
		Depot: depot,
	}

	if _, err := planner.BuildRoutePlan(context.Background(), courierID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotStart != depot {
		t.Errorf("start = %v, want depot %v", gotStart, depot)
	}
}

func TestBuildRoutePlanPropagatesOptimizerFailure(t *testing.T) {
	courierID := int64(6)
	shipments := newMemShipmentRepo(
		&domain.Shipment{ID: 1, Status: domain.StatusAssigned, CourierID: ptrInt64(courierID), Coords: coords(-5.54, 42.62)},
	)
	workdays := newMemWorkdayRepo(activeWorkday(courierID, testNow.Add(-time.Hour)))

	solverErr := errors.New("solver status NoTrips")
	planner := &RoutePlanner{
		Shipments: shipments,
		Workdays:  workdays,
		Optimizer: funcOptimizer(func(ctx context.Context, points []domain.Coordinates) (*ports.TripResult, error) {
			return nil, solverErr
		}),
		Depot: depot,
	}

	_, err := planner.BuildRoutePlan(context.Background(), courierID)
	if err == nil {
		t.Fatal("expected optimizer failure to propagate")
	}
	if !errors.Is(err, solverErr) {
		t.Errorf("error %v does not wrap the solver error", err)
	}
	if KindOf(err) != KindUnavailable {
		t.Errorf("kind = %v, want KindUnavailable", KindOf(err))
	}
}
