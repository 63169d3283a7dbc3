package services

import (
	"context"
	"fmt"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/platform/obs"
	"courier-route-service/internal/ports"
)

// PlanStatus distinguishes a computed plan from the non-fatal
// "courier off shift" outcome.
type PlanStatus string

const (
	PlanComputed        PlanStatus = "computed"
	PlanCourierInactive PlanStatus = "courier_inactive"
)

// PlanResult is the outcome of a route plan request. Plan is non-nil only
// when Status is PlanComputed.
type PlanResult struct {
	Status PlanStatus
	Plan   *domain.RoutePlan
}

// RoutePlanner builds the optimized visiting plan for a courier's
// shipments by delegating the combinatorial problem to the external
// trip optimizer and joining its answer back to shipment identities.
//
// The planner is read-only with respect to persisted state; every plan is
// computed fresh and discarded after use.
type RoutePlanner struct {
	Shipments ports.ShipmentRepository
	Workdays  ports.WorkdayRepository
	Optimizer ports.TripOptimizer

	// Depot is the fixed warehouse coordinate routes end at (and start
	// from when the courier has no delivery yet in the current workday).
	Depot domain.Coordinates
}

// BuildRoutePlan computes the recommended visiting sequence for the
// courier's ASSIGNED, coordinate-bearing shipments.
//
// No active workday is a non-fatal outcome; no routable shipments is a
// Conflict; optimizer failures propagate unchanged, since presenting a
// wrong visiting order would be worse than failing visibly.
func (p *RoutePlanner) BuildRoutePlan(ctx context.Context, courierID int64) (_ *PlanResult, err error) {
	defer obs.Time(ctx, "planner.BuildRoutePlan")(&err)

	if courierID <= 0 {
		return nil, E(KindValidation, "courier id is required")
	}

	workday, err := p.Workdays.GetActiveWorkday(ctx, courierID)
	if err != nil {
		return nil, fmt.Errorf("build route plan: get active workday: %w", err)
	}
	if workday == nil {
		return &PlanResult{Status: PlanCourierInactive}, nil
	}

	routable, err := p.RoutableShipments(ctx, courierID, domain.StatusAssigned)
	if err != nil {
		return nil, err
	}
	if len(routable) == 0 {
		return nil, E(KindConflict, "no routable shipments for courier %d", courierID)
	}

	plan, err := p.PlanShipments(ctx, workday, courierID, routable)
	if err != nil {
		return nil, err
	}

	obs.RoutePlansComputed.Inc()
	return &PlanResult{Status: PlanComputed, Plan: plan}, nil
}

// RoutableShipments returns the courier's shipments that can appear in a
// route plan: one of the given statuses with resolved coordinates.
// Shipments lacking coordinates are silently excluded, not an error.
func (p *RoutePlanner) RoutableShipments(
	ctx context.Context,
	courierID int64,
	statuses ...domain.ShipmentStatus,
) ([]*domain.Shipment, error) {
	all, err := p.Shipments.ListShipmentsByCourier(ctx, courierID, ports.ShipmentFilter{})
	if err != nil {
		return nil, fmt.Errorf("routable shipments: list by courier: %w", err)
	}

	routable := make([]*domain.Shipment, 0, len(all))
	for _, s := range all {
		if s.Routable(statuses...) {
			routable = append(routable, s)
		}
	}

	return routable, nil
}

// PlanShipments runs one optimizer call over the given shipments and
// reconstructs the domain-level ordered shipment list from the solved
// visiting order.
//
// The stop list sent out is [start, shipment_1..shipment_N, depot] with
// shipments in their stable listing order; the optimizer's visit order
// refers back to these input indices. Index 0 and N+1 are sentinels for
// the start and the depot and carry no shipment.
func (p *RoutePlanner) PlanShipments(
	ctx context.Context,
	workday *domain.Workday,
	courierID int64,
	shipments []*domain.Shipment,
) (*domain.RoutePlan, error) {
	if len(shipments) == 0 {
		return nil, E(KindConflict, "no routable shipments for courier %d", courierID)
	}

	start, err := p.startPoint(ctx, courierID, workday)
	if err != nil {
		return nil, err
	}

	points := make([]domain.Coordinates, 0, len(shipments)+2)
	points = append(points, start)
	for _, s := range shipments {
		points = append(points, *s.Coords)
	}
	points = append(points, p.Depot)

	result, err := p.Optimizer.OptimizeTrip(ctx, points)
	if err != nil {
		return nil, Wrap(KindUnavailable, err, "plan shipments: optimize trip")
	}

	depotIdx := len(points) - 1
	stops := make([]domain.RouteStop, 0, len(shipments))
	for _, inputIdx := range result.VisitOrder {
		if inputIdx == 0 || inputIdx == depotIdx {
			continue
		}
		if inputIdx < 1 || inputIdx > len(shipments) {
			return nil, fmt.Errorf("plan shipments: optimizer returned index %d out of range", inputIdx)
		}
		s := shipments[inputIdx-1]
		stops = append(stops, domain.RouteStop{Shipment: s, Coords: *s.Coords})
	}

	if len(stops) != len(shipments) {
		return nil, fmt.Errorf(
			"plan shipments: optimizer visited %d of %d shipments",
			len(stops), len(shipments),
		)
	}

	return &domain.RoutePlan{
		CourierID:            courierID,
		Start:                start,
		Depot:                p.Depot,
		Stops:                stops,
		Legs:                 result.Legs,
		Geometry:             result.Geometry,
		TotalDurationSeconds: result.TotalDurationSeconds,
		TotalDistanceMeters:  result.TotalDistanceMeters,
	}, nil
}

// startPoint selects where the route begins: the most recent delivery made
// at or after the active workday's start, else the depot. Both the plan
// endpoint and the ETA estimator share this policy so the two never
// disagree about the courier's position.
func (p *RoutePlanner) startPoint(ctx context.Context, courierID int64, workday *domain.Workday) (domain.Coordinates, error) {
	delivered, err := p.Shipments.ListShipmentsByCourier(ctx, courierID, ports.ShipmentFilter{
		Status: domain.StatusDelivered,
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("start point: list delivered shipments: %w", err)
	}

	var latest *domain.Shipment
	for _, s := range delivered {
		if s.DeliveredAt == nil || s.Coords == nil {
			continue
		}
		if s.DeliveredAt.Before(workday.StartedAt) {
			continue
		}
		if latest == nil || s.DeliveredAt.After(*latest.DeliveredAt) {
			latest = s
		}
	}

	if latest != nil {
		return *latest.Coords, nil
	}
	return p.Depot, nil
}
