package services

import (
	"context"
	"time"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/platform/obs"
	"courier-route-service/internal/ports"
)

// ETAStatus tells the caller how the estimate was produced.
type ETAStatus string

const (
	ETADelivered          ETAStatus = "delivered"
	ETAAwaitingAssignment ETAStatus = "awaiting_assignment"
	ETACourierInactive    ETAStatus = "courier_inactive"
	ETAComputed           ETAStatus = "computed"
	ETAApproximate        ETAStatus = "approximate"
)

// ETAResult is the estimate for one shipment. ETAMinutes and
// EstimatedArrival are nil for the terminal/blocked statuses that carry
// no numeric estimate.
type ETAResult struct {
	ShipmentID       int64
	Status           ETAStatus
	ETAMinutes       *int
	EstimatedArrival *time.Time
}

// ETAEstimator derives a per-shipment arrival estimate from a freshly
// computed route plan, accumulating travel time plus a fixed per-stop
// service overhead up to the target shipment.
type ETAEstimator struct {
	Shipments ports.ShipmentRepository
	Workdays  ports.WorkdayRepository
	Planner   *RoutePlanner
	Clock     ports.Clock

	// ServiceTime is added per intermediate stop for the hand-off itself.
	ServiceTime time.Duration
	// FallbackETA is the approximate estimate used when no plan-derived
	// value is available.
	FallbackETA time.Duration
}

// EstimateETA resolves the estimate for one shipment following a fixed
// decision table: delivered, awaiting assignment, courier inactive,
// approximate fallback, or computed from the route plan.
//
// ETA computation never propagates an optimizer failure: it degrades to
// the approximate fallback instead.
func (e *ETAEstimator) EstimateETA(ctx context.Context, actor domain.Actor, shipmentID int64) (_ *ETAResult, err error) {
	defer obs.Time(ctx, "eta.EstimateETA")(&err)

	if !actor.Role.Valid() || actor.ID <= 0 {
		return nil, E(KindValidation, "actor data is required")
	}
	if shipmentID <= 0 {
		return nil, E(KindValidation, "shipment id is required")
	}

	shipment, err := e.Shipments.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, Wrap(KindUnknown, err, "estimate eta: get shipment")
	}
	if shipment == nil {
		return nil, E(KindNotFound, "shipment %d not found", shipmentID)
	}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleCourier:
		if shipment.CourierID == nil || *shipment.CourierID != actor.ID {
			return nil, E(KindPermission, "shipment not assigned to this courier")
		}
	case domain.RoleCustomer:
		if shipment.CustomerID != actor.ID {
			return nil, E(KindPermission, "shipment does not belong to this customer")
		}
	}

	if shipment.Status == domain.StatusDelivered {
		zero := 0
		return &ETAResult{
			ShipmentID:       shipmentID,
			Status:           ETADelivered,
			ETAMinutes:       &zero,
			EstimatedArrival: shipment.DeliveredAt,
		}, nil
	}

	if shipment.CourierID == nil || shipment.Status == domain.StatusPending {
		return &ETAResult{ShipmentID: shipmentID, Status: ETAAwaitingAssignment}, nil
	}

	courierID := *shipment.CourierID
	workday, err := e.Workdays.GetActiveWorkday(ctx, courierID)
	if err != nil {
		return nil, Wrap(KindUnknown, err, "estimate eta: get active workday")
	}
	if workday == nil {
		return &ETAResult{ShipmentID: shipmentID, Status: ETACourierInactive}, nil
	}

	routable, err := e.Planner.RoutableShipments(ctx, courierID, domain.StatusAssigned, domain.StatusEnRoute)
	if err != nil {
		return nil, err
	}

	inSet := false
	for _, s := range routable {
		if s.ID == shipmentID {
			inSet = true
			break
		}
	}
	if !inSet {
		return e.cacheEstimate(ctx, e.approximate(shipmentID)), nil
	}

	plan, err := e.Planner.PlanShipments(ctx, workday, courierID, routable)
	if err != nil {
		// Degrade: a heuristic estimate beats a hard failure here.
		obs.Log().Warnw("eta degraded to heuristic", "req_id", obs.RequestID(ctx), "shipment_id", shipmentID, "err", err)
		return e.cacheEstimate(ctx, e.approximate(shipmentID)), nil
	}

	return e.cacheEstimate(ctx, e.walkPlan(plan, shipmentID)), nil
}

// cacheEstimate stores the arrival estimate on the shipment row so list
// views can show it without recomputing the plan. A write failure only
// logs; the caller still gets the estimate.
func (e *ETAEstimator) cacheEstimate(ctx context.Context, res *ETAResult) *ETAResult {
	if res.EstimatedArrival == nil {
		return res
	}
	if err := e.Shipments.SetEstimatedDelivery(ctx, res.ShipmentID, *res.EstimatedArrival); err != nil {
		obs.Log().Warnw("estimated delivery not cached", "req_id", obs.RequestID(ctx), "shipment_id", res.ShipmentID, "err", err)
	}
	return res
}

// walkPlan accumulates leg durations in visiting order until the target
// shipment is reached, adding the fixed service time after every earlier
// stop. Legs beyond the last shipment stop lead to the depot and are
// never reached for a matched target.
func (e *ETAEstimator) walkPlan(plan *domain.RoutePlan, shipmentID int64) *ETAResult {
	elapsed := 0

	for i, leg := range plan.Legs {
		elapsed += leg.DurationSeconds

		if i >= len(plan.Stops) {
			break
		}

		if plan.Stops[i].Shipment.ID == shipmentID {
			minutes := elapsed / 60
			arrival := e.Clock.Now().Add(time.Duration(minutes) * time.Minute)
			return &ETAResult{
				ShipmentID:       shipmentID,
				Status:           ETAComputed,
				ETAMinutes:       &minutes,
				EstimatedArrival: &arrival,
			}
		}

		elapsed += int(e.ServiceTime.Seconds())
	}

	return e.approximate(shipmentID)
}

func (e *ETAEstimator) approximate(shipmentID int64) *ETAResult {
	obs.ETAFallbacks.Inc()

	minutes := int(e.FallbackETA.Minutes())
	arrival := e.Clock.Now().Add(e.FallbackETA)
	return &ETAResult{
		ShipmentID:       shipmentID,
		Status:           ETAApproximate,
		ETAMinutes:       &minutes,
		EstimatedArrival: &arrival,
	}
}
