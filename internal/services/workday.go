package services

import (
	"context"
	"fmt"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"
)

// WorkdaySession manages courier shifts. At most one ACTIVE workday may
// exist per courier; route and ETA computation are gated on one existing.
type WorkdaySession struct {
	Workdays ports.WorkdayRepository
	Clock    ports.Clock
}

// Start opens a workday for the acting courier. Fails with a Conflict if
// one is already active.
func (w *WorkdaySession) Start(ctx context.Context, actor domain.Actor) (*domain.Workday, error) {
	if actor.Role != domain.RoleCourier {
		return nil, E(KindPermission, "only couriers can start a workday")
	}

	active, err := w.Workdays.GetActiveWorkday(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("start workday: get active workday: %w", err)
	}
	if active != nil {
		return nil, E(KindConflict, "there is already an active workday for this courier")
	}

	workday, err := w.Workdays.CreateWorkday(ctx, actor.ID, w.Clock.Now())
	if err != nil {
		return nil, fmt.Errorf("start workday: create workday: %w", err)
	}

	return workday, nil
}

// End closes the acting courier's active workday. Fails with a Conflict if
// none is active; a closed workday is immutable afterwards.
func (w *WorkdaySession) End(ctx context.Context, actor domain.Actor) (*domain.Workday, error) {
	if actor.Role != domain.RoleCourier {
		return nil, E(KindPermission, "only couriers can end workdays")
	}

	active, err := w.Workdays.GetActiveWorkday(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("end workday: get active workday: %w", err)
	}
	if active == nil {
		return nil, E(KindConflict, "there is no active workday for this courier")
	}

	workday, err := w.Workdays.CloseWorkday(ctx, active.ID, w.Clock.Now())
	if err != nil {
		return nil, fmt.Errorf("end workday: close workday: %w", err)
	}

	return workday, nil
}

// Active looks up a courier's active workday. Couriers see their own;
// admins must name the courier.
func (w *WorkdaySession) Active(ctx context.Context, actor domain.Actor, courierID int64) (*domain.Workday, error) {
	var target int64

	switch actor.Role {
	case domain.RoleCourier:
		target = actor.ID
	case domain.RoleAdmin:
		if courierID <= 0 {
			return nil, E(KindValidation, "courier_id must be provided by admin actors")
		}
		target = courierID
	default:
		return nil, E(KindPermission, "actor does not have permission to view workdays")
	}

	workday, err := w.Workdays.GetActiveWorkday(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("get active workday: %w", err)
	}
	if workday == nil {
		return nil, E(KindNotFound, "no active workday found for courier %d", target)
	}

	return workday, nil
}
