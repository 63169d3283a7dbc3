package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/platform/obs"
	"courier-route-service/internal/ports"
)

// ShipmentService drives the shipment lifecycle: intake, assignment,
// delivery, incidents. The route/ETA core never mutates; all writes to
// shipment state funnel through here.
type ShipmentService struct {
	Shipments ports.ShipmentRepository
	Geocoder  ports.Geocoder
	Clock     ports.Clock
}

type CreateShipmentInput struct {
	Description string
	WeightKg    float64
	Origin      string
	Destination string
	CustomerID  int64
}

const trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (s *ShipmentService) trackingCode() string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = trackingAlphabet[rand.Intn(len(trackingAlphabet))]
	}
	return fmt.Sprintf("PKG-%s-%s", s.Clock.Now().Format("20060102"), suffix)
}

// Create registers a new shipment in PENDING. The destination is geocoded
// immediately; an unresolvable address is not an error, the shipment is
// just excluded from routing until its coordinates resolve.
func (s *ShipmentService) Create(ctx context.Context, actor domain.Actor, in CreateShipmentInput) (*domain.Shipment, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, E(KindPermission, "only admins can register shipments")
	}

	if strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.Origin) == "" || strings.TrimSpace(in.Destination) == "" {
		return nil, E(KindValidation, "description, origin and destination are required")
	}
	if in.WeightKg <= 0 {
		return nil, E(KindValidation, "weight must be a positive number")
	}
	if in.CustomerID <= 0 {
		return nil, E(KindValidation, "customer_id is required")
	}

	shipment := &domain.Shipment{
		TrackingCode: s.trackingCode(),
		Description:  strings.TrimSpace(in.Description),
		WeightKg:     in.WeightKg,
		Origin:       strings.TrimSpace(in.Origin),
		Destination:  strings.TrimSpace(in.Destination),
		Status:       domain.StatusPending,
		CustomerID:   in.CustomerID,
	}

	if s.Geocoder != nil {
		coords, err := s.Geocoder.Geocode(ctx, shipment.Destination)
		if err != nil {
			obs.Log().Warnw("destination geocode failed", "destination", shipment.Destination, "err", err)
		} else if coords != nil {
			shipment.Coords = coords
		}
	}

	id, err := s.Shipments.CreateShipment(ctx, shipment)
	if err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	shipment.ID = id

	return shipment, nil
}

// Assign attaches a batch of shipments to a courier, all-or-nothing: any
// id that is missing or not in an assignable state aborts the whole batch
// with no partial mutation. Assignable means PENDING or INCIDENT.
func (s *ShipmentService) Assign(ctx context.Context, actor domain.Actor, shipmentIDs []int64, courierID int64) ([]*domain.Shipment, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, E(KindPermission, "only admins can assign shipments")
	}
	if len(shipmentIDs) == 0 {
		return nil, E(KindValidation, "at least one shipment id must be provided")
	}
	if courierID <= 0 {
		return nil, E(KindValidation, "courier_id must be provided")
	}

	for _, id := range shipmentIDs {
		shipment, err := s.Shipments.GetShipment(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("assign shipments: get shipment %d: %w", id, err)
		}
		if shipment == nil {
			return nil, E(KindNotFound, "shipment %d not found", id)
		}
		if !shipment.Assignable() {
			return nil, E(KindConflict, "shipment %d is not assignable (status %s)", id, shipment.Status)
		}
	}

	if err := s.Shipments.AssignShipments(ctx, shipmentIDs, courierID); err != nil {
		if errors.Is(err, ports.ErrShipmentStateChanged) {
			return nil, Wrap(KindConflict, err, "a shipment left the assignable state")
		}
		return nil, fmt.Errorf("assign shipments: %w", err)
	}

	assigned := make([]*domain.Shipment, 0, len(shipmentIDs))
	for _, id := range shipmentIDs {
		shipment, err := s.Shipments.GetShipment(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("assign shipments: reload shipment %d: %w", id, err)
		}
		assigned = append(assigned, shipment)
	}

	return assigned, nil
}

// Unassign returns an ASSIGNED shipment to the PENDING pool.
func (s *ShipmentService) Unassign(ctx context.Context, actor domain.Actor, shipmentID int64) (*domain.Shipment, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, E(KindPermission, "only admins can unassign shipments")
	}

	shipment, err := s.getExisting(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	if shipment.Status == domain.StatusDelivered {
		return nil, E(KindConflict, "shipment %d is already delivered", shipmentID)
	}
	if shipment.Status != domain.StatusAssigned {
		return nil, E(KindConflict, "shipment %d is not assigned", shipmentID)
	}

	if err := s.Shipments.UnassignShipment(ctx, shipmentID); err != nil {
		if errors.Is(err, ports.ErrShipmentStateChanged) {
			return nil, Wrap(KindConflict, err, "shipment %d is no longer assigned", shipmentID)
		}
		return nil, fmt.Errorf("unassign shipment: %w", err)
	}

	return s.Shipments.GetShipment(ctx, shipmentID)
}

// MarkEnRoute flips an assigned shipment to EN_ROUTE when the courier
// picks it up.
func (s *ShipmentService) MarkEnRoute(ctx context.Context, actor domain.Actor, shipmentID int64) (*domain.Shipment, error) {
	if actor.Role != domain.RoleCourier {
		return nil, E(KindPermission, "only couriers can start delivering a shipment")
	}

	shipment, err := s.getExisting(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	if shipment.CourierID == nil || *shipment.CourierID != actor.ID {
		return nil, E(KindPermission, "shipment not assigned to this courier")
	}
	if shipment.Status != domain.StatusAssigned {
		return nil, E(KindConflict, "shipment %d is not assigned", shipmentID)
	}

	if err := s.Shipments.SetShipmentStatus(ctx, shipmentID, domain.StatusEnRoute); err != nil {
		return nil, fmt.Errorf("mark en route: %w", err)
	}

	return s.Shipments.GetShipment(ctx, shipmentID)
}

// Deliver records a successful hand-off. DELIVERED is terminal: it sets
// the actual delivery timestamp and rejects any later mutation.
func (s *ShipmentService) Deliver(ctx context.Context, actor domain.Actor, shipmentID int64) (*domain.Shipment, error) {
	if actor.Role != domain.RoleCourier {
		return nil, E(KindPermission, "only couriers can deliver shipments")
	}

	shipment, err := s.getExisting(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	if shipment.CourierID == nil || *shipment.CourierID != actor.ID {
		return nil, E(KindPermission, "shipment not assigned to this courier")
	}
	if shipment.Status == domain.StatusDelivered {
		return nil, E(KindConflict, "shipment already delivered")
	}
	if shipment.Status != domain.StatusAssigned && shipment.Status != domain.StatusEnRoute {
		return nil, E(KindConflict, "shipment %d cannot be delivered from status %s", shipmentID, shipment.Status)
	}

	if err := s.Shipments.MarkDelivered(ctx, shipmentID, s.Clock.Now()); err != nil {
		if errors.Is(err, ports.ErrShipmentStateChanged) {
			return nil, Wrap(KindConflict, err, "shipment %d cannot be delivered anymore", shipmentID)
		}
		return nil, fmt.Errorf("deliver shipment: %w", err)
	}

	return s.Shipments.GetShipment(ctx, shipmentID)
}

// NotifyDelivery records that the customer has been told about a
// completed delivery. Only an admin or the courier who carried the
// shipment may send the notification, and it is sent at most once.
func (s *ShipmentService) NotifyDelivery(ctx context.Context, actor domain.Actor, shipmentID int64) (*domain.Shipment, error) {
	shipment, err := s.getExisting(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleCourier:
		if shipment.CourierID == nil || *shipment.CourierID != actor.ID {
			return nil, E(KindPermission, "couriers can notify only their own shipments")
		}
	default:
		return nil, E(KindPermission, "only admins or the assigned courier can notify a delivery")
	}

	if shipment.Status != domain.StatusDelivered {
		return nil, E(KindConflict, "shipment %d is not delivered", shipmentID)
	}
	if shipment.CustomerNotify {
		return nil, E(KindConflict, "delivery already notified")
	}

	if err := s.Shipments.MarkNotified(ctx, shipmentID, s.Clock.Now()); err != nil {
		if errors.Is(err, ports.ErrShipmentStateChanged) {
			return nil, Wrap(KindConflict, err, "delivery already notified")
		}
		return nil, fmt.Errorf("notify delivery: %w", err)
	}

	return s.Shipments.GetShipment(ctx, shipmentID)
}

// PopNextNotification hands a customer their oldest unseen delivery
// notification and consumes it. Returns nil when nothing is pending.
func (s *ShipmentService) PopNextNotification(ctx context.Context, actor domain.Actor) (*domain.Shipment, error) {
	if actor.Role != domain.RoleCustomer {
		return nil, E(KindPermission, "only customers can pop their delivery notifications")
	}

	shipment, err := s.Shipments.NextUnnotifiedDelivery(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("pop next notification: %w", err)
	}
	if shipment == nil {
		return nil, nil
	}

	if err := s.Shipments.MarkNotified(ctx, shipment.ID, s.Clock.Now()); err != nil {
		// Consumed concurrently; the customer simply has nothing pending.
		if errors.Is(err, ports.ErrShipmentStateChanged) {
			return nil, nil
		}
		return nil, fmt.Errorf("pop next notification: %w", err)
	}

	return s.Shipments.GetShipment(ctx, shipment.ID)
}

// ReportIncident records incident text on the shipment and spawns a fresh
// PENDING clone with a derived tracking code so the parcel re-enters the
// assignable pool. The original keeps its courier reference for audit.
func (s *ShipmentService) ReportIncident(ctx context.Context, actor domain.Actor, shipmentID int64, description string) (*domain.Shipment, error) {
	if strings.TrimSpace(description) == "" {
		return nil, E(KindValidation, "incident description is required")
	}

	shipment, err := s.getExisting(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleCourier:
		if shipment.CourierID == nil || *shipment.CourierID != actor.ID {
			return nil, E(KindPermission, "couriers can report incidents only for their assigned shipments")
		}
	case domain.RoleCustomer:
		if shipment.CustomerID != actor.ID {
			return nil, E(KindPermission, "customers can report incidents only for their own shipments")
		}
	default:
		return nil, E(KindPermission, "invalid role")
	}

	if shipment.Status == domain.StatusDelivered {
		return nil, E(KindConflict, "shipment %d is already delivered", shipmentID)
	}

	now := s.Clock.Now()
	if err := s.Shipments.RecordIncident(ctx, shipmentID, strings.TrimSpace(description), now); err != nil {
		return nil, fmt.Errorf("report incident: %w", err)
	}

	clone := shipment.CloneForRetry(now)
	id, err := s.Shipments.CreateShipment(ctx, clone)
	if err != nil {
		return nil, fmt.Errorf("report incident: create retry clone: %w", err)
	}
	clone.ID = id

	return clone, nil
}

// List returns shipments scoped to the actor: couriers and customers see
// their own, admins may name any courier, customer, or the pending pool.
func (s *ShipmentService) List(ctx context.Context, actor domain.Actor, courierID, customerID int64, status domain.ShipmentStatus) ([]*domain.Shipment, error) {
	filter := ports.ShipmentFilter{Status: status}

	switch actor.Role {
	case domain.RoleCourier:
		return s.Shipments.ListShipmentsByCourier(ctx, actor.ID, filter)
	case domain.RoleCustomer:
		return s.Shipments.ListShipmentsByCustomer(ctx, actor.ID, filter)
	case domain.RoleAdmin:
		switch {
		case courierID > 0:
			return s.Shipments.ListShipmentsByCourier(ctx, courierID, filter)
		case customerID > 0:
			return s.Shipments.ListShipmentsByCustomer(ctx, customerID, filter)
		case status != "":
			return s.Shipments.ListShipmentsByStatus(ctx, status)
		default:
			return s.Shipments.ListShipmentsByStatus(ctx, domain.StatusPending)
		}
	default:
		return nil, E(KindPermission, "invalid role")
	}
}

// Get returns one shipment with the same ownership rules as List.
func (s *ShipmentService) Get(ctx context.Context, actor domain.Actor, shipmentID int64) (*domain.Shipment, error) {
	shipment, err := s.getExisting(ctx, shipmentID)
	if err != nil {
		return nil, err
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
	default:
		return nil, E(KindPermission, "invalid role")
	}

	return shipment, nil
}

func (s *ShipmentService) getExisting(ctx context.Context, shipmentID int64) (*domain.Shipment, error) {
	if shipmentID <= 0 {
		return nil, E(KindValidation, "shipment id is required")
	}

	shipment, err := s.Shipments.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("get shipment %d: %w", shipmentID, err)
	}
	if shipment == nil {
		return nil, E(KindNotFound, "shipment %d not found", shipmentID)
	}

	return shipment, nil
}
