package ports

import (
	"context"
	"errors"
	"time"

	"courier-route-service/internal/domain"
)

// ErrShipmentStateChanged reports that a guarded mutation matched no row
// because the shipment left the expected status between the caller's
// check and the write. Callers surface it as a conflict.
var ErrShipmentStateChanged = errors.New("shipment state changed")

// Optional filters for shipment listings. Zero values mean "no filter".
type ShipmentFilter struct {
	Status domain.ShipmentStatus
}

// Port: boundary for reading and mutating Shipment entities.
//
// The route/ETA core only reads; mutations are driven by the lifecycle
// use cases (assignment, delivery, incidents).
type ShipmentRepository interface {
	// Retrieve a single shipment, or nil when it does not exist.
	GetShipment(ctx context.Context, id int64) (*domain.Shipment, error)

	ListShipmentsByCourier(ctx context.Context, courierID int64, f ShipmentFilter) ([]*domain.Shipment, error)
	ListShipmentsByCustomer(ctx context.Context, customerID int64, f ShipmentFilter) ([]*domain.Shipment, error)
	ListShipmentsByStatus(ctx context.Context, status domain.ShipmentStatus) ([]*domain.Shipment, error)

	CreateShipment(ctx context.Context, s *domain.Shipment) (int64, error)

	// Assign all given shipments to the courier in one transaction.
	// Assignment clears any recorded incident on the shipment. A shipment
	// that is no longer PENDING or INCIDENT aborts the whole batch with
	// ErrShipmentStateChanged.
	AssignShipments(ctx context.Context, shipmentIDs []int64, courierID int64) error

	// Move an ASSIGNED shipment back to PENDING with no courier.
	UnassignShipment(ctx context.Context, id int64) error

	SetShipmentStatus(ctx context.Context, id int64, status domain.ShipmentStatus) error

	// MarkDelivered moves an ASSIGNED or EN_ROUTE shipment to DELIVERED.
	MarkDelivered(ctx context.Context, id int64, at time.Time) error
	RecordIncident(ctx context.Context, id int64, description string, at time.Time) error

	// MarkNotified flags a DELIVERED shipment's customer notification.
	// A shipment that is not delivered, or was already notified, returns
	// ErrShipmentStateChanged.
	MarkNotified(ctx context.Context, id int64, at time.Time) error

	// NextUnnotifiedDelivery returns the customer's oldest delivered
	// shipment whose notification has not been consumed yet, or nil.
	NextUnnotifiedDelivery(ctx context.Context, customerID int64) (*domain.Shipment, error)

	// SetEstimatedDelivery caches the latest computed arrival estimate on
	// the shipment row. Delivered shipments are never touched.
	SetEstimatedDelivery(ctx context.Context, id int64, at time.Time) error
}
