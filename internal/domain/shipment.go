package domain

import (
	"fmt"
	"time"
)

// ShipmentStatus is the shipment state machine's state set.
type ShipmentStatus string

const (
	StatusPending   ShipmentStatus = "PENDING"
	StatusAssigned  ShipmentStatus = "ASSIGNED"
	StatusEnRoute   ShipmentStatus = "EN_ROUTE"
	StatusDelivered ShipmentStatus = "DELIVERED"
	StatusIncident  ShipmentStatus = "INCIDENT"
)

// Represents a single parcel handled by the system.
//
// Coordinates stay nil until the destination has been geocoded; a shipment
// without coordinates never participates in route or ETA computation.
// DeliveredAt is set exactly when the status is DELIVERED.
type Shipment struct {
	ID           int64
	TrackingCode string
	Description  string
	WeightKg     float64
	Origin       string
	Destination  string
	Coords       *Coordinates
	Status       ShipmentStatus
	CustomerID   int64
	CourierID    *int64

	EstimatedDelivery *time.Time
	DeliveredAt       *time.Time

	LastIncident string
	IncidentAt   *time.Time

	// CustomerNotify flips once the customer has been told about the
	// delivery; NotifiedAt records when.
	CustomerNotify bool
	NotifiedAt     *time.Time
}

// Routable reports whether the shipment can appear in a route plan:
// it must carry resolved coordinates and be in one of the given statuses.
func (s *Shipment) Routable(statuses ...ShipmentStatus) bool {
	if s.Coords == nil {
		return false
	}
	for _, st := range statuses {
		if s.Status == st {
			return true
		}
	}
	return false
}

// Assignable reports whether an admin may (re)assign the shipment to a
// courier. INCIDENT shipments are assignable directly so an admin can
// short-circuit the retry clone.
func (s *Shipment) Assignable() bool {
	return s.Status == StatusPending || s.Status == StatusIncident
}

// CloneForRetry builds the PENDING successor spawned by an incident report.
// The clone re-enters the assignable pool with a derived tracking code and
// no courier; delivery and incident history stay on the original.
func (s *Shipment) CloneForRetry(at time.Time) *Shipment {
	return &Shipment{
		TrackingCode: fmt.Sprintf("%s-R%d", s.TrackingCode, at.Unix()%10000),
		Description:  s.Description,
		WeightKg:     s.WeightKg,
		Origin:       s.Origin,
		Destination:  s.Destination,
		Coords:       s.Coords,
		Status:       StatusPending,
		CustomerID:   s.CustomerID,
	}
}
