package services

import (
	"context"
	"sort"
	"time"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"
)

// fixedClock returns a constant time for deterministic assertions.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// memShipmentRepo is an in-memory ShipmentRepository for service tests.
type memShipmentRepo struct {
	shipments map[int64]*domain.Shipment
	nextID    int64
}

func newMemShipmentRepo(shipments ...*domain.Shipment) *memShipmentRepo {
	r := &memShipmentRepo{shipments: make(map[int64]*domain.Shipment), nextID: 1}
	for _, s := range shipments {
		cp := *s
		if cp.ID == 0 {
			cp.ID = r.nextID
		}
		r.shipments[cp.ID] = &cp
		if cp.ID >= r.nextID {
			r.nextID = cp.ID + 1
		}
	}
	return r
}

func (r *memShipmentRepo) sorted(keep func(*domain.Shipment) bool) []*domain.Shipment {
	out := make([]*domain.Shipment, 0, len(r.shipments))
	for _, s := range r.shipments {
		if keep(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memShipmentRepo) GetShipment(ctx context.Context, id int64) (*domain.Shipment, error) {
	s, ok := r.shipments[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func matchFilter(s *domain.Shipment, f ports.ShipmentFilter) bool {
	return f.Status == "" || s.Status == f.Status
}

func (r *memShipmentRepo) ListShipmentsByCourier(ctx context.Context, courierID int64, f ports.ShipmentFilter) ([]*domain.Shipment, error) {
	return r.sorted(func(s *domain.Shipment) bool {
		return s.CourierID != nil && *s.CourierID == courierID && matchFilter(s, f)
	}), nil
}

func (r *memShipmentRepo) ListShipmentsByCustomer(ctx context.Context, customerID int64, f ports.ShipmentFilter) ([]*domain.Shipment, error) {
	return r.sorted(func(s *domain.Shipment) bool {
		return s.CustomerID == customerID && matchFilter(s, f)
	}), nil
}

func (r *memShipmentRepo) ListShipmentsByStatus(ctx context.Context, status domain.ShipmentStatus) ([]*domain.Shipment, error) {
	return r.sorted(func(s *domain.Shipment) bool { return s.Status == status }), nil
}

func (r *memShipmentRepo) CreateShipment(ctx context.Context, s *domain.Shipment) (int64, error) {
	cp := *s
	cp.ID = r.nextID
	r.nextID++
	r.shipments[cp.ID] = &cp
	return cp.ID, nil
}

func (r *memShipmentRepo) AssignShipments(ctx context.Context, shipmentIDs []int64, courierID int64) error {
	for _, id := range shipmentIDs {
		s := r.shipments[id]
		if s.Status != domain.StatusPending && s.Status != domain.StatusIncident {
			return ports.ErrShipmentStateChanged
		}
		cid := courierID
		s.CourierID = &cid
		s.Status = domain.StatusAssigned
		s.LastIncident = ""
		s.IncidentAt = nil
	}
	return nil
}

func (r *memShipmentRepo) UnassignShipment(ctx context.Context, id int64) error {
	s := r.shipments[id]
	if s.Status != domain.StatusAssigned {
		return ports.ErrShipmentStateChanged
	}
	s.CourierID = nil
	s.Status = domain.StatusPending
	return nil
}

func (r *memShipmentRepo) SetShipmentStatus(ctx context.Context, id int64, status domain.ShipmentStatus) error {
	r.shipments[id].Status = status
	return nil
}

func (r *memShipmentRepo) MarkDelivered(ctx context.Context, id int64, at time.Time) error {
	s := r.shipments[id]
	if s.Status != domain.StatusAssigned && s.Status != domain.StatusEnRoute {
		return ports.ErrShipmentStateChanged
	}
	s.Status = domain.StatusDelivered
	t := at
	s.DeliveredAt = &t
	return nil
}

func (r *memShipmentRepo) MarkNotified(ctx context.Context, id int64, at time.Time) error {
	s := r.shipments[id]
	if s.Status != domain.StatusDelivered || s.CustomerNotify {
		return ports.ErrShipmentStateChanged
	}
	s.CustomerNotify = true
	t := at
	s.NotifiedAt = &t
	return nil
}

func (r *memShipmentRepo) NextUnnotifiedDelivery(ctx context.Context, customerID int64) (*domain.Shipment, error) {
	pending := r.sorted(func(s *domain.Shipment) bool {
		return s.CustomerID == customerID && s.Status == domain.StatusDelivered && !s.CustomerNotify
	})
	sort.Slice(pending, func(i, j int) bool {
		a, b := pending[i], pending[j]
		if a.DeliveredAt != nil && b.DeliveredAt != nil && !a.DeliveredAt.Equal(*b.DeliveredAt) {
			return a.DeliveredAt.Before(*b.DeliveredAt)
		}
		return a.ID < b.ID
	})
	if len(pending) == 0 {
		return nil, nil
	}
	return pending[0], nil
}

func (r *memShipmentRepo) SetEstimatedDelivery(ctx context.Context, id int64, at time.Time) error {
	s := r.shipments[id]
	if s.Status == domain.StatusDelivered {
		return nil
	}
	t := at
	s.EstimatedDelivery = &t
	return nil
}

func (r *memShipmentRepo) RecordIncident(ctx context.Context, id int64, description string, at time.Time) error {
	s := r.shipments[id]
	s.Status = domain.StatusIncident
	s.LastIncident = description
	t := at
	s.IncidentAt = &t
	return nil
}

// memWorkdayRepo is an in-memory WorkdayRepository for service tests.
type memWorkdayRepo struct {
	workdays map[int64]*domain.Workday
	nextID   int64
}

func newMemWorkdayRepo(workdays ...*domain.Workday) *memWorkdayRepo {
	r := &memWorkdayRepo{workdays: make(map[int64]*domain.Workday), nextID: 1}
	for _, w := range workdays {
		cp := *w
		if cp.ID == 0 {
			cp.ID = r.nextID
		}
		r.workdays[cp.ID] = &cp
		if cp.ID >= r.nextID {
			r.nextID = cp.ID + 1
		}
	}
	return r
}

func (r *memWorkdayRepo) GetActiveWorkday(ctx context.Context, courierID int64) (*domain.Workday, error) {
	for _, w := range r.workdays {
		if w.CourierID == courierID && w.Status == domain.WorkdayActive {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memWorkdayRepo) CreateWorkday(ctx context.Context, courierID int64, startedAt time.Time) (*domain.Workday, error) {
	w := &domain.Workday{ID: r.nextID, CourierID: courierID, StartedAt: startedAt, Status: domain.WorkdayActive}
	r.nextID++
	r.workdays[w.ID] = w
	cp := *w
	return &cp, nil
}

func (r *memWorkdayRepo) CloseWorkday(ctx context.Context, workdayID int64, endedAt time.Time) (*domain.Workday, error) {
	w := r.workdays[workdayID]
	t := endedAt
	w.EndedAt = &t
	w.Status = domain.WorkdayClosed
	cp := *w
	return &cp, nil
}

func ptrInt64(v int64) *int64 { return &v }

func coords(lon, lat float64) *domain.Coordinates {
	return &domain.Coordinates{Lon: lon, Lat: lat}
}
