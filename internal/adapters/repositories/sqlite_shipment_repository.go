package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/ports"
)

// SQLite-backed implementation of the ShipmentRepository port.
type SqliteShipmentRepository struct{ DB *sql.DB }

func NewSqliteShipmentRepository(db *sql.DB) *SqliteShipmentRepository {
	return &SqliteShipmentRepository{DB: db}
}

// customer_notified is cast so Postgres booleans and SQLite integers
// scan through the same row reader.
const shipmentColumns = `
	id,
	tracking_code,
	description,
	weight_kg,
	origin,
	destination,
	lon,
	lat,
	status,
	customer_id,
	courier_id,
	estimated_delivery,
	delivered_at,
	last_incident,
	incident_at,
	CAST(customer_notified AS INTEGER),
	notified_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner) (*domain.Shipment, error) {
	var (
		s           domain.Shipment
		lon, lat    sql.NullFloat64
		courierID   sql.NullInt64
		estimated   sql.NullTime
		deliveredAt sql.NullTime
		incidentAt  sql.NullTime
		notified    int
		notifiedAt  sql.NullTime
	)

	err := row.Scan(
		&s.ID, &s.TrackingCode, &s.Description, &s.WeightKg,
		&s.Origin, &s.Destination, &lon, &lat,
		&s.Status, &s.CustomerID, &courierID,
		&estimated, &deliveredAt, &s.LastIncident, &incidentAt, &notified, &notifiedAt,
	)
	if err != nil {
		return nil, err
	}

	if lon.Valid && lat.Valid {
		s.Coords = &domain.Coordinates{Lon: lon.Float64, Lat: lat.Float64}
	}
	if courierID.Valid {
		id := courierID.Int64
		s.CourierID = &id
	}
	if estimated.Valid {
		t := estimated.Time
		s.EstimatedDelivery = &t
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		s.DeliveredAt = &t
	}
	if incidentAt.Valid {
		t := incidentAt.Time
		s.IncidentAt = &t
	}
	s.CustomerNotify = notified != 0
	if notifiedAt.Valid {
		t := notifiedAt.Time
		s.NotifiedAt = &t
	}

	return &s, nil
}

func (r *SqliteShipmentRepository) listShipments(ctx context.Context, where string, args ...any) ([]*domain.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE ` + where + ` ORDER BY id;`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shipments: query shipments table: %w", err)
	}
	defer rows.Close()

	shipments := make([]*domain.Shipment, 0, 16)
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("list shipments: scan row: %w", err)
		}
		shipments = append(shipments, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list shipments: row iteration: %w", err)
	}

	return shipments, nil
}

// Retrieve a single shipment, or nil when it does not exist.
func (r *SqliteShipmentRepository) GetShipment(ctx context.Context, id int64) (*domain.Shipment, error) {
	if r.DB == nil {
		return nil, errors.New("sqlite shipment repository: DB is nil")
	}

	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE id = ?;`

	s, err := scanShipment(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shipment id=%d: %w", id, err)
	}

	return s, nil
}

func (r *SqliteShipmentRepository) ListShipmentsByCourier(ctx context.Context, courierID int64, f ports.ShipmentFilter) ([]*domain.Shipment, error) {
	if f.Status != "" {
		return r.listShipments(ctx, "courier_id = ? AND status = ?", courierID, f.Status)
	}
	return r.listShipments(ctx, "courier_id = ?", courierID)
}

func (r *SqliteShipmentRepository) ListShipmentsByCustomer(ctx context.Context, customerID int64, f ports.ShipmentFilter) ([]*domain.Shipment, error) {
	if f.Status != "" {
		return r.listShipments(ctx, "customer_id = ? AND status = ?", customerID, f.Status)
	}
	return r.listShipments(ctx, "customer_id = ?", customerID)
}

func (r *SqliteShipmentRepository) ListShipmentsByStatus(ctx context.Context, status domain.ShipmentStatus) ([]*domain.Shipment, error) {
	return r.listShipments(ctx, "status = ?", status)
}

func (r *SqliteShipmentRepository) CreateShipment(ctx context.Context, s *domain.Shipment) (int64, error) {
	query := `
	INSERT INTO shipments (
		tracking_code,
		description,
		weight_kg,
		origin,
		destination,
		lon,
		lat,
		status,
		customer_id
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`

	var lon, lat any
	if s.Coords != nil {
		lon, lat = s.Coords.Lon, s.Coords.Lat
	}

	res, err := r.DB.ExecContext(ctx, query,
		s.TrackingCode, s.Description, s.WeightKg,
		s.Origin, s.Destination, lon, lat, s.Status, s.CustomerID,
	)
	if err != nil {
		return 0, fmt.Errorf("create shipment tracking_code=%q: %w", s.TrackingCode, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create shipment: last insert id: %w", err)
	}

	return id, nil
}

// Assign all given shipments to the courier in one transaction.
// A recorded incident is cleared by assignment. The status predicate
// keeps a concurrent transition (a delivery racing the assignment) from
// being overwritten: an unmatched row aborts the batch.
func (r *SqliteShipmentRepository) AssignShipments(ctx context.Context, shipmentIDs []int64, courierID int64) error {
	if len(shipmentIDs) == 0 {
		return errors.New("assign shipments: empty id list")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("assign shipments: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	UPDATE shipments
	SET courier_id = ?,
		status = 'ASSIGNED',
		last_incident = '',
		incident_at = NULL
	WHERE id = ? AND status IN ('PENDING', 'INCIDENT');
	`)
	if err != nil {
		return fmt.Errorf("assign shipments: prepare update: %w", err)
	}
	defer stmt.Close()

	for _, id := range shipmentIDs {
		res, err := stmt.ExecContext(ctx, courierID, id)
		if err != nil {
			return fmt.Errorf("assign shipments: update id=%d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("assign shipments: rows affected id=%d: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("assign shipments: shipment id=%d: %w", id, ports.ErrShipmentStateChanged)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("assign shipments: commit tx: %w", err)
	}

	return nil
}

func (r *SqliteShipmentRepository) UnassignShipment(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `
	UPDATE shipments SET courier_id = NULL, status = 'PENDING'
	WHERE id = ? AND status = 'ASSIGNED';
	`, id)
	if err != nil {
		return fmt.Errorf("unassign shipment id=%d: %w", id, err)
	}
	return checkStateGuard(res, "unassign shipment", id)
}

// checkStateGuard maps a guarded update that matched no row to the
// state-changed sentinel.
func checkStateGuard(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected id=%d: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: shipment id=%d: %w", op, id, ports.ErrShipmentStateChanged)
	}
	return nil
}

func (r *SqliteShipmentRepository) SetShipmentStatus(ctx context.Context, id int64, status domain.ShipmentStatus) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE shipments SET status = ? WHERE id = ?;`, status, id)
	if err != nil {
		return fmt.Errorf("set shipment status id=%d: %w", id, err)
	}
	return nil
}

func (r *SqliteShipmentRepository) MarkDelivered(ctx context.Context, id int64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
	UPDATE shipments SET status = 'DELIVERED', delivered_at = ?
	WHERE id = ? AND status IN ('ASSIGNED', 'EN_ROUTE');
	`, at, id)
	if err != nil {
		return fmt.Errorf("mark delivered id=%d: %w", id, err)
	}
	return checkStateGuard(res, "mark delivered", id)
}

func (r *SqliteShipmentRepository) RecordIncident(ctx context.Context, id int64, description string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
	UPDATE shipments SET status = 'INCIDENT', last_incident = ?, incident_at = ? WHERE id = ?;
	`, description, at, id)
	if err != nil {
		return fmt.Errorf("record incident id=%d: %w", id, err)
	}
	return nil
}

func (r *SqliteShipmentRepository) MarkNotified(ctx context.Context, id int64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
	UPDATE shipments SET customer_notified = 1, notified_at = ?
	WHERE id = ? AND status = 'DELIVERED' AND customer_notified = 0;
	`, at, id)
	if err != nil {
		return fmt.Errorf("mark notified id=%d: %w", id, err)
	}
	return checkStateGuard(res, "mark notified", id)
}

func (r *SqliteShipmentRepository) NextUnnotifiedDelivery(ctx context.Context, customerID int64) (*domain.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments
	WHERE customer_id = ? AND status = 'DELIVERED' AND customer_notified = 0
	ORDER BY delivered_at, id LIMIT 1;`

	s, err := scanShipment(r.DB.QueryRowContext(ctx, query, customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next unnotified delivery customer_id=%d: %w", customerID, err)
	}

	return s, nil
}

// Best-effort cache of the latest arrival estimate. Delivered rows keep
// their actual delivery time and are never rewritten.
func (r *SqliteShipmentRepository) SetEstimatedDelivery(ctx context.Context, id int64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
	UPDATE shipments SET estimated_delivery = ?
	WHERE id = ? AND status != 'DELIVERED';
	`, at, id)
	if err != nil {
		return fmt.Errorf("set estimated delivery id=%d: %w", id, err)
	}
	return nil
}
