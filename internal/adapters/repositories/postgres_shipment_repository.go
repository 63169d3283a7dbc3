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

// Postgres-backed implementation of the ShipmentRepository port.
// Identical semantics to the SQLite adapter; only the dialect differs.
type PostgresShipmentRepository struct{ DB *sql.DB }

func NewPostgresShipmentRepository(db *sql.DB) *PostgresShipmentRepository {
	return &PostgresShipmentRepository{DB: db}
}

func (r *PostgresShipmentRepository) listShipments(ctx context.Context, where string, args ...any) ([]*domain.Shipment, error) {
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

func (r *PostgresShipmentRepository) GetShipment(ctx context.Context, id int64) (*domain.Shipment, error) {
	if r.DB == nil {
		return nil, errors.New("postgres shipment repository: DB is nil")
	}

	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE id = $1;`

	s, err := scanShipment(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shipment id=%d: %w", id, err)
	}

	return s, nil
}

func (r *PostgresShipmentRepository) ListShipmentsByCourier(ctx context.Context, courierID int64, f ports.ShipmentFilter) ([]*domain.Shipment, error) {
	if f.Status != "" {
		return r.listShipments(ctx, "courier_id = $1 AND status = $2", courierID, f.Status)
	}
	return r.listShipments(ctx, "courier_id = $1", courierID)
}

func (r *PostgresShipmentRepository) ListShipmentsByCustomer(ctx context.Context, customerID int64, f ports.ShipmentFilter) ([]*domain.Shipment, error) {
	if f.Status != "" {
		return r.listShipments(ctx, "customer_id = $1 AND status = $2", customerID, f.Status)
	}
	return r.listShipments(ctx, "customer_id = $1", customerID)
}

func (r *PostgresShipmentRepository) ListShipmentsByStatus(ctx context.Context, status domain.ShipmentStatus) ([]*domain.Shipment, error) {
	return r.listShipments(ctx, "status = $1", status)
}

func (r *PostgresShipmentRepository) CreateShipment(ctx context.Context, s *domain.Shipment) (int64, error) {
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
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id;
	`

	var lon, lat any
	if s.Coords != nil {
		lon, lat = s.Coords.Lon, s.Coords.Lat
	}

	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		s.TrackingCode, s.Description, s.WeightKg,
		s.Origin, s.Destination, lon, lat, s.Status, s.CustomerID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create shipment tracking_code=%q: %w", s.TrackingCode, err)
	}

	return id, nil
}

func (r *PostgresShipmentRepository) AssignShipments(ctx context.Context, shipmentIDs []int64, courierID int64) error {
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
	SET courier_id = $1,
		status = 'ASSIGNED',
		last_incident = '',
		incident_at = NULL
	WHERE id = $2 AND status IN ('PENDING', 'INCIDENT');
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

func (r *PostgresShipmentRepository) UnassignShipment(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `
	UPDATE shipments SET courier_id = NULL, status = 'PENDING'
	WHERE id = $1 AND status = 'ASSIGNED';
	`, id)
	if err != nil {
		return fmt.Errorf("unassign shipment id=%d: %w", id, err)
	}
	return checkStateGuard(res, "unassign shipment", id)
}

func (r *PostgresShipmentRepository) SetShipmentStatus(ctx context.Context, id int64, status domain.ShipmentStatus) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE shipments SET status = $1 WHERE id = $2;`, status, id)
	if err != nil {
		return fmt.Errorf("set shipment status id=%d: %w", id, err)
	}
	return nil
}

func (r *PostgresShipmentRepository) MarkDelivered(ctx context.Context, id int64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
	UPDATE shipments SET status = 'DELIVERED', delivered_at = $1
	WHERE id = $2 AND status IN ('ASSIGNED', 'EN_ROUTE');
	`, at, id)
	if err != nil {
		return fmt.Errorf("mark delivered id=%d: %w", id, err)
	}
	return checkStateGuard(res, "mark delivered", id)
}

func (r *PostgresShipmentRepository) RecordIncident(ctx context.Context, id int64, description string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
	UPDATE shipments SET status = 'INCIDENT', last_incident = $1, incident_at = $2 WHERE id = $3;
	`, description, at, id)
	if err != nil {
		return fmt.Errorf("record incident id=%d: %w", id, err)
	}
	return nil
}

func (r *PostgresShipmentRepository) MarkNotified(ctx context.Context, id int64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
	UPDATE shipments SET customer_notified = TRUE, notified_at = $1
	WHERE id = $2 AND status = 'DELIVERED' AND customer_notified = FALSE;
	`, at, id)
	if err != nil {
		return fmt.Errorf("mark notified id=%d: %w", id, err)
	}
	return checkStateGuard(res, "mark notified", id)
}

func (r *PostgresShipmentRepository) NextUnnotifiedDelivery(ctx context.Context, customerID int64) (*domain.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments
	WHERE customer_id = $1 AND status = 'DELIVERED' AND customer_notified = FALSE
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

func (r *PostgresShipmentRepository) SetEstimatedDelivery(ctx context.Context, id int64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
	UPDATE shipments SET estimated_delivery = $1
	WHERE id = $2 AND status != 'DELIVERED';
	`, at, id)
	if err != nil {
		return fmt.Errorf("set estimated delivery id=%d: %w", id, err)
	}
	return nil
}
