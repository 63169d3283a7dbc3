package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"courier-route-service/internal/domain"
)

// Postgres-backed implementation of the WorkdayRepository port.
type PostgresWorkdayRepository struct{ DB *sql.DB }

func NewPostgresWorkdayRepository(db *sql.DB) *PostgresWorkdayRepository {
	return &PostgresWorkdayRepository{DB: db}
}

func (r *PostgresWorkdayRepository) GetActiveWorkday(ctx context.Context, courierID int64) (*domain.Workday, error) {
	if r.DB == nil {
		return nil, errors.New("postgres workday repository: DB is nil")
	}

	query := `
	SELECT id, courier_id, started_at, ended_at, status
	FROM workdays
	WHERE courier_id = $1 AND status = 'ACTIVE';
	`

	w, err := scanWorkday(r.DB.QueryRowContext(ctx, query, courierID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active workday courier_id=%d: %w", courierID, err)
	}

	return w, nil
}

func (r *PostgresWorkdayRepository) CreateWorkday(ctx context.Context, courierID int64, startedAt time.Time) (*domain.Workday, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `
	INSERT INTO workdays (courier_id, started_at, status)
	VALUES ($1, $2, 'ACTIVE')
	RETURNING id;
	`, courierID, startedAt).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create workday courier_id=%d: %w", courierID, err)
	}

	return &domain.Workday{
		ID:        id,
		CourierID: courierID,
		StartedAt: startedAt,
		Status:    domain.WorkdayActive,
	}, nil
}

func (r *PostgresWorkdayRepository) CloseWorkday(ctx context.Context, workdayID int64, endedAt time.Time) (*domain.Workday, error) {
	_, err := r.DB.ExecContext(ctx, `
	UPDATE workdays SET ended_at = $1, status = 'CLOSED' WHERE id = $2;
	`, endedAt, workdayID)
	if err != nil {
		return nil, fmt.Errorf("close workday id=%d: %w", workdayID, err)
	}

	query := `
	SELECT id, courier_id, started_at, ended_at, status
	FROM workdays
	WHERE id = $1;
	`

	w, err := scanWorkday(r.DB.QueryRowContext(ctx, query, workdayID))
	if err != nil {
		return nil, fmt.Errorf("close workday: reload id=%d: %w", workdayID, err)
	}

	return w, nil
}
