package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"courier-route-service/internal/domain"
)

// SQLite-backed implementation of the WorkdayRepository port.
type SqliteWorkdayRepository struct{ DB *sql.DB }

func NewSqliteWorkdayRepository(db *sql.DB) *SqliteWorkdayRepository {
	return &SqliteWorkdayRepository{DB: db}
}

func scanWorkday(row rowScanner) (*domain.Workday, error) {
	var (
		w       domain.Workday
		endedAt sql.NullTime
	)

	if err := row.Scan(&w.ID, &w.CourierID, &w.StartedAt, &endedAt, &w.Status); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		w.EndedAt = &t
	}

	return &w, nil
}

// Return the courier's ACTIVE workday, or nil when off shift.
func (r *SqliteWorkdayRepository) GetActiveWorkday(ctx context.Context, courierID int64) (*domain.Workday, error) {
	if r.DB == nil {
		return nil, errors.New("sqlite workday repository: DB is nil")
	}

	query := `
	SELECT id, courier_id, started_at, ended_at, status
	FROM workdays
	WHERE courier_id = ? AND status = 'ACTIVE';
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

func (r *SqliteWorkdayRepository) CreateWorkday(ctx context.Context, courierID int64, startedAt time.Time) (*domain.Workday, error) {
	res, err := r.DB.ExecContext(ctx, `
	INSERT INTO workdays (courier_id, started_at, status) VALUES (?, ?, 'ACTIVE');
	`, courierID, startedAt)
	if err != nil {
		return nil, fmt.Errorf("create workday courier_id=%d: %w", courierID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create workday: last insert id: %w", err)
	}

	return &domain.Workday{
		ID:        id,
		CourierID: courierID,
		StartedAt: startedAt,
		Status:    domain.WorkdayActive,
	}, nil
}

func (r *SqliteWorkdayRepository) CloseWorkday(ctx context.Context, workdayID int64, endedAt time.Time) (*domain.Workday, error) {
	_, err := r.DB.ExecContext(ctx, `
	UPDATE workdays SET ended_at = ?, status = 'CLOSED' WHERE id = ?;
	`, endedAt, workdayID)
	if err != nil {
		return nil, fmt.Errorf("close workday id=%d: %w", workdayID, err)
	}

	query := `
	SELECT id, courier_id, started_at, ended_at, status
	FROM workdays
	WHERE id = ?;
	`

	w, err := scanWorkday(r.DB.QueryRowContext(ctx, query, workdayID))
	if err != nil {
		return nil, fmt.Errorf("close workday: reload id=%d: %w", workdayID, err)
	}

	return w, nil
}
