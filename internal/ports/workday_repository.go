package ports

import (
	"context"
	"time"

	"courier-route-service/internal/domain"
)

// Port: boundary for courier workday sessions.
type WorkdayRepository interface {
	// Return the courier's ACTIVE workday, or nil when off shift.
	GetActiveWorkday(ctx context.Context, courierID int64) (*domain.Workday, error)

	CreateWorkday(ctx context.Context, courierID int64, startedAt time.Time) (*domain.Workday, error)
	CloseWorkday(ctx context.Context, workdayID int64, endedAt time.Time) (*domain.Workday, error)
}
