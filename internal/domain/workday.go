package domain

import "time"

// WorkdayStatus distinguishes an open shift from a closed one.
type WorkdayStatus string

const (
	WorkdayActive WorkdayStatus = "ACTIVE"
	WorkdayClosed WorkdayStatus = "CLOSED"
)

// A courier's working session. At most one ACTIVE workday exists per
// courier; a closed workday is immutable.
type Workday struct {
	ID        int64
	CourierID int64
	StartedAt time.Time
	EndedAt   *time.Time
	Status    WorkdayStatus
}
