package dto

import (
	"time"

	"courier-route-service/internal/domain"
)

type WorkdayResponse struct {
	ID        int64      `json:"id"`
	CourierID int64      `json:"courier_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Status    string     `json:"status"`
}

func FromWorkday(w *domain.Workday) WorkdayResponse {
	return WorkdayResponse{
		ID:        w.ID,
		CourierID: w.CourierID,
		StartedAt: w.StartedAt,
		EndedAt:   w.EndedAt,
		Status:    string(w.Status),
	}
}
