package dto

import (
	"time"

	"courier-route-service/internal/domain"
	"courier-route-service/internal/services"
)

type LegResponse struct {
	DurationSeconds int `json:"duration_seconds"`
	DistanceMeters  int `json:"distance_meters"`
}

type RouteStopResponse struct {
	Shipment ShipmentResponse    `json:"shipment"`
	Coords   CoordinatesResponse `json:"coords"`
}

type RoutePlanResponse struct {
	Status    string               `json:"status"`
	CourierID int64                `json:"courier_id"`
	Start     *CoordinatesResponse `json:"start,omitempty"`
	Depot     *CoordinatesResponse `json:"depot,omitempty"`
	Stops     []RouteStopResponse  `json:"stops,omitempty"`
	Legs      []LegResponse        `json:"legs,omitempty"`
	// Geometry is the route shape as [lon, lat] pairs, ready to draw.
	Geometry             [][]float64 `json:"geometry,omitempty"`
	TotalDurationSeconds int         `json:"total_duration_seconds,omitempty"`
	TotalDistanceMeters  int         `json:"total_distance_meters,omitempty"`
}

func FromPlanResult(courierID int64, res *services.PlanResult) RoutePlanResponse {
	out := RoutePlanResponse{Status: string(res.Status), CourierID: courierID}
	if res.Plan == nil {
		return out
	}
	return fromRoutePlan(out, res.Plan)
}

func fromRoutePlan(out RoutePlanResponse, plan *domain.RoutePlan) RoutePlanResponse {
	out.Start = &CoordinatesResponse{Lon: plan.Start.Lon, Lat: plan.Start.Lat}
	out.Depot = &CoordinatesResponse{Lon: plan.Depot.Lon, Lat: plan.Depot.Lat}
	if len(plan.Geometry) > 0 {
		out.Geometry = make([][]float64, 0, len(plan.Geometry))
		for _, c := range plan.Geometry {
			out.Geometry = append(out.Geometry, c.CoordsToList())
		}
	}
	out.TotalDurationSeconds = plan.TotalDurationSeconds
	out.TotalDistanceMeters = plan.TotalDistanceMeters

	out.Stops = make([]RouteStopResponse, 0, len(plan.Stops))
	for _, stop := range plan.Stops {
		out.Stops = append(out.Stops, RouteStopResponse{
			Shipment: FromShipment(stop.Shipment),
			Coords:   CoordinatesResponse{Lon: stop.Coords.Lon, Lat: stop.Coords.Lat},
		})
	}

	out.Legs = make([]LegResponse, 0, len(plan.Legs))
	for _, leg := range plan.Legs {
		out.Legs = append(out.Legs, LegResponse{
			DurationSeconds: leg.DurationSeconds,
			DistanceMeters:  leg.DistanceMeters,
		})
	}

	return out
}

type ETAResponse struct {
	ShipmentID       int64      `json:"shipment_id"`
	Status           string     `json:"status"`
	ETAMinutes       *int       `json:"eta_minutes,omitempty"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
}

func FromETAResult(res *services.ETAResult) ETAResponse {
	return ETAResponse{
		ShipmentID:       res.ShipmentID,
		Status:           string(res.Status),
		ETAMinutes:       res.ETAMinutes,
		EstimatedArrival: res.EstimatedArrival,
	}
}
