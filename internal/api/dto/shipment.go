package dto

import (
	"time"

	"courier-route-service/internal/domain"
)

type CreateShipmentRequest struct {
	Description string  `json:"description"`
	WeightKg    float64 `json:"weight_kg"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	CustomerID  int64   `json:"customer_id"`
}

type AssignShipmentsRequest struct {
	ShipmentIDs []int64 `json:"shipment_ids"`
	CourierID   int64   `json:"courier_id"`
}

type ReportIncidentRequest struct {
	Description string `json:"description"`
}

type CoordinatesResponse struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type ShipmentResponse struct {
	ID                int64                `json:"id"`
	TrackingCode      string               `json:"tracking_code"`
	Description       string               `json:"description"`
	WeightKg          float64              `json:"weight_kg"`
	Origin            string               `json:"origin"`
	Destination       string               `json:"destination"`
	Coords            *CoordinatesResponse `json:"coords,omitempty"`
	Status            string               `json:"status"`
	CustomerID        int64                `json:"customer_id"`
	CourierID         *int64               `json:"courier_id,omitempty"`
	EstimatedDelivery *time.Time           `json:"estimated_delivery,omitempty"`
	DeliveredAt       *time.Time           `json:"delivered_at,omitempty"`
	LastIncident      string               `json:"last_incident,omitempty"`
	IncidentAt        *time.Time           `json:"incident_at,omitempty"`
	CustomerNotified  bool                 `json:"customer_notified"`
	NotifiedAt        *time.Time           `json:"notified_at,omitempty"`
}

type ListShipmentsResponse struct {
	Shipments []ShipmentResponse `json:"shipments"`
}

func FromShipment(s *domain.Shipment) ShipmentResponse {
	res := ShipmentResponse{
		ID:                s.ID,
		TrackingCode:      s.TrackingCode,
		Description:       s.Description,
		WeightKg:          s.WeightKg,
		Origin:            s.Origin,
		Destination:       s.Destination,
		Status:            string(s.Status),
		CustomerID:        s.CustomerID,
		CourierID:         s.CourierID,
		EstimatedDelivery: s.EstimatedDelivery,
		DeliveredAt:       s.DeliveredAt,
		LastIncident:      s.LastIncident,
		IncidentAt:        s.IncidentAt,
		CustomerNotified:  s.CustomerNotify,
		NotifiedAt:        s.NotifiedAt,
	}
	if s.Coords != nil {
		res.Coords = &CoordinatesResponse{Lon: s.Coords.Lon, Lat: s.Coords.Lat}
	}
	return res
}

func FromShipments(shipments []*domain.Shipment) ListShipmentsResponse {
	res := ListShipmentsResponse{Shipments: make([]ShipmentResponse, 0, len(shipments))}
	for _, s := range shipments {
		res.Shipments = append(res.Shipments, FromShipment(s))
	}
	return res
}
