package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"courier-route-service/internal/api/dto"
	"courier-route-service/internal/domain"
	"courier-route-service/internal/services"
)

// ShipmentHandler exposes the shipment lifecycle endpoints.
type ShipmentHandler struct {
	Shipments *services.ShipmentService
	ETA       *services.ETAEstimator
}

func shipmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid shipment id")
		return 0, false
	}
	return id, true
}

func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req dto.CreateShipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	shipment, err := h.Shipments.Create(r.Context(), actor, services.CreateShipmentInput{
		Description: req.Description,
		WeightKg:    req.WeightKg,
		Origin:      req.Origin,
		Destination: req.Destination,
		CustomerID:  req.CustomerID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.FromShipment(shipment))
}

func (h *ShipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	courierID, _ := strconv.ParseInt(q.Get("courier_id"), 10, 64)
	customerID, _ := strconv.ParseInt(q.Get("customer_id"), 10, 64)
	status := domain.ShipmentStatus(q.Get("status"))

	shipments, err := h.Shipments.List(r.Context(), actor, courierID, customerID, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromShipments(shipments))
}

func (h *ShipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := shipmentID(w, r)
	if !ok {
		return
	}

	shipment, err := h.Shipments.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromShipment(shipment))
}

func (h *ShipmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req dto.AssignShipmentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	assigned, err := h.Shipments.Assign(r.Context(), actor, req.ShipmentIDs, req.CourierID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromShipments(assigned))
}

func (h *ShipmentHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Shipments.Unassign)
}

func (h *ShipmentHandler) MarkEnRoute(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Shipments.MarkEnRoute)
}

func (h *ShipmentHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Shipments.Deliver)
}

func (h *ShipmentHandler) NotifyDelivery(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Shipments.NotifyDelivery)
}

// PopNotification consumes and returns the caller's next delivery
// notification; 204 when none is pending.
func (h *ShipmentHandler) PopNotification(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	shipment, err := h.Shipments.PopNextNotification(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if shipment == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromShipment(shipment))
}

// transition factors the shared shape of the single-shipment state changes.
func (h *ShipmentHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, actor domain.Actor, id int64) (*domain.Shipment, error),
) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := shipmentID(w, r)
	if !ok {
		return
	}

	shipment, err := op(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromShipment(shipment))
}

func (h *ShipmentHandler) ReportIncident(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := shipmentID(w, r)
	if !ok {
		return
	}

	var req dto.ReportIncidentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	clone, err := h.Shipments.ReportIncident(r.Context(), actor, id, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.FromShipment(clone))
}

func (h *ShipmentHandler) EstimateETA(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := shipmentID(w, r)
	if !ok {
		return
	}

	res, err := h.ETA.EstimateETA(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromETAResult(res))
}
