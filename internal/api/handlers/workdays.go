package handlers

import (
	"net/http"
	"strconv"

	"courier-route-service/internal/api/dto"
	"courier-route-service/internal/services"
)

// WorkdayHandler exposes courier shift management.
type WorkdayHandler struct {
	Session *services.WorkdaySession
}

func (h *WorkdayHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	workday, err := h.Session.Start(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.FromWorkday(workday))
}

func (h *WorkdayHandler) End(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	workday, err := h.Session.End(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromWorkday(workday))
}

func (h *WorkdayHandler) Active(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	courierID, _ := strconv.ParseInt(r.URL.Query().Get("courier_id"), 10, 64)

	workday, err := h.Session.Active(r.Context(), actor, courierID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromWorkday(workday))
}
