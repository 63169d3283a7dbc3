package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"courier-route-service/internal/api/dto"
	"courier-route-service/internal/domain"
	"courier-route-service/internal/services"
)

// PlanHandler exposes the optimized route plan for a courier.
type PlanHandler struct {
	Planner *services.RoutePlanner
}

func (h *PlanHandler) RoutePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	courierID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || courierID <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid courier id")
		return
	}

	// Couriers see their own plan only; admins see any.
	switch actor.Role {
	case domain.RoleCourier:
		if actor.ID != courierID {
			writeError(w, r, http.StatusForbidden, "couriers can only view their own route plan")
			return
		}
	case domain.RoleAdmin:
	default:
		writeError(w, r, http.StatusForbidden, "actor does not have permission to view route plans")
		return
	}

	res, err := h.Planner.BuildRoutePlan(r.Context(), courierID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromPlanResult(courierID, res))
}
