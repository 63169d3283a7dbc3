package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"courier-route-service/internal/api/handlers"
	"courier-route-service/internal/services"
)

// Deps carries the use-case services the HTTP surface sits on.
type Deps struct {
	Shipments *services.ShipmentService
	Workdays  *services.WorkdaySession
	Planner   *services.RoutePlanner
	ETA       *services.ETAEstimator
	JWTSecret string
}

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware of
// concrete adapters).
func NewRouter(deps Deps) http.Handler {
	shipmentHandler := &handlers.ShipmentHandler{Shipments: deps.Shipments, ETA: deps.ETA}
	workdayHandler := &handlers.WorkdayHandler{Session: deps.Workdays}
	planHandler := &handlers.PlanHandler{Planner: deps.Planner}

	r := chi.NewRouter()
	r.Use(requestMiddleware)

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(deps.JWTSecret))

		r.Post("/workdays/start", workdayHandler.Start)
		r.Post("/workdays/end", workdayHandler.End)
		r.Get("/workdays/active", workdayHandler.Active)

		r.Post("/shipments", shipmentHandler.Create)
		r.Get("/shipments", shipmentHandler.List)
		r.Post("/shipments/assign", shipmentHandler.Assign)
		r.Get("/shipments/{id}", shipmentHandler.Get)
		r.Post("/shipments/{id}/unassign", shipmentHandler.Unassign)
		r.Post("/shipments/{id}/en-route", shipmentHandler.MarkEnRoute)
		r.Post("/shipments/{id}/deliver", shipmentHandler.Deliver)
		r.Post("/shipments/{id}/incident", shipmentHandler.ReportIncident)
		r.Post("/shipments/{id}/notify", shipmentHandler.NotifyDelivery)
		r.Get("/shipments/{id}/eta", shipmentHandler.EstimateETA)

		r.Post("/notifications/next", shipmentHandler.PopNotification)

		r.Get("/couriers/{id}/route-plan", planHandler.RoutePlan)
	})

	return r
}
