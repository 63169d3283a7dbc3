package handlers

import (
	"context"
	"net/http"

	"courier-route-service/internal/domain"
)

type actorKey struct{}

// WithActor stores the authenticated actor on the request context. The auth
// middleware is the only writer.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// actorFrom pulls the authenticated actor out of the context, answering 401
// itself when the middleware never ran for this route.
func actorFrom(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := r.Context().Value(actorKey{}).(domain.Actor)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return domain.Actor{}, false
	}
	return actor, true
}
