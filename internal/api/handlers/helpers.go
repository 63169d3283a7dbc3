package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"courier-route-service/internal/platform/obs"
	"courier-route-service/internal/services"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.Log().Errorw("encode failed",
			"req_id", obs.RequestID(r.Context()),
			"method", r.Method, "path", r.URL.Path, "err", err,
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps use-case error kinds onto HTTP statuses. Unknown
// kinds collapse to 500 with a generic message so internals never leak.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		switch svcErr.Kind {
		case services.KindValidation:
			status = http.StatusBadRequest
			msg = svcErr.Message
		case services.KindNotFound:
			status = http.StatusNotFound
			msg = svcErr.Message
		case services.KindPermission:
			status = http.StatusForbidden
			msg = svcErr.Message
		case services.KindConflict:
			status = http.StatusConflict
			msg = svcErr.Message
		case services.KindUnavailable:
			status = http.StatusBadGateway
			msg = "route optimization service unavailable"
		}
	}

	if status >= http.StatusInternalServerError {
		obs.Log().Errorw("request failed",
			"req_id", obs.RequestID(r.Context()),
			"method", r.Method, "path", r.URL.Path, "err", err,
		)
	}

	writeError(w, r, status, msg)
}

// decodeJSON enforces a single, fully-known JSON object per request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}
