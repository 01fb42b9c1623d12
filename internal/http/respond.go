package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DiogoMatos10/myfinance/internal/core"
)

// errorBody is the wire shape for every non-2xx response. FieldErrors is
// present only on validation failures.
type errorBody struct {
	Message     string              `json:"message"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps a domain error onto status code and body. Internal detail
// never leaks: dependency failures and unknown errors get a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Message:     "Validation failed",
			FieldErrors: verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Not found"})
	case errors.Is(err, core.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "Unauthorized"})
	default:
		var derr *core.DependencyError
		if errors.As(err, &derr) {
			slog.ErrorContext(r.Context(), "Dependency failure", "operation", derr.Op, "error", derr.Err)
			writeJSON(w, http.StatusBadGateway, errorBody{Message: "Upstream dependency failure"})
			return
		}
		slog.ErrorContext(r.Context(), "Unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Internal server error"})
	}
}
