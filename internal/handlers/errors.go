package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/crucial707/expense-tracker/internal/services"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// JSONValidationError sends a JSON error response with "error" and optional "fields" for field-level details.
// status is typically http.StatusBadRequest (400).
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	out := map[string]any{"error": message}
	if len(fields) > 0 {
		out["fields"] = fields
	}
	writeJSON(w, status, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeServiceError maps a service error onto a status code. Unclassified
// errors are logged with the request id and reported as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		JSONValidationError(w, ve.Message, ve.Fields, http.StatusBadRequest)
	case errors.Is(err, services.ErrFutureDate):
		JSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrUnauthenticated):
		JSONError(w, services.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
	case errors.Is(err, services.ErrConflict):
		JSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrNotFound):
		JSONError(w, err.Error(), http.StatusNotFound)
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}

// decodeJSON reads the request body into dst. On failure it writes the
// response (400 or 413) and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		JSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, io.EOF):
		JSONError(w, "request body is empty", http.StatusBadRequest)
	default:
		JSONError(w, "invalid json", http.StatusBadRequest)
	}
	return false
}

// NotFound is the router's JSON 404 handler.
func NotFound(w http.ResponseWriter, r *http.Request) {
	JSONError(w, "route not found", http.StatusNotFound)
}

// MethodNotAllowed is the router's JSON 405 handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	JSONError(w, "method not allowed", http.StatusMethodNotAllowed)
}
