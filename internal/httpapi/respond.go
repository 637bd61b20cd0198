package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dkoval/storefront/internal/catalog"
	"github.com/dkoval/storefront/internal/upstream"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondRaw forwards an upstream JSON payload untouched.
func respondRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleUpstreamError maps upstream client errors onto HTTP responses.
// Callers with richer policies (auth expiry, listing degradation) intercept
// the specific errors they care about before falling back here.
func handleUpstreamError(w http.ResponseWriter, err error) {
	var statusErr *upstream.StatusError

	switch {
	case errors.Is(err, upstream.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, upstream.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, upstream.ErrUnavailable):
		respondError(w, http.StatusBadGateway, "upstream_unavailable", "backend is unavailable")
	case errors.Is(err, catalog.ErrUnrecognizedShape):
		respondError(w, http.StatusBadGateway, "bad_upstream_payload", "failed to load data")
	case errors.As(err, &statusErr):
		respondRaw(w, statusErr.Status, statusErr.Body)
	default:
		log.Printf("unhandled upstream error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
