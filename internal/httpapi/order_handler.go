package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dkoval/storefront/internal/auth"
	"github.com/dkoval/storefront/internal/upstream"
)

// OrderSource is the slice of the upstream client serving order reads.
type OrderSource interface {
	GetOrder(ctx context.Context, id string) ([]byte, error)
	MyOrders(ctx context.Context) ([]byte, error)
}

type OrderHandler struct {
	source  OrderSource
	tokens  *auth.TokenStore
	timeout time.Duration
}

func NewOrderHandler(source OrderSource, tokens *auth.TokenStore, timeout time.Duration) *OrderHandler {
	return &OrderHandler{source: source, tokens: tokens, timeout: timeout}
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := h.source.MyOrders(ctx)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	respondRaw(w, http.StatusOK, payload)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := h.source.GetOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	respondRaw(w, http.StatusOK, payload)
}

// handleError implements the auth-expiry contract shared by every
// authenticated proxy call: a 401 with a stored token means the session
// expired, so the token is forgotten; a 401 without one means the caller was
// simply never logged in. The cart is untouched either way.
func (h *OrderHandler) handleError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, upstream.ErrUnauthorized) {
		respondAuthExpiry(ctx, w, h.tokens)
		return
	}
	handleUpstreamError(w, err)
}

func respondAuthExpiry(ctx context.Context, w http.ResponseWriter, tokens *auth.TokenStore) {
	if hadToken(ctx) {
		if err := tokens.Clear(ctx, getSessionID(ctx)); err != nil {
			log.Printf("failed to clear expired token: %v", err)
		}
		respondError(w, http.StatusUnauthorized, "session_expired", "session expired, please log in again")
		return
	}
	respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
}
