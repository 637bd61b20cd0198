package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkoval/storefront/internal/auth"
	"github.com/dkoval/storefront/internal/domain"
	"github.com/dkoval/storefront/internal/upstream"
)

// OrderCreator is the slice of the upstream client that places orders.
type OrderCreator interface {
	CreateOrder(ctx context.Context, body []byte) ([]byte, error)
}

type CheckoutHandler struct {
	carts   CartService
	orders  OrderCreator
	tokens  *auth.TokenStore
	timeout time.Duration
}

func NewCheckoutHandler(carts CartService, orders OrderCreator, tokens *auth.TokenStore, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{carts: carts, orders: orders, tokens: tokens, timeout: timeout}
}

type CheckoutRequestDTO struct {
	ShippingAddress string `json:"shipping_address"`
	Phone           string `json:"phone,omitempty"`
	Note            string `json:"note,omitempty"`
}

type orderLineDTO struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	PriceUnit decimal.Decimal `json:"price_unit"`
	Quantity  int             `json:"quantity"`
}

type createOrderDTO struct {
	Items           []orderLineDTO  `json:"items"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress string          `json:"shipping_address"`
	Phone           string          `json:"phone,omitempty"`
	Note            string          `json:"note,omitempty"`
}

// Checkout snapshots the cart, places the order upstream, and clears the cart
// only after the order was accepted. Checkout is the one hard auth gate: an
// unauthenticated caller gets a 401 instead of a degraded response.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if !hadToken(ctx) {
		respondError(w, http.StatusUnauthorized, "unauthorized", "log in to check out")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ShippingAddress == "" {
		respondError(w, http.StatusBadRequest, "invalid_address", "shipping_address is required")
		return
	}

	sessionID := getSessionID(ctx)
	cart, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_error", "failed to load cart")
		return
	}
	if len(cart.Items) == 0 {
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
		return
	}

	body, err := json.Marshal(snapshotOrder(cart, req))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	payload, err := h.orders.CreateOrder(ctx, body)
	if err != nil {
		if errors.Is(err, upstream.ErrUnauthorized) {
			respondAuthExpiry(ctx, w, h.tokens)
			return
		}
		handleUpstreamError(w, err)
		return
	}

	// Checkout-success transition: the accepted order empties the cart. A
	// failed clear is logged, not surfaced; the order already exists.
	if err := h.carts.Clear(ctx, sessionID); err != nil {
		log.Printf("failed to clear cart after checkout: %v", err)
	}

	respondRaw(w, http.StatusCreated, payload)
}

func snapshotOrder(cart *domain.Cart, req CheckoutRequestDTO) createOrderDTO {
	lines := make([]orderLineDTO, len(cart.Items))
	for i, item := range cart.Items {
		lines[i] = orderLineDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			PriceUnit: item.PriceUnit,
			Quantity:  item.Quantity,
		}
	}
	return createOrderDTO{
		Items:           lines,
		Total:           cart.TotalPrice(),
		ShippingAddress: req.ShippingAddress,
		Phone:           req.Phone,
		Note:            req.Note,
	}
}
