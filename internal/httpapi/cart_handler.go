package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dkoval/storefront/internal/domain"
)

// CartService is the slice of the cart store the handlers need. Declared here
// so tests can swap in a mock.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{carts: carts, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID       string                  `json:"product_id"`
	Name            string                  `json:"name"`
	Slug            string                  `json:"slug"`
	ImageURL        string                  `json:"image_url"`
	PriceUnit       decimal.Decimal         `json:"price_unit"`
	SelectedOptions []domain.SelectedOption `json:"selected_options"`
	Quantity        int                     `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// CartResponse is the cart plus its derived totals, so the rendering side
// never recomputes them.
type CartResponse struct {
	Cart       *domain.Cart    `json:"cart"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TotalItems int             `json:"total_items"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.respondCart(ctx, w, http.StatusOK)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}
	if req.PriceUnit.IsNegative() {
		respondError(w, http.StatusBadRequest, "invalid_price", "price_unit must not be negative")
		return
	}

	item := domain.CartItem{
		ProductID:       req.ProductID,
		Name:            req.Name,
		Slug:            req.Slug,
		ImageURL:        req.ImageURL,
		PriceUnit:       req.PriceUnit,
		SelectedOptions: req.SelectedOptions,
		Quantity:        req.Quantity,
	}

	if err := h.carts.AddItem(ctx, getSessionID(ctx), item); err != nil {
		respondError(w, http.StatusInternalServerError, "cart_error", "failed to update cart")
		return
	}

	h.respondCart(ctx, w, http.StatusCreated)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "productID")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Zero and negative quantities remove the line; no validation error here.
	if err := h.carts.UpdateQuantity(ctx, getSessionID(ctx), productID, req.Quantity); err != nil {
		respondError(w, http.StatusInternalServerError, "cart_error", "failed to update cart")
		return
	}

	h.respondCart(ctx, w, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "productID")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id is required")
		return
	}

	if err := h.carts.RemoveItem(ctx, getSessionID(ctx), productID); err != nil {
		respondError(w, http.StatusInternalServerError, "cart_error", "failed to update cart")
		return
	}

	h.respondCart(ctx, w, http.StatusOK)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.Clear(ctx, getSessionID(ctx)); err != nil {
		respondError(w, http.StatusInternalServerError, "cart_error", "failed to clear cart")
		return
	}

	h.respondCart(ctx, w, http.StatusOK)
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, status int) {
	cart, err := h.carts.GetCart(ctx, getSessionID(ctx))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_error", "failed to load cart")
		return
	}

	respondJSON(w, status, CartResponse{
		Cart:       cart,
		TotalPrice: cart.TotalPrice(),
		TotalItems: cart.TotalItemCount(),
	})
}
