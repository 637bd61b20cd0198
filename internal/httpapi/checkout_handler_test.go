package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoval/storefront/internal/auth"
	"github.com/dkoval/storefront/internal/domain"
	"github.com/dkoval/storefront/internal/upstream"
)

type mockOrderCreator struct {
	payload []byte
	err     error
	lastReq []byte
}

func (m *mockOrderCreator) CreateOrder(_ context.Context, body []byte) ([]byte, error) {
	m.lastReq = body
	if m.err != nil {
		return nil, m.err
	}
	return m.payload, nil
}

func seedCart(t *testing.T, svc *mockCartService, sessionID string) {
	price, err := decimal.NewFromString("1500.00")
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(context.Background(), sessionID, domain.CartItem{
		ProductID: "p1",
		Name:      "Phone A",
		PriceUnit: price,
		Quantity:  2,
	}))
}

func checkoutRequest(body string, loggedIn bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader([]byte(body)))
	req = withSession(req, "s1")
	if loggedIn {
		req = withStoredToken(req)
	}
	return req
}

func TestCheckout_Success(t *testing.T) {
	carts := newMockCartService()
	seedCart(t, carts, "s1")
	orders := &mockOrderCreator{payload: []byte(`{"data": {"id": "ord-1"}}`)}
	h := NewCheckoutHandler(carts, orders, setupTokenStore(t), time.Second)

	rec := httptest.NewRecorder()
	h.Checkout(rec, checkoutRequest(`{"shipping_address": "1 Main St"}`, true))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "ord-1")

	// The accepted order drained the cart.
	cart, err := carts.GetCart(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// The order snapshot carried the lines and the derived total.
	var sent createOrderDTO
	require.NoError(t, json.Unmarshal(orders.lastReq, &sent))
	require.Len(t, sent.Items, 1)
	assert.Equal(t, "p1", sent.Items[0].ProductID)
	assert.Equal(t, 2, sent.Items[0].Quantity)
	assert.Equal(t, "3000", sent.Total.String())
	assert.Equal(t, "1 Main St", sent.ShippingAddress)
}

func TestCheckout_RequiresLogin(t *testing.T) {
	carts := newMockCartService()
	seedCart(t, carts, "s1")
	h := NewCheckoutHandler(carts, &mockOrderCreator{}, setupTokenStore(t), time.Second)

	rec := httptest.NewRecorder()
	h.Checkout(rec, checkoutRequest(`{"shipping_address": "1 Main St"}`, false))

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// The cart is untouched; auth and cart state are independent.
	cart, err := carts.GetCart(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestCheckout_EmptyCart(t *testing.T) {
	h := NewCheckoutHandler(newMockCartService(), &mockOrderCreator{}, setupTokenStore(t), time.Second)

	rec := httptest.NewRecorder()
	h.Checkout(rec, checkoutRequest(`{"shipping_address": "1 Main St"}`, true))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "empty_cart", resp.Code)
}

func TestCheckout_MissingAddress(t *testing.T) {
	carts := newMockCartService()
	seedCart(t, carts, "s1")
	h := NewCheckoutHandler(carts, &mockOrderCreator{}, setupTokenStore(t), time.Second)

	rec := httptest.NewRecorder()
	h.Checkout(rec, checkoutRequest(`{}`, true))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_UpstreamRejectionKeepsCart(t *testing.T) {
	carts := newMockCartService()
	seedCart(t, carts, "s1")
	orders := &mockOrderCreator{err: upstream.ErrUnavailable}
	h := NewCheckoutHandler(carts, orders, setupTokenStore(t), time.Second)

	rec := httptest.NewRecorder()
	h.Checkout(rec, checkoutRequest(`{"shipping_address": "1 Main St"}`, true))

	require.Equal(t, http.StatusBadGateway, rec.Code)

	// No order was placed, so the cart must survive.
	cart, err := carts.GetCart(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestCheckout_ExpiredSession(t *testing.T) {
	tokens := setupTokenStore(t)
	require.NoError(t, tokens.Save(context.Background(), "s1", "jwt-abc"))

	carts := newMockCartService()
	seedCart(t, carts, "s1")
	orders := &mockOrderCreator{err: upstream.ErrUnauthorized}
	h := NewCheckoutHandler(carts, orders, tokens, time.Second)

	rec := httptest.NewRecorder()
	h.Checkout(rec, checkoutRequest(`{"shipping_address": "1 Main St"}`, true))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "session_expired", resp.Code)

	_, err := tokens.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, auth.ErrNoToken)

	cart, err := carts.GetCart(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}
