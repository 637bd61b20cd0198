// Package upstream is the REST client for the backend storefront API. It owns
// transport concerns only: bearer injection, timeouts, the circuit breaker
// and status-to-error mapping. Payload interpretation belongs to the callers.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBody = 4 << 20 // 4MB

// tokenKey carries the caller's bearer token through the context; handlers
// resolve it per session before issuing upstream calls.
type tokenKey struct{}

// WithToken returns a context whose upstream calls authenticate as the given
// bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token attached by WithToken, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

type httpResult struct {
	status int
	body   []byte
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[httpResult]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	breaker := gobreaker.NewCircuitBreaker[httpResult](gobreaker.Settings{
		Name:    "upstream-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}
}

func (c *Client) ListProducts(ctx context.Context, params url.Values) ([]byte, error) {
	path := "/products"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return c.get(ctx, path)
}

func (c *Client) GetProduct(ctx context.Context, idOrSlug string) ([]byte, error) {
	return c.get(ctx, "/products/"+url.PathEscape(idOrSlug))
}

func (c *Client) ListCategories(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/categories")
}

func (c *Client) CategoryFilters(ctx context.Context, slug string) ([]byte, error) {
	return c.get(ctx, "/filters/category/"+url.PathEscape(slug))
}

func (c *Client) CategoryFiltersByID(ctx context.Context, id string) ([]byte, error) {
	return c.get(ctx, "/filters/category-id/"+url.PathEscape(id))
}

func (c *Client) CreateOrder(ctx context.Context, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/orders", body)
}

func (c *Client) GetOrder(ctx context.Context, id string) ([]byte, error) {
	return c.get(ctx, "/orders/"+url.PathEscape(id))
}

func (c *Client) MyOrders(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/orders/user/my-orders")
}

func (c *Client) Login(ctx context.Context, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/auth/login", body)
}

func (c *Client) Signup(ctx context.Context, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/auth/signup", body)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// do issues one request through the circuit breaker. Transport failures and
// 5xx responses count as breaker failures; 4xx responses do not, since a bad
// request says nothing about upstream health.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	result, err := c.breaker.Execute(func() (httpResult, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return httpResult{}, fmt.Errorf("build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token, ok := TokenFromContext(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return httpResult{}, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return httpResult{}, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 500 {
			return httpResult{}, fmt.Errorf("upstream returned status %d", resp.StatusCode)
		}

		return httpResult{status: resp.StatusCode, body: data}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case result.status == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case result.status == http.StatusNotFound:
		return nil, ErrNotFound
	case result.status >= 400:
		return nil, &StatusError{Status: result.status, Body: result.body}
	}

	return result.body, nil
}
