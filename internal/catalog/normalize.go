package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkoval/storefront/internal/domain"
)

// ErrUnrecognizedShape means the upstream payload matched none of the known
// listing shapes. Callers degrade to an empty listing with a notice; they
// never render a half-parsed result silently.
var ErrUnrecognizedShape = errors.New("unrecognized product payload shape")

// PaginationMeta is the upstream's own pagination block, present only on
// server-paginated endpoints.
type PaginationMeta struct {
	TotalCount  int `json:"totalCount"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}

// NormalizeProducts unwraps the three payload shapes the upstream fleet is
// known to produce:
//
//	[...]
//	{"data": [...]}
//	{"data": {"products": [...]}}
//
// plus an optional "pagination" block at either nesting level. Any other
// shape is an ErrUnrecognizedShape.
func NormalizeProducts(raw []byte) ([]domain.Product, *PaginationMeta, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil, fmt.Errorf("%w: empty payload", ErrUnrecognizedShape)
	}

	if trimmed[0] == '[' {
		items, err := decodeProducts(trimmed)
		return items, nil, err
	}

	var envelope struct {
		Data       json.RawMessage `json:"data"`
		Pagination *PaginationMeta `json:"pagination"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}

	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil, fmt.Errorf("%w: missing data field", ErrUnrecognizedShape)
	}

	if data[0] == '[' {
		items, err := decodeProducts(data)
		return items, envelope.Pagination, err
	}

	var inner struct {
		Products   json.RawMessage `json:"products"`
		Pagination *PaginationMeta `json:"pagination"`
	}
	if err := json.Unmarshal(data, &inner); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}

	products := bytes.TrimSpace(inner.Products)
	if len(products) == 0 || bytes.Equal(products, []byte("null")) {
		return nil, nil, fmt.Errorf("%w: missing products field", ErrUnrecognizedShape)
	}

	items, err := decodeProducts(products)
	if err != nil {
		return nil, nil, err
	}

	meta := envelope.Pagination
	if inner.Pagination != nil {
		meta = inner.Pagination
	}
	return items, meta, nil
}

func decodeProducts(raw []byte) ([]domain.Product, error) {
	var items []domain.Product
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	return items, nil
}

// NormalizeProduct unwraps a single-product payload: either a bare object or
// one wrapped in {"data": {...}}.
func NormalizeProduct(raw []byte) (*domain.Product, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected an object", ErrUnrecognizedShape)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}

	body := trimmed
	if data := bytes.TrimSpace(envelope.Data); len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		body = data
	}

	var product domain.Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	if product.ID == "" && product.Name == "" {
		return nil, fmt.Errorf("%w: object carries no product fields", ErrUnrecognizedShape)
	}
	return &product, nil
}
