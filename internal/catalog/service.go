package catalog

import (
	"context"
	"net/url"

	"golang.org/x/sync/singleflight"

	"github.com/dkoval/storefront/internal/domain"
)

// Lister issues one product-listing request for a canonical query and returns
// the raw payload. Normalization stays on this side of the boundary because
// the upstream fleet does not agree on a response shape.
type Lister interface {
	ListProducts(ctx context.Context, params url.Values) ([]byte, error)
}

// FilterSource fetches the raw filter metadata for one category.
type FilterSource interface {
	CategoryFilters(ctx context.Context, slug string) ([]byte, error)
}

type Service struct {
	lister  Lister
	filters FilterSource
	sfg     singleflight.Group // dedupes concurrent metadata loads per slug
}

func NewService(lister Lister, filters FilterSource) *Service {
	return &Service{lister: lister, filters: filters}
}

// Search performs the whole pipeline for one settled filter state: build the
// canonical query, issue exactly one request, normalize the payload, and
// paginate. When the upstream returns its own pagination block that block
// wins; otherwise the full list is sliced client-side. Both paths produce a
// ProductPage with identical field semantics.
func (s *Service) Search(ctx context.Context, state FilterState) (*domain.ProductPage, error) {
	desc := BuildQuery(state)

	raw, err := s.lister.ListProducts(ctx, desc.Values())
	if err != nil {
		return nil, err
	}

	items, meta, err := NormalizeProducts(raw)
	if err != nil {
		return nil, err
	}

	page, size := state.pageAndSize()

	if meta != nil {
		metaPage, metaSize := meta.CurrentPage, meta.PageSize
		if metaPage < 1 {
			metaPage = page
		}
		if metaSize < 1 {
			metaSize = size
		}
		return &domain.ProductPage{
			Items:    items,
			PageInfo: domain.NewPageInfo(meta.TotalCount, metaPage, metaSize),
		}, nil
	}

	info := domain.NewPageInfo(len(items), page, size)
	lo := (page - 1) * size
	hi := lo + size
	switch {
	case lo >= len(items):
		items = nil
	case hi > len(items):
		items = items[lo:]
	default:
		items = items[lo:hi]
	}

	return &domain.ProductPage{Items: items, PageInfo: info}, nil
}
