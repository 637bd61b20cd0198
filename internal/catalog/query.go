// Package catalog turns user-selected filter state into exactly one canonical
// upstream listing query and normalizes whatever shape the upstream returns
// into a flat, paginated product page.
package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type SortOrder string

const (
	SortNewest     SortOrder = "newest"
	SortOldest     SortOrder = "oldest"
	SortAscending  SortOrder = "ascending"
	SortDescending SortOrder = "descending"
)

// sortParam maps UI sort labels to the upstream API vocabulary. This table is
// the single source of truth: a new sort label must be added here before any
// handler can accept it.
var sortParam = map[SortOrder]string{
	SortNewest:     "newest",
	SortOldest:     "oldest",
	SortAscending:  "price_asc",
	SortDescending: "price_desc",
}

// ParseSortOrder validates a UI sort label. Unknown labels report ok=false so
// callers can fall back to the default rather than forwarding garbage.
func ParseSortOrder(s string) (SortOrder, bool) {
	order := SortOrder(s)
	_, ok := sortParam[order]
	return order, ok
}

const (
	DefaultPageSize = 15
	MaxPageSize     = 100
)

// FilterState is the complete, enumerated set of listing knobs. Price bounds
// are forwarded as given; an inverted range (min > max) is the upstream's
// contract to reject or ignore, not ours.
type FilterState struct {
	CategorySlug   string
	PriceMin       *decimal.Decimal
	PriceMax       *decimal.Decimal
	Sort           SortOrder
	OptionValueIDs []string // set semantics; UI insertion order preserved
	Page           int      // 1-based
	PageSize       int
}

// WithCategory retargets the state at a new category. Only the selected
// option values reset: option-value domains are category scoped and a stale
// id would silently match nothing. Price bounds and sort order survive.
func (s FilterState) WithCategory(slug string) FilterState {
	s.CategorySlug = slug
	s.OptionValueIDs = nil
	s.Page = 1
	return s
}

// page and size with defaults applied; used by both the query encoding and
// the client-side pagination path so they can never disagree.
func (s FilterState) pageAndSize() (int, int) {
	page, size := s.Page, s.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// QueryDescriptor is the canonical, upstream-vocabulary representation of a
// filter state, ready to serialize onto a request.
type QueryDescriptor struct {
	params url.Values
}

func (d QueryDescriptor) Values() url.Values {
	return d.params
}

// Encode returns the canonical query string. url.Values.Encode sorts keys, so
// equal filter states always encode identically.
func (d QueryDescriptor) Encode() string {
	return d.params.Encode()
}

// BuildQuery is a deterministic pure mapping: the same FilterState always
// produces the same descriptor. Empty knobs are omitted entirely rather than
// sent as empty strings.
func BuildQuery(state FilterState) QueryDescriptor {
	params := url.Values{}

	if state.CategorySlug != "" {
		params.Set("category", state.CategorySlug)
	}
	if state.PriceMin != nil {
		params.Set("minPrice", state.PriceMin.String())
	}
	if state.PriceMax != nil {
		params.Set("maxPrice", state.PriceMax.String())
	}
	if mapped, ok := sortParam[state.Sort]; ok {
		params.Set("sortOrder", mapped)
	}
	if ids := dedupe(state.OptionValueIDs); len(ids) > 0 {
		params.Set("options", strings.Join(ids, ","))
	}

	page, size := state.pageAndSize()
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(size))

	return QueryDescriptor{params: params}
}

// dedupe drops repeated ids while keeping first-seen order.
func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
