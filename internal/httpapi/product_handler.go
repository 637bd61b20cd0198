package httpapi

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dkoval/storefront/internal/catalog"
	"github.com/dkoval/storefront/internal/domain"
)

// CatalogService is the catalog pipeline as the handlers see it.
type CatalogService interface {
	Search(ctx context.Context, state catalog.FilterState) (*domain.ProductPage, error)
	FilterDomain(ctx context.Context, slug string) (*domain.FilterDomain, error)
}

// ProductSource is the slice of the upstream client used for pass-through
// endpoints.
type ProductSource interface {
	GetProduct(ctx context.Context, idOrSlug string) ([]byte, error)
	ListCategories(ctx context.Context) ([]byte, error)
}

type ProductHandler struct {
	catalog CatalogService
	source  ProductSource
	views   *viewRegistry
	timeout time.Duration
}

func NewProductHandler(cat CatalogService, source ProductSource, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: cat,
		source:  source,
		views:   newViewRegistry(cat),
		timeout: timeout,
	}
}

// ProductListResponse degrades instead of failing: on an upstream or shape
// error Items is empty and Notice carries a user-facing message.
type ProductListResponse struct {
	Items  []domain.Product `json:"items"`
	Page   domain.PageInfo  `json:"page"`
	Notice string           `json:"notice,omitempty"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	state, err := parseFilterState(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	// A category-menu link may carry a single option-value id. It only enters
	// the state when it exists in the category's loaded option domain; a
	// stale id from an old link is dropped without comment.
	if id := r.URL.Query().Get("filter"); id != "" && state.CategorySlug != "" {
		if dom, err := h.catalog.FilterDomain(ctx, state.CategorySlug); err == nil {
			state = catalog.MergeURLFilterParam(state, dom, id)
		} else {
			log.Printf("filter domain load failed for %q: %v", state.CategorySlug, err)
		}
	}

	view := h.views.forSession(getSessionID(ctx))
	page, err := view.Apply(ctx, state)
	if err != nil {
		log.Printf("product listing failed (request %s): %v", getRequestID(ctx), err)
		pg, size := state.Page, state.PageSize
		respondJSON(w, http.StatusOK, ProductListResponse{
			Items:  []domain.Product{},
			Page:   domain.NewPageInfo(0, pg, size),
			Notice: "failed to load products",
		})
		return
	}

	respondJSON(w, http.StatusOK, ProductListResponse{
		Items: page.Items,
		Page:  page.PageInfo,
	})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	idOrSlug := chi.URLParam(r, "idOrSlug")
	payload, err := h.source.GetProduct(ctx, idOrSlug)
	if err != nil {
		handleUpstreamError(w, err)
		return
	}

	respondRaw(w, http.StatusOK, payload)
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := h.source.ListCategories(ctx)
	if err != nil {
		handleUpstreamError(w, err)
		return
	}

	respondRaw(w, http.StatusOK, payload)
}

// FilterDomainResponse mirrors the listing degrade contract: a failed
// metadata load yields empty groups plus a notice, never an error page.
type FilterDomainResponse struct {
	Domain *domain.FilterDomain `json:"domain"`
	Notice string               `json:"notice,omitempty"`
}

func (h *ProductHandler) Filters(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	slug := chi.URLParam(r, "slug")
	dom, err := h.catalog.FilterDomain(ctx, slug)
	if err != nil {
		log.Printf("filter domain load failed for %q: %v", slug, err)
		respondJSON(w, http.StatusOK, FilterDomainResponse{
			Domain: &domain.FilterDomain{CategorySlug: slug},
			Notice: "no filters available",
		})
		return
	}

	respondJSON(w, http.StatusOK, FilterDomainResponse{Domain: dom})
}

// parseFilterState reads the enumerated filter knobs from query parameters.
// Unknown sort labels fall back to newest; malformed prices are a client
// error rather than something to guess at.
func parseFilterState(q url.Values) (catalog.FilterState, error) {
	state := catalog.FilterState{
		CategorySlug: q.Get("category"),
		Sort:         catalog.SortNewest,
	}

	if s := q.Get("sortOrder"); s != "" {
		if order, ok := catalog.ParseSortOrder(s); ok {
			state.Sort = order
		}
	}

	var err error
	if state.PriceMin, err = parsePrice(q.Get("minPrice")); err != nil {
		return state, err
	}
	if state.PriceMax, err = parsePrice(q.Get("maxPrice")); err != nil {
		return state, err
	}

	if raw := q.Get("options"); raw != "" {
		state.OptionValueIDs = splitCommaList(raw)
	}

	state.Page, _ = strconv.Atoi(q.Get("page"))
	state.PageSize, _ = strconv.Atoi(q.Get("pageSize"))

	return state, nil
}

func parsePrice(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// viewRegistry keeps one last-request-wins listing view per session.
type viewRegistry struct {
	mu       sync.Mutex
	views    map[string]*catalog.View
	searcher catalog.Searcher
}

func newViewRegistry(searcher catalog.Searcher) *viewRegistry {
	return &viewRegistry{
		views:    make(map[string]*catalog.View),
		searcher: searcher,
	}
}

func (r *viewRegistry) forSession(sessionID string) *catalog.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[sessionID]
	if !ok {
		v = catalog.NewView(r.searcher)
		r.views[sessionID] = v
	}
	return v
}
