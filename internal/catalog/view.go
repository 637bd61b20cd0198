package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dkoval/storefront/internal/domain"
)

// Searcher is satisfied by *Service.
type Searcher interface {
	Search(ctx context.Context, state FilterState) (*domain.ProductPage, error)
}

// View is the last-request-wins holder for one logical query surface (one
// user's listing screen). Every Apply draws a generation from a monotonic
// counter before fetching; a result is installed only if no newer request has
// been issued by the time it settles. A slow response for page 1 can never
// clobber an already-applied page 2.
type View struct {
	searcher Searcher
	gen      atomic.Uint64

	mu         sync.Mutex
	appliedGen uint64
	state      FilterState
	page       *domain.ProductPage
}

func NewView(searcher Searcher) *View {
	return &View{searcher: searcher}
}

// Apply issues one fetch for the given state and returns the view's current
// page afterwards. When the fetched result is stale it is discarded and the
// fresher page already applied is returned instead. A fetch error leaves the
// view untouched.
func (v *View) Apply(ctx context.Context, state FilterState) (*domain.ProductPage, error) {
	gen := v.gen.Add(1)

	page, err := v.searcher.Search(ctx, state)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		if v.page != nil {
			return v.page, err
		}
		return nil, err
	}

	if gen > v.appliedGen {
		v.appliedGen = gen
		v.state = state
		v.page = page
	}
	return v.page, nil
}

// Current returns the most recently applied page and the state that produced
// it. ok is false until the first successful Apply.
func (v *View) Current() (*domain.ProductPage, FilterState, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page, v.state, v.page != nil
}
