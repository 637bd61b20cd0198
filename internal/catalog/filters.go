package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkoval/storefront/internal/domain"
)

// FilterDomain loads and parses the option-value domain for one category.
// Concurrent loads for the same slug collapse into a single upstream request.
// A failed load is an error for the caller to degrade on ("no filters
// available"), never a reason to block product display.
func (s *Service) FilterDomain(ctx context.Context, slug string) (*domain.FilterDomain, error) {
	v, err, _ := s.sfg.Do("filters:"+slug, func() (interface{}, error) {
		raw, err := s.filters.CategoryFilters(ctx, slug)
		if err != nil {
			return nil, err
		}
		groups, err := normalizeFilterGroups(raw)
		if err != nil {
			return nil, err
		}
		return &domain.FilterDomain{CategorySlug: slug, Groups: groups}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.FilterDomain), nil
}

// normalizeFilterGroups accepts the same bare-array / {"data": [...]}
// variance the listing endpoints exhibit.
func normalizeFilterGroups(raw []byte) ([]domain.FilterGroup, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnrecognizedShape)
	}

	if trimmed[0] == '[' {
		return decodeFilterGroups(trimmed)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: missing filter list", ErrUnrecognizedShape)
	}
	return decodeFilterGroups(data)
}

func decodeFilterGroups(raw []byte) ([]domain.FilterGroup, error) {
	var groups []domain.FilterGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedShape, err)
	}
	return groups, nil
}

// MergeURLFilterParam folds an option-value id arriving via a URL parameter
// into the state. The id is added only when it exists in the loaded domain
// for the current category; stale or foreign ids are silently dropped so a
// dead link can never produce a filter that matches nothing. Duplicates are
// not added twice.
func MergeURLFilterParam(state FilterState, dom *domain.FilterDomain, id string) FilterState {
	if id == "" || !dom.HasValue(id) {
		return state
	}
	for _, existing := range state.OptionValueIDs {
		if existing == id {
			return state
		}
	}
	ids := make([]string, 0, len(state.OptionValueIDs)+1)
	ids = append(ids, state.OptionValueIDs...)
	state.OptionValueIDs = append(ids, id)
	return state
}
