package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ID is an opaque identity. Upstream deployments disagree on whether ids are
// JSON numbers or strings; both decode to the same value here.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Product is the listing summary shape used on category and search pages.
type Product struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category,omitempty"`
}

type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// OptionValue is one selectable value inside a filter group.
type OptionValue struct {
	ID    ID     `json:"id"`
	Value string `json:"value"`
}

// FilterGroup is one product attribute (e.g. "Brand") with its selectable
// values, scoped to one category.
type FilterGroup struct {
	ID     ID            `json:"id"`
	Name   string        `json:"name"`
	Values []OptionValue `json:"values"`
}

// FilterDomain is the full set of option values valid for one category.
// Option-value ids from outside the domain (stale links, other categories)
// must never enter a filter state.
type FilterDomain struct {
	CategorySlug string        `json:"category_slug"`
	Groups       []FilterGroup `json:"groups"`
}

// HasValue reports whether the given option-value id belongs to this domain.
func (d *FilterDomain) HasValue(id string) bool {
	if d == nil {
		return false
	}
	for _, g := range d.Groups {
		for _, v := range g.Values {
			if v.ID.String() == id {
				return true
			}
		}
	}
	return false
}
