package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SelectedOption is a display-only attribute choice carried on a cart line
// (e.g. "Color" / "Silver"). It is not part of the line's identity: two adds
// of the same product merge even when their options differ.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CartItem is one line in a cart, keyed by ProductID. Quantity is always >= 1;
// a mutation that would drive it to zero removes the line instead.
type CartItem struct {
	ProductID       string           `json:"product_id"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	ImageURL        string           `json:"image_url"`
	PriceUnit       decimal.Decimal  `json:"price_unit"`
	SelectedOptions []SelectedOption `json:"selected_options,omitempty"`
	Quantity        int              `json:"quantity"`
	AddedAt         time.Time        `json:"added_at"`
}

// LineTotal is PriceUnit * Quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.PriceUnit.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Find returns the line with the given product identity, or nil.
func (c *Cart) Find(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// TotalPrice sums price * quantity over all lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// TotalItemCount sums quantities across lines, not the number of lines.
func (c *Cart) TotalItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}
