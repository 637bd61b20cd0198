package repository

import (
	"context"
	"errors"

	"github.com/dkoval/storefront/internal/domain"
)

var (
	// ErrCartNotFound means no cart has ever been persisted for this user.
	ErrCartNotFound = errors.New("cart not found")

	// ErrCartCorrupt means a persisted payload exists but does not parse.
	// Callers treat it like a missing cart: the application fails open to an
	// empty cart rather than refusing to start.
	ErrCartCorrupt = errors.New("persisted cart is corrupt")
)

// CartRepository is the durable slot holding one serialized cart per user.
// The whole collection is written on every mutation; partial item updates are
// deliberately not part of the contract.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
	Close(ctx context.Context) error
}
