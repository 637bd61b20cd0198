// Package cart owns the authoritative cart state for every user. All reads go
// through derived accessors on domain.Cart; all mutations rewrite the whole
// persisted collection under a per-user lock so the merge invariant holds
// under concurrent requests.
package cart

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dkoval/storefront/internal/cart/cache"
	"github.com/dkoval/storefront/internal/cart/repository"
	"github.com/dkoval/storefront/internal/domain"
)

type Service struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // prevents cache stampede on reads

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-user write locks
}

func NewService(repo repository.CartRepository, cache cache.CartCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		locks: make(map[string]*sync.Mutex),
	}
}

// GetCart returns the user's cart, or an empty cart when none has been
// persisted yet. A corrupt persisted payload also yields an empty cart: the
// store fails open rather than blocking the caller.
func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cart cache get error: %v", err)
		}

		cart, err = s.load(ctx, userID)
		if err != nil {
			return nil, err
		}

		go func() {
			if err := s.cache.Set(context.Background(), userID, cart); err != nil {
				log.Printf("cart cache set error: %v", err)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddItem merges by product identity: an existing line's quantity grows by
// item.Quantity, otherwise the line is appended. Selected options are display
// data and do not split lines.
func (s *Service) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	return s.mutate(ctx, userID, func(c *domain.Cart) {
		if line := c.Find(item.ProductID); line != nil {
			line.Quantity += item.Quantity
			return
		}
		item.AddedAt = time.Now()
		c.Items = append(c.Items, item)
	})
}

// UpdateQuantity sets a line's quantity exactly. A quantity of zero or below
// removes the line; an unknown product is a no-op, not an error.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	return s.mutate(ctx, userID, func(c *domain.Cart) {
		if line := c.Find(productID); line != nil {
			line.Quantity = quantity
		}
	})
}

// RemoveItem drops the line with the given identity. Absent lines are a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	return s.mutate(ctx, userID, func(c *domain.Cart) {
		for i, item := range c.Items {
			if item.ProductID == productID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				return
			}
		}
	})
}

// Clear empties the cart, both in the durable slot and the cache. Used by the
// explicit clear action and by the checkout-success transition.
func (s *Service) Clear(ctx context.Context, userID string) error {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.repo.DeleteCart(ctx, userID); err != nil {
		log.Printf("cart delete error: %v", err)
		return err
	}

	s.invalidate(userID)
	return nil
}

// mutate runs a read-modify-write of the whole collection under the user's
// write lock and persists the result before invalidating the cache.
func (s *Service) mutate(ctx context.Context, userID string, fn func(*domain.Cart)) error {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	fn(cart)

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		log.Printf("cart upsert error: %v", err)
		return err
	}

	s.invalidate(userID)
	return nil
}

// load reads the durable slot directly, bypassing the cache. Missing and
// corrupt payloads both come back as a fresh empty cart.
func (s *Service) load(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if errors.Is(err, repository.ErrCartNotFound) {
		return emptyCart(userID), nil
	}
	if errors.Is(err, repository.ErrCartCorrupt) {
		log.Printf("discarding corrupt cart for user %s: %v", userID, err)
		return emptyCart(userID), nil
	}
	return nil, err
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[userID] = mu
	}
	return mu
}

func (s *Service) invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cart cache invalidate error: %v", err)
	}
}

func emptyCart(userID string) *domain.Cart {
	now := time.Now()
	return &domain.Cart{
		UserID:    userID,
		Items:     nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
