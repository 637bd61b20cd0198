// Package auth keeps one durable bearer token per session. The gateway never
// mints tokens itself; it stores what the upstream auth endpoints issue and
// forgets them on expiry or rejection. Auth state and cart state are
// deliberately independent: losing a session never empties a cart.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// ErrNoToken means the session has no usable stored token: none was ever
// saved, or the saved one has expired.
var ErrNoToken = errors.New("no stored token")

type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

func (s *TokenStore) Save(ctx context.Context, sessionID, token string) error {
	if err := s.client.Set(ctx, tokenKey(sessionID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set token failed: %w", err)
	}
	return nil
}

// Load returns the stored token for the session. A JWT whose exp claim has
// passed is dropped eagerly and reported as absent, so expired credentials
// are never attached to an upstream call. Opaque (non-JWT) tokens are
// returned as stored.
func (s *TokenStore) Load(ctx context.Context, sessionID string) (string, error) {
	token, err := s.client.Get(ctx, tokenKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("redis get token failed: %w", err)
	}

	if expired(token) {
		if err := s.Clear(ctx, sessionID); err != nil {
			log.Printf("failed to clear expired token: %v", err)
		}
		return "", ErrNoToken
	}

	return token, nil
}

func (s *TokenStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, tokenKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete token failed: %w", err)
	}
	return nil
}

// expired reports whether a JWT's exp claim has passed. Tokens that do not
// parse as JWTs are assumed opaque and left to the upstream to judge.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

func tokenKey(sessionID string) string {
	return fmt.Sprintf("storefront:token:%s", sessionID)
}
