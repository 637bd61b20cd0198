package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dkoval/storefront/internal/auth"
	"github.com/dkoval/storefront/internal/upstream"
)

const sessionCookieName = "storefront_session"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	requestIDKey contextKey = "request_id"
	hadTokenKey  contextKey = "had_token"
)

// SessionMiddleware assigns every visitor a stable session id via cookie.
// The session id keys both the cart slot and the stored bearer token, so
// anonymous visitors get a durable cart before they ever log in.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
			sessionID = c.Value
		} else {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int((90 * 24 * time.Hour).Seconds()),
			})
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenMiddleware resolves the session's stored bearer token and attaches it
// to the request context for upstream calls. It also records whether a token
// had been present, which lets 401 handling distinguish "was logged in, now
// expired" from "never logged in".
func TokenMiddleware(tokens *auth.TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sessionID := getSessionID(ctx)
			if sessionID != "" {
				token, err := tokens.Load(ctx, sessionID)
				switch {
				case err == nil:
					ctx = upstream.WithToken(ctx, token)
					ctx = context.WithValue(ctx, hadTokenKey, true)
				case !errors.Is(err, auth.ErrNoToken):
					log.Printf("token load error: %v", err)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware tags each request with a stable id, honoring one the
// client already sent.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimitMiddleware throttles per session using a token bucket. Sessions
// are identified by cookie, so one abusive client cannot exhaust the upstream
// for everyone.
func RateLimitMiddleware(rps rate.Limit, burst int) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[key]
		if !ok {
			l = rate.NewLimiter(rps, burst)
			limiters[key] = l
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getSessionID(r.Context())
			if key == "" {
				key = r.RemoteAddr
			}
			if !limiterFor(key).Allow() {
				respondError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func getSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// hadToken reports whether the session carried a stored token when the
// request entered the handler chain.
func hadToken(ctx context.Context) bool {
	had, ok := ctx.Value(hadTokenKey).(bool)
	return ok && had
}
