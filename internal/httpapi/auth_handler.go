package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/dkoval/storefront/internal/auth"
)

// AuthSource is the slice of the upstream client that issues tokens.
type AuthSource interface {
	Login(ctx context.Context, body []byte) ([]byte, error)
	Signup(ctx context.Context, body []byte) ([]byte, error)
}

type AuthHandler struct {
	source  AuthSource
	tokens  *auth.TokenStore
	timeout time.Duration
}

func NewAuthHandler(source AuthSource, tokens *auth.TokenStore, timeout time.Duration) *AuthHandler {
	return &AuthHandler{source: source, tokens: tokens, timeout: timeout}
}

type credentialsDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// tokenEnvelope accepts the two token placements upstream deployments use.
type tokenEnvelope struct {
	Token string `json:"token"`
	Data  struct {
		Token string `json:"token"`
	} `json:"data"`
}

func (e tokenEnvelope) token() string {
	if e.Token != "" {
		return e.Token
	}
	return e.Data.Token
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.source.Login)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.source.Signup)
}

func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request, call func(context.Context, []byte) ([]byte, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var creds credentialsDTO
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if creds.Email == "" || creds.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_credentials", "email and password are required")
		return
	}

	body, err := json.Marshal(creds)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	payload, err := call(ctx, body)
	if err != nil {
		handleUpstreamError(w, err)
		return
	}

	var envelope tokenEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.token() == "" {
		log.Printf("auth response carried no token: %v", err)
		respondError(w, http.StatusBadGateway, "bad_upstream_payload", "failed to log in")
		return
	}

	if err := h.tokens.Save(ctx, getSessionID(ctx), envelope.token()); err != nil {
		log.Printf("failed to persist token: %v", err)
		respondError(w, http.StatusInternalServerError, "token_error", "failed to persist session")
		return
	}

	// The token stays server-side, keyed by the session cookie; the client
	// never needs to hold it.
	respondRaw(w, http.StatusOK, payload)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.tokens.Clear(ctx, getSessionID(ctx)); err != nil {
		log.Printf("failed to clear token: %v", err)
		respondError(w, http.StatusInternalServerError, "token_error", "failed to log out")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
