// Package auth provides HMAC-based API key authentication for the HTTP service.
package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HeaderAPIKey carries the service API key.
const HeaderAPIKey = "x-api-key"

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

// keyIDKey is the context key for the authenticated API key id.
const keyIDKey = contextKey("api_key_id")

// Queries interface defines database operations needed for authentication.
// Implemented by *db.Queries.
type Queries interface {
	Get(ctx context.Context, name string, dest interface{}, args ...interface{}) error
	Exec(ctx context.Context, name string, args ...interface{}) (sql.Result, error)
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
// Holds in-memory secret map for O(1) lookup and queries for key verification.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		logger:  logger,
		now:     time.Now,
	}
}

// Enabled reports whether any HMAC secret is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.secrets) > 0
}

// Authenticate validates an API key and returns its api_key_id.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (string, error) {
	if apiKey == "" {
		return "", ErrMissingKey
	}

	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	// key_hash is unique, so at most one row matches
	var result struct {
		APIKeyID   string       `db:"api_key_id"`
		Name       string       `db:"name"`
		RevokedAt  sql.NullTime `db:"revoked_at"`
		LastUsedAt sql.NullTime `db:"last_used_at"`
	}

	err = a.queries.Get(ctx, "get-api-key-by-hash", &result, ComputeHMAC(secret, apiKey))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if result.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	// Throttled to one write per minute per key
	if a.shouldUpdateLastUsed(result.LastUsedAt) {
		if _, err := a.queries.Exec(ctx, "update-last-used", a.now().UTC(), result.APIKeyID); err != nil {
			a.logger.Warn("failed to update api key last_used_at", "api_key_id", result.APIKeyID, "error", err)
		}
	}

	return result.APIKeyID, nil
}

func (a *Authenticator) shouldUpdateLastUsed(lastUsed sql.NullTime) bool {
	if !lastUsed.Valid {
		return true
	}
	return a.now().Sub(lastUsed.Time) > time.Minute
}

// StatusFor maps an authentication error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrKeyRevoked):
		return http.StatusForbidden
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}

// Middleware authenticates every request through the x-api-key header.
// With no secrets configured requests pass through unauthenticated.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		keyID, err := a.Authenticate(r.Context(), r.Header.Get(HeaderAPIKey))
		if err != nil {
			status := StatusFor(err)
			msg := err.Error()
			if status == http.StatusServiceUnavailable {
				a.logger.Error("api key lookup failed", "error", err)
				msg = ErrStoreUnavailable.Error()
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"error": msg})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), keyIDKey, keyID)))
	})
}

// KeyIDFromContext extracts the authenticated API key id from context.
// Returns empty string if not found.
func KeyIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(keyIDKey).(string); ok {
		return id
	}
	return ""
}
