package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/solatis/adjrules/internal/core/auth"
)

// APIKey describes a stored service key. The key itself is shown once at
// creation and never stored.
type APIKey struct {
	ID         string       `db:"api_key_id" json:"id"`
	Name       string       `db:"name" json:"name"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	LastUsedAt sql.NullTime `db:"last_used_at" json:"-"`
	RevokedAt  sql.NullTime `db:"revoked_at" json:"-"`
}

// Revoked reports whether the key has been revoked.
func (k APIKey) Revoked() bool { return k.RevokedAt.Valid }

// APIKeys manages hashed service keys.
type APIKeys struct {
	q   Queries
	now clock
}

// NewAPIKeys wraps the named queries.
func NewAPIKeys(q Queries) *APIKeys {
	return &APIKeys{q: q, now: utcNow}
}

// Create generates a key signed with the given secret, stores its hash and
// returns the plaintext key alongside the stored record.
func (s *APIKeys) Create(ctx context.Context, name, secretID string, secret []byte) (string, APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", APIKey{}, ErrInvalidName
	}

	key, hash, err := auth.GenerateAPIKey(secretID, secret)
	if err != nil {
		return "", APIKey{}, err
	}

	rec := APIKey{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      name,
		CreatedAt: s.now(),
	}
	if _, err := s.q.Exec(ctx, "insert-api-key", rec.ID, rec.Name, hash, rec.CreatedAt); err != nil {
		return "", APIKey{}, fmt.Errorf("failed to store api key %q: %w", name, err)
	}
	return key, rec, nil
}

// List returns every key, revoked included.
func (s *APIKeys) List(ctx context.Context) ([]APIKey, error) {
	keys := []APIKey{}
	if err := s.q.Select(ctx, "list-api-keys", &keys); err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

// Revoke marks a key revoked. Revoking a missing or already revoked key
// returns ErrNotFound.
func (s *APIKeys) Revoke(ctx context.Context, id string) error {
	res, err := s.q.Exec(ctx, "revoke-api-key", s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to revoke api key %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("api key %s: %w", id, ErrNotFound)
	}
	return nil
}
