package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Connection is a saved API profile. Password and client secret are never
// part of it; they come from the environment at use time.
type Connection struct {
	Name      string    `db:"name" json:"name"`
	BaseURL   string    `db:"base_url" json:"base_url"`
	Username  string    `db:"username" json:"username"`
	ClientID  string    `db:"client_id" json:"client_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ConnectionStore saves connection profiles by name.
type ConnectionStore struct {
	q   Queries
	now clock
}

// NewConnectionStore wraps the named queries.
func NewConnectionStore(q Queries) *ConnectionStore {
	return &ConnectionStore{q: q, now: utcNow}
}

// Save inserts or replaces the profile with c.Name.
func (s *ConnectionStore) Save(ctx context.Context, c Connection) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrInvalidName
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("connection %q: invalid base URL %q", c.Name, c.BaseURL)
	}

	now := s.now()
	if _, err := s.q.Exec(ctx, "upsert-connection",
		c.Name, strings.TrimRight(c.BaseURL, "/"), c.Username, c.ClientID, now, now,
	); err != nil {
		return fmt.Errorf("failed to save connection %q: %w", c.Name, err)
	}
	return nil
}

// Get returns the profile or an error wrapping ErrNotFound.
func (s *ConnectionStore) Get(ctx context.Context, name string) (Connection, error) {
	var c Connection
	err := s.q.Get(ctx, "get-connection", &c, name)
	if errors.Is(err, sql.ErrNoRows) {
		return Connection{}, fmt.Errorf("connection %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return Connection{}, fmt.Errorf("failed to load connection %q: %w", name, err)
	}
	return c, nil
}

// List returns all profiles ordered by name.
func (s *ConnectionStore) List(ctx context.Context) ([]Connection, error) {
	conns := []Connection{}
	if err := s.q.Select(ctx, "list-connections", &conns); err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return conns, nil
}

// Exists reports whether a profile with name is saved.
func (s *ConnectionStore) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.q.Get(ctx, "count-connection", &n, name); err != nil {
		return false, fmt.Errorf("failed to check connection %q: %w", name, err)
	}
	return n > 0, nil
}

// Remove deletes a profile. Removing a missing profile returns ErrNotFound.
func (s *ConnectionStore) Remove(ctx context.Context, name string) error {
	res, err := s.q.Exec(ctx, "delete-connection", name)
	if err != nil {
		return fmt.Errorf("failed to remove connection %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("connection %q: %w", name, ErrNotFound)
	}
	return nil
}
