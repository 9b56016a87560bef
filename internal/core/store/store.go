// Package store persists local adjrules state: saved connections, recently
// opened files, the push log and service API keys.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Sentinel errors for store lookups.
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidName = errors.New("name must not be empty")
)

// Queries is the named-query surface the stores need.
// Implemented by *db.Queries.
type Queries interface {
	Exec(ctx context.Context, name string, args ...interface{}) (sql.Result, error)
	Get(ctx context.Context, name string, dest interface{}, args ...interface{}) error
	Select(ctx context.Context, name string, dest interface{}, args ...interface{}) error
}

// clock returns UTC now; overridden in tests.
type clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }
