package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultRecentMax caps the recent-files list.
const DefaultRecentMax = 10

// RecentFile is one entry of the recent-files list.
type RecentFile struct {
	Path     string    `db:"path" json:"path"`
	Seq      int64     `db:"seq" json:"-"`
	OpenedAt time.Time `db:"opened_at" json:"opened_at"`
}

// RecentFiles tracks recently opened rule files, most recent first.
type RecentFiles struct {
	q   Queries
	max int
	now clock
}

// NewRecentFiles keeps at most max entries; max <= 0 uses DefaultRecentMax.
func NewRecentFiles(q Queries, max int) *RecentFiles {
	if max <= 0 {
		max = DefaultRecentMax
	}
	return &RecentFiles{q: q, max: max, now: utcNow}
}

// Add records path as the most recent file. The path must name an existing
// regular file; it is stored absolute. Re-adding moves it to the front.
func (r *RecentFiles) Add(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("recent file %s: %w", abs, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("recent file %s: not a regular file", abs)
	}

	var seq int64
	if err := r.q.Get(ctx, "next-recent-seq", &seq); err != nil {
		return fmt.Errorf("failed to order recent files: %w", err)
	}
	if _, err := r.q.Exec(ctx, "upsert-recent-file", abs, seq, r.now()); err != nil {
		return fmt.Errorf("failed to add recent file %s: %w", abs, err)
	}
	if _, err := r.q.Exec(ctx, "trim-recent-files", r.max); err != nil {
		return fmt.Errorf("failed to trim recent files: %w", err)
	}
	return nil
}

// List returns entries most recent first. Entries whose file no longer
// exists are dropped from the result and from the store.
func (r *RecentFiles) List(ctx context.Context) ([]RecentFile, error) {
	var all []RecentFile
	if err := r.q.Select(ctx, "list-recent-files", &all); err != nil {
		return nil, fmt.Errorf("failed to list recent files: %w", err)
	}

	files := make([]RecentFile, 0, len(all))
	for _, f := range all {
		if _, err := os.Stat(f.Path); err != nil {
			if _, err := r.q.Exec(ctx, "delete-recent-file", f.Path); err != nil {
				return nil, fmt.Errorf("failed to prune recent file %s: %w", f.Path, err)
			}
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// Clear removes every entry.
func (r *RecentFiles) Clear(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, "clear-recent-files"); err != nil {
		return fmt.Errorf("failed to clear recent files: %w", err)
	}
	return nil
}
