package store

import (
	"context"
	"fmt"
	"time"

	"github.com/solatis/adjrules/internal/types"
)

// Push is one recorded update request.
type Push struct {
	ID         types.PushID `db:"push_id" json:"push_id"`
	RuleID     int64        `db:"rule_id" json:"rule_id"`
	VersionNum string       `db:"version_num" json:"version_num"`
	StatusCode int          `db:"status_code" json:"status_code"`
	Payload    string       `db:"payload" json:"payload"`
	Error      string       `db:"error" json:"error,omitempty"`
	PushedAt   time.Time    `db:"pushed_at" json:"pushed_at"`
}

// PushLog records every update sent to the API.
type PushLog struct {
	q     Queries
	now   clock
	newID func() types.PushID
}

// NewPushLog wraps the named queries.
func NewPushLog(q Queries) *PushLog {
	return &PushLog{q: q, now: utcNow, newID: types.NewPushID}
}

// Record stores p under a fresh UUIDv7 id and returns the stored entry.
func (l *PushLog) Record(ctx context.Context, p Push) (Push, error) {
	p.ID = l.newID()
	p.PushedAt = l.now()
	if _, err := l.q.Exec(ctx, "insert-push",
		string(p.ID), p.RuleID, p.VersionNum, p.StatusCode, p.Payload, p.Error, p.PushedAt,
	); err != nil {
		return Push{}, fmt.Errorf("failed to record push for rule %d: %w", p.RuleID, err)
	}
	return p, nil
}

// ByRule returns the pushes for ruleID, newest first.
func (l *PushLog) ByRule(ctx context.Context, ruleID int64) ([]Push, error) {
	pushes := []Push{}
	if err := l.q.Select(ctx, "list-pushes-by-rule", &pushes, ruleID); err != nil {
		return nil, fmt.Errorf("failed to list pushes for rule %d: %w", ruleID, err)
	}
	return pushes, nil
}

// Recent returns up to limit pushes, newest first.
func (l *PushLog) Recent(ctx context.Context, limit int) ([]Push, error) {
	pushes := []Push{}
	if err := l.q.Select(ctx, "list-pushes", &pushes, limit); err != nil {
		return nil, fmt.Errorf("failed to list pushes: %w", err)
	}
	return pushes, nil
}
