// internal/rules/tracker.go
package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/adjrules/internal/types"
)

/*
 * Edit tracking over a grid of FlatRecords.
 *
 * Each (row, label) cell is a two-state machine:
 *
 *   Clean --edit(v != current)--> Dirty(baseline = current before edit)
 *   Dirty --edit(v != current)--> Dirty(baseline = current before edit)
 *   Dirty --undo, no older entry for cell--> Clean
 *   Dirty --undo, older entry remains--> Dirty(baseline = that entry's Old)
 *   any   --Confirm--> Clean
 *
 * A second edit is compared against the value the first edit left, so only
 * the most recent delta is tracked per edit. The history is append-only and
 * Undo replays it in reverse, which recovers the original value.
 *
 * A Tracker is not safe for concurrent use.
 */

// CellState is the tracking state of one cell.
type CellState int

const (
	Clean CellState = iota
	Dirty
)

func (s CellState) String() string {
	if s == Dirty {
		return "dirty"
	}
	return "clean"
}

// Change is one recorded edit.
type Change struct {
	Row   int
	Label string
	Old   string
	New   string
}

type cellKey struct {
	row   int
	label string
}

type cellState struct {
	state    CellState
	baseline string
}

// readOnlyLabels address a trigger and cannot be edited.
var readOnlyLabels = map[string]bool{
	types.LabelRuleID:        true,
	types.LabelVersionNumber: true,
}

// Tracker records edits to a set of FlatRecords.
type Tracker struct {
	rows    []types.FlatRecord
	cells   map[cellKey]cellState
	history []Change
}

// NewTracker copies records and starts with every cell Clean.
func NewTracker(records []types.FlatRecord) *Tracker {
	rows := make([]types.FlatRecord, len(records))
	for i, r := range records {
		rows[i] = r.Clone()
	}
	return &Tracker{
		rows:  rows,
		cells: make(map[cellKey]cellState),
	}
}

// Len returns the number of rows.
func (t *Tracker) Len() int { return len(t.rows) }

func (t *Tracker) check(row int, label string) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("%w: %d (have %d rows)", types.ErrRowOutOfRange, row, len(t.rows))
	}
	if !types.IsColumn(label) {
		return fmt.Errorf("%w: %q", types.ErrUnknownField, label)
	}
	return nil
}

// Edit sets (row, label) to value.
// Returns changed=false when value equals the current value.
func (t *Tracker) Edit(row int, label, value string) (bool, error) {
	if err := t.check(row, label); err != nil {
		return false, err
	}
	if readOnlyLabels[label] {
		return false, fmt.Errorf("%w: %q", types.ErrReadOnlyField, label)
	}

	current := t.rows[row][label]
	if value == current {
		return false, nil
	}

	key := cellKey{row, label}
	t.cells[key] = cellState{state: Dirty, baseline: current}
	t.rows[row][label] = value
	t.history = append(t.history, Change{Row: row, Label: label, Old: current, New: value})
	return true, nil
}

// Undo reverts the most recent change.
// Returns ok=false when the history is empty.
func (t *Tracker) Undo() (Change, bool) {
	if len(t.history) == 0 {
		return Change{}, false
	}
	last := t.history[len(t.history)-1]
	t.history = t.history[:len(t.history)-1]
	t.rows[last.Row][last.Label] = last.Old

	key := cellKey{last.Row, last.Label}
	delete(t.cells, key)
	for i := len(t.history) - 1; i >= 0; i-- {
		c := t.history[i]
		if c.Row == last.Row && c.Label == last.Label {
			t.cells[key] = cellState{state: Dirty, baseline: c.Old}
			break
		}
	}
	return last, true
}

// State returns the cell's tracking state and, when Dirty, its baseline.
func (t *Tracker) State(row int, label string) (CellState, string) {
	c, ok := t.cells[cellKey{row, label}]
	if !ok {
		return Clean, ""
	}
	return c.state, c.baseline
}

// IsDirty reports whether (row, label) has an unconfirmed edit.
func (t *Tracker) IsDirty(row int, label string) bool {
	s, _ := t.State(row, label)
	return s == Dirty
}

// Value returns the current value of (row, label).
func (t *Tracker) Value(row int, label string) (string, error) {
	if err := t.check(row, label); err != nil {
		return "", err
	}
	return t.rows[row][label], nil
}

// Rows returns copies of the current records.
func (t *Tracker) Rows() []types.FlatRecord {
	out := make([]types.FlatRecord, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Clone()
	}
	return out
}

// History returns a copy of the undo history, oldest first.
func (t *Tracker) History() []Change {
	out := make([]Change, len(t.history))
	copy(out, t.history)
	return out
}

// ModifiedRecords returns one record per row with at least one dirty,
// non-"N/A" cell, in row order. Each carries the identity labels plus the
// current value of every such dirty cell.
func (t *Tracker) ModifiedRecords() []types.FlatRecord {
	var out []types.FlatRecord
	for row, current := range t.rows {
		var rec types.FlatRecord
		for _, label := range types.Columns {
			if !t.IsDirty(row, label) {
				continue
			}
			v := current[label]
			if strings.EqualFold(strings.TrimSpace(v), types.NotApplicable) {
				continue
			}
			if rec == nil {
				rec = make(types.FlatRecord)
			}
			rec[label] = v
		}
		if rec == nil {
			continue
		}
		for _, label := range types.IdentityLabels {
			rec[label] = current[label]
		}
		out = append(out, rec)
	}
	return out
}

// Confirm marks every cell Clean and clears the history. Call after the
// modified records were accepted upstream.
func (t *Tracker) Confirm() {
	t.cells = make(map[cellKey]cellState)
	t.history = nil
}
