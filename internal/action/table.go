package action

import (
	"fmt"
	"sync"
	"time"
)

// Record is the mutable per-action state shared by the polling loop and
// the surface message loop.
type Record struct {
	// Context is the on-screen handle supplied by the control surface.
	// Empty when the action is not displayed.
	Context string

	// Current is the state most recently committed to the surface.
	Current State

	// Next is the most recently observed state, and NextTime is when it
	// last changed.
	Next     State
	NextTime time.Time

	// ActionTime is when the user last toggled this action successfully.
	// Zero when no toggle is awaiting its effect.
	ActionTime time.Time
}

// Active reports whether the action currently has an on-screen context.
func (r Record) Active() bool {
	return r.Context != ""
}

// Table holds exactly one Record per Action for the life of the process.
// All access goes through a single mutex.
type Table struct {
	mu      sync.Mutex
	records [Count]Record
}

// NewTable returns a table with every record in its initial state.
func NewTable() *Table {
	return &Table{}
}

// Update runs fn with exclusive access to the record for a. fn must not
// block or call back into the table.
func (t *Table) Update(a Action, fn func(r *Record)) {
	if !a.Valid() {
		panic(fmt.Sprintf("action table: invalid action %d", int(a)))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.records[a])
}

// Snapshot returns a copy of the record for a.
func (t *Table) Snapshot(a Action) Record {
	var out Record
	t.Update(a, func(r *Record) { out = *r })
	return out
}

// Snapshots returns a copy of every record, indexed by slot.
func (t *Table) Snapshots() [Count]Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records
}

// Appear records the on-screen context for a.
func (t *Table) Appear(a Action, context string) {
	t.Update(a, func(r *Record) {
		r.Context = context
	})
}

// Disappear clears the context for a and resets the record so that the
// next appearance starts from a clean slate.
func (t *Table) Disappear(a Action, now time.Time) {
	t.Update(a, func(r *Record) {
		*r = Record{NextTime: now}
	})
}

// MarkToggled records a successful toggle of a that was pressed at
// pressed while the committed status was from. The mark is kept only if
// the committed status is still from; otherwise the effect was already
// committed and there is nothing left to time. It reports whether the
// mark was kept.
func (t *Table) MarkToggled(a Action, from Status, pressed time.Time) bool {
	kept := false
	t.Update(a, func(r *Record) {
		if r.Current.Status != from {
			return
		}
		r.ActionTime = pressed
		kept = true
	})
	return kept
}
