// Package trail implements the persistence layer of spec.md section 4.2:
// a stack of undo records plus decision-level markers, and a per-level
// "touched" set of predicates used to refresh the Last view cheaply.
//
// Grounded on EricR-saturday/solver.Solver's trailLim/undoOne/cancelUntil
// trio (solver/solver_search.go), generalized from "undo one literal
// assignment" to "undo one arbitrary scalar write", per spec.md section
// 4.2's trail_change/trail_push/push_level/bt_to_level contract.
package trail

import "github.com/AllenZzw/geas/pval"

// Undo is a closure that reverts exactly one trailed write. Entries are
// intentionally closures (not a tagged union of slot kinds) because the
// engine's trailed state spans several unrelated arrays (PredState,
// clause watch heads, propagator scratch fields); a closure lets each
// owner trail its own writes without the trail package knowing their
// shape. This mirrors how the teacher's undoOne reverts a fixed triple
// of arrays, generalized to an open set of owners.
type Undo func()

// Trail is a stack of undo closures plus decision-level boundaries.
type Trail struct {
	entries  []Undo
	levelLim []int
	touched  []pval.Pid
	touchLim []int
}

// New returns an empty Trail.
func New() *Trail {
	return &Trail{}
}

// Level returns the current decision level (0 at the root).
func (t *Trail) Level() int {
	return len(t.levelLim)
}

// PushLevel snapshots the trail size as a new decision-level boundary.
func (t *Trail) PushLevel() {
	t.levelLim = append(t.levelLim, len(t.entries))
	t.touchLim = append(t.touchLim, len(t.touched))
}

// Push records an undo closure without performing any write itself --
// for derived quantities the caller has already mutated directly. This
// is trail_push in spec.md section 4.2.
func (t *Trail) Push(u Undo) {
	t.entries = append(t.entries, u)
}

// Touch records that predicate p changed at the current level, so
// engine.Engine.PushLevel refreshes the Last view only for predicates
// that moved.
func (t *Trail) Touch(p pval.Pid) {
	t.touched = append(t.touched, p)
}

// TouchedSince returns the predicates touched since the most recent
// PushLevel call.
func (t *Trail) TouchedSince() []pval.Pid {
	if len(t.touchLim) == 0 {
		return t.touched
	}
	return t.touched[t.touchLim[len(t.touchLim)-1]:]
}

// BacktrackTo unwinds the trail until exactly level entries of
// decision-level history remain, running every undo closure above that
// point in reverse order. This is bt_to_level in spec.md section 4.2.
func (t *Trail) BacktrackTo(level int) {
	for len(t.levelLim) > level {
		lim := t.levelLim[len(t.levelLim)-1]
		t.levelLim = t.levelLim[:len(t.levelLim)-1]

		for i := len(t.entries) - 1; i >= lim; i-- {
			t.entries[i]()
		}
		t.entries = t.entries[:lim]

		tlim := t.touchLim[len(t.touchLim)-1]
		t.touchLim = t.touchLim[:len(t.touchLim)-1]
		t.touched = t.touched[:tlim]
	}
}

// Size returns the number of pending undo entries.
func (t *Trail) Size() int {
	return len(t.entries)
}
