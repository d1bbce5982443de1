// Package model implements spec.md section 6's get_model() snapshot:
// "snapshot of values for all predicates after SAT."
//
// Grounded on EricR-saturday/solver.Solver.model (a map[int]bool
// snapshotting every variable's assignment) and Answer (which turns
// that map into a user-facing value list) -- generalized from a
// Boolean-per-variable map to an integer-per-predicate-pair map, since
// this engine's "variables" are finite-domain intvars rather than plain
// Booleans.
package model

import "github.com/AllenZzw/geas/pval"

// Model is an immutable snapshot of every predicate pair's fixed value
// at the point get_model() was called, keyed by the pair's lower-half
// Pid, in user-visible units (already passed through the owning
// intvar's scale/offset by the caller that built this snapshot).
type Model struct {
	values map[pval.Pid]int64
}

// New returns a Model over the given lower-half-Pid -> user-value map.
// The solver facade builds values once search reports SAT, by passing
// every predicate pair's current lower-half tick through that pair's
// scale/offset; every pair is fixed at that point.
func New(values map[pval.Pid]int64) *Model {
	return &Model{values: values}
}

// Value returns the snapshotted value for the predicate pair pid, and
// whether pid was present in the snapshot.
func (m *Model) Value(pid pval.Pid) (int64, bool) {
	v, ok := m.values[pid]
	return v, ok
}

// Len returns the number of predicate pairs captured.
func (m *Model) Len() int {
	return len(m.values)
}

// Pids returns every predicate pair captured, in no particular order.
func (m *Model) Pids() []pval.Pid {
	out := make([]pval.Pid, 0, len(m.values))
	for p := range m.values {
		out = append(out, p)
	}
	return out
}
