// Package constraints implements the propagator "recipes" spec.md
// section 1 treats as out-of-core collaborators but section 6 lists as
// an external posting interface: idempotent functions that construct
// propagators or clauses and report success/failure, failure meaning
// root-level inconsistency.
//
// Every propagator here registers itself with an *engine.Engine via
// RegisterPropagator, attaches bound-change watches on every predicate
// it reads, and re-derives its local fixpoint from scratch on each
// Propagate call rather than tracking incremental deltas -- a
// deliberate simplification relative to a specialized incremental
// filtering algorithm (Regin-style all-different, AC-3 arc revision),
// consistent with spec.md's non-goal on "elaborate global-constraint
// filtering": these recipes are the bounds-consistency propagators
// spec.md's scenarios actually exercise, not a general CP solver.
package constraints

import (
	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/engine"
	"github.com/AllenZzw/geas/intvar"
	"github.com/AllenZzw/geas/propagator"
	"github.com/AllenZzw/geas/pval"
)

// staticReason builds a Reason around a fixed snapshot of antecedent
// atoms, taken at the moment propagation derived them. Since every
// antecedent here is a monotone bound fact (a predicate's lower bound
// only rises, its upper bound only falls), the atom stays entailed for
// the rest of search -- so a thunk that just replays the snapshot
// satisfies spec.md's P4 (every atom an explanation returns must be
// entailed when returned) without needing FlagBTPred rewind.
func staticReason(atoms []atom.Atom) propagator.Reason {
	return propagator.FromThunk(func(data any, _ pval.Val, out *[]atom.Atom) {
		*out = append(*out, data.([]atom.Atom)...)
	}, atoms, propagator.FlagNone)
}

// watchAll attaches cb to every variable in vs for both bound
// directions -- the common case for a propagator that must be woken no
// matter which side of any of its variables' domains moves.
func watchAll(eng *engine.Engine, vs []*intvar.IntVar, cb propagator.Callback) {
	for _, v := range vs {
		eng.Attach(v.Pid(), propagator.EventLU, cb)
	}
}

// floorDiv and ceilDiv implement integer division rounding toward
// negative/positive infinity respectively, needed throughout because
// Go's native / truncates toward zero, which is wrong for the negative
// operands linear-constraint propagation produces routinely.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
