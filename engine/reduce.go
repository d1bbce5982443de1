package engine

import (
	"sort"

	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/clause"
	"github.com/AllenZzw/geas/propagator"
)

// unwatchClause removes both of c's current watch entries, used before a
// literal-stripping rewrite or an outright eviction changes which atoms
// the clause watches.
func (e *Engine) unwatchClause(ref clause.Ref, c *clause.Clause) {
	lits := c.Lits()
	if len(lits) < 2 {
		return
	}
	// A long clause's two heads share its Ref; a binary (2-literal)
	// clause is inlined (Head.C == RefNull, per watchPair) and can only
	// be identified by its companion literal, the way the clause that
	// was watched is the only one that can have both W == lits[i] and
	// E0 == lits[1-i].
	if len(lits) == 2 {
		e.Watches.Unwatch(lits[0], func(h clause.Head) bool { return h.C == clause.RefNull && h.E0.Equal(lits[1]) })
		e.Watches.Unwatch(lits[1], func(h clause.Head) bool { return h.C == clause.RefNull && h.E0.Equal(lits[0]) })
		return
	}
	e.Watches.Unwatch(lits[0], func(h clause.Head) bool { return h.C == ref })
	e.Watches.Unwatch(lits[1], func(h clause.Head) bool { return h.C == ref })
}

// simplifyClauseSet walks refs (either Problem or Learnts) at level 0,
// deleting any clause with a root-entailed literal outright and
// stripping root-inconsistent literals from the rest, per spec.md
// section 4.7: "each clause whose any literal is root-entailed is
// deleted; literals root-inconsistent are removed". A clause a strip
// leaves at exactly 2 literals needs no special inlining here the way
// the teacher's C-struct clauses would -- clause.Clause already stores
// both the binary and long case uniformly, so re-watching the shrunk
// pair is enough.
func (e *Engine) simplifyClauseSet(refs []clause.Ref) {
	for _, ref := range refs {
		c := e.Clauses.Get(ref)
		if c.Deleted() {
			continue
		}
		lits := c.Lits()

		satisfied := false
		for _, l := range lits {
			if e.PS.IsEntailed(l) {
				satisfied = true
				break
			}
		}
		if satisfied {
			e.unwatchClause(ref, c)
			c.MarkDeleted()
			continue
		}

		kept := make([]atom.Atom, 0, len(lits))
		changed := false
		for _, l := range lits {
			if e.PS.IsInconsistent(l) {
				changed = true
				continue
			}
			kept = append(kept, l)
		}
		if !changed {
			continue
		}
		// Propagate() already ran to fixpoint before simplification, so a
		// clause reaching here with fewer than 2 survivors would mean an
		// undetected root conflict or an unpropagated unit -- neither can
		// happen at a genuine level-0 fixpoint (spec.md P6).
		e.unwatchClause(ref, c)
		c.SetLits(kept)
		e.watchPair(ref, c)
	}
}

// RootSimplify performs spec.md section 4.7's level-0 simplification
// pass: every propagator's own RootSimplify hook runs first (a
// propagator may discharge itself entirely once some root condition
// holds), then the clause database is swept. Returns false if a
// propagator or the subsequent fixpoint detects a root-level conflict.
// A no-op (returns true) away from level 0, mirroring the teacher's
// simplifyDB being something search only ever calls when
// decisionLevel() == 0.
func (e *Engine) RootSimplify(confl *propagator.Explanation) bool {
	if e.Level() != 0 {
		return true
	}
	for _, p := range e.props {
		if !p.RootSimplify() {
			return false
		}
	}
	if !e.Propagate(confl) {
		return false
	}
	e.simplifyClauseSet(e.Clauses.Problem)
	e.simplifyClauseSet(e.Clauses.Learnts)
	e.Clauses.CompactProblem(func(ref clause.Ref) bool { return !e.Clauses.Get(ref).Deleted() })
	e.Clauses.CompactLearnts(func(ref clause.Ref) bool { return !e.Clauses.Get(ref).Deleted() })
	return true
}

// ClauseActivityInc exposes the clause-activity tracker's current
// increment, used by ReduceDB's eviction threshold exactly as
// EricR-saturday's reduceDB consults s.claInc.
func (e *Engine) ClauseActivityInc() float64 {
	return e.claAct.Inc
}

// DecayClauseActivity applies the clause-activity decay, the clause-side
// counterpart of DecayVarActivity, called once per conflict.
func (e *Engine) DecayClauseActivity() {
	e.claAct.ApplyDecay()
}

// ReduceDB evicts roughly the lower half of learnt clauses by activity,
// skipping any clause currently locked -- acting as the reason for its
// own first literal somewhere still live on the trail -- per
// EricR-saturday/solver_db.go's reduceDB. Binary-inlined learnts
// (Len() == 2) are never evicted, matching the teacher's c.Len() > 2
// guard: a 2-literal clause carries no allocation overhead worth
// reclaiming and may be a cheap, frequently-useful implication.
func (e *Engine) ReduceDB() {
	learnts := e.Clauses.Learnts
	if len(learnts) == 0 {
		return
	}

	locked := make(map[clause.Ref]bool, len(e.trailReason))
	for _, r := range e.trailReason {
		if r.Kind == propagator.KindClause {
			locked[r.ClauseRef] = true
		}
	}

	sorted := append([]clause.Ref(nil), learnts...)
	sort.Slice(sorted, func(i, j int) bool {
		return e.Clauses.Get(sorted[i]).Activity() < e.Clauses.Get(sorted[j]).Activity()
	})

	lim := e.claAct.Inc / float64(len(sorted))
	half := len(sorted) / 2
	evict := make(map[clause.Ref]bool)
	for i, ref := range sorted {
		c := e.Clauses.Get(ref)
		if c.Len() > 2 && !locked[ref] && (i < half || c.Activity() < lim) {
			e.unwatchClause(ref, c)
			c.MarkDeleted()
			evict[ref] = true
		}
	}
	if len(evict) == 0 {
		return
	}
	e.Clauses.CompactLearnts(func(ref clause.Ref) bool { return !evict[ref] })
}
