// Package conflict implements the 1-UIP conflict analysis of spec.md
// section 4.6/4.9: given the atoms a failed Propagate left inconsistent,
// walk the inference trail backward to find the first unique implication
// point and produce a learnt clause plus the level to backjump to.
//
// Grounded on EricR-saturday/solver.Solver.analyze (solver/solver_analysis.go)
// for the seen-set/counter/trail-walk shape, generalized in three ways
// the teacher's pure-Boolean analysis does not need:
//
//   - antecedents are atoms on an ordered domain rather than Boolean
//     literals, so "the level at which q became entailed" is not a
//     single per-variable lookup (engine.Engine.LevelOfAtom, not
//     engine.Engine's retired single-level-per-pid slot);
//   - a reason can be a lazy thunk (propagator.Reason's KindThunk) that,
//     when tagged propagator.FlagBTPred, must see its owning predicate
//     rewound to its pre-inference tick (spec.md section 4.9's
//     Ex_BTPRED) while every other predicate stays at its final value;
//   - analysis here never mutates engine state as it walks (the
//     teacher's analyze calls s.undoOne() on every trail pop, piggy-
//     backing physical backtracking onto the scan). That shortcut works
//     for MiniSat because calcReason never needs "the current bound of
//     some other variable" -- only the clause's own literal list. An FD
//     explanation thunk can legitimately need exactly that (the final,
//     conflict-time bound of a predicate untouched by BTPRED), so this
//     analyzer is read-only: BacktrackTo is the caller's job, done once
//     after Analyze returns the backjump level.
package conflict

import (
	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/engine"
	"github.com/AllenZzw/geas/propagator"
)

// Analyzer holds the scratch state reused across conflict analyses so
// repeated conflicts during one search don't reallocate it.
type Analyzer struct {
	eng     *engine.Engine
	seen    []bool
	counted []bool
}

// New returns an Analyzer bound to eng.
func New(eng *engine.Engine) *Analyzer {
	return &Analyzer{eng: eng}
}

func (an *Analyzer) ensureSeen() {
	n := an.eng.NumPreds()
	if len(an.seen) >= n {
		for i := range an.seen {
			an.seen[i] = false
			an.counted[i] = false
		}
		return
	}
	an.seen = make([]bool, n)
	an.counted = make([]bool, n)
}

// Analyze performs 1-UIP analysis given the antecedent atom set a failed
// Propagate call left in its Explanation. It returns the learnt clause
// (element 0 is the asserting literal -- the negation of the UIP) and
// the decision level to backjump to. The caller is responsible for
// calling engine.Engine.BacktrackTo(level) and then recording the
// learnt clause (engine.Engine.AddClause) afterward; Analyze itself
// never mutates engine state.
//
// Dedup (the `seen` set) is keyed per predicate, first-occurrence-wins:
// once an antecedent atom on some pid has been folded into the learnt
// clause or counted toward the current level, later (necessarily
// weaker-or-unrelated) antecedents on that same pid during this same
// analysis are skipped. This is sound -- engine.Engine.LevelOfAtom
// always computes a correct level for whichever atom is kept -- but not
// minimal: EricR-saturday's per-variable seen set never faces this
// because a Boolean variable has only one literal live at a time, while
// a predicate's bound can be referenced at more than one threshold
// across a single analysis pass. A real LCG engine would track the
// strongest atom seen per predicate and upgrade in place; this analyzer
// takes the simpler, still-sound approximation.
//
// `seen` and `counted` are tracked separately because a predicate can
// carry more than one trail entry across the analysis: `seen` is the
// dedup bit (don't re-trace a pid already folded in one way or the
// other), while `counted` marks only the pids that actually incremented
// `counter` (current-level antecedents). The backward trail walk must
// stop only at a `counted` pid's entry -- that is the one whose
// reasonAtoms caused the increment being resolved. Stopping at a merely
// `seen` (lower-level, already in `learnt`) pid instead would decrement
// `counter` for an entry that never incremented it, let the walk exit
// early, and drop a still-unresolved current-level antecedent's
// negation out of `learnt` -- a learnt clause no longer entailed by the
// problem.
func (an *Analyzer) Analyze(initial []atom.Atom) ([]atom.Atom, int) {
	an.ensureSeen()
	eng := an.eng

	curLevel := eng.Level()
	counter := 0
	btLevel := 0
	learnt := []atom.Atom{atom.Undef}

	trace := func(reason []atom.Atom) {
		for _, q := range reason {
			if an.seen[q.Pid] {
				continue
			}
			an.seen[q.Pid] = true
			lvl := eng.LevelOfAtom(q)
			switch {
			case lvl == curLevel:
				an.counted[q.Pid] = true
				counter++
			case lvl > 0:
				learnt = append(learnt, q.Not())
				if lvl > btLevel {
					btLevel = lvl
				}
			}
			// lvl == 0: implied by the root bound alone, needs no
			// literal in the learnt clause.
		}
	}

	trace(initial)

	idx := eng.TrailLen()
	var p atom.Atom
	for {
		idx--
		p = eng.TrailAtom(idx)
		for !an.counted[p.Pid] {
			idx--
			p = eng.TrailAtom(idx)
		}
		an.counted[p.Pid] = false
		counter--
		if counter == 0 {
			break
		}
		trace(an.reasonAtoms(idx))
	}

	learnt[0] = p.Not()
	return learnt, btLevel
}

// AnalyzeEntailed runs 1-UIP analysis on the antecedent of entailed, an
// atom that is already true on the trail rather than the antecedent set
// of a failed Propagate call. Used when an assumption is rejected before
// any propagation runs (spec.md section 4.8): there is no
// propagator.Explanation to analyze, only the trail entry that made
// entailed true, so Analyze is handed that entry's own reasonAtoms
// rather than entailed itself -- passing entailed directly would have
// Analyze immediately rediscover entailed's own trail entry as the UIP
// and return without ever tracing what made it true. Returns a nil
// learnt clause and level 0 if entailed needs no trail entry (it holds
// from the root bound alone).
func (an *Analyzer) AnalyzeEntailed(entailed atom.Atom) ([]atom.Atom, int) {
	idx := an.eng.TrailIndexOfAtom(entailed)
	if idx < 0 {
		return nil, 0
	}
	return an.Analyze(an.reasonAtoms(idx))
}

// Record backtracks to level and commits learnt as a new learnt clause,
// asserting its first literal with the new clause as the reason.
// Mirrors EricR-saturday/solver.Solver.record (solver/solver_analysis.go);
// unlike the teacher, AddClause always returns a real clause.Ref here
// (even for a unit learnt clause -- see AddClause's case 1), so the
// asserting literal's reason is uniformly propagator.FromClause.
func (an *Analyzer) Record(learnt []atom.Atom, level int) {
	eng := an.eng
	eng.BacktrackTo(level)

	ok, ref := eng.AddClause(learnt, true)
	if !ok {
		return
	}
	eng.Enqueue(learnt[0], propagator.FromClause(ref))
}

// reasonAtoms materializes the antecedent of the atom asserted by
// inference trail entry idx.
func (an *Analyzer) reasonAtoms(idx int) []atom.Atom {
	eng := an.eng
	a := eng.TrailAtom(idx)
	r := eng.TrailReason(idx)

	switch r.Kind {
	case propagator.KindClause:
		return eng.Clauses.Get(r.ClauseRef).CalcReason(eng.PS, a)
	case propagator.KindAtom:
		return []atom.Atom{r.At}
	case propagator.KindThunk:
		var out []atom.Atom
		if r.Flag&propagator.FlagBTPred != 0 {
			prev := eng.TrailPrevVal(idx)
			saved := eng.RestoreForBTPred(a.Pid, prev)
			r.Fn(r.Data, a.Val, &out)
			eng.SetCurrentRaw(a.Pid, saved)
		} else {
			r.Fn(r.Data, a.Val, &out)
		}
		return out
	default: // KindDecision
		return nil
	}
}
