// Package engine is the inference core spec.md section 2 describes as
// the union of PredState, the inference trail, the watch layer, the
// propagation queues, and conflict analysis. It is the thing a search
// driver (package search) sits on top of and a propagator (package
// propagator, implemented in constraints/) is attached to.
//
// Grounded on EricR-saturday/solver.Solver (solver/solver.go) for the
// overall "one struct owns every array" shape, generalized from a
// single-purpose CNF solver (assigns/trail/reason/level over Booleans)
// to the predicate/atom universe of spec.md, additionally grounded on
// original_source/solver/solver_data.h's solver_data struct, which is
// the same generalization already performed once (by the original
// authors) from a plain SAT solver to an LCG engine -- pred_callbacks,
// pred_queue/pred_queued and prop_queue appear here under their Go
// names; callbacks run directly rather than through a wake queue.
package engine

import (
	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/clause"
	"github.com/AllenZzw/geas/infer"
	"github.com/AllenZzw/geas/predstate"
	"github.com/AllenZzw/geas/propagator"
	"github.com/AllenZzw/geas/pval"
	"github.com/AllenZzw/geas/queue"
	"github.com/AllenZzw/geas/trail"
)

// watchEntry is one registered Attach callback.
type watchEntry struct {
	ev  propagator.Event
	cb  propagator.Callback
	live bool
}

// Engine is the inference core. It never branches and never restarts --
// that is search's job -- but it owns every structure a branching
// decision or a restart must save and restore across a decision level.
type Engine struct {
	PS      *predstate.PredState
	Persist *trail.Trail
	Watches *infer.Infer
	Clauses *clause.DB

	predQ *queue.PredQueue
	propQ *queue.PropQueue

	props []propagator.Propagator

	// predCallbacks[pid] is every Attach(pid, ev, cb) registration still
	// live on that predicate.
	predCallbacks [][]watchEntry

	// Inference trail: parallel slices recording, for each predicate
	// assignment in chronological order, the atom asserted, its
	// predicate's tick immediately before the change, and the reason.
	// This is spec.md section 3's "On the trail, each entry records the
	// predicate, its previous tick, and its reason" -- a structure
	// distinct from trail.Trail (the generic persistence layer used for
	// arbitrary trailed scalars elsewhere in the engine), per spec.md
	// section 2 listing "Trail / Persistence" and "Inference Trail &
	// Watches" as separate components. The atom itself (not just its
	// Pid) is kept because conflict analysis walks this trail backward
	// and needs to know exactly which threshold was asserted at each
	// step, which trailPrev alone (the value *before* the step) cannot
	// recover when a predicate is raised more than once. trailLevel
	// records the decision level live at the moment of each entry.
	trailAtoms   []atom.Atom
	trailPrev    []pval.Val
	trailReason  []propagator.Reason
	trailLevel   []int
	predLevelLim []int

	// predHist[pid] lists, in ascending order, the global trail indices
	// at which pid was assigned -- ascending in both index and tick,
	// since a predicate's bound only ever rises between backtracks. A
	// predicate can be tightened more than once per level (unlike a
	// Boolean SAT variable, which is assigned exactly once until
	// backtracked), so recovering "the level at which atom q became
	// entailed" needs more than a single per-predicate levelOf slot: it
	// needs the level of the *weakest* trail entry that already implies
	// q, found by searching this history for q's threshold. See
	// LevelOfAtom.
	predHist [][]int

	claAct *clause.ActivityTracker

	// predAct is the variable-activity heuristic score, one entry per
	// predicate pair (indexed by pid>>1), bumped by conflict analysis
	// and consulted by brancher.ActivityOrder.
	predAct  []float64
	varInc   float64
	varDecay float64

	abort *bool
}

// New returns an empty Engine. claDecay and varDecay are the clause- and
// variable-activity decay factors (spec.md section 4.6's "a decaying
// factor scales activity between conflicts"), matching the teacher's
// config.ClaDecay/config.VarDecay.
func New(claDecay, varDecay float64) *Engine {
	t := trail.New()
	e := &Engine{
		PS:       predstate.New(),
		Persist:  t,
		Watches:  infer.New(t),
		Clauses:  clause.NewDB(),
		predQ:    queue.NewPredQueue(),
		propQ:    queue.NewPropQueue(),
		claAct:   clause.NewActivityTracker(claDecay),
		varInc:   1.0,
		varDecay: varDecay,
	}
	abort := false
	e.abort = &abort
	return e
}

// AbortFlag returns the pointer solver.Solver.Abort() sets to request a
// clean unwind (spec.md section 5's external abort flag).
func (e *Engine) AbortFlag() *bool {
	return e.abort
}

// Level returns the current decision level.
func (e *Engine) Level() int {
	return e.Persist.Level()
}

// PushLevel opens a new decision level. Every predicate touched during
// the level about to close is snapshotted into PredState's "last level"
// slot first, so propagator explanations that need the bound as of the
// start of the just-finished level (lb_prev/ub_prev in spec.md section
// 4.9) can still see it once this level has moved on.
func (e *Engine) PushLevel() {
	touched := e.Persist.TouchedSince()
	prevLast := make([]pval.Val, len(touched))
	for i, p := range touched {
		prevLast[i] = e.PS.Val(p, predstate.Last)
		e.PS.SetLast(p, e.PS.Val(p, predstate.Current))
	}

	e.predLevelLim = append(e.predLevelLim, len(e.trailAtoms))
	e.Persist.PushLevel()

	// Record the undo after the new level boundary so it fires when
	// backtracking collapses the level just opened, not the one that was
	// ending: "last" must revert to what it was before this PushLevel
	// exactly when the transition it recorded is undone.
	for i, p := range touched {
		old := prevLast[i]
		e.Persist.Push(func() { e.PS.SetLast(p, old) })
	}
}

// BacktrackTo unwinds the engine to decision level, restoring every
// predicate's bound, every trailed scalar, and the inference trail
// itself.
func (e *Engine) BacktrackTo(level int) {
	for len(e.predLevelLim) > level {
		lim := e.predLevelLim[len(e.predLevelLim)-1]
		e.predLevelLim = e.predLevelLim[:len(e.predLevelLim)-1]

		for i := len(e.trailAtoms) - 1; i >= lim; i-- {
			p := e.trailAtoms[i].Pid
			e.PS.SetCurrent(p, e.trailPrev[i])
			hist := e.predHist[p]
			e.predHist[p] = hist[:len(hist)-1]
		}
		e.trailAtoms = e.trailAtoms[:lim]
		e.trailPrev = e.trailPrev[:lim]
		e.trailReason = e.trailReason[:lim]
		e.trailLevel = e.trailLevel[:lim]
	}
	e.Persist.BacktrackTo(level)
	e.predQ.Clear()
}

// NumPreds returns the number of predicate slots allocated.
func (e *Engine) NumPreds() int {
	return e.PS.NumPreds()
}

// NewPred allocates a fresh complementary predicate pair and grows every
// per-predicate side table to match. Only valid at decision level 0, per
// spec.md section 3's lifecycle rule.
func (e *Engine) NewPred(lb, ub pval.Val) pval.Pid {
	return e.NewPredScaled(lb, ub, 1, 0)
}

// NewPredScaled is NewPred plus intvar scale/offset metadata.
func (e *Engine) NewPredScaled(lb, ub pval.Val, scale, offset int64) pval.Pid {
	pid := e.PS.NewPredScaled(lb, ub, scale, offset)
	e.predCallbacks = append(e.predCallbacks, nil, nil)
	e.predHist = append(e.predHist, nil, nil)
	e.predAct = append(e.predAct, 0, 0)
	return pid
}

// RegisterPropagator adds p to the propagator arena and returns its id,
// per spec.md's Design Notes: "construction returns an index handle used
// in callbacks" instead of a raw pointer.
func (e *Engine) RegisterPropagator(p propagator.Propagator) queue.PropID {
	e.props = append(e.props, p)
	return queue.PropID(len(e.props) - 1)
}

// Attach registers cb to fire whenever ev occurs on pid.
func (e *Engine) Attach(pid pval.Pid, ev propagator.Event, cb propagator.Callback) {
	e.predCallbacks[pid] = append(e.predCallbacks[pid], watchEntry{ev: ev, cb: cb, live: true})
}

// WakePropagator marks id pending in the propagator queue.
func (e *Engine) WakePropagator(id queue.PropID) {
	e.propQ.Push(id)
}

// AddClause stores lits as a clause and wires up its initial two
// watches (or enqueues/conflicts immediately if it is unit/empty after
// canonicalization). learnt clauses additionally get their activity
// bumped and participating predicates get their activity bumped, per
// EricR-saturday's newClause (solver/clause.go).
//
// Returns (ok, ref): ok is false only on an empty/contradictory clause
// (root-level conflict); ref is clause.RefNull for a problem clause that
// was satisfied outright or collapsed to a direct unit enqueue (the
// learnt path always returns a real Ref, even for a unit result -- see
// the case 1 branch below).
func (e *Engine) AddClause(lits []atom.Atom, learnt bool) (bool, clause.Ref) {
	lits = append([]atom.Atom(nil), lits...)

	if !learnt {
		lits = e.canonicalize(lits)
		if lits == nil {
			// Tautology or already-satisfied: trivially true, nothing to add.
			return true, clause.RefNull
		}
	}

	switch len(lits) {
	case 0:
		return false, clause.RefNull
	case 1:
		if !learnt {
			return e.Enqueue(lits[0], propagator.FromAtom(lits[0])), clause.RefNull
		}
		// A unit learnt clause still gets a clause object -- no watches
		// (there is nothing to wait on; it is already unit) -- purely so
		// a later conflict's CalcReason(lits[0]) has something to walk.
		// With only one literal, CalcReason correctly returns an empty
		// antecedent: the clause is an unconditional consequence of the
		// analysis that produced it, equivalent to a root-level axiom.
		// The caller (conflict.Analyzer.Record) still does the actual
		// Enqueue, uniformly with the multi-literal case.
		ref := e.Clauses.Alloc(lits, true)
		e.bumpLearntClauseSetup(e.Clauses.Get(ref), lits)
		e.Clauses.AddLearnt(ref)
		return true, ref
	}

	if learnt {
		// Pick a second literal to watch: the one at the
		// second-highest decision level, so the clause becomes unit
		// (asserting lits[0]) the instant BacktrackTo reaches the
		// backjump level. Mirrors EricR-saturday's newClause, which
		// swaps in c.highestDecisionLevelIdx() for learnt clauses only.
		idx := e.highestDecisionLevelIdx(lits)
		lits[1], lits[idx] = lits[idx], lits[1]
	}

	ref := e.Clauses.Alloc(lits, learnt)
	c := e.Clauses.Get(ref)

	if learnt {
		e.bumpLearntClauseSetup(c, lits)
	}

	e.watchPair(ref, c)
	if learnt {
		e.Clauses.AddLearnt(ref)
	} else {
		e.Clauses.AddProblem(ref)
	}
	return true, ref
}

// highestDecisionLevelIdx returns the index of the literal assigned at
// the highest decision level, used to pick a learnt clause's second
// watch. Grounded on EricR-saturday/solver.Clause.highestDecisionLevelIdx.
func (e *Engine) highestDecisionLevelIdx(lits []atom.Atom) int {
	max := -1
	maxIdx := 0
	for i, l := range lits {
		lvl := e.LevelOfAtom(l.Not())
		if lvl > max {
			max = lvl
			maxIdx = i
		}
	}
	return maxIdx
}

// canonicalize mirrors EricR-saturday's newClause dedup/tautology/false-
// literal removal, operating on atoms instead of lits. Returns nil if
// the clause is trivially satisfied or a tautology.
func (e *Engine) canonicalize(lits []atom.Atom) []atom.Atom {
	tmp := &clause.Clause{}
	tmp.SetLits(lits)
	tmp.SortLits()
	lits = tmp.Lits()

	idx := 0
	last := atom.Undef
	for _, p := range lits {
		switch {
		case e.PS.IsEntailed(p):
			return nil
		case !last.IsUndef() && p.Equal(last.Not()):
			return nil
		case e.PS.IsInconsistent(p):
			continue
		}
		lits[idx] = p
		last = p
		idx++
	}
	return lits[:idx]
}

func (e *Engine) watchPair(ref clause.Ref, c *clause.Clause) {
	lits := c.Lits()
	var cref clause.Ref = clause.RefNull
	if len(lits) > 2 {
		cref = ref
	}
	e.Watches.Watch(clause.Head{W: lits[0], E0: lits[1], C: cref})
	e.Watches.Watch(clause.Head{W: lits[1], E0: lits[0], C: cref})
}

func (e *Engine) bumpLearntClauseSetup(c *clause.Clause, lits []atom.Atom) {
	e.claAct.Bump(e.Clauses, c)
	for _, l := range lits {
		e.bumpVarActivity(l.Pid)
	}
}

// bumpVarActivity mirrors EricR-saturday's varBumpActivity/
// varRescaleActivity (solver/solver_heuristics.go): bump pid's activity
// by the current increment, rescaling every predicate's score down if
// the increment would otherwise overflow a float64's useful range. The
// brancher consults predAct directly (via Engine.PredActivity) rather
// than through a heap Engine maintains itself, since the heap belongs
// to whichever brancher.Brancher is in use.
func (e *Engine) bumpVarActivity(pid pval.Pid) {
	idx := int(pid) >> 1
	e.predAct[idx] += e.varInc
	if e.predAct[idx] > 1e100 {
		for i := range e.predAct {
			e.predAct[i] *= 1e-100
		}
		e.varInc *= 1e-100
	}
}

// DecayVarActivity scales the variable-activity increment up, the
// equivalent of scaling every score down, applied once per conflict.
func (e *Engine) DecayVarActivity() {
	e.varInc /= e.varDecay
}

// PredActivity returns pid's current activity score, consulted by
// brancher.ActivityOrder.
func (e *Engine) PredActivity(pid pval.Pid) float64 {
	return e.predAct[int(pid)>>1]
}

// Fixed reports whether pid's pair is fixed (lower bound == upper
// bound), delegating to PredState. Exposed on Engine so brancher.
// ActivityOrder doesn't need to reach through the PS field directly.
func (e *Engine) Fixed(pid pval.Pid) bool {
	return e.PS.Fixed(pid)
}

// LowerBound returns pid's own current raw tick (see
// predstate.PredState.LowerBound): the pair's upper bound is Max minus
// LowerBound(pid.Comp()).
func (e *Engine) LowerBound(pid pval.Pid) pval.Val {
	return e.PS.LowerBound(pid)
}

// Enqueue is spec.md section 4.4's global `enqueue`: assert atom a for
// reason r. If a already holds, this is a no-op success; if a
// contradicts the current bound, it is a conflict (false, no trail
// entry made). Otherwise PS.Post raises the bound, the inference trail
// records (atom, previous tick, reason, level), pid's history gets this
// entry's index appended, and a is pushed onto the predicate queue for
// propagate_pred to pick up.
//
// Grounded on EricR-saturday/solver.Solver.enqueue (solver/solver_propagation.go),
// generalized from a two-valued assignment to a monotone bound raise.
func (e *Engine) Enqueue(a atom.Atom, r propagator.Reason) bool {
	if e.PS.IsEntailed(a) {
		return true
	}
	if e.PS.IsInconsistent(a) {
		return false
	}
	prev := e.PS.Val(a.Pid, predstate.Current)
	e.PS.Post(a)

	idx := len(e.trailAtoms)
	e.trailAtoms = append(e.trailAtoms, a)
	e.trailPrev = append(e.trailPrev, prev)
	e.trailReason = append(e.trailReason, r)
	e.trailLevel = append(e.trailLevel, e.Level())
	e.predHist[a.Pid] = append(e.predHist[a.Pid], idx)

	e.Persist.Touch(a.Pid)
	e.predQ.Push(a.Pid)
	return true
}

// TrailLen, TrailAtom, TrailPrevVal and TrailReason expose the inference
// trail to package conflict's backward walk without exporting the
// slices themselves.
func (e *Engine) TrailLen() int { return len(e.trailAtoms) }

// TrailAtom returns the atom asserted by inference trail entry i.
func (e *Engine) TrailAtom(i int) atom.Atom { return e.trailAtoms[i] }

// TrailPrevVal returns the tick that predicate held immediately before
// inference trail entry i.
func (e *Engine) TrailPrevVal(i int) pval.Val { return e.trailPrev[i] }

// TrailReason returns the reason recorded for inference trail entry i.
func (e *Engine) TrailReason(i int) propagator.Reason { return e.trailReason[i] }

// TrailLevel returns the decision level live at the moment inference
// trail entry i was made.
func (e *Engine) TrailLevel(i int) int { return e.trailLevel[i] }

// LevelOfAtom returns the decision level at which a became entailed: the
// level of the weakest (earliest) trail entry on a.Pid whose asserted
// tick already implies a, found by binary search over predHist since
// ticks only rise between backtracks. Returns 0 if a is implied by the
// root bound alone (no trail entry needed). This is the FD-engine
// analogue of a Boolean SAT solver's `level[var]` lookup, generalized
// because a predicate can be tightened more than once per decision
// level (see the predHist field comment).
func (e *Engine) LevelOfAtom(a atom.Atom) int {
	hist := e.predHist[a.Pid]
	lo, hi := 0, len(hist)
	for lo < hi {
		mid := (lo + hi) / 2
		if e.trailAtoms[hist[mid]].Val >= a.Val {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo == len(hist) {
		return 0
	}
	return e.trailLevel[hist[lo]]
}

// TrailIndexOfAtom returns the trail index of the weakest entry on a.Pid
// that already implies a, by the same binary search LevelOfAtom runs.
// Returns -1 if a is implied by the root bound alone, with no trail
// entry of its own to point at -- the caller's cue to treat a as needing
// no antecedent tracing.
func (e *Engine) TrailIndexOfAtom(a atom.Atom) int {
	hist := e.predHist[a.Pid]
	lo, hi := 0, len(hist)
	for lo < hi {
		mid := (lo + hi) / 2
		if e.trailAtoms[hist[mid]].Val >= a.Val {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo == len(hist) {
		return -1
	}
	return hist[lo]
}

// RestoreForBTPred temporarily rewinds pid to val, for conflict
// analysis's Ex_BTPRED handling (spec.md section 4.9): a thunk whose
// Reason carries propagator.FlagBTPred needs to observe the predicate
// it explains at its pre-inference tick while every other predicate
// stays at its final, conflict-time value. The caller is responsible
// for restoring pid afterward (conflict.Analyzer does so immediately
// after invoking the thunk); this method performs no trailing of its
// own because the rewind is never meant to survive past the thunk call.
func (e *Engine) RestoreForBTPred(pid pval.Pid, val pval.Val) pval.Val {
	cur := e.PS.Val(pid, predstate.Current)
	e.PS.SetCurrent(pid, val)
	return cur
}

// SetCurrentRaw is the unwind half of RestoreForBTPred.
func (e *Engine) SetCurrentRaw(pid pval.Pid, val pval.Val) {
	e.PS.SetCurrent(pid, val)
}

// Propagate drains the predicate queue and the propagator queue to a
// joint fixpoint (spec.md section 4.5): every watch-chain node crossed
// by a predicate's bound change either directly enqueues an
// implication (binary clause), re-watches a long clause on a fresh
// literal, or detects a unit/conflicting clause; every predicate bound
// change also wakes any propagator.Callback Attach registered on it,
// which in turn may push propagators onto the propagator queue. Once
// both queues are empty the fixpoint holds. On conflict, confl is
// filled with the inconsistent atom set and Propagate returns false;
// the predicate queue is left exactly as it was at the moment of
// failure, for search to clear via BacktrackTo.
//
// Grounded on EricR-saturday/solver.Solver.propagate (solver/solver_propagation.go)
// for the outer two-queue drain shape, generalized per spec.md section
// 4.5's description of propagate_pred feeding watch results back into
// both queues before the propagator queue is drained. Propagators are
// popped one at a time rather than as a batch: a propagator can enqueue
// an atom whose watch-chain crossing feeds a predicate the next
// propagator in line depends on, so the predicate queue is re-checked
// after every single dispatch and, if non-empty, drained before any
// further propagator runs. Drain is reserved for cleanupPending.
func (e *Engine) Propagate(confl *propagator.Explanation) bool {
	for {
		for !e.predQ.Empty() {
			pid := e.predQ.Pop()
			bound := e.PS.Val(pid, predstate.Current)
			for _, h := range e.Watches.CrossedSince(pid, bound) {
				if !e.dispatchHead(pid, h, confl) {
					e.cleanupPending()
					return false
				}
			}
			if !e.wakeCallbacks(pid, confl) {
				e.cleanupPending()
				return false
			}
		}
		if e.propQ.Empty() {
			return true
		}
		for !e.propQ.Empty() {
			id := e.propQ.Pop()
			p := e.props[id]
			ok := p.Propagate(confl)
			p.Cleanup()
			if !ok {
				e.cleanupPending()
				return false
			}
			if !e.predQ.Empty() {
				break
			}
		}
	}
}

// cleanupPending runs Cleanup on every propagator still sitting in the
// propagator queue after a conflict aborts the current pass, per
// spec.md section 4.5's "cleanup ... calls cleanup on every still-
// queued propagator". The predicate queue itself is left for the
// caller to clear via BacktrackTo.
func (e *Engine) cleanupPending() {
	for _, id := range e.propQ.Drain() {
		e.props[id].Cleanup()
	}
}

// wakeCallbacks fires every live Attach registration on either half of
// pid's pair appropriate to whichever of EventLB/EventUB/EventLU/EventFix
// the bound change satisfies (a rise of pid's tick is a lower-bound rise
// for pid and an upper-bound fall for pid^1), dropping any callback that
// returns propagator.Drop.
func (e *Engine) wakeCallbacks(pid pval.Pid, confl *propagator.Explanation) bool {
	fixed := e.PS.Fixed(pid)
	for _, q := range [2]pval.Pid{pid, pid.Comp()} {
		entries := e.predCallbacks[q]
		j := 0
		for _, w := range entries {
			if !w.live {
				continue
			}
			relevant := w.ev == propagator.EventLU || (w.ev == propagator.EventFix && fixed) ||
				(w.ev == propagator.EventLB && q == pid) || (w.ev == propagator.EventUB && q != pid)
			if relevant {
				if w.cb() == propagator.Drop {
					w.live = false
				}
			}
			if w.live {
				entries[j] = w
				j++
			}
		}
		e.predCallbacks[q] = entries[:j]
	}
	return true
}

// dispatchHead handles one watch-chain head crossed by pid's bound
// update reaching head.W.Not(): head.W has just become false. A binary
// head (head.C == clause.RefNull) directly enqueues its companion
// literal; a long clause either finds a fresh non-false literal to
// re-watch, detects it is now unit and enqueues lits[0], or -- if
// lits[0] is also false -- reports a conflict via CalcReason.
//
// Grounded on EricR-saturday/solver.Clause.propagate (solver/clause_propagation.go).
func (e *Engine) dispatchHead(firedPid pval.Pid, h clause.Head, confl *propagator.Explanation) bool {
	if h.IsBinary() {
		if e.PS.IsEntailed(h.E0) {
			return true
		}
		if !e.Enqueue(h.E0, propagator.FromAtom(h.W.Not())) {
			confl.Add(h.E0.Not())
			confl.Add(h.W.Not())
			return false
		}
		return true
	}

	c := e.Clauses.Get(h.C)
	lits := c.Lits()
	if lits[0].Equal(h.W) {
		lits[0], lits[1] = lits[1], lits[0]
	}
	if e.PS.IsEntailed(lits[0]) {
		return true
	}
	for i := 2; i < len(lits); i++ {
		if !e.PS.IsInconsistent(lits[i]) {
			lits[1], lits[i] = lits[i], lits[1]
			e.Watches.Unwatch(h.W, func(cand clause.Head) bool { return cand.C == h.C })
			e.Watches.Watch(clause.Head{W: lits[1], E0: lits[0], C: h.C})
			return true
		}
	}
	if !e.Enqueue(lits[0], propagator.FromClause(h.C)) {
		confl.Atoms = append(confl.Atoms, c.CalcReason(e.PS, atom.Undef)...)
		return false
	}
	return true
}
