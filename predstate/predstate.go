// Package predstate holds the three parallel bound arrays spec.md section
// 4.1 describes -- p_root, p_last, p_vals -- plus the per-predicate
// scale/offset metadata that lets an intvar recover user-visible integer
// semantics from raw ticks.
//
// Grounded on EricR-saturday/solver.Solver's assigns/level/reason triple
// of parallel slices (solver/solver.go): PredState generalizes that
// pattern from a single tribool-valued array to three pval.Val arrays per
// predicate, per spec.md section 4.1.
package predstate

import (
	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/pval"
)

// View selects which of the three bound arrays a query is made against.
type View int

const (
	// Current is the live bound, mutated during search.
	Current View = iota
	// Root is the decision-level-0 bound.
	Root
	// Last is the bound as of the previous decision level.
	Last
)

// meta carries the scale/offset needed to translate between raw ticks and
// user-visible integers for one predicate.
type meta struct {
	offset int64
	scale  int64
}

// PredState owns the bound arrays for every predicate allocated in the
// solver. Predicates are allocated in complementary pairs; index 2k is
// the lower-bound half, 2k+1 the upper-bound half.
type PredState struct {
	pRoot []pval.Val
	pLast []pval.Val
	pVals []pval.Val
	meta  []meta
}

// New returns an empty PredState.
func New() *PredState {
	return &PredState{}
}

// NewPred allocates a fresh complementary predicate pair with initial
// bounds [lb, ub] (in raw ticks) and returns the lower-bound half's Pid.
// Per spec.md section 3 lifecycle rules, this must only be called at
// decision level 0.
func (ps *PredState) NewPred(lb, ub pval.Val) pval.Pid {
	return ps.NewPredScaled(lb, ub, 1, 0)
}

// NewPredScaled is NewPred plus the scale/offset metadata an intvar needs
// to translate between ticks and user integers: user_int = tick*scale +
// offset for the lower half.
func (ps *PredState) NewPredScaled(lb, ub pval.Val, scale, offset int64) pval.Pid {
	pid := pval.Pid(len(ps.pVals))

	ps.pRoot = append(ps.pRoot, lb, pval.Max-ub)
	ps.pLast = append(ps.pLast, lb, pval.Max-ub)
	ps.pVals = append(ps.pVals, lb, pval.Max-ub)
	ps.meta = append(ps.meta, meta{offset: offset, scale: scale}, meta{offset: offset, scale: scale})

	return pid
}

// NumPreds returns the number of predicate slots (twice the number of
// pairs) currently allocated.
func (ps *PredState) NumPreds() int {
	return len(ps.pVals)
}

// Val returns the raw tick of p in the requested view.
func (ps *PredState) Val(p pval.Pid, v View) pval.Val {
	switch v {
	case Root:
		return ps.pRoot[p]
	case Last:
		return ps.pLast[p]
	default:
		return ps.pVals[p]
	}
}

// SetCurrent unconditionally overwrites p's current tick. Callers outside
// this package should route through Post so the trail can record the
// prior value; this is exposed for the trail's undo closures and for
// BTPRED replay in conflict analysis.
func (ps *PredState) SetCurrent(p pval.Pid, v pval.Val) {
	ps.pVals[p] = v
}

// SetLast snapshots p's current tick into the "last level" slot. Called
// by the trail at each push_level.
func (ps *PredState) SetLast(p pval.Pid, v pval.Val) {
	ps.pLast[p] = v
}

// SetRoot commits p's current tick as the new root bound. Only valid at
// decision level 0.
func (ps *PredState) SetRoot(p pval.Pid, v pval.Val) {
	ps.pRoot[p] = v
}

// IsEntailed reports whether a is currently implied by the state:
// p_vals[a.Pid] >= a.Val.
func (ps *PredState) IsEntailed(a atom.Atom) bool {
	return ps.pVals[a.Pid] >= a.Val
}

// IsInconsistent reports whether a's negation is currently entailed:
// p_vals[a.Pid^1] >= Max - a.Val + 1.
func (ps *PredState) IsInconsistent(a atom.Atom) bool {
	return ps.IsEntailed(a.Not())
}

// IsEntailedRoot and IsInconsistentRoot mirror IsEntailed/IsInconsistent
// against the root (decision-level-0) bounds, used by root simplification.
func (ps *PredState) IsEntailedRoot(a atom.Atom) bool {
	return ps.pRoot[a.Pid] >= a.Val
}

func (ps *PredState) IsInconsistentRoot(a atom.Atom) bool {
	return ps.IsEntailedRoot(a.Not())
}

// Fixed reports whether p's forward and inverse ticks sum to Max, i.e.
// lower bound == upper bound.
func (ps *PredState) Fixed(p pval.Pid) bool {
	return pval.Max-ps.pVals[p] == ps.pVals[p.Comp()]
}

// LowerBound returns p's own current tick: the pair's lower bound when p
// is the lower half, Max minus the pair's upper bound when p is the
// upper half.
func (ps *PredState) LowerBound(p pval.Pid) pval.Val {
	return ps.pVals[p]
}

// UpperBound returns the largest tick p can still reach: Max minus the
// complementary half's tick (the pair's upper bound when p is the lower
// half).
func (ps *PredState) UpperBound(p pval.Pid) pval.Val {
	return pval.Max - ps.pVals[p.Comp()]
}

// ToUser translates a raw tick on predicate p's lower half into the
// user-visible integer, via that predicate's scale/offset.
func (ps *PredState) ToUser(p pval.Pid, v pval.Val) int64 {
	lowerHalf := p
	if !p.IsLower() {
		lowerHalf = p.Comp()
	}
	m := ps.meta[lowerHalf]
	return int64(v)*m.scale + m.offset
}

// Post raises the lower bound stored at a.Pid to a.Val if doing so keeps
// the predicate consistent (p_vals[a.Pid] + p_vals[a.Pid^1] <= Max),
// and reports success. On failure the state is left untouched.
//
// Post does not consult or update the trail; callers that need
// backtracking (i.e. everyone except decision-level-0 setup) must record
// the prior value themselves before calling Post. See engine.Engine.Enqueue
// for the composed operation.
func (ps *PredState) Post(a atom.Atom) bool {
	if ps.pVals[a.Pid] >= a.Val {
		// Already entailed; no-op success.
		return true
	}
	if ps.pVals[a.Pid.Comp()] >= pval.Inv(a.Val) {
		// Would violate the complementary-pair invariant.
		return false
	}
	ps.pVals[a.Pid] = a.Val
	return true
}
