// Package intvar implements the user-facing integer variable view of
// spec.md section 6's variable & atom API: "create an integer variable
// with [lb, ub]... create a permuted view or offset intvar... sparsify
// a domain... form atoms x <= k, x = k, x >= k; negate an atom."
//
// An IntVar is a thin (predicate, scale, offset) triple over a raw tick
// predicate pair owned by package engine: user_value = tick*scale +
// offset. Views (Offset, Neg) never allocate a new predicate pair --
// they share the base variable's pid and compose a new scale/offset,
// the same "no new engine state, just a different arithmetic lens" idea
// original_source/constraints/arith.cc's free functions apply when
// reading x.lb(s)/x.ub(s) through whatever intvar handle is in scope.
package intvar

import (
	"sort"

	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/engine"
	"github.com/AllenZzw/geas/pval"
)

// IntVar is a bounded integer variable, or an affine view of one.
type IntVar struct {
	eng    *engine.Engine
	pid    pval.Pid
	scale  int64
	offset int64
}

// NewIntVar allocates a fresh predicate pair with initial domain
// [lb, ub] and returns the base (scale 1, offset lb) view over it.
func NewIntVar(eng *engine.Engine, lb, ub int64) *IntVar {
	if ub < lb {
		ub = lb
	}
	pid := eng.NewPredScaled(pval.Val(0), pval.Val(ub-lb), 1, lb)
	return &IntVar{eng: eng, pid: pid, scale: 1, offset: lb}
}

// NewBool allocates a 0/1 IntVar, the intvar package's answer to
// spec.md's "create a Boolean atom": callers wanting the atom itself
// rather than the variable call v.Ge(1) (equivalently v.Eq(1)[1]).
func NewBool(eng *engine.Engine) *IntVar {
	return NewIntVar(eng, 0, 1)
}

// Pid returns the underlying predicate pair's lower-half id, for
// propagator constructors in package constraints that need to attach
// watches directly.
func (v *IntVar) Pid() pval.Pid {
	return v.pid
}

// Offset returns a view of v shifted by k: Offset(k).LowerBound() ==
// v.LowerBound()+k. Shares v's predicate pair; no new engine state.
func (v *IntVar) Offset(k int64) *IntVar {
	return &IntVar{eng: v.eng, pid: v.pid, scale: v.scale, offset: v.offset + k}
}

// Neg returns the permuted view -v. Negation is the permutation this
// package implements concretely; an arbitrary value permutation would
// need its own propagator to enforce the bijection and isn't provided.
func (v *IntVar) Neg() *IntVar {
	return &IntVar{eng: v.eng, pid: v.pid, scale: -v.scale, offset: -v.offset}
}

// LowerBound returns v's current lower bound in user-visible units.
func (v *IntVar) LowerBound() int64 {
	lo := v.tickToUser(v.eng.LowerBound(v.pid))
	hi := v.tickToUser(pval.Max - v.eng.LowerBound(v.pid.Comp()))
	if lo > hi {
		return hi
	}
	return lo
}

// UpperBound returns v's current upper bound in user-visible units.
func (v *IntVar) UpperBound() int64 {
	lo := v.tickToUser(v.eng.LowerBound(v.pid))
	hi := v.tickToUser(pval.Max - v.eng.LowerBound(v.pid.Comp()))
	if lo > hi {
		return lo
	}
	return hi
}

// tickToUser maps a raw tick on v.pid's own scale/offset (not the
// underlying predicate pair's own meta, which NewIntVar sets to
// scale 1/offset lb) into v's view.
func (v *IntVar) tickToUser(t pval.Val) int64 {
	return int64(t)*v.scale + v.offset
}

// userToCeilTick is tickToUser's inverse, valid because every IntVar
// this package produces (base, Offset, or Neg) keeps |scale| == 1, so
// the mapping is exact integer arithmetic with no rounding to pick a
// direction for.
func (v *IntVar) userToCeilTick(x int64) pval.Val {
	if v.scale == 1 {
		return pval.Val(x - v.offset)
	}
	// scale == -1: t = offset - x, and since t must be an integer this
	// is exact either way -- no rounding needed for a unit scale.
	return pval.Val(v.offset - x)
}

// Ge returns the atom "v >= k".
func (v *IntVar) Ge(k int64) atom.Atom {
	if v.scale == 1 {
		return atom.New(v.pid, v.userToCeilTick(k))
	}
	// v = offset - t >= k  <=>  t <= offset-k, a bound on the
	// complementary (upper-bound) predicate half.
	t := v.userToCeilTick(k)
	return atom.New(v.pid.Comp(), pval.Max-t)
}

// Le returns the atom "v <= k", i.e. Ge(k+1).Not().
func (v *IntVar) Le(k int64) atom.Atom {
	return v.Ge(k + 1).Not()
}

// Eq returns the two atoms jointly equivalent to "v == k": v <= k and
// v >= k. Equality is not a single atom in this predicate scheme (only
// threshold comparisons are); callers post both, or combine them with a
// reification propagator from package constraints if they need one
// Boolean standing for the conjunction.
func (v *IntVar) Eq(k int64) [2]atom.Atom {
	return [2]atom.Atom{v.Le(k), v.Ge(k)}
}

// Sparsify restricts eng's domain to the enumerated set vals by posting
// a clause forbidding each integer gap between min(vals) and
// max(vals). Intended for small enumerated domains (spec.md's eager-
// propagation-threshold territory); it allocates one IntVar over
// [min(vals), max(vals)] and excludes every value in that range absent
// from vals, one two-literal clause per excluded value.
func Sparsify(eng *engine.Engine, vals []int64) (*IntVar, bool) {
	if len(vals) == 0 {
		return nil, false
	}
	sorted := append([]int64(nil), vals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	lo, hi := sorted[0], sorted[len(sorted)-1]
	member := make(map[int64]bool, len(sorted))
	for _, x := range sorted {
		member[x] = true
	}

	v := NewIntVar(eng, lo, hi)
	for x := lo; x <= hi; x++ {
		if member[x] {
			continue
		}
		ok, _ := eng.AddClause([]atom.Atom{v.Le(x - 1), v.Ge(x + 1)}, false)
		if !ok {
			return v, false
		}
	}
	return v, true
}
