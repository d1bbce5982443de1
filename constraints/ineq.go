package constraints

import (
	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/engine"
	"github.com/AllenZzw/geas/intvar"
	"github.com/AllenZzw/geas/propagator"
)

// notEqual propagates x + offset != y via bounds consistency: whenever
// one side is fixed, the other's bound touching that value is shrunk
// away by one. Grounded on gitrdm-gokando/pkg/minikanren/fd_ineq.go's
// IneqNotEqual two-watched-variable style, adapted from its hole-
// punching sparse domain (this engine's predicates have no native hole
// representation, so only bounds-consistency pruning is possible here,
// per spec.md's non-goal on anything beyond fixed-width interval
// semantics) to atoms and a lazy thunk-backed reason.
type notEqual struct {
	eng    *engine.Engine
	x, y   *intvar.IntVar
	offset int64 // constraint is x+offset != y
}

// PostNotEqual posts x+offset != y.
func PostNotEqual(eng *engine.Engine, x, y *intvar.IntVar, offset int64) bool {
	p := &notEqual{eng: eng, x: x, y: y, offset: offset}
	id := eng.RegisterPropagator(p)
	watchAll(eng, []*intvar.IntVar{x, y}, func() propagator.WatchResult {
		eng.WakePropagator(id)
		return propagator.Keep
	})
	var confl propagator.Explanation
	return p.Propagate(&confl)
}

// pruneFixedSide tries to shrink other away from v (the fixed side's
// value, in other's units: v = fixedVal -/+ offset depending on which
// side is fixed) when other's bound sits exactly on v.
func (p *notEqual) pruneFixedSide(other *intvar.IntVar, v int64, fixedAtoms []atom.Atom) (bool, []atom.Atom) {
	if other.LowerBound() == v {
		reason := append(append([]atom.Atom{}, fixedAtoms...), other.Ge(v))
		if !p.eng.Enqueue(other.Ge(v+1), staticReason(reason)) {
			return false, reason
		}
	}
	if other.UpperBound() == v {
		reason := append(append([]atom.Atom{}, fixedAtoms...), other.Le(v))
		if !p.eng.Enqueue(other.Le(v-1), staticReason(reason)) {
			return false, reason
		}
	}
	return true, nil
}

func (p *notEqual) Propagate(confl *propagator.Explanation) bool {
	if p.x.LowerBound() == p.x.UpperBound() {
		xv := p.x.LowerBound()
		fixedAtoms := []atom.Atom{p.x.Ge(xv), p.x.Le(xv)}
		if ok, reason := p.pruneFixedSide(p.y, xv+p.offset, fixedAtoms); !ok {
			confl.Atoms = append(confl.Atoms, reason...)
			return false
		}
	}
	if p.y.LowerBound() == p.y.UpperBound() {
		yv := p.y.LowerBound()
		fixedAtoms := []atom.Atom{p.y.Ge(yv), p.y.Le(yv)}
		if ok, reason := p.pruneFixedSide(p.x, yv-p.offset, fixedAtoms); !ok {
			confl.Atoms = append(confl.Atoms, reason...)
			return false
		}
	}
	return true
}

func (p *notEqual) Cleanup() {}

func (p *notEqual) RootSimplify() bool { return true }

// PostAllDifferent posts pairwise disequality over xs: a decomposition
// into len(xs)*(len(xs)-1)/2 notEqual propagators, per
// gitrdm-gokando/pkg/minikanren/nvalue.go's simpler all-diff mode and
// spec.md Scenario 3 -- full Regin-style filtering is out of scope (see
// package doc comment).
func PostAllDifferent(eng *engine.Engine, xs []*intvar.IntVar) bool {
	for i := 0; i < len(xs); i++ {
		for j := i + 1; j < len(xs); j++ {
			if !PostNotEqual(eng, xs[i], xs[j], 0) {
				return false
			}
		}
	}
	return true
}
