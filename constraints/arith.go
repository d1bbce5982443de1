package constraints

import (
	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/engine"
	"github.com/AllenZzw/geas/intvar"
	"github.com/AllenZzw/geas/propagator"
)

// productNonNeg propagates z = x*y for x, y >= 0, the nonneg
// specialization original_source/constraints/arith.cc's iprod_nonneg
// names directly. Interval-bound propagation follows
// gitrdm-gokando/pkg/minikanren/interval_arithmetic.go's multiply/divide
// shape: z's bounds from x*y, and each factor's bounds -- both upper and
// lower -- back out via division against the other factor and z.
type productNonNeg struct {
	eng     *engine.Engine
	z, x, y *intvar.IntVar
}

// PostProductNonNeg posts z = x*y, requiring x.LowerBound() >= 0 and
// y.LowerBound() >= 0 to already hold at post time.
func PostProductNonNeg(eng *engine.Engine, z, x, y *intvar.IntVar) bool {
	if x.LowerBound() < 0 || y.LowerBound() < 0 {
		return false
	}
	p := &productNonNeg{eng: eng, z: z, x: x, y: y}
	id := eng.RegisterPropagator(p)
	watchAll(eng, []*intvar.IntVar{z, x, y}, func() propagator.WatchResult {
		eng.WakePropagator(id)
		return propagator.Keep
	})
	var confl propagator.Explanation
	return p.Propagate(&confl)
}

func (p *productNonNeg) Propagate(confl *propagator.Explanation) bool {
	xlb, xub := p.x.LowerBound(), p.x.UpperBound()
	ylb, yub := p.y.LowerBound(), p.y.UpperBound()
	xAtoms := []atom.Atom{p.x.Ge(xlb), p.x.Le(xub)}
	yAtoms := []atom.Atom{p.y.Ge(ylb), p.y.Le(yub)}

	if !p.eng.Enqueue(p.z.Ge(xlb*ylb), staticReason(append(append([]atom.Atom{}, xAtoms...), yAtoms...))) {
		confl.Atoms = append(confl.Atoms, xAtoms...)
		confl.Atoms = append(confl.Atoms, yAtoms...)
		return false
	}
	if !p.eng.Enqueue(p.z.Le(xub*yub), staticReason(append(append([]atom.Atom{}, xAtoms...), yAtoms...))) {
		confl.Atoms = append(confl.Atoms, xAtoms...)
		confl.Atoms = append(confl.Atoms, yAtoms...)
		return false
	}

	zlb, zub := p.z.LowerBound(), p.z.UpperBound()
	zAtoms := []atom.Atom{p.z.Ge(zlb), p.z.Le(zub)}

	if ylb > 0 {
		newXub := floorDiv(zub, ylb)
		if newXub < xub {
			r := append(append([]atom.Atom{}, zAtoms...), p.y.Ge(ylb))
			if !p.eng.Enqueue(p.x.Le(newXub), staticReason(r)) {
				confl.Atoms = append(confl.Atoms, r...)
				return false
			}
		}
	}
	if xlb > 0 {
		newYub := floorDiv(zub, xlb)
		if newYub < yub {
			r := append(append([]atom.Atom{}, zAtoms...), p.x.Ge(xlb))
			if !p.eng.Enqueue(p.y.Le(newYub), staticReason(r)) {
				confl.Atoms = append(confl.Atoms, r...)
				return false
			}
		}
	}

	if yub > 0 && zlb > 0 {
		newXlb := ceilDiv(zlb, yub)
		if newXlb > xlb {
			r := append(append([]atom.Atom{}, zAtoms...), p.y.Le(yub))
			if !p.eng.Enqueue(p.x.Ge(newXlb), staticReason(r)) {
				confl.Atoms = append(confl.Atoms, r...)
				return false
			}
		}
	}
	if xub > 0 && zlb > 0 {
		newYlb := ceilDiv(zlb, xub)
		if newYlb > ylb {
			r := append(append([]atom.Atom{}, zAtoms...), p.x.Le(xub))
			if !p.eng.Enqueue(p.y.Ge(newYlb), staticReason(r)) {
				confl.Atoms = append(confl.Atoms, r...)
				return false
			}
		}
	}
	return true
}

func (p *productNonNeg) Cleanup() {}

func (p *productNonNeg) RootSimplify() bool { return true }

// absVal propagates z = |x|, interval-bound only (see ineq.go's
// notEqual doc comment on the same hole-free limitation): it tightens
// z's bounds from x's and x's bounds from z's upper bound, but does not
// split x's domain around zero the way a full abs filtering algorithm
// would once z's lower bound rises above 0. Grounded on
// gitrdm-gokando/pkg/minikanren/relational_arithmetic.go's bound-
// propagation style for derived arithmetic relations.
type absVal struct {
	eng  *engine.Engine
	z, x *intvar.IntVar
}

// PostAbs posts z = |x|.
func PostAbs(eng *engine.Engine, z, x *intvar.IntVar) bool {
	p := &absVal{eng: eng, z: z, x: x}
	id := eng.RegisterPropagator(p)
	watchAll(eng, []*intvar.IntVar{z, x}, func() propagator.WatchResult {
		eng.WakePropagator(id)
		return propagator.Keep
	})
	var confl propagator.Explanation
	return p.Propagate(&confl)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (p *absVal) Propagate(confl *propagator.Explanation) bool {
	xlb, xub := p.x.LowerBound(), p.x.UpperBound()
	xAtoms := []atom.Atom{p.x.Ge(xlb), p.x.Le(xub)}

	var newZlb int64
	if xlb <= 0 && xub >= 0 {
		newZlb = 0
	} else {
		newZlb = minI64(abs64(xlb), abs64(xub))
	}
	newZub := maxI64(abs64(xlb), abs64(xub))

	if !p.eng.Enqueue(p.z.Ge(newZlb), staticReason(xAtoms)) {
		confl.Atoms = append(confl.Atoms, xAtoms...)
		return false
	}
	if !p.eng.Enqueue(p.z.Le(newZub), staticReason(xAtoms)) {
		confl.Atoms = append(confl.Atoms, xAtoms...)
		return false
	}

	zub := p.z.UpperBound()
	zAtoms := []atom.Atom{p.z.Le(zub)}
	if xlb < -zub {
		if !p.eng.Enqueue(p.x.Ge(-zub), staticReason(zAtoms)) {
			confl.Atoms = append(confl.Atoms, zAtoms...)
			return false
		}
	}
	if xub > zub {
		if !p.eng.Enqueue(p.x.Le(zub), staticReason(zAtoms)) {
			confl.Atoms = append(confl.Atoms, zAtoms...)
			return false
		}
	}
	return true
}

func (p *absVal) Cleanup() {}

func (p *absVal) RootSimplify() bool { return true }

// maxOf propagates z = max(xs...) via candidate-set maintenance per
// gitrdm-gokando/pkg/minikanren/minmax.go, adapted to spec.md section
// 4.9's maybe_max sparse-set design: a variable is a "maybe-max
// candidate" while its upper bound can still reach z's lower bound;
// once exactly one candidate remains, it alone is forced to realize the
// max.
type maxOf struct {
	eng *engine.Engine
	z   *intvar.IntVar
	xs  []*intvar.IntVar
}

// PostMax posts z = max(xs...). xs must be non-empty.
func PostMax(eng *engine.Engine, z *intvar.IntVar, xs []*intvar.IntVar) bool {
	if len(xs) == 0 {
		return false
	}
	p := &maxOf{eng: eng, z: z, xs: xs}
	id := eng.RegisterPropagator(p)
	watchAll(eng, append([]*intvar.IntVar{z}, xs...), func() propagator.WatchResult {
		eng.WakePropagator(id)
		return propagator.Keep
	})
	var confl propagator.Explanation
	return p.Propagate(&confl)
}

func (p *maxOf) Propagate(confl *propagator.Explanation) bool {
	lbs := make([]int64, len(p.xs))
	ubs := make([]int64, len(p.xs))
	atoms := make([]atom.Atom, len(p.xs))
	newZlb, newZub := p.xs[0].LowerBound(), p.xs[0].UpperBound()
	for i, x := range p.xs {
		lbs[i], ubs[i] = x.LowerBound(), x.UpperBound()
		atoms[i] = x.Le(ubs[i])
		newZlb = maxI64(newZlb, lbs[i])
		newZub = maxI64(newZub, ubs[i])
	}

	if !p.eng.Enqueue(p.z.Ge(newZlb), staticReason([]atom.Atom{p.xs[argmax(lbs)].Ge(newZlb)})) {
		confl.Atoms = append(confl.Atoms, p.xs[argmax(lbs)].Ge(newZlb))
		return false
	}
	if !p.eng.Enqueue(p.z.Le(newZub), staticReason(atoms)) {
		confl.Atoms = append(confl.Atoms, atoms...)
		return false
	}

	for i, x := range p.xs {
		if ubs[i] > newZub {
			if !p.eng.Enqueue(x.Le(newZub), staticReason([]atom.Atom{p.z.Le(newZub)})) {
				confl.Atoms = append(confl.Atoms, p.z.Le(newZub))
				return false
			}
		}
	}

	zlb := p.z.LowerBound()
	candidate := -1
	ambiguous := false
	for i := range p.xs {
		if ubs[i] >= zlb {
			if candidate >= 0 {
				ambiguous = true
				break
			}
			candidate = i
		}
	}
	if !ambiguous && candidate >= 0 && lbs[candidate] < zlb {
		reason := []atom.Atom{p.z.Ge(zlb)}
		for i, x := range p.xs {
			if i != candidate {
				reason = append(reason, x.Le(ubs[i]))
			}
		}
		if !p.eng.Enqueue(p.xs[candidate].Ge(zlb), staticReason(reason)) {
			confl.Atoms = append(confl.Atoms, reason...)
			return false
		}
	}
	return true
}

func argmax(vs []int64) int {
	best := 0
	for i, v := range vs {
		if v > vs[best] {
			best = i
		}
	}
	return best
}

func (p *maxOf) Cleanup() {}

func (p *maxOf) RootSimplify() bool { return true }
