package constraints

import (
	"sort"

	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/engine"
	"github.com/AllenZzw/geas/intvar"
	"github.com/AllenZzw/geas/propagator"
)

// sumLE propagates sum(coeffs[i]*xs[i]) <= k via slack tracking:
// following gitrdm-gokando/pkg/minikanren/sum.go's running-sum style and
// other_examples/crillab-gophersat__learn_pb.go's pseudo-boolean slack
// bookkeeping, generalized from a sum-equals/sum-of-booleans constraint
// to a signed-coefficient linear inequality over bounded intvars.
type sumLE struct {
	eng    *engine.Engine
	coeffs []int64
	xs     []*intvar.IntVar
	k      int64
}

// PostSumLE posts sum(coeffs[i]*xs[i]) <= k. len(coeffs) must equal
// len(xs). Returns false if the constraint is already root-inconsistent.
func PostSumLE(eng *engine.Engine, coeffs []int64, xs []*intvar.IntVar, k int64) bool {
	p := &sumLE{eng: eng, coeffs: coeffs, xs: xs, k: k}
	id := eng.RegisterPropagator(p)
	watchAll(eng, xs, func() propagator.WatchResult {
		eng.WakePropagator(id)
		return propagator.Keep
	})
	var confl propagator.Explanation
	return p.Propagate(&confl)
}

// minContribution returns the smallest value coeffs[i]*xs[i] can take
// given xs[i]'s current bounds, and the atom that justifies it.
func (p *sumLE) minContribution(i int) (int64, atom.Atom) {
	c, x := p.coeffs[i], p.xs[i]
	if c >= 0 {
		lb := x.LowerBound()
		return c * lb, x.Ge(lb)
	}
	ub := x.UpperBound()
	return c * ub, x.Le(ub)
}

func (p *sumLE) Propagate(confl *propagator.Explanation) bool {
	mins := make([]int64, len(p.xs))
	atoms := make([]atom.Atom, len(p.xs))
	var total int64
	for i := range p.xs {
		mins[i], atoms[i] = p.minContribution(i)
		total += mins[i]
	}

	slack := p.k - total
	if slack < 0 {
		confl.Atoms = append(confl.Atoms, atoms...)
		return false
	}

	for i, c := range p.coeffs {
		if c == 0 {
			continue
		}
		reason := make([]atom.Atom, 0, len(atoms)-1)
		for j, a := range atoms {
			if j != i {
				reason = append(reason, a)
			}
		}
		// bound = k - sum_{j!=i} mins[j] = (k - total) + mins[i].
		bound := slack + mins[i]
		if c > 0 {
			newUB := floorDiv(bound, c)
			if newUB < p.xs[i].UpperBound() {
				if !p.eng.Enqueue(p.xs[i].Le(newUB), staticReason(reason)) {
					confl.Atoms = append(confl.Atoms, reason...)
					return false
				}
			}
		} else {
			newLB := ceilDiv(bound, c)
			if newLB > p.xs[i].LowerBound() {
				if !p.eng.Enqueue(p.xs[i].Ge(newLB), staticReason(reason)) {
					confl.Atoms = append(confl.Atoms, reason...)
					return false
				}
			}
		}
	}
	return true
}

func (p *sumLE) Cleanup() {}
func (p *sumLE) RootSimplify() bool { return true }

// blgeTerm is one coefficient/Boolean pair of a boolLinearGE constraint,
// fixed at construction and kept sorted by descending coefficient.
type blgeTerm struct {
	c int64
	x *intvar.IntVar
}

// boolLinearGE propagates z >= k + sum(c_i * bs_i), c_i >= 0, over 0/1
// intvars bs_i, per `_examples/original_source/lib/constraints/bool-linear.cc`'s
// bool_lin_ge::propagate: terms are sorted once by descending
// coefficient; each pass recomputes low (k plus the coefficients of
// terms already forced true) and raises lb(z) to match, then walks the
// sorted terms from the head forcing to false any term whose
// coefficient still exceeds the remaining slack ub(z)-low -- since
// coefficients only decrease along the walk, the first term that fits
// the slack means every later term fits too, so the walk stops there.
// Unlike the original's trailed idx, this walk is recomputed in full on
// every call, matching sumLE's recompute-from-bounds style rather than
// carrying incremental trailed state.
type boolLinearGE struct {
	eng   *engine.Engine
	z     *intvar.IntVar
	k     int64
	terms []blgeTerm
}

// PostBoolLinearGE posts z >= k + sum(coeffs[i]*bs[i]). Every element of
// bs must be a 0/1 intvar (see intvar.NewBool) and every coefficient
// must be non-negative; a constraint needing negative coefficients must
// rewrite them against the complementary Boolean before posting.
func PostBoolLinearGE(eng *engine.Engine, z *intvar.IntVar, coeffs []int64, bs []*intvar.IntVar, k int64) bool {
	terms := make([]blgeTerm, len(bs))
	for i, b := range bs {
		terms[i] = blgeTerm{c: coeffs[i], x: b}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].c > terms[j].c })

	p := &boolLinearGE{eng: eng, z: z, k: k, terms: terms}
	id := eng.RegisterPropagator(p)
	watched := append(append([]*intvar.IntVar(nil), bs...), z)
	watchAll(eng, watched, func() propagator.WatchResult {
		eng.WakePropagator(id)
		return propagator.Keep
	})
	var confl propagator.Explanation
	return p.Propagate(&confl)
}

func (p *boolLinearGE) Propagate(confl *propagator.Explanation) bool {
	low := p.k
	var trueAtoms []atom.Atom
	for _, t := range p.terms {
		if t.x.LowerBound() == 1 {
			low += t.c
			trueAtoms = append(trueAtoms, t.x.Ge(1))
		}
	}

	if !p.eng.Enqueue(p.z.Ge(low), staticReason(trueAtoms)) {
		confl.Atoms = append(confl.Atoms, trueAtoms...)
		return false
	}

	slack := p.z.UpperBound() - low
	reason := append(append([]atom.Atom(nil), trueAtoms...), p.z.Le(p.z.UpperBound()))
	for _, t := range p.terms {
		if t.c <= slack {
			break
		}
		if t.x.UpperBound() == 0 || t.x.LowerBound() == 1 {
			continue
		}
		if !p.eng.Enqueue(t.x.Le(0), staticReason(reason)) {
			confl.Atoms = append(confl.Atoms, reason...)
			return false
		}
	}
	return true
}

func (p *boolLinearGE) Cleanup() {}
func (p *boolLinearGE) RootSimplify() bool { return true }
