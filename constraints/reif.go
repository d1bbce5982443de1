package constraints

import (
	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/engine"
	"github.com/AllenZzw/geas/intvar"
	"github.com/AllenZzw/geas/propagator"
	"github.com/AllenZzw/geas/queue"
)

// reifState tracks how much of a reified constraint remains to be
// discharged, mirroring other_examples/crillab-gophersat__constr.go's
// constraint lifecycle tracking (there: watched/satisfied/unit/conflicting
// for a clause; here: the same idea applied to a half-reification),
// adapted to spec.md section 4.9's None -> Active -> Red shape.
type reifState uint8

const (
	// reifNone: neither side has moved since post time. Only a single
	// "cut" watch is installed -- x's EventLU, checking whether x's own
	// bounds have crossed k, plus a cheap one-shot EventFix on b -- so
	// detecting that the constraint has become worth running is a single
	// comparison rather than four separately-watched directions.
	reifNone reifState = iota
	// reifActive: the cut fired (x crossed k, or b got fixed, without
	// either side being fully resolved in one step); the full watch set
	// -- b's EventLU alongside x's -- is installed and every Propagate
	// re-checks all four discharge conditions below.
	reifActive
	// reifRed: the constraint has been discharged (both directions
	// already hold or cannot be violated) and no longer needs to run.
	reifRed
)

// reifiedLE propagates b <=> (x <= k): a full reification, unlike the
// implication-only ("half-reified") posting spec.md section 6 allows
// for constraints where full reification can't be approximated cheaply.
// A threshold comparison reifies exactly, since x<=k and its negation
// x>=k+1 are already atoms in this predicate scheme.
type reifiedLE struct {
	eng   *engine.Engine
	id    queue.PropID
	b     *intvar.IntVar
	x     *intvar.IntVar
	k     int64
	state reifState
}

// PostReifiedLE posts b <=> (x <= k), where b is a 0/1 intvar.
func PostReifiedLE(eng *engine.Engine, b, x *intvar.IntVar, k int64) bool {
	p := &reifiedLE{eng: eng, b: b, x: x, k: k, state: reifNone}
	p.id = eng.RegisterPropagator(p)

	eng.Attach(x.Pid(), propagator.EventLU, func() propagator.WatchResult {
		eng.WakePropagator(p.id)
		return propagator.Keep
	})
	eng.Attach(b.Pid(), propagator.EventFix, func() propagator.WatchResult {
		eng.WakePropagator(p.id)
		return propagator.Drop
	})

	var confl propagator.Explanation
	return p.Propagate(&confl)
}

// activate installs the full watch set (b's EventLU, mirroring the
// EventLU x already carries) once the cheap cut check in reifNone
// reports the constraint is worth running on every subsequent bound
// change to either side.
func (p *reifiedLE) activate() {
	if p.state != reifNone {
		return
	}
	p.state = reifActive
	p.eng.Attach(p.b.Pid(), propagator.EventLU, func() propagator.WatchResult {
		p.eng.WakePropagator(p.id)
		return propagator.Keep
	})
}

// markRed moves p to reifRed and records an undo on the engine's trail,
// so backtracking past the level that discharged it restores the
// previous state.
func (p *reifiedLE) markRed() {
	prev := p.state
	p.state = reifRed
	p.eng.Persist.Push(func() { p.state = prev })
}

func (p *reifiedLE) cutCrossed() bool {
	return p.x.UpperBound() <= p.k || p.x.LowerBound() > p.k || p.b.LowerBound() == 1 || p.b.UpperBound() == 0
}

func (p *reifiedLE) Propagate(confl *propagator.Explanation) bool {
	if p.state == reifRed {
		return true
	}
	if p.state == reifNone {
		if !p.cutCrossed() {
			return true
		}
		p.activate()
	}

	if p.b.LowerBound() == 1 {
		reason := []atom.Atom{p.b.Ge(1)}
		if !p.eng.Enqueue(p.x.Le(p.k), staticReason(reason)) {
			confl.Atoms = append(confl.Atoms, reason...)
			return false
		}
		p.markRed()
		return true
	}
	if p.b.UpperBound() == 0 {
		reason := []atom.Atom{p.b.Le(0)}
		if !p.eng.Enqueue(p.x.Ge(p.k+1), staticReason(reason)) {
			confl.Atoms = append(confl.Atoms, reason...)
			return false
		}
		p.markRed()
		return true
	}

	if p.x.UpperBound() <= p.k {
		ub := p.x.UpperBound()
		reason := []atom.Atom{p.x.Le(ub)}
		if !p.eng.Enqueue(p.b.Ge(1), staticReason(reason)) {
			confl.Atoms = append(confl.Atoms, reason...)
			return false
		}
		p.markRed()
		return true
	}
	if p.x.LowerBound() > p.k {
		lb := p.x.LowerBound()
		reason := []atom.Atom{p.x.Ge(lb)}
		if !p.eng.Enqueue(p.b.Le(0), staticReason(reason)) {
			confl.Atoms = append(confl.Atoms, reason...)
			return false
		}
		p.markRed()
		return true
	}
	return true
}

func (p *reifiedLE) Cleanup() {}

// RootSimplify has nothing to discharge and never reports a root-level
// conflict; the propagator has no list membership to remove itself from.
func (p *reifiedLE) RootSimplify() bool { return true }
