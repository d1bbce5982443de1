package propagator

import (
	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/pval"
	"github.com/AllenZzw/geas/queue"
)

// Event selects which bound change on a predicate a watch callback
// fires for (spec.md section 4.4).
type Event uint8

const (
	// EventLB fires when the predicate's lower bound rises.
	EventLB Event = iota
	// EventUB fires when the predicate's upper bound falls.
	EventUB
	// EventLU fires on either bound moving.
	EventLU
	// EventFix fires only once the predicate becomes fixed.
	EventFix
)

// WatchResult tells the solver whether to keep a callback registered
// after it fires.
type WatchResult uint8

const (
	// Keep leaves the watch entry registered for future bound changes.
	Keep WatchResult = iota
	// Drop removes the watch entry; used once a callback's condition can
	// never matter again (e.g. EventFix firing once).
	Drop
)

// Callback is invoked when its registered event fires on its predicate.
type Callback func() WatchResult

// Explanation is the output parameter a failing Propagate call fills:
// the conjunction of these atoms is entailed yet inconsistent.
type Explanation struct {
	Atoms []atom.Atom
}

// Add appends a to the explanation.
func (e *Explanation) Add(a atom.Atom) {
	e.Atoms = append(e.Atoms, a)
}

// Propagator is the contract every propagator obeys (spec.md section
// 4.4). Construction attaches watch callbacks via the engine's Attach
// method (see propagator.Attacher); Propagator itself covers the
// run/cleanup/simplify trio invoked from the propagation loop.
type Propagator interface {
	// Propagate runs the propagator to its local fixpoint. On failure it
	// fills confl with the inconsistent atom set and returns false.
	Propagate(confl *Explanation) bool
	// Cleanup resets any per-pass transient state and clears the queued
	// flag's shadow bookkeeping the propagator itself keeps (most
	// propagators need none; the contract still calls this every pass,
	// per spec.md section 4.5, so state that is genuinely transient --
	// not trailed -- has a defined reset point).
	Cleanup()
	// RootSimplify is invoked only at level 0 after a propagation
	// fixpoint; a propagator that can discharge itself entirely once
	// some root-level condition holds does so here. Returning false
	// indicates the propagator detected a root-level conflict.
	RootSimplify() bool
}

// Attacher lists the engine-side hooks a propagator's constructor uses
// to register watch callbacks and to enqueue itself into the propagator
// queue. engine.Engine satisfies it; the constructors in constraints/
// take *engine.Engine directly rather than this interface.
type Attacher interface {
	// Attach binds cb to fire whenever ev occurs on pid.
	Attach(pid pval.Pid, ev Event, cb Callback)
	// Enqueue asks the engine to deduce atom a for reason r. If a is
	// already entailed this is a no-op success; if inconsistent with the
	// current state it is a conflict, reported via the boolean result
	// exactly as spec.md section 4.4 describes the global `enqueue`.
	Enqueue(a atom.Atom, r Reason) bool
	// WakePropagator marks id as pending in the propagator queue.
	WakePropagator(id queue.PropID)
	// NewPred allocates a fresh predicate pair, for propagators that
	// need auxiliary state beyond their constructor's own arguments.
	NewPred(lb, ub pval.Val) pval.Pid
}
