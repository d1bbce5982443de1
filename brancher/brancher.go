// Package brancher implements the branching strategy plug-in of spec.md
// section 6: "a brancher exposes select_decision() -> atom | none and is
// composed with sequential, priority, toggle, limit, and warmstart
// combinators. The core owns the brancher list and invokes them in
// order; first non-none wins."
//
// Grounded on EricR-saturday/solver.varOrder (solver/var_order.go) and
// its standalone twin order.Order (order/order.go) for the default
// activity-ordered decision heuristic's binary-heap shape, generalized
// from "pop a Boolean variable, decide its polarity implicitly" to
// "pop a predicate, decide which half-bound atom to assert" since a
// finite-domain predicate has no fixed polarity. The combinators
// themselves (Seq/Priority/Toggle/Limit/Warmstart) have no teacher
// analogue -- EricR-saturday has exactly one hardcoded var order -- and
// are built directly from spec.md section 6's list, each a thin
// Brancher wrapping other Branchers.
package brancher

import (
	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/engine"
	"github.com/AllenZzw/geas/pval"
)

// Brancher selects the next decision atom, or reports none left.
type Brancher interface {
	// SelectDecision returns the next atom to assert as a decision, and
	// true. If this brancher has nothing left to decide, it returns
	// (atom.Undef, false) and the caller tries the next brancher in
	// sequence.
	SelectDecision() (atom.Atom, bool)
}

// Seq tries each inner brancher in order, returning the first decision
// any of them produces. Mirrors spec.md's "sequential" combinator.
type Seq struct {
	branchers []Brancher
}

// NewSeq returns a Seq trying bs in order.
func NewSeq(bs ...Brancher) *Seq {
	return &Seq{branchers: bs}
}

func (s *Seq) SelectDecision() (atom.Atom, bool) {
	for _, b := range s.branchers {
		if a, ok := b.SelectDecision(); ok {
			return a, true
		}
	}
	return atom.Undef, false
}

// Priority always consults high before ever consulting low, even after
// high has started returning no decisions on an earlier call -- unlike
// Seq, which is just a fixed static order, Priority is meant to wrap a
// brancher set that can regain decisions later (e.g. after search
// backtracks past a point where "high" was exhausted, a previously
// fixed predicate belonging to it may become free again).
type Priority struct {
	high, low Brancher
}

// NewPriority returns a Priority trying high before low.
func NewPriority(high, low Brancher) *Priority {
	return &Priority{high: high, low: low}
}

func (p *Priority) SelectDecision() (atom.Atom, bool) {
	if a, ok := p.high.SelectDecision(); ok {
		return a, true
	}
	return p.low.SelectDecision()
}

// Toggle alternates which of two inner branchers is consulted first on
// successive calls, used to interleave two decision strategies rather
// than strictly prioritizing one.
type Toggle struct {
	a, b Brancher
	flip bool
}

// NewToggle returns a Toggle alternating between a and b.
func NewToggle(a, b Brancher) *Toggle {
	return &Toggle{a: a, b: b}
}

func (t *Toggle) SelectDecision() (atom.Atom, bool) {
	t.flip = !t.flip
	first, second := t.a, t.b
	if t.flip {
		first, second = t.b, t.a
	}
	if at, ok := first.SelectDecision(); ok {
		return at, true
	}
	return second.SelectDecision()
}

// Limit wraps inner and stops offering decisions once it has produced
// max decisions, reporting none from then on regardless of what inner
// still has available. Used to cap how much search effort one brancher
// in a Seq chain is allowed before falling through to the next.
type Limit struct {
	inner   Brancher
	max     int
	emitted int
}

// NewLimit returns a Limit allowing inner at most max decisions.
func NewLimit(inner Brancher, max int) *Limit {
	return &Limit{inner: inner, max: max}
}

func (l *Limit) SelectDecision() (atom.Atom, bool) {
	if l.emitted >= l.max {
		return atom.Undef, false
	}
	a, ok := l.inner.SelectDecision()
	if ok {
		l.emitted++
	}
	return a, ok
}

// Warmstart replays a fixed decision sequence before ever consulting
// inner, used to seed search toward a known-good (or known-relevant)
// assignment -- e.g. resuming from a previous incumbent.
type Warmstart struct {
	hints []atom.Atom
	next  int
	inner Brancher
}

// NewWarmstart returns a Warmstart replaying hints, in order, before
// falling through to inner.
func NewWarmstart(hints []atom.Atom, inner Brancher) *Warmstart {
	return &Warmstart{hints: hints, inner: inner}
}

func (w *Warmstart) SelectDecision() (atom.Atom, bool) {
	for w.next < len(w.hints) {
		a := w.hints[w.next]
		w.next++
		if !a.IsUndef() {
			return a, true
		}
	}
	return w.inner.SelectDecision()
}

// activityState is the subset of engine.Engine an activity-ordered
// brancher needs: predicate activity scores and fixedness, without
// importing all of engine's mutation surface.
type activityState interface {
	NumPreds() int
	PredActivity(pid pval.Pid) float64
	Fixed(pid pval.Pid) bool
	LowerBound(pid pval.Pid) pval.Val
}

// ActivityOrder is the default brancher: a binary max-heap over predicate
// pairs keyed by activity score (bumped by clause-learning the same way
// EricR-saturday bumps variable activity on conflict). SelectDecision
// pops the highest-activity pair, skips any already fixed, and decides
// its lower half's midpoint bound -- a domain-splitting decision rather
// than the teacher's single "assign this Boolean variable true/false"
// choice, since a finite-domain predicate can be decided at any
// threshold between its current bounds.
type ActivityOrder struct {
	eng     activityState
	heap    []pval.Pid
	indices map[pval.Pid]int
}

// NewActivityOrder returns an ActivityOrder brancher over every predicate pair
// already allocated in eng. Predicate pairs allocated afterward must be
// registered via NewPred.
func NewActivityOrder(eng *engine.Engine) *ActivityOrder {
	a := &ActivityOrder{eng: eng, indices: map[pval.Pid]int{}}
	n := eng.NumPreds()
	for p := pval.Pid(0); int(p) < n; p += 2 {
		a.NewPred(p)
	}
	return a
}

// NewPred registers a freshly allocated predicate pair (its lower half
// Pid, same convention as engine.Engine.NewPred's return) with the heap.
func (a *ActivityOrder) NewPred(pid pval.Pid) {
	a.indices[pid] = len(a.heap)
	a.heap = append(a.heap, pid)
	a.up(len(a.heap) - 1)
}

func (a *ActivityOrder) less(i, j int) bool {
	return a.eng.PredActivity(a.heap[i]) > a.eng.PredActivity(a.heap[j])
}

func (a *ActivityOrder) swap(i, j int) {
	a.heap[i], a.heap[j] = a.heap[j], a.heap[i]
	a.indices[a.heap[i]] = i
	a.indices[a.heap[j]] = j
}

func (a *ActivityOrder) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !a.less(j, i) {
			break
		}
		a.swap(i, j)
		j = i
	}
}

func (a *ActivityOrder) down(i0, n int) {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && a.less(j2, j1) {
			j = j2
		}
		if !a.less(j, i) {
			break
		}
		a.swap(i, j)
		i = j
	}
}

// pop removes and returns the highest-activity predicate pair.
func (a *ActivityOrder) pop() (pval.Pid, bool) {
	if len(a.heap) == 0 {
		return pval.PidNull, false
	}
	n := len(a.heap) - 1
	a.swap(0, n)
	pid := a.heap[n]
	a.heap = a.heap[:n]
	delete(a.indices, pid)
	a.down(0, n)
	return pid, true
}

func (a *ActivityOrder) SelectDecision() (atom.Atom, bool) {
	for {
		pid, ok := a.pop()
		if !ok {
			return atom.Undef, false
		}
		if a.eng.Fixed(pid) {
			continue
		}
		// Re-insert: this predicate may still have more than one
		// decision left in it (a domain split narrows, it doesn't
		// fix, the bound in one call).
		a.NewPred(pid)

		lb := a.eng.LowerBound(pid)
		ub := pval.Max - a.eng.LowerBound(pid.Comp())
		mid := lb + (ub-lb)/2
		return atom.New(pid, mid+1), true
	}
}
