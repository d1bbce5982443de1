// Package queue implements the two FIFO queues of spec.md section 4.5:
// pending predicates and pending propagators, each with a de-duplication
// bit so a predicate or propagator already queued is not enqueued twice
// within one propagation pass.
//
// Grounded on EricR-saturday/lit.Queue (lit/lit_queue.go) for the plain
// FIFO shape, generalized with a dedup bitset per predicate/propagator
// id per spec.md section 4.4's "queued flag cleared in cleanup" and
// section 5's "duplicate enqueues are collapsed by a queued flag".
package queue

import "github.com/AllenZzw/geas/pval"

// PredQueue is the predicate-update queue. Order is FIFO (insertion
// order of first wake), per spec.md section 5.
type PredQueue struct {
	items  []pval.Pid
	queued []bool
}

// NewPredQueue returns an empty PredQueue.
func NewPredQueue() *PredQueue {
	return &PredQueue{}
}

func (q *PredQueue) ensure(p pval.Pid) {
	for pval.Pid(len(q.queued)) <= p {
		q.queued = append(q.queued, false)
	}
}

// Push enqueues p if it is not already pending.
func (q *PredQueue) Push(p pval.Pid) {
	q.ensure(p)
	if q.queued[p] {
		return
	}
	q.queued[p] = true
	q.items = append(q.items, p)
}

// Pop dequeues and returns the oldest pending predicate. Panics if empty;
// callers must check Empty first (mirrors the teacher's Dequeue, except
// the teacher tolerates an empty pop by returning Undef -- this queue is
// always guarded by Empty in the propagation loop, so a panic surfaces a
// real bug rather than silently propagating a sentinel).
func (q *PredQueue) Pop() pval.Pid {
	p := q.items[0]
	q.items = q.items[1:]
	q.queued[p] = false
	return p
}

// Empty reports whether the queue has no pending predicates.
func (q *PredQueue) Empty() bool {
	return len(q.items) == 0
}

// Clear drops every pending predicate, used when a conflict aborts the
// current propagation pass.
func (q *PredQueue) Clear() {
	for _, p := range q.items {
		q.queued[p] = false
	}
	q.items = q.items[:0]
}

// PropID identifies a propagator by its index in the solver's
// propagator arena (spec.md's Design Notes: "construction returns an
// index handle used in callbacks").
type PropID int32

// PropQueue is the propagator-update queue. FIFO among distinct
// propagators; a propagator already pending is not re-queued until Pop
// or Drain clears its queued flag.
type PropQueue struct {
	items  []PropID
	queued []bool
}

// NewPropQueue returns an empty PropQueue.
func NewPropQueue() *PropQueue {
	return &PropQueue{}
}

func (q *PropQueue) ensure(id PropID) {
	for PropID(len(q.queued)) <= id {
		q.queued = append(q.queued, false)
	}
}

// Push enqueues id if it is not already pending.
func (q *PropQueue) Push(id PropID) {
	q.ensure(id)
	if q.queued[id] {
		return
	}
	q.queued[id] = true
	q.items = append(q.items, id)
}

// Pop dequeues and returns the oldest pending propagator.
func (q *PropQueue) Pop() PropID {
	id := q.items[0]
	q.items = q.items[1:]
	q.queued[id] = false
	return id
}

// Empty reports whether the queue has no pending propagators.
func (q *PropQueue) Empty() bool {
	return len(q.items) == 0
}

// ClearQueued clears id's queued flag without requiring it to currently
// be at the front of the queue. (The engine's post-conflict cleanup uses
// Drain instead.)
func (q *PropQueue) ClearQueued(id PropID) {
	q.ensure(id)
	q.queued[id] = false
}

// Drain empties the queue, returning every still-pending propagator id
// so the caller can run Cleanup on each (spec.md section 4.5's "cleanup
// ... calls cleanup on every still-queued propagator").
func (q *PropQueue) Drain() []PropID {
	items := q.items
	q.items = nil
	for _, id := range items {
		q.queued[id] = false
	}
	return items
}
