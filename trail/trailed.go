package trail

// Trailed wraps a scalar field that must be restored on backtrack --
// propagator "last observed" caches, watch head pointers, and the like.
// spec.md's Design Notes section is explicit that such multi-phase
// propagator state "must be trailed explicitly; do not rely on any
// implicit stack unwinding". Package infer holds its watch-chain head
// pointers as Trailed[T]; a field that changes without an undo record
// (such as a one-way state flag) can use Trail.Push directly instead.
type Trailed[T any] struct {
	val T
}

// NewTrailed returns a Trailed initialized to v. Valid to call at
// decision level 0 only (the initial value is not itself undoable).
func NewTrailed[T any](v T) Trailed[T] {
	return Trailed[T]{val: v}
}

// Get returns the current value.
func (tr *Trailed[T]) Get() T {
	return tr.val
}

// Set writes a new value, recording an undo closure on t that restores
// the previous value on backtrack. This is trail_change in spec.md
// section 4.2.
func (tr *Trailed[T]) Set(t *Trail, v T) {
	old := tr.val
	tr.val = v
	t.Push(func() { tr.val = old })
}
