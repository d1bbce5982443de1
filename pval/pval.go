// Package pval defines the raw tick scale that every predicate's bounds
// are stored in. All predicate bookkeeping in the engine -- PredState,
// watch thresholds, atoms -- is expressed in this scale; intvar is the
// only place raw ticks are translated back into user integers.
package pval

// Val is a raw predicate tick. Predicates live on the ordered domain
// [0, Max]; a predicate's complementary pair encode lower and upper
// bounds of the same logical quantity as two independent, monotonically
// increasing counters on this scale.
type Val int64

// Max is the largest representable tick. It must be even so that
// Max+1 (the complementary-pair invariant target) and bit tricks around
// the midpoint stay exact; 1<<62 leaves ample headroom below the int64
// range for offset arithmetic in intvar without overflow.
const Max Val = 1 << 62

// Min is the smallest representable tick.
const Min Val = 0

// Inv returns the complementary tick for v: the threshold of the negated
// atom, so "p >= v" negates to "p^1 >= Inv(v)". (A pair fixed at v stores
// Max-v, not Inv(v), at p^1.)
func Inv(v Val) Val {
	return Max - v + 1
}

// Clamp bounds v to [Min, Max].
func Clamp(v Val) Val {
	if v < Min {
		return Min
	}
	if v > Max {
		return Max
	}
	return v
}
