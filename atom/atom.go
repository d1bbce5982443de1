// Package atom implements the threshold constraint "pid >= val" over the
// raw tick scale, and its negation. This is the atomic unit clauses are
// built from; see pval for the tick scale and predstate for the state
// atoms are evaluated against.
//
// Grounded on EricR-saturday/lit.Lit (the teacher's SAT-literal type):
// Atom plays the same "one clause element" role lit.Lit plays there, but
// carries a predicate id and a tick threshold instead of a variable and a
// sign bit, per spec.md section 3.
package atom

import (
	"fmt"

	"github.com/AllenZzw/geas/pval"
)

// Atom denotes pid >= val on the raw tick scale.
type Atom struct {
	Pid pval.Pid
	Val pval.Val
}

// Undef is the placeholder atom used where the teacher used lit.Undef --
// e.g. the first slot of a not-yet-finalized learnt clause.
var Undef = Atom{Pid: pval.PidNull, Val: pval.Min}

// New returns the atom pid >= val.
func New(pid pval.Pid, val pval.Val) Atom {
	return Atom{Pid: pid, Val: val}
}

// Not returns the logical negation of a: pid < val, expressed as the
// complementary predicate's threshold atom (pid^1 >= Max - val + 1).
func (a Atom) Not() Atom {
	return Atom{Pid: a.Pid.Comp(), Val: pval.Inv(a.Val)}
}

// IsUndef reports whether a is the sentinel Undef atom.
func (a Atom) IsUndef() bool {
	return a.Pid == pval.PidNull
}

// Equal reports whether a and b denote the same threshold constraint.
func (a Atom) Equal(b Atom) bool {
	return a.Pid == b.Pid && a.Val == b.Val
}

// String implements fmt.Stringer.
func (a Atom) String() string {
	if a.IsUndef() {
		return "<undef>"
	}
	return fmt.Sprintf("p%d>=%d", a.Pid, a.Val)
}
