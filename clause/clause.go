// Package clause implements the clause arena of spec.md section 4.3/4.7:
// binary-inlined and long-form clause objects with the two-watch
// invariant, owned by a single ClauseDB so that clause references are
// small integers rather than pointers (spec.md's Design Notes call for
// arena storage with small-integer indices to avoid the watch/clause/
// atom/predicate/watch-node ownership cycle the original C++ has).
//
// Grounded on EricR-saturday/solver.Clause (solver/clause.go) for the
// two-watch swap/re-watch mechanics, generalized from sign-bit literals
// to atom.Atom and from a solver-owned slice to an arena with explicit
// Ref handles per spec.md's Design Notes. The activity/locked/reduceDB
// bookkeeping follows EricR-saturday/solver_db.go and
// solver_heuristics.go; the long-clause allocator shape additionally
// follows other_examples/crillab-gophersat__clause_alloc.go.
package clause

import (
	"sort"
	"strings"

	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/predstate"
)

// Ref is a small-integer handle into a ClauseDB. RefNull denotes "no
// clause" (used in a binary Head, where the head's companion literal is
// inlined rather than stored as a clause).
type Ref int32

// RefNull is the sentinel empty reference.
const RefNull Ref = -1

// Clause is an ordered sequence of >=2 atoms. Positions 0 and 1 are the
// two watched literals: the clause invariant (spec.md P3) is that it is
// either satisfied or at least two of its literals are non-false.
type Clause struct {
	lits     []atom.Atom
	learnt   bool
	activity float64
	deleted  bool
}

// Head denotes one entry in a predicate's watch bucket (spec.md section
// 3's "clause_head"): either a binary clause (C == RefNull, E0 is the
// other literal) or a long clause reference whose cached head atom is E0.
// W is the literal being watched -- the head fires when W.Not() becomes
// entailed (W itself becomes false), exactly as EricR-saturday registers
// a clause under addToWatcher(lits[k].Not()). Carrying W on the Head
// lets the watch layer (package infer) derive which predicate/threshold
// to key on without the clause package and infer package needing to
// agree on a separate convention.
type Head struct {
	W  atom.Atom
	E0 atom.Atom
	C  Ref
}

// IsBinary reports whether this head denotes an inlined binary clause.
func (h Head) IsBinary() bool {
	return h.C == RefNull
}

// DB is the clause arena. All clauses -- problem clauses and learnts --
// live here; propagators and the watch layer refer to them by Ref.
type DB struct {
	clauses []*Clause

	// Problem lists root-level clause Refs; Learnts lists learnt clause
	// Refs. Both are maintained by the owner (engine.Engine.AddClause),
	// not by Alloc itself. A problem unit clause is enqueued directly and
	// never allocated (as in EricR-saturday's newClause, which never
	// appends a unit to s.constrs); a unit learnt clause is allocated and
	// tracked in Learnts.
	Problem []Ref
	Learnts []Ref
}

// NewDB returns an empty clause arena.
func NewDB() *DB {
	return &DB{}
}

// Alloc stores lits as a new clause and returns its Ref. Callers
// special-case empty clauses and problem unit clauses themselves (this
// mirrors EricR-saturday's newClause, which special-cases 0/1-literal
// results before ever reaching the watch-setup code this function
// covers); the one 1-literal clause allocated here is a unit learnt
// clause, which gets no watches.
func (db *DB) Alloc(lits []atom.Atom, learnt bool) Ref {
	c := &Clause{lits: lits, learnt: learnt}
	db.clauses = append(db.clauses, c)
	return Ref(len(db.clauses) - 1)
}

// Get returns the clause stored at ref.
func (db *DB) Get(ref Ref) *Clause {
	return db.clauses[ref]
}

// Len returns the number of clauses ever allocated, including deleted
// ones (deletion only clears content and marks the slot, per the arena
// discipline of never reusing a Ref while any Head might still name it
// in a not-yet-cleaned watch bucket).
func (db *DB) Len() int {
	return len(db.clauses)
}

// Lits returns c's literals. Positions 0 and 1 are the watched pair.
func (c *Clause) Lits() []atom.Atom {
	return c.lits
}

// Len returns the number of literals remaining in c.
func (c *Clause) Len() int {
	return len(c.lits)
}

// Learnt reports whether c is a learnt clause (as opposed to a problem
// clause posted directly).
func (c *Clause) Learnt() bool {
	return c.learnt
}

// Deleted reports whether c has been evicted by reduceDB or root
// simplification. A deleted clause's Ref must no longer appear in any
// watch bucket; callers are responsible for that invariant (see
// infer.Infer.Unwatch).
func (c *Clause) Deleted() bool {
	return c.deleted
}

// MarkDeleted flags c as evicted. The backing slice entry is kept (not
// nilled) so that any Ref still referenced from a trail reason -- which
// must never happen for a clause currently locked, but conflict replay
// may transiently look at a clause that was deleted at a shallower level
// during BTPRED -- does not panic on a nil dereference.
func (c *Clause) MarkDeleted() {
	c.deleted = true
}

// Activity returns c's current learnt-clause activity score.
func (c *Clause) Activity() float64 {
	return c.activity
}

// BumpActivity adds inc to c's activity.
func (c *Clause) BumpActivity(inc float64) {
	c.activity += inc
}

// RescaleActivity multiplies c's activity by factor, used when the
// global activity increment would otherwise overflow.
func (c *Clause) RescaleActivity(factor float64) {
	c.activity *= factor
}

// SetLits overwrites c's literal slice in place, used by simplification
// to drop root-satisfied/root-false literals (spec.md section 4.7).
func (c *Clause) SetLits(lits []atom.Atom) {
	c.lits = lits
}

// Swap exchanges two literal positions -- implements sort.Interface so
// canonicalization (dedup/tautology detection at construction time) can
// reuse sort.Sort the way EricR-saturday's Clause does.
func (c *Clause) Swap(i, j int) {
	c.lits[i], c.lits[j] = c.lits[j], c.lits[i]
}

// Less implements sort.Interface, ordering literals by (Pid, Val).
func (c *Clause) Less(i, j int) bool {
	a, b := c.lits[i], c.lits[j]
	if a.Pid != b.Pid {
		return a.Pid < b.Pid
	}
	return a.Val < b.Val
}

// SortLits canonicalizes literal order, used before tautology/duplicate
// detection at clause construction (mirrors EricR-saturday's
// sort.Sort(c) call in newClause).
func (c *Clause) SortLits() {
	sort.Sort(c)
}

// CalcReason returns the antecedent atoms implying p (or, if p is
// atom.Undef, implying falsity of the whole clause): every literal of c
// other than p, negated. Mirrors EricR-saturday/solver.Clause.calcReason,
// generalized to atoms; ps is accepted for parity with propagator thunk
// signatures even though clause reasons need no state lookup.
func (c *Clause) CalcReason(ps *predstate.PredState, p atom.Atom) []atom.Atom {
	out := make([]atom.Atom, 0, len(c.lits))
	for _, l := range c.lits {
		if !p.IsUndef() && l.Equal(p) {
			continue
		}
		out = append(out, l.Not())
	}
	return out
}

// String renders c as a comma-joined list of its atoms, for logging.
func (c *Clause) String() string {
	parts := make([]string, len(c.lits))
	for i, l := range c.lits {
		parts[i] = l.String()
	}
	return strings.Join(parts, ",")
}
