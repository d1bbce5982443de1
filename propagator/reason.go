// Package propagator defines the contract every propagator obeys
// (spec.md section 4.4) and the tagged Reason every trail entry carries
// (spec.md section 3).
//
// Grounded on original_source/engine/infer-types.h's `reason` union
// (RKind: R_Clause/R_Atom/R_Thunk) and EricR-saturday/solver.Clause's
// calcReason (solver/clause.go), which plays the Reason-materialization
// role for the teacher's only reason kind (a clause). spec.md's Design
// Notes call for re-expressing the original's function-pointer-plus-
// opaque-`this` thunk as a tagged variant so analysis can dispatch
// without an indirect call for the common Clause/Atom cases; Reason is
// that tagged variant, a Go sum type built from a Kind enum and fields
// used only for the matching kind.
package propagator

import (
	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/clause"
	"github.com/AllenZzw/geas/pval"
)

// Kind discriminates which field of a Reason is live.
type Kind uint8

const (
	// KindClause: the literal was unit-propagated by clause Ref.
	KindClause Kind = iota
	// KindAtom: the implicant is a single atom (used for binary clauses
	// and decisions with a trivial cause).
	KindAtom
	// KindThunk: a lazy reason; Fn is invoked only if conflict analysis
	// needs it.
	KindThunk
	// KindDecision: the literal was a search decision, not an inference;
	// it has no antecedent atoms.
	KindDecision
)

// Flag carries thunk-invocation modifiers.
type Flag uint8

const (
	// FlagNone is the default, no special handling needed.
	FlagNone Flag = 0
	// FlagBTPred is spec.md's Ex_BTPRED: before invoking the thunk,
	// analysis must temporarily restore the predicate that owns this
	// trail entry to its previous tick, so the thunk observes the state
	// at the moment the inference was made rather than the (possibly
	// further-tightened) current state.
	FlagBTPred Flag = 1 << 0
)

// ThunkFunc materializes a lazy reason: given the opaque data a
// propagator attached and the tick the owning predicate was set to,
// it appends to out the atoms whose conjunction implied that tick.
// Every atom appended must be entailed at the moment of the call
// (spec.md P4), which FlagBTPred helps guarantee by rewinding the
// predicate first when the thunk needs to see the pre-inference state.
type ThunkFunc func(data any, tick pval.Val, out *[]atom.Atom)

// Reason is the tagged value attached to each trail entry.
type Reason struct {
	Kind Kind

	// KindClause
	ClauseRef clause.Ref

	// KindAtom
	At atom.Atom

	// KindThunk
	Fn   ThunkFunc
	Data any
	Flag Flag
}

// FromClause builds a Clause-kind reason.
func FromClause(ref clause.Ref) Reason {
	return Reason{Kind: KindClause, ClauseRef: ref}
}

// FromAtom builds an Atom-kind reason.
func FromAtom(a atom.Atom) Reason {
	return Reason{Kind: KindAtom, At: a}
}

// FromThunk builds a Thunk-kind reason.
func FromThunk(fn ThunkFunc, data any, flag Flag) Reason {
	return Reason{Kind: KindThunk, Fn: fn, Data: data, Flag: flag}
}

// Decision is the reason value used for a trail entry created by the
// search driver's branching step rather than by inference.
var Decision = Reason{Kind: KindDecision}
