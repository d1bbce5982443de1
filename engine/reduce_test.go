package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/propagator"
)

func newTestEngine() *Engine {
	return New(0.999, 0.95)
}

func TestRootSimplifyRemovesSatisfiedProblemClauses(t *testing.T) {
	e := newTestEngine()
	pid := e.NewPred(0, 1)
	x := atom.New(pid, 1)

	ok, _ := e.AddClause([]atom.Atom{x, x.Not()}, false) // tautology, dropped by canonicalize
	require.True(t, ok)
	require.Equal(t, 0, e.Clauses.NumProblem())

	other := e.NewPred(0, 1)
	y := atom.New(other, 1)
	ok, _ = e.AddClause([]atom.Atom{x, y}, false)
	require.True(t, ok)
	require.Equal(t, 1, e.Clauses.NumProblem())

	require.True(t, e.Enqueue(x, propagator.Decision))
	var confl propagator.Explanation
	require.True(t, e.Propagate(&confl))

	require.True(t, e.RootSimplify(&confl))
	require.Equal(t, 0, e.Clauses.NumProblem())
}

func TestReduceDBKeepsLockedAndBinaryClauses(t *testing.T) {
	e := newTestEngine()
	p1 := e.NewPred(0, 1)
	p2 := e.NewPred(0, 1)
	p3 := e.NewPred(0, 1)
	a1 := atom.New(p1, 1)
	a2 := atom.New(p2, 1)
	a3 := atom.New(p3, 1)

	_, lockedRef := e.AddClause([]atom.Atom{a1, a2, a3}, true)
	require.Equal(t, 1, e.Clauses.NumLearnts())

	e.PushLevel()
	require.True(t, e.Enqueue(a1.Not(), propagator.Decision))
	require.True(t, e.Enqueue(a2.Not(), propagator.FromClause(lockedRef)))

	e.ReduceDB()
	require.Equal(t, 1, e.Clauses.NumLearnts())
	require.False(t, e.Clauses.Get(lockedRef).Deleted())
}

func TestReduceDBEvictsLowActivityUnlockedLearnts(t *testing.T) {
	e := newTestEngine()
	var lits []atom.Atom
	for i := 0; i < 4; i++ {
		pid := e.NewPred(0, 1)
		lits = append(lits, atom.New(pid, 1))
	}

	for i := 0; i < 20; i++ {
		_, ref := e.AddClause(append([]atom.Atom(nil), lits...), true)
		if i >= 18 {
			for j := 0; j < 5; j++ {
				e.claAct.Bump(e.Clauses, e.Clauses.Get(ref))
			}
		}
	}
	before := e.Clauses.NumLearnts()
	require.Equal(t, 20, before)

	e.ReduceDB()
	after := e.Clauses.NumLearnts()
	require.Less(t, after, before)
}
