package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/brancher"
	"github.com/AllenZzw/geas/conflict"
	"github.com/AllenZzw/geas/engine"
	"github.com/AllenZzw/geas/intvar"
)

func TestLubySequence(t *testing.T) {
	// Standard Luby sequence: 1,1,2,1,1,2,4,1,1,2,1,1,2,4,8,...
	want := []float64{1, 1, 2, 1, 1, 2, 4, 1}
	for i, w := range want {
		require.Equal(t, w, luby(2, int64(i)), "luby(2, %d)", i)
	}
}

func newDriver(t *testing.T) (*Driver, *engine.Engine) {
	eng := engine.New(0.999, 0.95)
	an := conflict.New(eng)
	br := brancher.NewActivityOrder(eng)
	return NewDriver(eng, an, br, 2.0, 100, 100), eng
}

func TestSolveSatisfiableBinaryClause(t *testing.T) {
	d, eng := newDriver(t)
	x := intvar.NewBool(eng)
	y := intvar.NewBool(eng)
	ok, _ := eng.AddClause([]atom.Atom{x.Ge(1), y.Ge(1)}, false)
	require.True(t, ok)
	ok, _ = eng.AddClause([]atom.Atom{x.Le(0)}, false)
	require.True(t, ok)

	status := d.Solve(Limits{}, 0)
	require.Equal(t, StatusSAT, status)
	require.Equal(t, int64(0), x.LowerBound())
	require.Equal(t, int64(1), y.LowerBound())
}

func TestSolveUnsatisfiableRootConflict(t *testing.T) {
	d, eng := newDriver(t)
	x := intvar.NewBool(eng)
	ok, _ := eng.AddClause([]atom.Atom{x.Ge(1)}, false)
	require.True(t, ok)
	ok, _ = eng.AddClause([]atom.Atom{x.Le(0)}, false)
	require.False(t, ok)

	status := d.Solve(Limits{}, 0)
	require.Equal(t, StatusUNSAT, status)
}

func TestSolveUnsatisfiablePigeonhole(t *testing.T) {
	d, eng := newDriver(t)
	// Three pigeons, two holes: at least one hole holds two pigeons, but
	// every pigeon must be in exactly one hole and no hole may hold two --
	// jointly unsatisfiable.
	pigeons := make([][2]*intvar.IntVar, 3)
	for i := range pigeons {
		pigeons[i] = [2]*intvar.IntVar{intvar.NewBool(eng), intvar.NewBool(eng)}
		ok, _ := eng.AddClause([]atom.Atom{pigeons[i][0].Ge(1), pigeons[i][1].Ge(1)}, false)
		require.True(t, ok)
	}
	for hole := 0; hole < 2; hole++ {
		for i := 0; i < len(pigeons); i++ {
			for j := i + 1; j < len(pigeons); j++ {
				ok, _ := eng.AddClause([]atom.Atom{pigeons[i][hole].Le(0), pigeons[j][hole].Le(0)}, false)
				require.True(t, ok)
			}
		}
	}

	// newDriver built the brancher before these variables existed; an
	// ActivityOrder only covers predicates present at construction.
	d.br = brancher.NewActivityOrder(eng)
	status := d.Solve(Limits{}, 0)
	require.Equal(t, StatusUNSAT, status)
}

func TestMaxConflictsLimitReturnsUnknownBeforeExhaustingSearch(t *testing.T) {
	d, eng := newDriver(t)
	pigeons := make([][2]*intvar.IntVar, 4)
	for i := range pigeons {
		pigeons[i] = [2]*intvar.IntVar{intvar.NewBool(eng), intvar.NewBool(eng)}
		eng.AddClause([]atom.Atom{pigeons[i][0].Ge(1), pigeons[i][1].Ge(1)}, false)
	}
	for hole := 0; hole < 2; hole++ {
		for i := 0; i < len(pigeons); i++ {
			for j := i + 1; j < len(pigeons); j++ {
				eng.AddClause([]atom.Atom{pigeons[i][hole].Le(0), pigeons[j][hole].Le(0)}, false)
			}
		}
	}

	d.br = brancher.NewActivityOrder(eng)
	status := d.Solve(Limits{MaxConflicts: 1}, 0)
	require.Equal(t, StatusUnknown, status)
}
