package solver

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/config"
	"github.com/AllenZzw/geas/intvar"
	"github.com/AllenZzw/geas/search"
)

func TestSolveSatisfiableClause(t *testing.T) {
	sat := NewSolver(config.New(), nil)
	x := sat.NewBool()
	y := sat.NewBool()

	require.True(t, sat.PostClause([]atom.Atom{x.Ge(1), y.Ge(1)}))
	require.True(t, sat.Post(x.Le(0)))

	status := sat.Solve(Limits{})
	require.Equal(t, search.StatusSAT, status)

	model := sat.GetModel()
	xv, _ := model.Value(x.Pid())
	yv, _ := model.Value(y.Pid())
	require.Equal(t, int64(0), xv)
	require.Equal(t, int64(1), yv)
}

func TestPostRootContradiction(t *testing.T) {
	sat := NewSolver(config.New(), nil)
	x := sat.NewBool()

	require.True(t, sat.Post(x.Ge(1)))
	require.False(t, sat.Post(x.Le(0)))
}

func TestAllDifferentUnsatisfiableOverTwoValues(t *testing.T) {
	sat := NewSolver(config.New(), nil)
	xs := []*intvar.IntVar{sat.NewIntVar(0, 1), sat.NewIntVar(0, 1), sat.NewIntVar(0, 1)}

	require.True(t, sat.PostAllDifferent(xs))
	require.Equal(t, search.StatusUNSAT, sat.Solve(Limits{}))
}

func TestAllDifferentSatisfiableOverThreeValues(t *testing.T) {
	sat := NewSolver(config.New(), nil)
	xs := []*intvar.IntVar{sat.NewIntVar(0, 2), sat.NewIntVar(0, 2), sat.NewIntVar(0, 2)}

	require.True(t, sat.PostAllDifferent(xs))
	require.Equal(t, search.StatusSAT, sat.Solve(Limits{}))

	model := sat.GetModel()
	seen := map[int64]bool{}
	for _, x := range xs {
		v, ok := model.Value(x.Pid())
		require.True(t, ok)
		require.False(t, seen[v])
		seen[v] = true
	}
}

func TestAssumeAndRetract(t *testing.T) {
	sat := NewSolver(config.New(), nil)
	x := sat.NewBool()
	require.True(t, sat.Post(x.Le(0)))

	require.False(t, sat.Assume(x.Ge(1)))
	require.Empty(t, sat.assumptions)

	require.True(t, sat.Assume(x.Le(0)))
	require.Len(t, sat.assumptions, 1)

	sat.Retract()
	require.Empty(t, sat.assumptions)
}

// TestAssumeImmediateInconsistencyReportsFullCore mirrors a pigeonhole-3
// step: a three-way clause forces its last literal true once the other
// two are assumed false, so assuming that literal false too is
// inconsistent before any propagation runs. GetConflict() must still
// report all three assumption atoms, not just the one that triggered
// the immediate Enqueue failure.
func TestAssumeImmediateInconsistencyReportsFullCore(t *testing.T) {
	sat := NewSolver(config.New(), nil)
	x0 := sat.NewBool()
	x1 := sat.NewBool()
	x2 := sat.NewBool()
	require.True(t, sat.PostClause([]atom.Atom{x0.Ge(1), x1.Ge(1), x2.Ge(1)}))

	require.True(t, sat.Assume(x0.Le(0)))
	require.True(t, sat.Assume(x1.Le(0)))
	require.False(t, sat.Assume(x2.Le(0)))

	want := []atom.Atom{x0.Le(0), x1.Le(0), x2.Le(0)}
	got := append([]atom.Atom(nil), sat.GetConflict()...)
	byPid := func(as []atom.Atom) func(i, j int) bool {
		return func(i, j int) bool { return as[i].Pid < as[j].Pid }
	}
	sort.Slice(want, byPid(want))
	sort.Slice(got, byPid(got))

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetConflict() mismatch (-want +got):\n%s", diff)
	}
}

func TestClearAssumptions(t *testing.T) {
	sat := NewSolver(config.New(), nil)
	x := sat.NewBool()
	require.True(t, sat.Assume(x.Ge(1)))
	require.Len(t, sat.assumptions, 1)

	sat.ClearAssumptions()
	require.Empty(t, sat.assumptions)
	require.Equal(t, 0, sat.assumptionLevel)
}

func TestVersionIsPositive(t *testing.T) {
	v := Version()
	require.True(t, v.GTE(Version()))
}

func TestIntersectAssumptionsFiltersToAssumptionSet(t *testing.T) {
	p := atom.New(0, 1)
	q := atom.New(2, 1)
	r := atom.New(4, 1)

	got := intersectAssumptions([]atom.Atom{p, q, r}, []atom.Atom{p, r})
	require.ElementsMatch(t, []atom.Atom{p, r}, got)
}
