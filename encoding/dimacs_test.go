package encoding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AllenZzw/geas/config"
	"github.com/AllenZzw/geas/search"
	"github.com/AllenZzw/geas/solver"
)

func TestLoadDimacsSatisfiable(t *testing.T) {
	cnf := "c a trivial two-clause formula\n" +
		"p cnf 2 2\n" +
		"1 2 0\n" +
		"-1 -2 0\n"

	sat := solver.NewSolver(config.New(), nil)
	vars, err := LoadDimacs(sat, strings.NewReader(cnf))
	require.NoError(t, err)
	require.Len(t, vars, 3)

	status := sat.Solve(solver.Limits{})
	require.Equal(t, search.StatusSAT, status)

	model := sat.GetModel()
	v1, ok1 := model.Value(vars[1].Pid())
	v2, ok2 := model.Value(vars[2].Pid())
	require.True(t, ok1)
	require.True(t, ok2)
	require.NotEqual(t, v1, v2)
}

func TestLoadDimacsContradiction(t *testing.T) {
	cnf := "p cnf 1 2\n1 0\n-1 0\n"

	sat := solver.NewSolver(config.New(), nil)
	_, err := LoadDimacs(sat, strings.NewReader(cnf))
	require.Error(t, err)
}

func TestLoadDimacsSkipsCommentsAndHeader(t *testing.T) {
	cnf := "c comment line\np cnf 1 1\n1 0\n"

	sat := solver.NewSolver(config.New(), nil)
	vars, err := LoadDimacs(sat, strings.NewReader(cnf))
	require.NoError(t, err)
	require.Len(t, vars, 2)
}
