package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	opts := New()

	require.NotNil(t, opts.Logger)
	require.Equal(t, 0.95, opts.VarDecay)
	require.Equal(t, 0.999, opts.ClaDecay)
	require.Equal(t, 32, opts.EagerThreshold)
	require.Equal(t, 2.0, opts.LubyBase)
	require.Equal(t, int64(100), opts.LubyUnit)
	require.Equal(t, 0, opts.LearntDBCap)
}

func TestNewIndependentInstances(t *testing.T) {
	a := New()
	b := New()

	a.VarDecay = 0.5
	require.NotEqual(t, a.VarDecay, b.VarDecay)
	require.NotSame(t, a.Logger, b.Logger)
}
