package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func readCounter(t *testing.T, c prometheus.Counter) float64 {
	var m io_prometheus_client.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestSyncAdvancesByDelta(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.Sync(Snapshot{}, Snapshot{Conflicts: 3, Solutions: 1, Restarts: 0, Decisions: 5, Propagations: 20})
	require.Equal(t, float64(3), readCounter(t, r.Conflicts))
	require.Equal(t, float64(1), readCounter(t, r.Solutions))
	require.Equal(t, float64(5), readCounter(t, r.Decisions))
	require.Equal(t, float64(20), readCounter(t, r.Propagations))

	r.Sync(
		Snapshot{Conflicts: 3, Solutions: 1, Restarts: 0, Decisions: 5, Propagations: 20},
		Snapshot{Conflicts: 7, Solutions: 2, Restarts: 1, Decisions: 9, Propagations: 41},
	)
	require.Equal(t, float64(7), readCounter(t, r.Conflicts))
	require.Equal(t, float64(2), readCounter(t, r.Solutions))
	require.Equal(t, float64(1), readCounter(t, r.Restarts))
	require.Equal(t, float64(9), readCounter(t, r.Decisions))
	require.Equal(t, float64(41), readCounter(t, r.Propagations))
}

func TestNewRegistersDistinctInstances(t *testing.T) {
	regA := prometheus.NewRegistry()
	regB := prometheus.NewRegistry()

	require.NotPanics(t, func() {
		New(regA)
		New(regB)
	})
}
