// Package metrics backs spec.md section 6's get_statistics counters
// (conflicts, solutions, restarts, decisions, propagations) with real
// prometheus counters, per SPEC_FULL.md section 1's observability
// expansion: a long-lived process embedding this solver can scrape
// them, while Solver.GetStatistics() stays a cheap snapshot read
// rather than a second source of truth.
//
// Grounded on operator-framework-operator-lifecycle-manager/pkg/metrics.metrics.go's
// package-level prometheus.NewCounter/NewGauge + MustRegister shape.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds one solver instance's counters. A package-level
// registry (the teacher's pattern) would collide across multiple
// concurrently-embedded Solver instances, so this repo gives each
// Solver its own Registry and its own prometheus.Registerer rather than
// registering against prometheus.DefaultRegisterer at init time.
type Registry struct {
	Conflicts    prometheus.Counter
	Solutions    prometheus.Counter
	Restarts     prometheus.Counter
	Decisions    prometheus.Counter
	Propagations prometheus.Counter
}

// New creates a fresh Registry and registers every metric against reg.
// Passing a prometheus.NewRegistry() keeps independent Solver instances
// from clashing; passing prometheus.DefaultRegisterer opts into the
// process-wide default registry the way a single-solver-per-process
// embedder typically wants.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geas_conflicts_total",
			Help: "Number of conflicts encountered during search.",
		}),
		Solutions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geas_solutions_total",
			Help: "Number of satisfying assignments found.",
		}),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geas_restarts_total",
			Help: "Number of search restarts performed.",
		}),
		Decisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geas_decisions_total",
			Help: "Number of branching decisions made.",
		}),
		Propagations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geas_propagations_total",
			Help: "Number of predicate bound changes applied.",
		}),
	}
	reg.MustRegister(r.Conflicts, r.Solutions, r.Restarts, r.Decisions, r.Propagations)
	return r
}

// Sync adds the delta between s and the Registry's last-observed values
// to the underlying prometheus counters -- prometheus.Counter only
// supports Add/Inc, while search.Stats holds running totals, so Sync
// takes the running totals and the previous snapshot and advances the
// counters by the difference.
func (r *Registry) Sync(prev, cur Snapshot) {
	r.Conflicts.Add(float64(cur.Conflicts - prev.Conflicts))
	r.Solutions.Add(float64(cur.Solutions - prev.Solutions))
	r.Restarts.Add(float64(cur.Restarts - prev.Restarts))
	r.Decisions.Add(float64(cur.Decisions - prev.Decisions))
	r.Propagations.Add(float64(cur.Propagations - prev.Propagations))
}

// Snapshot is the plain-struct counter view spec.md section 6's
// get_statistics returns, independent of search.Stats so callers don't
// need to import package search just to read statistics.
type Snapshot struct {
	Conflicts    int64
	Solutions    int64
	Restarts     int64
	Decisions    int64
	Propagations int64
}
