// Package search implements the propagate -> branch -> decide loop of
// spec.md sections 4.5/4.6/5, with a Luby restart schedule and the
// limit/abort polling section 5 describes. It is deliberately
// assumption-agnostic: an assumption is nothing more than an ordinary
// decision the caller enqueues before calling Solve, at a level the
// caller tracks as rootLevel. Package solver owns the actual
// assumptions/assumptionLevel/failedCore bookkeeping (SPEC_FULL.md
// section 3) and calls Driver.Solve once per query, passing rootLevel
// so the driver knows where "no more decisions to undo" begins.
//
// Grounded on EricR-saturday/solver.Solver.search
// (solver/solver_search.go) for the overall conflict/no-conflict
// branch shape and the decision/restart/reduceDB trigger points, with
// two deliberate departures SPEC_FULL.md section 1 calls for: restarts
// follow a Luby schedule (base/unit parameters) rather than the
// teacher's geometric maxConflicts growth, and assumption handling
// lives one layer up instead of being threaded through search itself.
package search

import (
	"time"

	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/brancher"
	"github.com/AllenZzw/geas/conflict"
	"github.com/AllenZzw/geas/engine"
	"github.com/AllenZzw/geas/propagator"
)

// Status is the three-valued outcome of a Solve call, spec.md section 6.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusSAT
	StatusUNSAT
)

// Limits bounds a single Solve call, spec.md section 5's "time and
// conflict-count limits tracked by the driver". A zero value in either
// field means unbounded.
type Limits struct {
	MaxConflicts int64
	Deadline     time.Time
}

// Stats are the counters spec.md section 6's get_statistics returns.
type Stats struct {
	Conflicts    int64
	Solutions    int64
	Restarts     int64
	Decisions    int64
	Propagations int64
}

// Driver runs one engine.Engine to a SAT/UNSAT/UNKNOWN verdict.
type Driver struct {
	eng *engine.Engine
	an  *conflict.Analyzer
	br  brancher.Brancher

	lubyBase float64
	lubyUnit int64
	restarts int64

	learntCap int

	Stats Stats

	// finalConflict is the negation of the most recent UNSAT verdict's
	// learnt clause, i.e. the original atom set whose conjunction was
	// inconsistent. At or below rootLevel this is exactly the caller's
	// assumption core (see the package doc comment).
	finalConflict []atom.Atom
}

// NewDriver returns a Driver over eng, using an for conflict analysis
// and br to pick decisions. lubyBase/lubyUnit parametrize the restart
// schedule (spec.md section 6's "restart schedule parameters");
// learntCap <= 0 falls back to a MiniSat-style dynamic cap scaling with
// the number of problem clauses, since spec.md section 6 names a
// learnt-DB cap option but original_source/ does not pin one fixed
// formula for it.
func NewDriver(eng *engine.Engine, an *conflict.Analyzer, br brancher.Brancher, lubyBase float64, lubyUnit int64, learntCap int) *Driver {
	return &Driver{eng: eng, an: an, br: br, lubyBase: lubyBase, lubyUnit: lubyUnit, learntCap: learntCap}
}

// FinalConflict returns the atom set behind the most recent UNSAT
// verdict, for the caller to intersect against its own assumption set.
func (d *Driver) FinalConflict() []atom.Atom {
	return d.finalConflict
}

// luby returns the MiniSat restart sequence value for run index x
// (0-based), ported directly from the standard luby(double y, int x)
// recurrence: find the smallest all-ones run containing x, then
// recurse into the half that does.
func luby(base float64, x int64) float64 {
	size, seq := int64(1), int64(0)
	for size < x+1 {
		seq++
		size = 2*size + 1
	}
	for size-1 != x {
		size = (size - 1) / 2
		seq--
		x = x % size
	}
	pow := 1.0
	for i := int64(0); i < seq; i++ {
		pow *= base
	}
	return pow
}

func (d *Driver) restartBudget() int64 {
	return d.lubyUnit * int64(luby(d.lubyBase, d.restarts))
}

func (d *Driver) dynamicLearntCap() int {
	if d.learntCap > 0 {
		return d.learntCap
	}
	n := d.eng.Clauses.NumProblem()/3 + 100
	if n < 100 {
		n = 100
	}
	return n
}

// Solve runs propagate/branch/decide until a verdict is reached or
// limits/abort cuts it short. rootLevel is the decision level the
// caller has already committed to (0 plus one level per pushed
// assumption) -- Solve never backtracks above it and treats any
// conflict that cannot be resolved past it as terminal.
func (d *Driver) Solve(limits Limits, rootLevel int) Status {
	var confl propagator.Explanation
	conflictsThisRun := int64(0)
	conflictsSinceRestart := int64(0)

	for {
		if *d.eng.AbortFlag() {
			d.eng.BacktrackTo(rootLevel)
			return StatusUnknown
		}
		if !limits.Deadline.IsZero() && time.Now().After(limits.Deadline) {
			d.eng.BacktrackTo(rootLevel)
			return StatusUnknown
		}
		if limits.MaxConflicts > 0 && conflictsThisRun >= limits.MaxConflicts {
			d.eng.BacktrackTo(rootLevel)
			return StatusUnknown
		}

		confl.Atoms = confl.Atoms[:0]
		before := d.eng.TrailLen()
		ok := d.eng.Propagate(&confl)
		d.Stats.Propagations += int64(d.eng.TrailLen() - before)

		if !ok {
			d.Stats.Conflicts++
			conflictsThisRun++
			conflictsSinceRestart++

			curLevel := d.eng.Level()
			if curLevel == 0 {
				// No decision on the trail: every antecedent holds at the
				// root, so there is nothing to analyze.
				d.finalConflict = nil
				return StatusUNSAT
			}
			learnt, bt := d.an.Analyze(confl.Atoms)

			if curLevel <= rootLevel || bt < rootLevel {
				d.storeFinalConflict(learnt)
				d.eng.BacktrackTo(rootLevel)
				return StatusUNSAT
			}

			d.an.Record(learnt, bt)
			d.eng.DecayVarActivity()
			d.eng.DecayClauseActivity()

			if d.eng.Clauses.NumLearnts() >= d.dynamicLearntCap() {
				d.eng.ReduceDB()
			}

			budget := d.restartBudget()
			if conflictsSinceRestart >= budget {
				conflictsSinceRestart = 0
				d.restarts++
				d.Stats.Restarts++
				d.eng.BacktrackTo(rootLevel)
			}
			continue
		}

		if d.eng.Level() == 0 {
			if !d.eng.RootSimplify(&confl) {
				// Level 0: the conflict rests on root bounds alone.
				d.finalConflict = nil
				return StatusUNSAT
			}
		}

		a, found := d.br.SelectDecision()
		if !found {
			d.Stats.Solutions++
			return StatusSAT
		}

		d.Stats.Decisions++
		d.eng.PushLevel()
		// The brancher contract guarantees a is neither entailed nor
		// inconsistent (it always splits an unfixed predicate's range),
		// so this mirrors EricR-saturday's assume call in its own search
		// loop, which likewise never checks the bool here.
		d.eng.Enqueue(a, propagator.Decision)
	}
}

func (d *Driver) storeFinalConflict(learnt []atom.Atom) {
	out := make([]atom.Atom, 0, len(learnt))
	for _, l := range learnt {
		out = append(out, l.Not())
	}
	d.finalConflict = out
}
