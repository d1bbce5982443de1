// Package solver is the facade spec.md section 6 describes: the
// external interface a caller links against to allocate variables, post
// constraints and atoms, assume, solve, and read back a model, a
// conflict core, or statistics. Everything it does is a thin
// composition of engine.Engine (the inference core), conflict.Analyzer,
// brancher.Brancher, search.Driver, and the constraints/intvar/model
// helper packages -- Solver itself owns no CDCL machinery of its own.
//
// Grounded on EricR-saturday/solver.Solver for its New()-factory and
// accessor-method conventions (Version, NVars-style counters), the
// facade shape is otherwise new: the teacher's Solver directly embeds
// its own trail/clause/watch/analysis implementation because it has
// nothing underneath to delegate to, whereas this repo split that
// implementation into engine/clause/infer/conflict/queue/trail during
// earlier construction (see DESIGN.md's per-package grounding entries)
// specifically so a thin top-level facade like this one could exist.
// Assumption and unsat-core bookkeeping (spec.md section 4.8,
// supplemented per SPEC_FULL.md section 3 from
// other_examples/go-air-gini__s.go's assumes/testLevels/failed fields)
// lives here rather than in package search, which stays assumption-
// agnostic.
package solver

import (
	"time"

	"github.com/blang/semver/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/brancher"
	"github.com/AllenZzw/geas/config"
	"github.com/AllenZzw/geas/conflict"
	"github.com/AllenZzw/geas/constraints"
	"github.com/AllenZzw/geas/engine"
	"github.com/AllenZzw/geas/intvar"
	"github.com/AllenZzw/geas/metrics"
	"github.com/AllenZzw/geas/model"
	"github.com/AllenZzw/geas/predstate"
	"github.com/AllenZzw/geas/propagator"
	"github.com/AllenZzw/geas/pval"
	"github.com/AllenZzw/geas/search"
)

// VersionMajor/VersionMinor/VersionPatch mirror EricR-saturday's
// VersionMajor/VersionMinor constants, extended to a full semver triple
// since Version() now returns a github.com/blang/semver/v4 value rather
// than an ad hoc fmt.Sprintf("%d.%d", ...) string.
const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

// Version returns the solver's version.
func Version() semver.Version {
	return semver.Version{Major: VersionMajor, Minor: VersionMinor, Patch: VersionPatch}
}

// Solver is the top-level handle spec.md section 6's new_solver/
// destroy_solver pair describes (destroy_solver has no Go counterpart;
// the Solver and everything it owns is reclaimed by the garbage
// collector once unreferenced).
type Solver struct {
	opts *config.Options
	eng  *engine.Engine
	an   *conflict.Analyzer
	br   brancher.Brancher
	drv  *search.Driver

	metricsReg  *metrics.Registry
	metricsPrev metrics.Snapshot

	assumptions     []atom.Atom
	assumptionLevel int
	failedCore      []atom.Atom

	lastModel *model.Model
}

// NewSolver returns a Solver configured by opts, following
// EricR-saturday's New(conf) factory. A nil opts is replaced by
// config.New()'s defaults. reg may be nil, in which case a private,
// unreferenced prometheus.Registry is used -- the metrics still update,
// they are just never scraped by anything.
func NewSolver(opts *config.Options, reg prometheus.Registerer) *Solver {
	if opts == nil {
		opts = config.New()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	eng := engine.New(opts.ClaDecay, opts.VarDecay)
	an := conflict.New(eng)
	br := brancher.NewActivityOrder(eng)
	drv := search.NewDriver(eng, an, br, opts.LubyBase, opts.LubyUnit, opts.LearntDBCap)
	return &Solver{
		opts:       opts,
		eng:        eng,
		an:         an,
		br:         br,
		drv:        drv,
		metricsReg: metrics.New(reg),
	}
}

// SetBrancher overrides the decision strategy used for future Solve
// calls (spec.md section 6's brancher plug-in point), in place of the
// default brancher.ActivityOrder NewSolver installs.
func (s *Solver) SetBrancher(br brancher.Brancher) {
	s.br = br
	s.drv = search.NewDriver(s.eng, s.an, br, s.opts.LubyBase, s.opts.LubyUnit, s.opts.LearntDBCap)
}

// NewIntVar creates an integer variable with [lb, ub]. If ub-lb is
// smaller than the configured eager-propagation threshold, spec.md
// section 6's "domains smaller than this are expanded via clauses
// rather than propagator" is realized by routing through
// intvar.Sparsify over the full enumerated range instead of a plain
// NewIntVar, so every value exclusion is a root clause from the start.
func (s *Solver) NewIntVar(lb, ub int64) *intvar.IntVar {
	if s.opts.EagerThreshold > 0 && ub-lb+1 <= int64(s.opts.EagerThreshold) {
		vals := make([]int64, 0, ub-lb+1)
		for v := lb; v <= ub; v++ {
			vals = append(vals, v)
		}
		if v, ok := intvar.Sparsify(s.eng, vals); ok {
			s.registerPred(v.Pid())
			return v
		}
	}
	v := intvar.NewIntVar(s.eng, lb, ub)
	s.registerPred(v.Pid())
	return v
}

// NewBool creates a Boolean atom, represented as a 0/1 intvar.
func (s *Solver) NewBool() *intvar.IntVar {
	v := intvar.NewBool(s.eng)
	s.registerPred(v.Pid())
	return v
}

// predRegistrar is satisfied by brancher.ActivityOrder's NewPred
// method. Branchers that don't track per-predicate state (Seq,
// Priority, Toggle, Limit, Warmstart, or a caller's own Brancher) don't
// need telling about newly allocated predicates, so this is an optional
// capability check rather than part of the brancher.Brancher interface
// itself.
type predRegistrar interface {
	NewPred(pid pval.Pid)
}

// registerPred notifies the active brancher that pid was just
// allocated, needed because engine.Engine.NewPredScaled (reached here
// through intvar.NewIntVar/Sparsify) has no brancher of its own to
// notify -- brancher.NewActivityOrder only walks predicates that exist
// at construction time; every predicate allocated afterward must be
// registered explicitly, and Solver's variable constructors are the
// only place new predicates enter the system once search is underway.
func (s *Solver) registerPred(pid pval.Pid) {
	if r, ok := s.br.(predRegistrar); ok {
		r.NewPred(pid)
	}
}

// OffsetView returns v shifted by k (spec.md section 6's "Create ...
// offset intvar").
func (s *Solver) OffsetView(v *intvar.IntVar, k int64) *intvar.IntVar {
	return v.Offset(k)
}

// NegView returns -v (spec.md section 6's "Create a permuted view ...
// intvar").
func (s *Solver) NegView(v *intvar.IntVar) *intvar.IntVar {
	return v.Neg()
}

// Sparsify restricts v's domain to an enumerated set of values.
func (s *Solver) Sparsify(vals []int64) (*intvar.IntVar, bool) {
	v, ok := intvar.Sparsify(s.eng, vals)
	if v != nil {
		s.registerPred(v.Pid())
	}
	return v, ok
}

// Post adds atom a as a unit clause at level 0, spec.md section 6's
// post(atom). Returns false on root inconsistency.
func (s *Solver) Post(a atom.Atom) bool {
	ok, _ := s.eng.AddClause([]atom.Atom{a}, false)
	return ok
}

// PostClause posts a disjunction of atoms as a root-level clause,
// spec.md section 6's bulk-loading path for formulas expressed as
// CNF (see package encoding) rather than one atom at a time via Post.
func (s *Solver) PostClause(lits []atom.Atom) bool {
	ok, _ := s.eng.AddClause(lits, false)
	return ok
}

// PostLinearLE posts sum(coeffs[i]*xs[i]) <= k.
func (s *Solver) PostLinearLE(coeffs []int64, xs []*intvar.IntVar, k int64) bool {
	return constraints.PostSumLE(s.eng, coeffs, xs, k)
}

// PostBoolLinearGE posts z >= k + sum(coeffs[i]*bs[i]) over 0/1 intvars
// bs with non-negative coefficients.
func (s *Solver) PostBoolLinearGE(z *intvar.IntVar, coeffs []int64, bs []*intvar.IntVar, k int64) bool {
	return constraints.PostBoolLinearGE(s.eng, z, coeffs, bs, k)
}

// PostNotEqual posts x+offset != y.
func (s *Solver) PostNotEqual(x, y *intvar.IntVar, offset int64) bool {
	return constraints.PostNotEqual(s.eng, x, y, offset)
}

// PostAllDifferent posts pairwise disequality over xs.
func (s *Solver) PostAllDifferent(xs []*intvar.IntVar) bool {
	return constraints.PostAllDifferent(s.eng, xs)
}

// PostProduct posts z = x*y for x, y >= 0.
func (s *Solver) PostProduct(z, x, y *intvar.IntVar) bool {
	return constraints.PostProductNonNeg(s.eng, z, x, y)
}

// PostAbs posts z = |x|.
func (s *Solver) PostAbs(z, x *intvar.IntVar) bool {
	return constraints.PostAbs(s.eng, z, x)
}

// PostMax posts z = max(xs...).
func (s *Solver) PostMax(z *intvar.IntVar, xs []*intvar.IntVar) bool {
	return constraints.PostMax(s.eng, z, xs)
}

// PostReifiedLE posts b <=> (x <= k).
func (s *Solver) PostReifiedLE(b, x *intvar.IntVar, k int64) bool {
	return constraints.PostReifiedLE(s.eng, b, x, k)
}

// Assume pushes an assumption atom, spec.md section 6's assume(atom),
// applying it immediately (one fresh decision level, enqueued and
// propagated to fixpoint) rather than deferring it into the search
// loop, per other_examples/go-air-gini__s.go's Assume/Test semantics:
// the caller gets an immediate true/false answer for whether the
// assumption is still consistent with everything posted and assumed so
// far, exactly as Test() there reports.
//
// Both failure paths run conflict analysis and populate s.failedCore,
// per spec.md section 4.8: an assumption that is inconsistent before
// any propagation runs is as much a conflict as one discovered mid-
// propagation, and its core is owed to the caller exactly the same way.
func (s *Solver) Assume(a atom.Atom) bool {
	s.eng.PushLevel()
	if !s.eng.Enqueue(a, propagator.Decision) {
		// a's negation is already entailed from an earlier level (this
		// freshly pushed level has no trail entries of its own yet), so
		// backtrack it away before analyzing -- Analyze walks the trail
		// from the engine's current level, which must be the level that
		// actually entails a.Not(), not an empty level above it.
		s.eng.BacktrackTo(s.assumptionLevel)
		s.failedCore = append([]atom.Atom{a}, s.assumeConflictCore(a.Not())...)
		return false
	}
	var confl propagator.Explanation
	if !s.eng.Propagate(&confl) {
		learnt, _ := s.an.Analyze(confl.Atoms)
		s.eng.BacktrackTo(s.assumptionLevel)
		s.failedCore = append([]atom.Atom{a}, intersectAssumptions(negateAll(learnt), s.assumptions)...)
		return false
	}
	s.assumptions = append(s.assumptions, a)
	s.assumptionLevel++
	return true
}

// assumeConflictCore runs 1-UIP analysis on the antecedent of the single
// entailed atom that made an assumption immediately inconsistent,
// restricted to the previously pushed assumptions. A nil learnt (entailed
// holds from the root bound alone) has no assumption antecedents to trace.
func (s *Solver) assumeConflictCore(entailed atom.Atom) []atom.Atom {
	learnt, _ := s.an.AnalyzeEntailed(entailed)
	if learnt == nil {
		return nil
	}
	return intersectAssumptions(negateAll(learnt), s.assumptions)
}

// negateAll mirrors search.Driver.storeFinalConflict's learnt->entailed
// conversion: every element of a learnt clause (other than possibly the
// asserting literal at index 0, likewise handled the same way there) is
// the negation of an atom entailed at conflict time.
func negateAll(learnt []atom.Atom) []atom.Atom {
	out := make([]atom.Atom, 0, len(learnt))
	for _, l := range learnt {
		out = append(out, l.Not())
	}
	return out
}

// Retract pops the most recently pushed assumption.
func (s *Solver) Retract() {
	if len(s.assumptions) == 0 {
		return
	}
	s.assumptions = s.assumptions[:len(s.assumptions)-1]
	s.assumptionLevel--
	s.eng.BacktrackTo(s.assumptionLevel)
}

// ClearAssumptions drops every pushed assumption.
func (s *Solver) ClearAssumptions() {
	s.assumptions = nil
	s.assumptionLevel = 0
	s.eng.BacktrackTo(0)
}

// Limits bounds a Solve call, mirroring search.Limits but expressed as
// a duration (from "now") rather than an absolute deadline, since
// callers think in "give it 5 seconds", not in wall-clock instants.
type Limits struct {
	MaxConflicts int64
	TimeLimit    time.Duration
}

// Solve runs search to a verdict under the currently pushed
// assumptions. limits.MaxConflicts/TimeLimit of zero fall back to
// s.opts.ConflictLimit/TimeLimit.
func (s *Solver) Solve(limits Limits) search.Status {
	maxConflicts := limits.MaxConflicts
	if maxConflicts == 0 {
		maxConflicts = s.opts.ConflictLimit
	}
	timeLimit := limits.TimeLimit
	if timeLimit == 0 {
		timeLimit = s.opts.TimeLimit
	}
	var deadline time.Time
	if timeLimit > 0 {
		deadline = time.Now().Add(timeLimit)
	}

	status := s.drv.Solve(search.Limits{MaxConflicts: maxConflicts, Deadline: deadline}, s.assumptionLevel)
	switch status {
	case search.StatusSAT:
		s.lastModel = s.snapshotModel()
	case search.StatusUNSAT:
		s.failedCore = intersectAssumptions(s.drv.FinalConflict(), s.assumptions)
	}
	s.syncMetrics()
	return status
}

// GetModel returns the snapshot taken at the most recent SAT verdict,
// spec.md section 6's get_model(): "snapshot of values for all
// predicates after SAT".
func (s *Solver) GetModel() *model.Model {
	return s.lastModel
}

func (s *Solver) snapshotModel() *model.Model {
	n := s.eng.NumPreds()
	values := make(map[pval.Pid]int64, n/2)
	for pid := pval.Pid(0); int(pid) < n; pid += 2 {
		values[pid] = s.eng.PS.ToUser(pid, s.eng.PS.Val(pid, predstate.Current))
	}
	return model.New(values)
}

// GetConflict returns the assumption core spec.md section 6's
// get_conflict(out) describes: every atom in it is one of the pushed
// assumptions, per invariant P7.
func (s *Solver) GetConflict() []atom.Atom {
	return s.failedCore
}

// Abort sets the asynchronous cancellation flag spec.md section 5
// names; the next decision-iteration poll in search.Driver.Solve will
// observe it and return StatusUnknown.
func (s *Solver) Abort() {
	*s.eng.AbortFlag() = true
}

// GetStatistics returns a snapshot of the counters spec.md section 6
// names. It does not touch the backing prometheus counters; Solve
// advances those (via syncMetrics) by the delta since the previous
// snapshot.
func (s *Solver) GetStatistics() metrics.Snapshot {
	return metrics.Snapshot{
		Conflicts:    s.drv.Stats.Conflicts,
		Solutions:    s.drv.Stats.Solutions,
		Restarts:     s.drv.Stats.Restarts,
		Decisions:    s.drv.Stats.Decisions,
		Propagations: s.drv.Stats.Propagations,
	}
}

func (s *Solver) syncMetrics() {
	cur := s.GetStatistics()
	s.metricsReg.Sync(s.metricsPrev, cur)
	s.metricsPrev = cur
}

// intersectAssumptions restricts final (a sound but possibly
// over-inclusive atom set from search.Driver.FinalConflict) to exactly
// the atoms that are themselves pushed assumptions, per spec.md P7.
// See search.Driver's doc comment on FinalConflict for why every
// element of final is already expected to match one of assumptions;
// this filters out the defensive case where it does not (e.g. a
// conflict purely among posted constraints, with no assumption
// involvement at all).
func intersectAssumptions(final, assumptions []atom.Atom) []atom.Atom {
	var out []atom.Atom
	for _, f := range final {
		for _, a := range assumptions {
			if f.Equal(a) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}
