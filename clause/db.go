package clause

// Learnt-clause management (spec.md section 4.7): activity bumping and a
// deletion policy that runs periodically, skipping clauses currently
// locked (acting as a trail reason).
//
// Grounded on EricR-saturday/solver_db.go (reduceDB) and
// solver_heuristics.go (claBumpActivity/claDecayActivity/
// claRescaleActivity), generalized from the solver holding []*Clause
// slices directly to the DB owning Problem/Learnt ref lists so a Ref
// handle, not a pointer, is what the rest of the engine holds.

// ActivityTracker holds the clause-activity increment and its decay
// factor, separated from DB so callers can reset it per search() call
// (EricR-saturday resets claInc to 1.0 at the top of every Solve()).
type ActivityTracker struct {
	Inc   float64
	Decay float64
}

// NewActivityTracker returns a tracker with activity increment 1.0.
func NewActivityTracker(decay float64) *ActivityTracker {
	return &ActivityTracker{Inc: 1.0, Decay: decay}
}

// Bump bumps c's activity by the tracker's current increment, rescaling
// every learnt clause in db if the increment would otherwise overflow.
func (at *ActivityTracker) Bump(db *DB, c *Clause) {
	c.BumpActivity(at.Inc)
	if c.activity > 1e20 {
		for _, ref := range db.Learnts {
			db.Get(ref).RescaleActivity(1e-20)
		}
		at.Inc *= 1e-20
	}
}

// ApplyDecay applies the decay factor to the increment, making future
// bumps relatively larger (MiniSat-style activity decay).
func (at *ActivityTracker) ApplyDecay() {
	at.Inc /= at.Decay
}

// AddProblem registers ref as a root-level (non-learnt) clause.
func (db *DB) AddProblem(ref Ref) {
	db.Problem = append(db.Problem, ref)
}

// AddLearnt registers ref as a learnt clause.
func (db *DB) AddLearnt(ref Ref) {
	db.Learnts = append(db.Learnts, ref)
}

// NumLearnts returns the number of currently-tracked learnt clauses
// (deleted ones are pruned by CompactLearnts, not counted here lazily).
func (db *DB) NumLearnts() int {
	return len(db.Learnts)
}

// NumProblem returns the number of root-level clauses.
func (db *DB) NumProblem() int {
	return len(db.Problem)
}

// CompactLearnts drops learnt Refs for which keep returns false, used
// after reduceDB or root simplification marks clauses deleted.
func (db *DB) CompactLearnts(keep func(Ref) bool) {
	j := 0
	for _, ref := range db.Learnts {
		if keep(ref) {
			db.Learnts[j] = ref
			j++
		}
	}
	db.Learnts = db.Learnts[:j]
}

// CompactProblem drops problem Refs for which keep returns false, used
// by level-0 root simplification.
func (db *DB) CompactProblem(keep func(Ref) bool) {
	j := 0
	for _, ref := range db.Problem {
		if keep(ref) {
			db.Problem[j] = ref
			j++
		}
	}
	db.Problem = db.Problem[:j]
}
