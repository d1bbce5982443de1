// Package config holds solver-wide settings, spec.md section 6's
// "Options include: eager-propagation threshold, conflict limit, time
// limit, restart schedule parameters, learnt DB cap, logging sink".
//
// Grounded on EricR-saturday/config.Config (config/config.go) for the
// plain-struct-with-a-New()-factory shape -- a library embedded in a
// host process has no business reading a config file or environment,
// so this stays a struct with defaults, not a viper-style loader --
// upgraded per SPEC_FULL.md section 1 to carry a *logrus.Logger instead
// of the teacher's *log.Logger, plus every field spec.md section 6
// names that the teacher's two-field (VarDecay/ClaDecay) Config never
// needed because it had no finite-domain propagators, restarts, or
// learnt-DB cap.
package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures one Solver. Zero value is not meaningful; use New.
type Options struct {
	Logger *logrus.Logger

	// VarDecay and ClaDecay are the variable- and clause-activity decay
	// factors, matching the teacher's Config fields one-for-one.
	VarDecay float64
	ClaDecay float64

	// EagerThreshold: domains smaller than this are expanded via
	// exclusion clauses at construction time (intvar.Sparsify) rather
	// than left for a propagator to filter lazily.
	EagerThreshold int

	// ConflictLimit and TimeLimit bound a single Solve call; zero means
	// unbounded. TimeLimit is a duration from the moment Solve is
	// called, not a deadline -- Solver converts it to one internally.
	ConflictLimit int64
	TimeLimit     time.Duration

	// LubyBase and LubyUnit parametrize the restart schedule (spec.md
	// section 6), the redesign SPEC_FULL.md section 1 commits this repo
	// to in place of the teacher's geometric maxConflicts growth.
	LubyBase float64
	LubyUnit int64

	// LearntDBCap bounds the learnt clause set before search.Driver
	// evicts the lower activity half; <= 0 selects a dynamic cap scaled
	// by the number of problem clauses (see search.Driver).
	LearntDBCap int
}

// New returns Options with the same sane defaults EricR-saturday's
// config.New returns for VarDecay/ClaDecay, extended with the rest of
// spec.md section 6's fields. The logger defaults to logrus.New() at
// WarnLevel, mirroring the teacher's log.New(os.Stdout, ...) default
// but quiet by default the way a library embedded in a host process
// should be.
func New() *Options {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return &Options{
		Logger:         logger,
		VarDecay:       0.95,
		ClaDecay:       0.999,
		EagerThreshold: 32,
		LubyBase:       2.0,
		LubyUnit:       100,
	}
}
