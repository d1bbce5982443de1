// Command geas is the CLI entry point spec.md section 6 implies every
// external interface needs a driver for, rebuilt on cobra/pflag per
// SPEC_FULL.md section 1 in place of the teacher's bare flag package.
//
// Grounded on EricR-saturday/cmd/saturday/main.go for the overall
// read-CNF/solve/display-stats flow and flag names
// (-decay-var/-decay-cla for the activity decay constants), and on
// EricR-saturday/main.go for the version banner. solver.NVars/NConstrs/
// etc. do not exist on this repo's facade the way they did on the
// teacher's pure-SAT Solver (there is no 1:1 notion of "variable" once
// intvars and views are in play), so displayStats reads
// solver.GetStatistics() instead.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AllenZzw/geas/config"
	"github.com/AllenZzw/geas/encoding"
	"github.com/AllenZzw/geas/search"
	"github.com/AllenZzw/geas/solver"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "geas",
		Short: "geas is a lazy-clause-generation constraint solver",
	}
	root.AddCommand(newSolveCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the solver version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "geas %s\nhttps://github.com/AllenZzw/geas\n", solver.Version())
			return nil
		},
	}
}

func newSolveCmd() *cobra.Command {
	var (
		varDecay  float64
		claDecay  float64
		timeLimit time.Duration
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "solve <input.cnf>",
		Short: "Solve a DIMACS CNF formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.New()
			opts.VarDecay = varDecay
			opts.ClaDecay = claDecay
			opts.TimeLimit = timeLimit
			if lvl, err := logrus.ParseLevel(logLevel); err == nil {
				opts.Logger.SetLevel(lvl)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			sat := solver.NewSolver(opts, nil)
			vars, err := encoding.LoadDimacs(sat, f)
			if err != nil {
				return err
			}
			opts.Logger.Infof("loaded %d variables", len(vars)-1)

			start := time.Now()
			status := sat.Solve(solver.Limits{})
			elapsed := time.Since(start)

			displayStats(cmd, sat, elapsed)

			switch status {
			case search.StatusSAT:
				fmt.Fprint(cmd.OutOrStdout(), "s SATISFIABLE\n")
				model := sat.GetModel()
				for i := 1; i < len(vars); i++ {
					v, _ := model.Value(vars[i].Pid())
					if v != 0 {
						fmt.Fprintf(cmd.OutOrStdout(), "%d ", i)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "-%d ", i)
					}
				}
				fmt.Fprint(cmd.OutOrStdout(), "0\n")
			case search.StatusUNSAT:
				fmt.Fprint(cmd.OutOrStdout(), "s UNSATISFIABLE\n")
				os.Exit(3)
			default:
				fmt.Fprint(cmd.OutOrStdout(), "s UNKNOWN\n")
				os.Exit(2)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&varDecay, "decay-var", 0.95, "variable activity decay constant")
	flags.Float64Var(&claDecay, "decay-cla", 0.999, "clause activity decay constant")
	flags.DurationVar(&timeLimit, "time-limit", 0, "wall-clock limit, 0 for unbounded")
	flags.StringVar(&logLevel, "log-level", "warn", "logrus level: debug, info, warn, error")
	return cmd
}

func displayStats(cmd *cobra.Command, sat *solver.Solver, t time.Duration) {
	stats := sat.GetStatistics()
	w := cmd.ErrOrStderr()
	fmt.Fprint(w, "\n")
	fmt.Fprintf(w, "Time Taken:    %fs\n", t.Seconds())
	fmt.Fprintf(w, "Conflicts:     %d\n", stats.Conflicts)
	fmt.Fprintf(w, "Propagations:  %d\n", stats.Propagations)
	fmt.Fprintf(w, "Restarts:      %d\n", stats.Restarts)
	fmt.Fprintf(w, "Decisions:     %d\n", stats.Decisions)
	fmt.Fprint(w, "\n")
}
