// Package encoding reads DIMACS CNF, the bulk-loading format spec.md
// section 6 names alongside the one-atom-at-a-time Post API, and turns
// it directly into posted clauses over freshly allocated Boolean
// intvars.
//
// Grounded on EricR-saturday/encoding.ParseDimacs (encoding/dimacs.go)
// for the scan-fields/skip-comment-and-header-lines/split-on-zero
// shape, generalized from returning [][]int (left for the caller to
// feed to a Boolean-only solver.AddClause([]int)) to posting directly
// against a *solver.Solver, since this solver has no int-literal
// AddClause entry point -- every clause here is built from atoms over
// intvar.IntVar Boolean variables the parser allocates lazily as new
// DIMACS variable numbers are first seen.
package encoding

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/intvar"
	"github.com/AllenZzw/geas/solver"
)

// LoadDimacs reads a DIMACS CNF stream and posts every clause it
// contains against sat, allocating one fresh Boolean intvar per DIMACS
// variable number the first time it is referenced. It returns the
// allocated variables indexed by DIMACS variable number (index 0
// unused, matching DIMACS's 1-based numbering), and an error only on a
// malformed line or a root-level contradiction spotted while posting.
func LoadDimacs(sat *solver.Solver, in io.Reader) ([]*intvar.IntVar, error) {
	scanner := bufio.NewScanner(in)
	var vars []*intvar.IntVar

	varFor := func(n int) *intvar.IntVar {
		for len(vars) <= n {
			vars = append(vars, nil)
		}
		if vars[n] == nil {
			vars[n] = sat.NewBool()
		}
		return vars[n]
	}

	for scanner.Scan() {
		fields := bytes.Fields(scanner.Bytes())
		if len(fields) < 2 {
			continue
		}
		switch string(fields[0]) {
		case "c", "p":
			continue
		}

		clause := make([]atom.Atom, 0, len(fields))
		for _, field := range fields {
			lit, err := strconv.Atoi(string(field))
			if err != nil {
				return nil, errors.Wrap(err, "encoding: malformed DIMACS literal")
			}
			if lit == 0 {
				continue
			}
			v := varFor(abs(lit))
			if lit > 0 {
				clause = append(clause, v.Ge(1))
			} else {
				clause = append(clause, v.Le(0))
			}
		}
		if len(clause) == 0 {
			continue
		}
		if !sat.PostClause(clause) {
			return vars, errors.New("encoding: clause unsatisfiable at root level")
		}
	}
	if err := scanner.Err(); err != nil {
		return vars, errors.Wrap(err, "encoding: scanning DIMACS input")
	}
	return vars, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
