// Package infer implements the predicate/watch layer of spec.md section
// 4.3: for each predicate, an ordered chain of watch nodes keyed by
// threshold value, and propagate_pred's walk across every node just
// crossed by a bound update.
//
// Grounded on EricR-saturday/solver.Solver's watches map[lit.Lit][]*Clause
// (solver/solver.go, solver_propagation.go): the teacher's watch list is
// a flat per-literal slice because a SAT literal only ever has one
// "threshold" (itself). Predicates here have an ordered domain, so a
// per-predicate bucket is keyed by the tick at which it starts mattering,
// generalizing the teacher's map to the "sorted chain of watch nodes"
// spec.md section 3 describes, additionally grounded on
// other_examples/go-air-gini__watch.go's watch-list-per-literal shape for
// how a production Go solver keeps the crossed/not-yet-crossed split
// trailed.
package infer

import (
	"sort"

	"github.com/AllenZzw/geas/atom"
	"github.com/AllenZzw/geas/clause"
	"github.com/AllenZzw/geas/pval"
	"github.com/AllenZzw/geas/trail"
)

// node is one watch-chain element: the threshold at which its bucket of
// clause heads becomes relevant, and the heads themselves.
type node struct {
	threshold pval.Val
	heads     []clause.Head
}

// chain is the per-predicate sorted list of watch nodes plus the trailed
// index of the first node not yet crossed by the current bound.
type chain struct {
	nodes []node
	head  trail.Trailed[int]
}

// Infer owns every predicate's watch chain.
type Infer struct {
	chains []chain
	t      *trail.Trail
}

// New returns an empty Infer bound to t for trailing head-pointer moves.
func New(t *trail.Trail) *Infer {
	return &Infer{t: t}
}

// ensure grows the chain slice so pid is addressable.
func (inf *Infer) ensure(pid pval.Pid) {
	for pval.Pid(len(inf.chains)) <= pid {
		inf.chains = append(inf.chains, chain{head: trail.NewTrailed(0)})
	}
}

// Watch registers head to fire once head.W becomes false, i.e. once
// head.W.Not()'s predicate reaches head.W.Not()'s threshold. Keying off
// the watched literal itself (rather than a separate pid/threshold pair)
// mirrors EricR-saturday's addToWatcher(lits[k].Not()) call, which always
// derives the watch key from the literal being watched. If a node already
// exists at that threshold, head is appended to its bucket (amortized
// O(1) via a prior binary search to find/insert the node, O(log n)
// insertion as spec.md section 4.3 calls for).
func (inf *Infer) Watch(head clause.Head) {
	neg := head.W.Not()
	pid, threshold := neg.Pid, neg.Val

	inf.ensure(pid)
	c := &inf.chains[pid]

	idx := sort.Search(len(c.nodes), func(i int) bool {
		return c.nodes[i].threshold >= threshold
	})
	if idx < len(c.nodes) && c.nodes[idx].threshold == threshold {
		c.nodes[idx].heads = append(c.nodes[idx].heads, head)
		return
	}
	c.nodes = append(c.nodes, node{})
	copy(c.nodes[idx+1:], c.nodes[idx:])
	c.nodes[idx] = node{threshold: threshold, heads: []clause.Head{head}}

	// Inserting below the current head pointer would silently make an
	// already-crossed threshold look uncrossed, so the head pointer moves
	// up with it. This happens for a learnt clause, whose second watched
	// literal is already false after the backjump.
	if idx < c.head.Get() {
		c.head.Set(inf.t, c.head.Get()+1)
	}
}

// Unwatch removes every head in w's bucket for which match returns true.
// Used when a long clause re-watches a different literal and must drop
// its old registration, and when a clause is deleted by reduceDB/root
// simplification.
func (inf *Infer) Unwatch(w atom.Atom, match func(clause.Head) bool) {
	neg := w.Not()
	pid, threshold := neg.Pid, neg.Val

	if int(pid) >= len(inf.chains) {
		return
	}
	c := &inf.chains[pid]
	idx := sort.Search(len(c.nodes), func(i int) bool {
		return c.nodes[i].threshold >= threshold
	})
	if idx >= len(c.nodes) || c.nodes[idx].threshold != threshold {
		return
	}
	heads := c.nodes[idx].heads
	j := 0
	for _, h := range heads {
		if !match(h) {
			heads[j] = h
			j++
		}
	}
	c.nodes[idx].heads = heads[:j]
}

// CrossedSince returns every head belonging to a node whose threshold is
// <= bound and > the threshold of the last node already crossed,
// advancing the chain's trailed head pointer past them. This is the
// node-walk half of propagate_pred in spec.md section 4.3; the caller
// (package engine) is responsible for acting on each returned head
// (binary-clause enqueue, long-clause re-watch, or unit detection).
func (inf *Infer) CrossedSince(pid pval.Pid, bound pval.Val) []clause.Head {
	if int(pid) >= len(inf.chains) {
		return nil
	}
	c := &inf.chains[pid]
	start := c.head.Get()
	end := start
	for end < len(c.nodes) && c.nodes[end].threshold <= bound {
		end++
	}
	if end == start {
		return nil
	}
	c.head.Set(inf.t, end)

	var out []clause.Head
	for i := start; i < end; i++ {
		out = append(out, c.nodes[i].heads...)
	}
	return out
}

// NumWatched returns the number of distinct thresholds watched on pid,
// for diagnostics/tests.
func (inf *Infer) NumWatched(pid pval.Pid) int {
	if int(pid) >= len(inf.chains) {
		return 0
	}
	return len(inf.chains[pid].nodes)
}
