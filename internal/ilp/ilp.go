// Package ilp implements a small mixed-integer linear programming solver:
// a dense-matrix simplex relaxation (via gonum's lp package) wrapped in a
// branch-and-bound search that explores the enumeration tree with a pool
// of concurrent workers.
//
// The solver only understands linear (in)equalities. Callers that need
// conditional ("if a then b") logic must linearize it themselves, e.g. via
// big-M or indicator-style inequalities; see the assign package for an
// example of encoding pairwise co-placement penalties this way.
package ilp

import (
	"context"
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// milpProblem is the concrete numerical form of a Problem: minimize c^T x
// subject to G x <= h and A x = b, with integrality required on the
// variables flagged in integralityConstraints.
type milpProblem struct {
	c []float64
	A *mat.Dense
	b []float64
	G *mat.Dense
	h []float64

	// integralityConstraints has the same order and length as c.
	integralityConstraints []bool

	// branchHeuristic controls which fractional variable is picked at each
	// branch-and-bound split. Zero value is BRANCH_MAXFUN.
	branchHeuristic BranchHeuristic
}

var (
	// ErrInitialRelaxationInfeasible names the case where the LP relaxation
	// of the root node has no feasible solution. solve does not return it:
	// an infeasible root ends the search with no incumbent, which solve
	// reports as NO_INTEGER_FEASIBLE_SOLUTION.
	ErrInitialRelaxationInfeasible = errors.New("ilp: initial relaxation is not feasible")

	// NO_INTEGER_FEASIBLE_SOLUTION is returned when the enumeration tree is
	// exhausted without finding any integer-feasible solution.
	NO_INTEGER_FEASIBLE_SOLUTION = errors.New("ilp: no integer feasible solution found")
)

// expectedFailures maps simplex-level errors, which are a normal and
// expected part of branch-and-bound (a pruned branch, a degenerate node),
// to the bnbDecision they correspond to, so the search loop does not
// mistake them for unexpected faults.
var expectedFailures = map[error]bnbDecision{
	lp.ErrInfeasible: SUBPROBLEM_NOT_FEASIBLE,
	lp.ErrSingular:   SUBPROBLEM_IS_DEGENERATE,
}

// milpSolution is the outcome of branch-and-bound search: the best
// integer-feasible solution found, if any.
type milpSolution struct {
	solution solution
}

// toInitialSubProblem converts the milpProblem's inequalities (if any) into
// equalities via slack variables, producing the root node of the
// enumeration tree.
func (p milpProblem) toInitialSubProblem() subProblem {
	cNew := p.c
	aNew := p.A
	bNew := p.b
	intNew := p.integralityConstraints

	if p.G != nil {
		cNew, aNew, bNew = convertToEqualities(p.c, p.A, p.b, p.G, p.h)

		// the slack variables introduced by convertToEqualities are
		// always continuous.
		intNew = make([]bool, len(cNew))
		copy(intNew, p.integralityConstraints)
	}

	return subProblem{
		id: 0,
		c:  cNew,
		A:  aNew,
		b:  bNew,
		integralityConstraints: intNew,
		branchHeuristic:        p.branchHeuristic,
		bnbConstraints:         []bnbConstraint{},
	}
}

// solve runs branch-and-bound on p using the given number of concurrent
// workers, honoring ctx for cancellation and deadlines. instrumentation is
// notified of every subproblem created and every decision made; pass
// dummyMiddleware{} to opt out.
//
// If ctx expires before the tree is exhausted and an incumbent was already
// found, that incumbent is returned as a normal, non-error milpSolution —
// a timeout with a feasible result in hand is a success, not a failure. Only
// a timeout with no incumbent at all propagates ctx.Err().
func (p milpProblem) solve(ctx context.Context, workers int, instrumentation BnbMiddleware) (milpSolution, error) {
	if workers <= 0 {
		panic("ilp: number of workers must be positive")
	}
	if len(p.integralityConstraints) != len(p.c) {
		panic("ilp: integrality constraint vector must match length of c")
	}

	root := p.toInitialSubProblem()
	tree := newEnumerationTree(root, instrumentation)

	incumbent := tree.search(ctx, workers)

	if ctxErr := ctx.Err(); ctxErr != nil && incumbent == nil {
		return milpSolution{}, ctxErr
	}

	if incumbent == nil {
		return milpSolution{}, NO_INTEGER_FEASIBLE_SOLUTION
	}
	if incumbent.err != nil {
		return milpSolution{}, incumbent.err
	}

	return milpSolution{solution: trimSlack(*incumbent, len(p.c))}, nil
}

// trimSlack drops the slack variables appended by convertToEqualities,
// restoring the solution vector to the caller's original variable order.
func trimSlack(s solution, nOriginal int) solution {
	if len(s.x) > nOriginal {
		s.x = s.x[:nOriginal]
	}
	return s
}
