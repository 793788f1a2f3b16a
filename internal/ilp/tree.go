package ilp

// Branch-and-bound decisions the search procedure can make at each node.
// They are reported to a BnbMiddleware for logging/inspection and never
// drive the algorithm's own control flow.
type bnbDecision string

const (
	SUBPROBLEM_IS_DEGENERATE        bnbDecision = "subproblem contains a degenerate (singular) matrix"
	SUBPROBLEM_NOT_FEASIBLE         bnbDecision = "subproblem has no feasible solution"
	WORSE_THAN_INCUMBENT            bnbDecision = "worse than incumbent"
	BETTER_THAN_INCUMBENT_BRANCHING bnbDecision = "better than incumbent but fractional, so branching"
	BETTER_THAN_INCUMBENT_FEASIBLE  bnbDecision = "better than incumbent and integer-feasible, so replacing incumbent"
	INITIAL_RX_FEASIBLE_FOR_IP      bnbDecision = "initial relaxation is feasible for the integer program"
	INITIAL_RELAXATION_LEGAL        bnbDecision = "initial relaxation is legal"
)

// feasibleForIP reports whether x satisfies the integrality constraints,
// i.e. every variable flagged in constraints holds an integral value in x.
func feasibleForIP(constraints []bool, x []float64) bool {
	for i, integer := range constraints {
		if !integer {
			continue
		}
		if x[i] != float64(int64(x[i])) {
			return false
		}
	}
	return true
}
