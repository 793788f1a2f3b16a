package ilp

import "fmt"

// TODO: see Andersen 1995 for a nice enumeration of simple presolving operations.

// TODO: remove empty columns

// store all post-solving operations that bring the solution back to its input shape.
type preProcessor struct {
	undoers []undoer
}

// map variable names to their computed optimal values
// Contains only variables that survived preprocessing
type rawSolution map[string]float64

type undoer func(rawSolution) rawSolution

func newPreprocessor() *preProcessor {
	return &preProcessor{}
}

func (prepper *preProcessor) addUndoer(u undoer) {
	prepper.undoers = append(prepper.undoers, u)
}

func (prepper *preProcessor) preSolve(p Problem) Problem {

	preprocessed := prepper.filterFixedVars(p)

	return preprocessed
}

// postSolve replays the presolving undoers, in reverse order, to reinject
// the values of any variable that was removed from the problem before it
// reached the solver.
func (prepper *preProcessor) postSolve(s rawSolution) rawSolution {

	postsolved := s
	// walk the slice from the last to the first element (use it as a LIFO queue)
	for i := len(prepper.undoers) - 1; i >= 0; i-- {
		undo := prepper.undoers[i]
		postsolved = undo(postsolved)
	}

	return postsolved
}

// check if the variable is fixed in its bounds
func isFixed(variable *Variable) bool {
	if variable.lower == variable.upper {
		return true
	}
	return false
}

// remove all fixed variables from the problem definition
func (prepper *preProcessor) filterFixedVars(p Problem) Problem {
	filteredProb := p

	var newVars []*Variable
	fixedVars := make(map[string]float64)
	for _, v := range filteredProb.variables {
		if !isFixed(v) {
			newVars = append(newVars, v)
		} else {
			// store the fixed value for injection during the postsolve procedure.
			fixedVars[v.name] = v.lower
		}
	}

	filteredProb.variables = newVars

	var newConstraints []*Constraint
	for _, c := range filteredProb.constraints {
		replacement := &Constraint{
			rhs:        c.rhs,
			inequality: c.inequality,
			problem:    c.problem,
		}
		for _, e := range c.expressions {
			if isFixed(e.variable) {
				// update the RHS of the constraint and remove the expression pointing to this variable:
				// bi = bi − aij xj ,
				replacement.rhs = replacement.rhs - (e.coef * e.variable.lower)
			} else {
				replacement.expressions = append(replacement.expressions, e)
			}
		}
		newConstraints = append(newConstraints, replacement)
	}
	filteredProb.constraints = newConstraints

	undoer := func(s rawSolution) rawSolution {
		// add the fixed values to the raw solution
		for fixedVar, fvalue := range fixedVars {
			if _, already := s[fixedVar]; already {
				panic(fmt.Sprintf("variable %s already in raw solution", fixedVar))
			}
			s[fixedVar] = fvalue
		}
		return s
	}

	prepper.addUndoer(undoer)

	return filteredProb

}
