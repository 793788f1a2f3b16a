package ilp

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// TODO: sanity checks before converting Problem to a milpProblem, such as NaN, Inf, and matrix shapes and variable bound domains
// TODO: parsing of variable bounds to constraints does not deal with negative domains
// TODO: try to formulate more advanced constraints, like sets of values instead of just integrality?
// Note that having integer sets as constraints is basically the same as having an integrality constraint, and a <= and >= bound.
// TODO: dealing with variables that are unrestricted in sign (currently, each var is subject to a nonnegativity constraint)
// TODO: add check for when adding a constraint: check whether an expression containing that variable already exists.
// TODO: small(?) performance gains may be made by switching dense matrix datastructures over to sparse for big problems

// Problem is the abstract MILP problem representation that callers build up
// through AddVariable/AddConstraint before calling Solve.
type Problem struct {
	// minimizes by default
	maximize bool

	// the problem structure
	variables   []*Variable
	constraints []*Constraint

	// the branching heuristic to use for branch-and-bound (defaults to 0 == BRANCH_MAXFUN)
	branchingHeuristic BranchHeuristic

	// number of concurrent workers to explore the enumeration tree with
	workers int

	// instrumentation is notified of every subproblem and decision made
	// during Solve. Nil means no observation.
	instrumentation BnbMiddleware
}

// A Variable of the MILP problem.
type Variable struct {
	// variable name for human reference
	name string

	// coefficient of the variable in the objective function
	coefficient float64

	// integrality constraint
	integer bool

	// bounds
	upper float64
	lower float64
}

// an expression of a variable and an arbitrary float for use in defining constraints
// e.g. "-1 * x1"
type expression struct {
	coef     float64
	variable *Variable
}

// A Constraint of the MILP problem: a linear combination of variables
// compared to a right-hand side, either as an equality or as a
// less-than-or-equal-to inequality.
type Constraint struct {
	// these expressions will be summed together to form the left-hand-side of the constraint
	expressions []expression

	// right-hand-side of the constraint
	rhs float64

	// an equality constraint by default; true means "<=".
	inequality bool

	// store a reference to the problem
	problem *Problem
}

// NewProblem initiates a new MILP problem abstraction. Defaults to a single
// worker and the maxfun branching heuristic; use Workers and
// BranchingHeuristic to change either.
func NewProblem() Problem {
	return Problem{
		workers: 1,
	}
}

// Workers sets the number of concurrent workers Solve explores the
// enumeration tree with. Must be called with a positive value.
func (p *Problem) Workers(n int) {
	p.workers = n
}

// Instrument registers a BnbMiddleware to observe the branch-and-bound
// search performed by Solve.
func (p *Problem) Instrument(m BnbMiddleware) {
	p.instrumentation = m
}

// AddVariable adds a variable and returns a reference to it.
// Defaults to no integrality constraint, a zero objective coefficient, and
// bounds of [0, +Inf).
func (p *Problem) AddVariable(name string) *Variable {

	v := Variable{
		name:        name,
		coefficient: 0,
		integer:     false,
		upper:       math.Inf(1),
		lower:       0,
	}

	p.variables = append(p.variables, &v)

	return &v
}

// SetCoeff sets the value of the variable in the objective function
func (v *Variable) SetCoeff(coef float64) *Variable {
	v.coefficient = coef
	return v
}

func (v *Variable) IsInteger() *Variable {
	v.integer = true
	return v
}

// UpperBound sets the inclusive upper bound of this variable. Input must be positive.
func (v *Variable) UpperBound(bound float64) *Variable {
	v.upper = bound
	return v
}

// LowerBound sets the inclusive lower bound of this variable. Input must be positive.
func (v *Variable) LowerBound(bound float64) *Variable {
	v.lower = bound
	return v
}

func (p *Problem) AddConstraint() *Constraint {
	c := &Constraint{
		problem: p,
	}
	p.constraints = append(p.constraints, c)

	return c
}

func (c *Constraint) EqualTo(val float64) *Constraint {
	c.inequality = false
	c.rhs = val
	return c
}

func (c *Constraint) SmallerThanOrEqualTo(val float64) *Constraint {
	c.inequality = true
	c.rhs = val
	return c
}

func (c *Constraint) AddExpression(coef float64, v *Variable) *Constraint {
	// check if the provided variable has been declared in this problem. If not, this call will panic
	c.problem.getVariableIndex(v)

	exp := expression{coef: coef, variable: v}

	c.expressions = append(c.expressions, exp)
	return c
}

func (p *Problem) Maximize() {
	p.maximize = true
}

func (p *Problem) Minimize() {
	p.maximize = false
}

func (p *Problem) BranchingHeuristic(choice BranchHeuristic) {
	p.branchingHeuristic = choice
}

// Name returns the variable's human-readable name, as passed to AddVariable.
func (v *Variable) Name() string {
	return v.name
}

// AllVariables returns the variables declared in this Problem so far, in
// declaration order. Intended for introspection (e.g. logging model size),
// not mutation.
func (p *Problem) AllVariables() []*Variable {
	return p.variables
}

// AllConstraints returns the constraints declared in this Problem so far,
// in declaration order. Intended for introspection, not mutation.
func (p *Problem) AllConstraints() []*Constraint {
	return p.constraints
}

// checkExpression reports whether the expression's variable is currently
// declared in this Problem.
func (p *Problem) checkExpression(e expression) bool {
	for _, v := range p.variables {
		if v == e.variable {
			return true
		}
	}
	return false
}

// get the index of the variable pointer in the variable pointer slice of the Problem struct using a linear search
func (p *Problem) getVariableIndex(v *Variable) int {
	for i, va := range p.variables {
		if v == va {
			return i
		}
	}
	panic("variable pointer not found in Problem struct")
}

// toSolveable converts the abstract Problem to its concrete numerical
// representation, the form the branch-and-bound solver operates on.
func (p *Problem) toSolveable() *milpProblem {

	// get the c vector containing the coefficients of the variables in the objective function
	// simultaneously parse the integrality constraints
	var c []float64
	var integrality []bool
	for _, v := range p.variables {

		// if the Problem is set to be maximized, we assume that all variable coefficients reflect that.
		// To turn this maximization problem into a minimization one, we multiply all coefficients with -1.
		k := v.coefficient
		if p.maximize {
			k = k * -1
		}

		c = append(c, k)
		integrality = append(integrality, v.integer)
	}

	/// parse the constraints
	var b []float64
	var Adata []float64
	var h []float64
	var Gdata []float64
	for _, constraint := range p.constraints {

		// build the matrix row for the equality
		indexRow := make([]float64, len(p.variables))

		for _, exp := range constraint.expressions {
			i := p.getVariableIndex(exp.variable)
			indexRow[i] = exp.coef
		}

		if constraint.inequality {
			Gdata = append(Gdata, indexRow...)

			// add the RHS of the inequality to the h vector
			h = append(h, constraint.rhs)
		} else {
			Adata = append(Adata, indexRow...)
			// add the RHS of the equality to the b vector
			b = append(b, constraint.rhs)
		}

	}

	// combine the Adata vector into a matrix
	var A *mat.Dense
	if len(b) > 0 {
		A = mat.NewDense(len(b), len(p.variables), Adata)
	}

	// add the variable bounds as inequality constraints
	for _, v := range p.variables {

		// convert the upper bound to a row in the constraint matrix
		if !math.IsInf(v.upper, 1) {
			uRow := make([]float64, len(p.variables))
			i := p.getVariableIndex(v)
			uRow[i] = 1

			Gdata = append(Gdata, uRow...)

			// add the RHS of the inequality to the h vector
			h = append(h, v.upper)
		}

		// convert the lower bound to a row in the constraint matrix
		if !(v.lower <= 0) {
			uRow := make([]float64, len(p.variables))
			i := p.getVariableIndex(v)
			uRow[i] = -1

			Gdata = append(Gdata, uRow...)

			// add the RHS of the inequality to the h vector
			h = append(h, -v.lower)
		}

	}

	// combine the Gdata vector into a matrix
	var G *mat.Dense
	if len(h) > 0 {
		G = mat.NewDense(len(h), len(p.variables), Gdata)
	}

	return &milpProblem{
		c: c,
		A: A,
		b: b,
		G: G,
		h: h,
		integralityConstraints: integrality,
		branchHeuristic:        p.branchingHeuristic,
	}
}

// Solve presolves the Problem, converts it to its concrete numerical form,
// and runs branch-and-bound until the tree is exhausted or ctx is done,
// returning the best integer-feasible solution found. If ctx expires after an incumbent
// was already found, that incumbent is returned as a normal solution; only
// a ctx expiry with no incumbent at all is reported as an error.
func (p *Problem) Solve(ctx context.Context) (*Solution, error) {
	workers := p.workers
	if workers <= 0 {
		workers = 1
	}

	prepper := newPreprocessor()
	preprocessed := prepper.preSolve(*p)

	milp := preprocessed.toSolveable()

	soln, err := milp.solve(ctx, workers, p.instrumentation)
	if err != nil {
		return nil, err
	}

	raw := make(rawSolution, len(preprocessed.variables))
	for i, v := range preprocessed.variables {
		raw[v.name] = soln.solution.x[i]
	}
	raw = prepper.postSolve(raw)

	solution := &Solution{
		Objective: soln.solution.z,
		byName:    make(map[string]float64, len(p.variables)),
	}
	for _, v := range p.variables {
		val, ok := raw[v.name]
		if !ok {
			panic(fmt.Sprintf("ilp: variable %q missing from solved and postsolved solution", v.name))
		}
		solution.byName[v.name] = val
		solution.Coefficients = append(solution.Coefficients, struct {
			Name string
			Coef float64
		}{Name: v.name, Coef: val})
	}

	return solution, nil
}

// Solution contains the results of a solved Problem.
type Solution struct {
	Objective float64

	// the variables and their optimal values in the order they were originally specified
	Coefficients []struct {
		Name string
		Coef float64
	}

	// keyed by name
	byName map[string]float64
}

// GetValueFor retrieves the value for a decision variable by its name.
func (s *Solution) GetValueFor(varName string) (float64, error) {
	val, ok := s.byName[varName]
	if !ok {
		return 0, fmt.Errorf("variable %v not found in Solution", varName)
	}
	return val, nil
}
