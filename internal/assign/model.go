package assign

import (
	"fmt"

	"github.com/perryzjc/teammatch/internal/ilp"
	"github.com/perryzjc/teammatch/internal/roster"
)

// Tunable weights from the model's lexicographic-weighted objective. Their
// magnitudes are chosen so that a higher-priority term always dominates any
// achievable delta in the terms below it: one more team of four outweighs
// any conflict/skill combination. WeightPref is not used in the objective
// (see the note in buildModel).
const (
	WeightFour  = 100_000_000
	WeightPref  = 3_000
	WeightSkill = 10

	weightAvailabilityConflict = 1300
	weightModalityConflict     = 1000
	weightSectionConflict      = 50
)

// SkillFloor is the minimum aggregate skill required per unit of team size.
// The source this model was distilled from carries both a 4 and a 5 in
// different code paths; 5 is the value on the shipping solve path.
const SkillFloor = 5

// ErrModelBuild reports an internal invariant violation while constructing
// the model. It should never surface under valid input.
type ErrModelBuild struct {
	Reason string
}

func (e *ErrModelBuild) Error() string {
	return fmt.Sprintf("assign: model build error: %s", e.Reason)
}

// model holds the built ilp.Problem along with the decision variable
// handles needed to decode a solution back into a partition.
type model struct {
	problem *ilp.Problem

	k      int
	inTeam [][]*ilp.Variable // inTeam[i][g]
}

// conflictWeight returns the summed per-co-placement penalty weight for
// participants a and b, or 0 if no conflict kind applies to this pair.
func conflictWeight(a, b roster.Participant) int {
	var w int

	if len(a.Availability) > 0 && len(b.Availability) > 0 {
		disjoint := true
		for tok := range a.Availability {
			if _, ok := b.Availability[tok]; ok {
				disjoint = false
				break
			}
		}
		if disjoint {
			w += weightAvailabilityConflict
		}
	}

	if a.Modality != roster.NoPreference && b.Modality != roster.NoPreference && a.Modality != b.Modality {
		w += weightModalityConflict
	}

	if a.Section != "" && b.Section != "" && a.Section != b.Section {
		w += weightSectionConflict
	}

	return w
}

// preferenceEdges derives the set of (i,j) co-placement requirements from
// each participant's resolved PreferredPartnerIndex, deduplicated so a
// mutual preference pair produces a single edge.
func preferenceEdges(participants []roster.Participant) []roster.PreferenceEdge {
	type pair struct{ a, b int }
	seen := make(map[pair]bool)

	var edges []roster.PreferenceEdge
	for i, p := range participants {
		j := p.PreferredPartnerIndex
		if j < 0 || j == i {
			continue
		}
		key := pair{a: i, b: j}
		if key.a > key.b {
			key.a, key.b = key.b, key.a
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		edges = append(edges, roster.PreferenceEdge{From: i, To: j})
	}
	return edges
}

// buildModel constructs the MILP formulation of the team assignment problem
// for the given participants, deriving preference edges from each
// participant's PreferredPartnerIndex.
func buildModel(participants []roster.Participant, sizeMin, sizeMax int) (*model, error) {
	edges := preferenceEdges(participants)
	n := len(participants)
	if n == 0 {
		return nil, &ErrModelBuild{Reason: "no participants"}
	}

	k := (n + sizeMin - 1) / sizeMin
	if k <= 0 {
		return nil, &ErrModelBuild{Reason: fmt.Sprintf("computed K=%d for N=%d", k, n)}
	}

	prob := ilp.NewProblem()
	prob.Maximize()

	inTeam := make([][]*ilp.Variable, n)
	for i := range inTeam {
		inTeam[i] = make([]*ilp.Variable, k)
		for g := 0; g < k; g++ {
			v := prob.AddVariable(fmt.Sprintf("in_team_%d_%d", i, g)).IsInteger().UpperBound(1)
			inTeam[i][g] = v
		}
	}

	size := make([]*ilp.Variable, k)
	used := make([]*ilp.Variable, k)
	isFour := make([]*ilp.Variable, k)
	for g := 0; g < k; g++ {
		size[g] = prob.AddVariable(fmt.Sprintf("size_%d", g)).UpperBound(float64(sizeMax))
		used[g] = prob.AddVariable(fmt.Sprintf("used_%d", g)).IsInteger().UpperBound(1)
		isFour[g] = prob.AddVariable(fmt.Sprintf("is_four_%d", g)).IsInteger().UpperBound(1).SetCoeff(WeightFour)
	}

	// exactly one slot per participant
	for i := 0; i < n; i++ {
		c := prob.AddConstraint()
		for g := 0; g < k; g++ {
			c.AddExpression(1, inTeam[i][g])
		}
		c.EqualTo(1)
	}

	for g := 0; g < k; g++ {
		// size[g] = sum_i in_team[i,g]
		szc := prob.AddConstraint().AddExpression(1, size[g])
		for i := 0; i < n; i++ {
			szc.AddExpression(-1, inTeam[i][g])
		}
		szc.EqualTo(0)

		// size window: size[g] >= sizeMin*used[g]  =>  sizeMin*used[g] - size[g] <= 0
		prob.AddConstraint().
			AddExpression(float64(sizeMin), used[g]).
			AddExpression(-1, size[g]).
			SmallerThanOrEqualTo(0)

		// size[g] <= sizeMax*used[g]  =>  size[g] - sizeMax*used[g] <= 0
		prob.AddConstraint().
			AddExpression(1, size[g]).
			AddExpression(-float64(sizeMax), used[g]).
			SmallerThanOrEqualTo(0)

		// is_four pinning: size[g] = sizeMin*used[g] + is_four[g], is_four[g] <= used[g].
		// Valid because size only ever takes {0, sizeMin, sizeMax} at an
		// integer-feasible point, and sizeMax == sizeMin+1 in this model.
		prob.AddConstraint().
			AddExpression(1, size[g]).
			AddExpression(-float64(sizeMin), used[g]).
			AddExpression(-1, isFour[g]).
			EqualTo(0)
		prob.AddConstraint().
			AddExpression(1, isFour[g]).
			AddExpression(-1, used[g]).
			SmallerThanOrEqualTo(0)

		// minimum competence floor: sum_i totalSkill(i)*in_team[i,g] >= SkillFloor*size[g]
		// => SkillFloor*size[g] - sum_i totalSkill(i)*in_team[i,g] <= 0
		floorc := prob.AddConstraint().AddExpression(SkillFloor, size[g])
		for i := 0; i < n; i++ {
			floorc.AddExpression(-float64(participants[i].TotalSkill()), inTeam[i][g])
		}
		floorc.SmallerThanOrEqualTo(0)
	}

	// preference equality: in_team[a,g] = in_team[b,g] for every edge and slot
	for _, e := range edges {
		for g := 0; g < k; g++ {
			prob.AddConstraint().
				AddExpression(1, inTeam[e.From][g]).
				AddExpression(-1, inTeam[e.To][g]).
				EqualTo(0)
		}
	}

	// missing-cap: at most one missing participant per slot
	var missing []int
	for i, p := range participants {
		if p.Missing() {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		for g := 0; g < k; g++ {
			c := prob.AddConstraint()
			for _, i := range missing {
				c.AddExpression(1, inTeam[i][g])
			}
			c.SmallerThanOrEqualTo(1)
		}
	}

	// pairwise conflict penalties
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := conflictWeight(participants[i], participants[j])
			if w == 0 {
				continue
			}
			for g := 0; g < k; g++ {
				together := prob.AddVariable(fmt.Sprintf("together_%d_%d_%d", i, j, g)).
					IsInteger().UpperBound(1).SetCoeff(-float64(w))

				// together <= in_team[i,g]
				prob.AddConstraint().
					AddExpression(1, together).
					AddExpression(-1, inTeam[i][g]).
					SmallerThanOrEqualTo(0)
				// together <= in_team[j,g]
				prob.AddConstraint().
					AddExpression(1, together).
					AddExpression(-1, inTeam[j][g]).
					SmallerThanOrEqualTo(0)
				// together >= in_team[i,g] + in_team[j,g] - 1
				prob.AddConstraint().
					AddExpression(1, inTeam[i][g]).
					AddExpression(1, inTeam[j][g]).
					AddExpression(-1, together).
					SmallerThanOrEqualTo(1)
			}
		}
	}

	// WeightPref has no corresponding decision variable: preference
	// equality above is a hard constraint, so every feasible solution
	// already satisfies all edges and the reward term would be a constant
	// offset on the objective, identical across the whole search tree. A
	// fixed-at-1 variable carrying it would also be stripped from the
	// objective by presolve's fixed-variable elimination, since it never
	// appears in a constraint for the RHS folding to preserve it.

	// skill balance: skillMax - skillMin, penalized
	skillMax := prob.AddVariable("skill_max").SetCoeff(-WeightSkill)
	skillMin := prob.AddVariable("skill_min").SetCoeff(WeightSkill)
	for g := 0; g < k; g++ {
		maxc := prob.AddConstraint()
		minc := prob.AddConstraint()
		for i := 0; i < n; i++ {
			maxc.AddExpression(float64(participants[i].TotalSkill()), inTeam[i][g])
			minc.AddExpression(-float64(participants[i].TotalSkill()), inTeam[i][g])
		}
		// sum_i skill*in_team[i,g] - skillMax <= 0
		maxc.AddExpression(-1, skillMax).SmallerThanOrEqualTo(0)
		// skillMin - sum_i skill*in_team[i,g] <= 0
		minc.AddExpression(1, skillMin).SmallerThanOrEqualTo(0)
	}

	return &model{problem: &prob, k: k, inTeam: inTeam}, nil
}
