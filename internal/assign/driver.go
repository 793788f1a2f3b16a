package assign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/perryzjc/teammatch/internal/ilp"
	"github.com/perryzjc/teammatch/internal/roster"
)

// DefaultSizeMin and DefaultSizeMax bound a team to between 3 and 4
// participants, the window the model's size-window and is_four encodings
// are built against.
const (
	DefaultSizeMin = 3
	DefaultSizeMax = 4

	// DefaultWorkers mirrors the source implementation's parallel portfolio
	// search width.
	DefaultWorkers = 6
)

// ErrNoSolution is returned when the solver exhausts its enumeration tree
// (or its time budget) without finding a feasible incumbent.
var ErrNoSolution = errors.New("assign: no feasible solution found within the time budget")

// Config controls one Run. MaxTime is required: the library never assumes
// how long a caller is willing to wait.
type Config struct {
	SizeMin, SizeMax int
	MaxTime          time.Duration
	Workers          int
	Log              *logrus.Logger
	Instrumentation  ilp.BnbMiddleware
}

func (c Config) withDefaults() Config {
	if c.SizeMin == 0 {
		c.SizeMin = DefaultSizeMin
	}
	if c.SizeMax == 0 {
		c.SizeMax = DefaultSizeMax
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Log == nil {
		c.Log = logrus.New()
		c.Log.SetLevel(logrus.PanicLevel)
	}
	return c
}

// Team is one grouped, renumbered team in the returned Partition.
type Team struct {
	Number       int
	Participants []roster.Participant
}

// Partition is the final assignment: every input participant placed into
// exactly one Team, teams numbered by first appearance starting at 1.
type Partition struct {
	Teams []Team
}

// Run normalizes nothing further (participants are assumed already
// roster.Normalize'd) and solves the team assignment MILP, returning the
// partition stamped with AssignedTeam on each participant's copy.
//
// Run never mutates the caller's participants slice: Partition holds its
// own copies.
func Run(ctx context.Context, participants []roster.Participant, cfg Config) (Partition, error) {
	cfg = cfg.withDefaults()

	if cfg.MaxTime <= 0 {
		return Partition{}, &ErrModelBuild{Reason: "Config.MaxTime must be positive"}
	}

	runID := uuid.New().String()
	log := cfg.Log.WithFields(logrus.Fields{
		"run_id": runID,
		"n":      len(participants),
	})

	m, err := buildModel(participants, cfg.SizeMin, cfg.SizeMax)
	if err != nil {
		log.WithError(err).Error("assign: model build failed")
		return Partition{}, err
	}

	log.WithFields(logrus.Fields{
		"k":           m.k,
		"variables":   len(m.problem.AllVariables()),
		"constraints": len(m.problem.AllConstraints()),
	}).Debug("assign: model built")

	m.problem.Workers(cfg.Workers)
	if cfg.Instrumentation != nil {
		m.problem.Instrument(cfg.Instrumentation)
	}

	solveCtx, cancel := context.WithTimeout(ctx, cfg.MaxTime)
	defer cancel()

	start := time.Now()
	soln, err := m.problem.Solve(solveCtx)
	elapsed := time.Since(start)

	if err != nil {
		log.WithError(err).WithField("elapsed", elapsed).Warn("assign: solve failed")
		return Partition{}, fmt.Errorf("%w: %v", ErrNoSolution, err)
	}

	partition, err := decode(participants, m, soln)
	if err != nil {
		log.WithError(err).Error("assign: failed to decode solution")
		return Partition{}, err
	}

	log.WithFields(logrus.Fields{
		"objective": soln.Objective,
		"elapsed":   elapsed,
		"teams":     len(partition.Teams),
	}).Info("assign: solve complete")

	return partition, nil
}

// decode reads the in_team[i][g] decision variables out of soln and groups
// participants into teams, dropping unused slots and renumbering the
// remaining ones by first appearance.
func decode(participants []roster.Participant, m *model, soln *ilp.Solution) (Partition, error) {
	n := len(participants)
	slotOf := make([]int, n)
	for i := 0; i < n; i++ {
		slotOf[i] = -1
		for g := 0; g < m.k; g++ {
			val, err := soln.GetValueFor(m.inTeam[i][g].Name())
			if err != nil {
				return Partition{}, &ErrModelBuild{Reason: fmt.Sprintf("decoding in_team[%d][%d]: %v", i, g, err)}
			}
			if val > 0.5 {
				slotOf[i] = g
				break
			}
		}
		if slotOf[i] == -1 {
			return Partition{}, &ErrModelBuild{Reason: fmt.Sprintf("participant %d was not assigned to any slot", i)}
		}
	}

	// renumber slots by first appearance in participant order
	renumbered := make(map[int]int)
	var teams []Team
	for i, p := range participants {
		g := slotOf[i]
		num, ok := renumbered[g]
		if !ok {
			num = len(teams) + 1
			renumbered[g] = num
			teams = append(teams, Team{Number: num})
		}
		stamped := p
		stamped.AssignedTeam = num
		teams[num-1].Participants = append(teams[num-1].Participants, stamped)
	}

	return Partition{Teams: teams}, nil
}
