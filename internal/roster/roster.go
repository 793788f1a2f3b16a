// Package roster validates and canonicalizes raw student records into the
// form the assignment solver expects: trimmed identifiers, integer skills,
// a canonical modality, a set-valued availability, and a resolved preferred
// partner index rather than a raw email string.
package roster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Modality is the canonicalized meeting preference of a Participant.
type Modality int

const (
	NoPreference Modality = iota
	InPerson
	Remote
)

func (m Modality) String() string {
	switch m {
	case InPerson:
		return "In Person"
	case Remote:
		return "Remote"
	default:
		return "No Preference"
	}
}

func canonicalModality(raw string) Modality {
	switch raw {
	case "In Person":
		return InPerson
	case "Remote":
		return Remote
	default:
		return NoPreference
	}
}

// Participant is one validated roster entry, indexed by its position in the
// slice returned by Normalize.
type Participant struct {
	ID                     string
	Name                   string
	Email                  string
	GithubUsername         string
	Skills                 [3]int
	Modality               Modality
	Availability           map[string]struct{}
	Section                string
	PreferredPartnerEmail  string
	PreferredPartnerIndex  int // -1 if unset or unresolved
	AssignedTeam           int // 0 until the solver stamps it
}

// TotalSkill sums the three self-rated skill components.
func (p Participant) TotalSkill() int {
	return p.Skills[0] + p.Skills[1] + p.Skills[2]
}

// Missing reports whether the participant has no recorded github username,
// meaning they were imported from the roster but never filled in the
// self-report form.
func (p Participant) Missing() bool {
	return strings.TrimSpace(p.GithubUsername) == ""
}

// Raw is one unvalidated record as an external CSV loader would produce it.
type Raw struct {
	ID                    string
	Name                  string
	Email                 string
	GithubUsername        string
	Skills                [3]string
	Modality              string
	Availability          string // comma-separated tokens
	Section               string
	PreferredPartnerEmail string
}

// InvalidSkillError reports a skill value that failed to parse or fell
// outside [0,5].
type InvalidSkillError struct {
	ParticipantID string
	Index         int
	Value         string
}

func (e *InvalidSkillError) Error() string {
	return fmt.Sprintf("roster: participant %q: skill %d value %q is not an integer in [0,5]", e.ParticipantID, e.Index, e.Value)
}

// DuplicateEmailError reports two participants sharing a trimmed email.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("roster: duplicate email %q", e.Email)
}

// PreferenceEdge is a directed "would like to work with" link, resolved to
// participant indices.
type PreferenceEdge struct {
	From, To int
}

const skillMin, skillMax = 0, 5

// Normalize validates and canonicalizes raw into a vector of Participants
// with stable indices 0..N-1, plus the PreferenceEdges derivable from
// PreferredPartnerEmail. log receives one debug-level entry per
// silently-absorbed anomaly (dangling preference, unknown modality, empty
// availability); pass logrus.New() with output discarded if this is of no
// interest to the caller.
func Normalize(raw []Raw, log *logrus.Entry) ([]Participant, []PreferenceEdge, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}

	participants := make([]Participant, 0, len(raw))
	byEmail := make(map[string]int, len(raw))

	for _, r := range raw {
		var skills [3]int
		for i, s := range r.Skills {
			v, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || v < skillMin || v > skillMax {
				return nil, nil, &InvalidSkillError{ParticipantID: r.ID, Index: i, Value: s}
			}
			skills[i] = v
		}

		email := strings.TrimSpace(r.Email)
		if _, dup := byEmail[email]; dup {
			return nil, nil, &DuplicateEmailError{Email: email}
		}

		modality := canonicalModality(r.Modality)
		if modality == NoPreference && r.Modality != "" && r.Modality != "No Preference" {
			log.WithFields(logrus.Fields{
				"participant": r.ID,
				"modality":    r.Modality,
			}).Debug("roster: unrecognized modality, defaulting to NoPreference")
		}

		availability := make(map[string]struct{})
		for _, tok := range strings.Split(r.Availability, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			availability[tok] = struct{}{}
		}
		if len(availability) == 0 {
			log.WithField("participant", r.ID).Debug("roster: empty availability, treated as unknown")
		}

		p := Participant{
			ID:                    r.ID,
			Name:                  r.Name,
			Email:                 email,
			GithubUsername:        r.GithubUsername,
			Skills:                skills,
			Modality:              modality,
			Availability:          availability,
			Section:               strings.TrimSpace(r.Section),
			PreferredPartnerEmail: strings.TrimSpace(r.PreferredPartnerEmail),
			PreferredPartnerIndex: -1,
		}

		byEmail[email] = len(participants)
		participants = append(participants, p)
	}

	var edges []PreferenceEdge
	for i := range participants {
		want := participants[i].PreferredPartnerEmail
		if want == "" {
			continue
		}
		j, ok := byEmail[want]
		if !ok {
			log.WithFields(logrus.Fields{
				"participant": participants[i].ID,
				"email":       want,
			}).Debug("roster: dangling preferred-partner reference, dropped")
			continue
		}
		if j == i {
			continue
		}
		participants[i].PreferredPartnerIndex = j
		edges = append(edges, PreferenceEdge{From: i, To: j})
	}

	return participants, edges, nil
}
