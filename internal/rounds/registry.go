// Package rounds knows which role each contest round plays and who may
// enter it. Round numbers are fixed for a deployment: two team-allocated
// rounds, one paired round, one final round without subtask selection.
package rounds

import (
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/store"
)

const (
	Qualifier = 1 // open while active, no grant needed
	Shortlist = 2 // a grant here implies access to every later round
	PairRound = 3 // paired allocation, priority ordering
	Final     = 4 // no subtask selection
)

func IsTeamAllocated(round int) bool {
	return round == Qualifier || round == Shortlist
}

func IsPairRound(round int) bool {
	return round == PairRound
}

func HasSelection(round int) bool {
	return round >= Qualifier && round < Final
}

// ScoreRounds are the rounds whose cumulative scores decide pair priority:
// the two rounds preceding the paired one.
func ScoreRounds() []int {
	return []int{PairRound - 2, PairRound - 1}
}

type Registry struct {
	store store.EngineStore
}

func NewRegistry(store store.EngineStore) *Registry {
	return &Registry{store: store}
}

// CanAccessRound applies the access rule: round 1 is open while active or
// explicitly granted, every later round needs a grant, and a Shortlist
// grant cascades to the rounds after it. The cascade is computed here per
// query, never persisted, so late shortlist changes can't leave stale
// grants behind.
func (r *Registry) CanAccessRound(teamID string, round int) (bool, error) {
	granted, err := r.store.HasRoundGrant(teamID, round)
	if err != nil {
		return false, err
	}
	if granted {
		return true, nil
	}

	if round == Qualifier {
		rd, err := r.store.GetRound(round)
		if err != nil {
			return false, err
		}
		return rd != nil && rd.IsActive, nil
	}

	if round > Shortlist {
		return r.store.HasRoundGrant(teamID, Shortlist)
	}

	return false, nil
}

// ShortlistedTeams lists the teams holding access to a round, with the
// Shortlist cascade folded in for the later rounds.
func (r *Registry) ShortlistedTeams(round int) ([]models.Team, error) {
	teams, err := r.store.ListTeamsWithGrant(round)
	if err != nil {
		return nil, err
	}

	if round <= Shortlist {
		return teams, nil
	}

	cascaded, err := r.store.ListTeamsWithGrant(Shortlist)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(teams))
	for _, t := range teams {
		seen[t.ID] = true
	}
	for _, t := range cascaded {
		if !seen[t.ID] {
			teams = append(teams, t)
			seen[t.ID] = true
		}
	}
	return teams, nil
}
