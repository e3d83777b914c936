// Package selection is the team-facing surface of the ledger: reading the
// offered options (with timeout resolution as a read side effect) and
// locking in a choice.
package selection

import (
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/engine"
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/pairing"
	"github.com/shrimpsizemoose/semla/internal/rounds"
	"github.com/shrimpsizemoose/semla/internal/store"
)

type Selector struct {
	store store.EngineStore
	pairs *pairing.Service

	now func() time.Time
}

func NewSelector(st store.EngineStore, pairs *pairing.Service) *Selector {
	return &Selector{
		store: st,
		pairs: pairs,
		now:   time.Now,
	}
}

// Get returns the team's ledger row for the round, nil when none exists.
// Pair-mode rows are run through the timeout resolver first, so readers
// always observe settled state.
func (s *Selector) Get(teamID string, round int) (*models.RoundOptions, error) {
	set, err := s.store.GetRoundOptions(teamID, round)
	if err != nil || set == nil {
		return set, err
	}
	if set.AssignmentMode == models.AssignmentPair {
		return s.pairs.Resolve(set)
	}
	return set, nil
}

// Select finalizes a team's choice, walking the offered -> finalized
// transition under the round guards. For pair rows the row is brought up to
// date first; a successful priority selection writes the complement onto
// the sibling row in the same logical operation.
func (s *Selector) Select(teamID string, round int, optionID string) (*models.RoundOptions, error) {
	if !rounds.HasSelection(round) {
		return nil, engine.ErrNoSelectionRound
	}

	rd, err := s.store.GetRound(round)
	if err != nil {
		return nil, err
	}
	if rd == nil {
		return nil, engine.ErrNotFound
	}
	if !rd.IsActive {
		return nil, engine.ErrRoundInactive
	}

	set, err := s.store.GetRoundOptions(teamID, round)
	if err != nil {
		return nil, err
	}
	if set == nil || len(set.Options()) == 0 {
		return nil, engine.ErrNoOptionsAssigned
	}

	if set.AssignmentMode == models.AssignmentPair {
		return s.selectPaired(set, teamID, optionID)
	}

	if set.Finalized() {
		return nil, engine.ErrAlreadyFinalized
	}
	if !set.Offers(optionID) {
		return nil, engine.ErrOptionNotOffered
	}

	if _, err := s.store.FinalizeSelection(teamID, round, optionID, s.now().Unix(), false); err != nil {
		return nil, err
	}
	return s.store.GetRoundOptions(teamID, round)
}

func (s *Selector) selectPaired(set *models.RoundOptions, teamID, optionID string) (*models.RoundOptions, error) {
	set, err := s.pairs.Resolve(set)
	if err != nil {
		return nil, err
	}

	if set.PriorityTeamID == nil {
		return nil, engine.ErrNoOptionsAssigned
	}

	if teamID != *set.PriorityTeamID {
		// the paired side is never user-settable: it inherits the
		// complement of whatever the priority team did
		if set.Finalized() {
			return nil, engine.ErrAlreadyFinalized
		}
		if priority, err := s.store.GetRoundOptions(*set.PriorityTeamID, set.RoundNumber); err != nil {
			return nil, err
		} else if priority != nil && priority.Finalized() {
			return nil, engine.ErrNotPriorityTeam
		}
		return nil, engine.ErrWaitingForPriority
	}

	if set.Finalized() {
		return nil, engine.ErrAlreadyFinalized
	}
	if !set.Offers(optionID) {
		return nil, engine.ErrOptionNotOffered
	}

	now := s.now().Unix()
	won, err := s.store.FinalizeSelection(teamID, set.RoundNumber, optionID, now, false)
	if err != nil {
		return nil, err
	}

	if won && set.PairedTeamID != nil {
		// settle the sibling right away rather than on its next read
		if comp, ok := set.Complement(optionID); ok {
			if _, err := s.store.FinalizeSelection(*set.PairedTeamID, set.RoundNumber, comp, now, false); err != nil {
				return nil, err
			}
		}
	}
	if !won {
		// lost a benign race with the timeout sweep; current state wins
		logger.Debug.Printf("Selection by %s for round %d arrived after the row settled", teamID, set.RoundNumber)
	}

	return s.store.GetRoundOptions(teamID, set.RoundNumber)
}
