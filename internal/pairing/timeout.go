package pairing

import (
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/models"
)

// Resolve brings a pair-mode ledger row up to date before anyone acts on
// it. Three outcomes: the priority team already chose and the complement is
// propagated to the sibling; the decision window ran out and both sides get
// auto-assigned; or nothing is due yet and the row comes back unchanged.
//
// Every finalizing write goes through the store's compare-and-set, so a
// team locking in its own choice at the same instant cannot be overwritten;
// losing that race is a no-op followed by a re-read.
func (s *Service) Resolve(set *models.RoundOptions) (*models.RoundOptions, error) {
	if set == nil || set.AssignmentMode != models.AssignmentPair || set.PairID == nil {
		return set, nil
	}

	priority, paired, err := s.pairRows(*set.PairID)
	if err != nil {
		return nil, err
	}

	switch {
	case priority.Finalized():
		if !paired.Finalized() {
			if err := s.propagateComplement(priority, paired); err != nil {
				return nil, err
			}
		}

	case s.windowExpired(priority):
		if err := s.autoAssign(priority, paired); err != nil {
			return nil, err
		}
	}

	return s.store.GetRoundOptions(set.TeamID, set.RoundNumber)
}

// SweepExpired resolves every pairing of the round whose decision window
// has closed. Safe to run redundantly next to the lazy read-side
// resolution: every write is conditional.
func (s *Service) SweepExpired(round int) (int, error) {
	cutoff := s.now().Unix() - int64(s.window.Seconds())
	rows, err := s.store.ListExpiredPriorityRows(round, cutoff)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for i := range rows {
		if _, err := s.Resolve(&rows[i]); err != nil {
			logger.Error.Printf("Sweep failed to resolve pairing %v: %v", rows[i].PairID, err)
			continue
		}
		resolved++
	}
	return resolved, nil
}

func (s *Service) windowExpired(priority *models.RoundOptions) bool {
	if priority.PublishedAt == nil {
		return false
	}
	return s.now().Unix()-*priority.PublishedAt >= int64(s.window.Seconds())
}

// pairRows loads both sibling rows of a pairing and tells them apart.
// Anything other than exactly two rows agreeing on the priority team means
// the cascade broke somewhere; that is a bug, not a user error.
func (s *Service) pairRows(pairID string) (priority, paired *models.RoundOptions, err error) {
	rows, err := s.store.ListPairRows(pairID)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) != 2 {
		return nil, nil, fmt.Errorf("pairing %s has %d ledger rows, want 2", pairID, len(rows))
	}

	for i := range rows {
		if rows[i].PriorityTeamID == nil {
			return nil, nil, fmt.Errorf("pairing %s row for %s has no priority team", pairID, rows[i].TeamID)
		}
		if rows[i].TeamID == *rows[i].PriorityTeamID {
			priority = &rows[i]
		} else {
			paired = &rows[i]
		}
	}
	if priority == nil || paired == nil {
		return nil, nil, fmt.Errorf("pairing %s has no distinct priority/paired rows", pairID)
	}
	return priority, paired, nil
}

// propagateComplement finalizes the paired row with the option the priority
// team did not take. Not flagged auto-assigned: it mirrors a real choice.
func (s *Service) propagateComplement(priority, paired *models.RoundOptions) error {
	comp, ok := priority.Complement(*priority.Selected)
	if !ok {
		return fmt.Errorf("pairing %v: selection %q has no complement in pool %v",
			priority.PairID, *priority.Selected, priority.Options())
	}

	won, err := s.store.FinalizeSelection(paired.TeamID, paired.RoundNumber, comp, s.now().Unix(), false)
	if err != nil {
		return err
	}
	if !won {
		logger.Debug.Printf("Complement for %s already settled, skipping", paired.TeamID)
	}
	return nil
}

// autoAssign resolves an expired pairing: the priority team receives the
// first pool option, the sibling the second, both flagged auto-assigned.
// If the priority team finalized concurrently, its write wins and the
// sibling receives the complement of that actual choice instead.
func (s *Service) autoAssign(priority, paired *models.RoundOptions) error {
	if priority.OptionA == nil || priority.OptionB == nil {
		return fmt.Errorf("pairing %v: auto-assign needs a two-option pool", priority.PairID)
	}

	now := s.now().Unix()
	won, err := s.store.FinalizeSelection(priority.TeamID, priority.RoundNumber, *priority.OptionA, now, true)
	if err != nil {
		return err
	}

	refreshed, err := s.store.GetRoundOptions(priority.TeamID, priority.RoundNumber)
	if err != nil {
		return err
	}
	if refreshed == nil || refreshed.Selected == nil {
		return fmt.Errorf("pairing %v: priority row vanished during auto-assign", priority.PairID)
	}

	comp, ok := refreshed.Complement(*refreshed.Selected)
	if !ok {
		return fmt.Errorf("pairing %v: selection %q has no complement in pool %v",
			refreshed.PairID, *refreshed.Selected, refreshed.Options())
	}

	if _, err := s.store.FinalizeSelection(paired.TeamID, paired.RoundNumber, comp, now, won); err != nil {
		return err
	}

	if won {
		logger.Info.Printf("Auto-assigned pairing %v after window expiry: %s -> %s, %s -> %s",
			priority.PairID, priority.TeamID, *refreshed.Selected, paired.TeamID, comp)
	}
	return nil
}
