// Package allocation bulk-assigns option pairs to teams for the
// team-allocated rounds.
package allocation

import (
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/engine"
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/rounds"
	"github.com/shrimpsizemoose/semla/internal/store"
)

type Allocator struct {
	store store.EngineStore
}

func NewAllocator(store store.EngineStore) *Allocator {
	return &Allocator{store: store}
}

// AllocateTeamOptions upserts one ledger row per batch entry. A previous
// selection survives the re-run as long as it is still among the newly
// offered options; any stale pairing metadata on the row is scrubbed, so a
// row that once belonged to a deleted pairing can't linger in a hybrid
// state. Only valid for the team-allocated rounds.
func (a *Allocator) AllocateTeamOptions(round int, batch []models.Allocation) (int, error) {
	if !rounds.IsTeamAllocated(round) {
		return 0, engine.ErrNotTeamRound
	}

	count := 0
	for _, alloc := range batch {
		if err := alloc.Validate(); err != nil {
			return count, fmt.Errorf("invalid allocation for team %s: %w", alloc.TeamID, err)
		}

		opts := dedupe(alloc.Options)
		if len(opts) > 2 {
			opts = opts[:2]
		}

		row := models.RoundOptions{
			TeamID:         alloc.TeamID,
			RoundNumber:    round,
			AssignmentMode: models.AssignmentTeam,
		}
		row.OptionA = &opts[0]
		if len(opts) > 1 {
			row.OptionB = &opts[1]
		}

		prev, err := a.store.GetRoundOptions(alloc.TeamID, round)
		if err != nil {
			return count, err
		}
		if prev != nil && prev.Selected != nil && row.Offers(*prev.Selected) {
			row.Selected = prev.Selected
			row.SelectedAt = prev.SelectedAt
		}

		if err := a.store.UpsertRoundOptions(&row); err != nil {
			return count, err
		}
		count++

		logger.Debug.Printf("Allocated options %v to team %s for round %d", opts, alloc.TeamID, round)
	}

	return count, nil
}

func dedupe(options []string) []string {
	seen := make(map[string]bool, len(options))
	var out []string
	for _, opt := range options {
		if !seen[opt] {
			seen[opt] = true
			out = append(out, opt)
		}
	}
	return out
}
