// Package storetest provides an in-memory EngineStore for unit tests.
// FinalizeSelection keeps the same compare-and-set contract as the SQL
// stores so race behavior can be exercised without a database.
package storetest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/store"
)

type Fake struct {
	mu       sync.Mutex
	teams    map[string]models.Team
	rounds   map[int]models.Round
	grants   map[string]map[int]bool
	scores   map[string]map[int]int
	options  map[string]models.RoundOptions
	pairings map[string]models.Pairing
}

func New() *Fake {
	return &Fake{
		teams:    make(map[string]models.Team),
		rounds:   make(map[int]models.Round),
		grants:   make(map[string]map[int]bool),
		scores:   make(map[string]map[int]int),
		options:  make(map[string]models.RoundOptions),
		pairings: make(map[string]models.Pairing),
	}
}

func optionsKey(teamID string, round int) string {
	return fmt.Sprintf("%s/%d", teamID, round)
}

// seed helpers

func (f *Fake) AddTeam(team models.Team) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teams[team.ID] = team
}

func (f *Fake) AddRound(round models.Round) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds[round.RoundNumber] = round
}

func (f *Fake) Grant(teamID string, round int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grants[teamID] == nil {
		f.grants[teamID] = make(map[int]bool)
	}
	f.grants[teamID][round] = true
}

func (f *Fake) AddScore(teamID string, round, score int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scores[teamID] == nil {
		f.scores[teamID] = make(map[int]int)
	}
	f.scores[teamID][round] += score
}

// EngineStore implementation

func (f *Fake) Close() error { return nil }

func (f *Fake) ApplyMigrations(dir string) error { return nil }

func (f *Fake) GetTeam(teamID string) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[teamID]
	if !ok {
		return nil, nil
	}
	return &team, nil
}

func (f *Fake) GetRound(number int) (*models.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	round, ok := f.rounds[number]
	if !ok {
		return nil, nil
	}
	return &round, nil
}

func (f *Fake) HasRoundGrant(teamID string, round int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.grants[teamID][round], nil
}

func (f *Fake) ListTeamsWithGrant(round int) ([]models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var teams []models.Team
	for id, rounds := range f.grants {
		if rounds[round] {
			if team, ok := f.teams[id]; ok {
				teams = append(teams, team)
			}
		}
	}
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].Track != teams[j].Track {
			return teams[i].Track < teams[j].Track
		}
		return teams[i].ID < teams[j].ID
	})
	return teams, nil
}

func (f *Fake) SumScoredPoints(teamID string, rounds []int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, r := range rounds {
		total += f.scores[teamID][r]
	}
	return total, nil
}

func (f *Fake) GetRoundOptions(teamID string, round int) (*models.RoundOptions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	opts, ok := f.options[optionsKey(teamID, round)]
	if !ok {
		return nil, nil
	}
	return &opts, nil
}

func (f *Fake) UpsertRoundOptions(opts *models.RoundOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.options[optionsKey(opts.TeamID, opts.RoundNumber)] = *opts
	return nil
}

func (f *Fake) ResetRoundOptions(teamID string, round int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := optionsKey(teamID, round)
	if _, ok := f.options[key]; !ok {
		return nil
	}
	f.options[key] = models.RoundOptions{
		TeamID:         teamID,
		RoundNumber:    round,
		AssignmentMode: models.AssignmentTeam,
	}
	return nil
}

func (f *Fake) FinalizeSelection(teamID string, round int, optionID string, selectedAt int64, autoAssigned bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := optionsKey(teamID, round)
	opts, ok := f.options[key]
	if !ok || opts.Selected != nil {
		return false, nil
	}
	opts.Selected = &optionID
	opts.SelectedAt = &selectedAt
	opts.AutoAssigned = autoAssigned
	f.options[key] = opts
	return true, nil
}

func (f *Fake) CreatePairing(pairing *models.Pairing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pairings {
		if p.PairKey == pairing.PairKey && p.RoundNumber == pairing.RoundNumber {
			return store.ErrDuplicate
		}
	}
	f.pairings[pairing.ID] = *pairing
	return nil
}

func (f *Fake) GetPairing(pairingID string, round int) (*models.Pairing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pairing, ok := f.pairings[pairingID]
	if !ok || pairing.RoundNumber != round {
		return nil, nil
	}
	return &pairing, nil
}

func (f *Fake) GetPairingByKey(pairKey string, round int) (*models.Pairing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pairings {
		if p.PairKey == pairKey && p.RoundNumber == round {
			pairing := p
			return &pairing, nil
		}
	}
	return nil, nil
}

func (f *Fake) DeletePairing(pairingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pairings, pairingID)
	return nil
}

func (f *Fake) ListPairings(round int) ([]models.Pairing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pairings []models.Pairing
	for _, p := range f.pairings {
		if p.RoundNumber == round {
			pairings = append(pairings, p)
		}
	}
	sort.Slice(pairings, func(i, j int) bool { return pairings[i].ID < pairings[j].ID })
	return pairings, nil
}

func (f *Fake) ListPairRows(pairID string) ([]models.RoundOptions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []models.RoundOptions
	for _, opts := range f.options {
		if opts.PairID != nil && *opts.PairID == pairID {
			rows = append(rows, opts)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TeamID < rows[j].TeamID })
	return rows, nil
}

func (f *Fake) ListExpiredPriorityRows(round int, cutoff int64) ([]models.RoundOptions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []models.RoundOptions
	for _, opts := range f.options {
		if opts.RoundNumber != round || opts.AssignmentMode != models.AssignmentPair {
			continue
		}
		if opts.PriorityTeamID == nil || *opts.PriorityTeamID != opts.TeamID {
			continue
		}
		if opts.Selected != nil || opts.PublishedAt == nil || *opts.PublishedAt > cutoff {
			continue
		}
		rows = append(rows, opts)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TeamID < rows[j].TeamID })
	return rows, nil
}
