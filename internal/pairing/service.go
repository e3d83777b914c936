// Package pairing maintains the symmetric team pairings of the paired
// round: creation and removal with cascading ledger resets, the shared
// option pool with priority ordering, and the decision-window timeout
// resolution.
package pairing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/engine"
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/rounds"
	"github.com/shrimpsizemoose/semla/internal/store"
)

type Service struct {
	store    store.EngineStore
	registry *rounds.Registry
	window   time.Duration

	// now is swappable so the decision window can be tested
	now func() time.Time
}

func NewService(st store.EngineStore, window time.Duration) *Service {
	return &Service{
		store:    st,
		registry: rounds.NewRegistry(st),
		window:   window,
		now:      time.Now,
	}
}

// Create persists a pairing between two same-track shortlisted teams of the
// paired round. It does not populate the ledger; AssignOptions does that.
func (s *Service) Create(round int, teamA, teamB string) (string, error) {
	if !rounds.IsPairRound(round) {
		return "", engine.ErrNotPairingRound
	}
	if teamA == teamB {
		return "", engine.ErrSelfPair
	}

	for _, teamID := range []string{teamA, teamB} {
		ok, err := s.registry.CanAccessRound(teamID, round)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", engine.ErrNotShortlisted
		}
	}

	a, err := s.store.GetTeam(teamA)
	if err != nil {
		return "", err
	}
	b, err := s.store.GetTeam(teamB)
	if err != nil {
		return "", err
	}
	if a == nil || b == nil {
		return "", engine.ErrNotFound
	}
	if a.Track != b.Track {
		return "", engine.ErrTrackMismatch
	}

	pairKey := models.PairKey(teamA, teamB)
	existing, err := s.store.GetPairingByKey(pairKey, round)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", engine.ErrDuplicatePair
	}

	pairing := &models.Pairing{
		ID:          uuid.NewString(),
		RoundNumber: round,
		TeamA:       teamA,
		TeamB:       teamB,
		PairKey:     pairKey,
		CreatedAt:   s.now().Unix(),
	}
	if err := s.store.CreatePairing(pairing); err != nil {
		if err == store.ErrDuplicate {
			return "", engine.ErrDuplicatePair
		}
		return "", err
	}

	logger.Info.Printf("Paired teams %s and %s for round %d (%s)", teamA, teamB, round, pairing.ID)
	return pairing.ID, nil
}

// AssignOptions writes the shared two-option pool onto both sibling ledger
// rows, stamps the priority ordering from the cumulative scores of the two
// preceding rounds and starts the decision window.
func (s *Service) AssignOptions(round int, pairingID string, options []string) error {
	if !rounds.IsPairRound(round) {
		return engine.ErrNotPairingRound
	}

	pairing, err := s.store.GetPairing(pairingID, round)
	if err != nil {
		return err
	}
	if pairing == nil {
		return engine.ErrNotFound
	}

	if len(options) != 2 || options[0] == options[1] {
		return fmt.Errorf("pair allocation needs exactly two distinct options, got %v", options)
	}

	scores := make([]models.TeamScore, 2)
	for i, teamID := range pairing.Teams() {
		total, err := s.store.SumScoredPoints(teamID, rounds.ScoreRounds())
		if err != nil {
			return err
		}
		scores[i] = models.TeamScore{TeamID: teamID, Total: total}
	}
	priorityID, pairedID := ResolvePriority(scores[0], scores[1])

	publishedAt := s.now().Unix()
	for _, teamID := range pairing.Teams() {
		row := &models.RoundOptions{
			TeamID:         teamID,
			RoundNumber:    round,
			OptionA:        &options[0],
			OptionB:        &options[1],
			AssignmentMode: models.AssignmentPair,
			PairID:         &pairing.ID,
			PriorityTeamID: &priorityID,
			PairedTeamID:   &pairedID,
			PublishedAt:    &publishedAt,
		}
		if err := s.store.UpsertRoundOptions(row); err != nil {
			return err
		}
	}

	logger.Info.Printf("Assigned options %v to pairing %s, priority team %s", options, pairingID, priorityID)
	return nil
}

// Delete removes a pairing and resets both sibling ledger rows back to a
// clean team-mode state. A stale pairing reference on either side would
// silently block that team from selecting, so the cascade is mandatory.
func (s *Service) Delete(round int, pairingID string) error {
	if !rounds.IsPairRound(round) {
		return engine.ErrNotPairingRound
	}

	pairing, err := s.store.GetPairing(pairingID, round)
	if err != nil {
		return err
	}
	if pairing == nil {
		return engine.ErrNotFound
	}

	if err := s.store.DeletePairing(pairingID); err != nil {
		return err
	}
	for _, teamID := range pairing.Teams() {
		if err := s.store.ResetRoundOptions(teamID, round); err != nil {
			return err
		}
	}

	logger.Info.Printf("Deleted pairing %s, reset rows for %s and %s", pairingID, pairing.TeamA, pairing.TeamB)
	return nil
}

// State partitions the round's shortlisted teams into paired and unpaired
// for the manual pairing tooling.
type State struct {
	Paired           []models.Pairing         `json:"paired"`
	UnpairedByTrack  map[string][]models.Team `json:"unpaired_by_track"`
	ShortlistedCount int                      `json:"shortlisted_count"`
	PairedCount      int                      `json:"paired_count"`
	OddShortlist     bool                     `json:"odd_shortlist"`
}

func (s *Service) ListState(round int) (*State, error) {
	if !rounds.IsPairRound(round) {
		return nil, engine.ErrNotPairingRound
	}

	teams, err := s.registry.ShortlistedTeams(round)
	if err != nil {
		return nil, err
	}
	pairings, err := s.store.ListPairings(round)
	if err != nil {
		return nil, err
	}

	inPair := make(map[string]bool)
	for _, p := range pairings {
		inPair[p.TeamA] = true
		inPair[p.TeamB] = true
	}

	unpaired := make(map[string][]models.Team)
	for _, t := range teams {
		if !inPair[t.ID] {
			unpaired[t.Track] = append(unpaired[t.Track], t)
		}
	}

	return &State{
		Paired:           pairings,
		UnpairedByTrack:  unpaired,
		ShortlistedCount: len(teams),
		PairedCount:      len(pairings),
		// an odd shortlist means somebody will necessarily stay unpaired;
		// a validation signal for the admin tooling, not an error
		OddShortlist: len(teams)%2 == 1,
	}, nil
}
