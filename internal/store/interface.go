package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/semla/internal/models"
)

type EngineStore interface {
	Close() error
	ApplyMigrations(dir string) error

	GetTeam(teamID string) (*models.Team, error)
	GetRound(number int) (*models.Round, error)
	HasRoundGrant(teamID string, round int) (bool, error)
	ListTeamsWithGrant(round int) ([]models.Team, error)
	SumScoredPoints(teamID string, rounds []int) (int, error)

	GetRoundOptions(teamID string, round int) (*models.RoundOptions, error)
	UpsertRoundOptions(opts *models.RoundOptions) error
	ResetRoundOptions(teamID string, round int) error
	FinalizeSelection(teamID string, round int, optionID string, selectedAt int64, autoAssigned bool) (bool, error)

	CreatePairing(pairing *models.Pairing) error
	GetPairing(pairingID string, round int) (*models.Pairing, error)
	GetPairingByKey(pairKey string, round int) (*models.Pairing, error)
	DeletePairing(pairingID string) error
	ListPairings(round int) ([]models.Pairing, error)
	ListPairRows(pairID string) ([]models.RoundOptions, error)
	ListExpiredPriorityRows(round int, cutoff int64) ([]models.RoundOptions, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) GetTeam(teamID string) (*models.Team, error) {
	var team models.Team
	query := s.Converter(`
		SELECT id, name, track
		FROM teams
		WHERE id = ?
	`)

	err := s.DB.Get(&team, query, teamID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}

func (s *BaseStore) GetRound(number int) (*models.Round, error) {
	var round models.Round
	query := s.Converter(`
		SELECT round_number, is_active, starts_at, ends_at
		FROM rounds
		WHERE round_number = ?
	`)

	err := s.DB.Get(&round, query, number)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return &round, nil
}

func (s *BaseStore) HasRoundGrant(teamID string, round int) (bool, error) {
	var count int
	query := s.Converter(`
		SELECT COUNT(*)
		FROM round_access
		WHERE team_id = ? AND round_number = ?
	`)

	if err := s.DB.Get(&count, query, teamID, round); err != nil {
		return false, fmt.Errorf("failed to check round grant: %w", err)
	}
	return count > 0, nil
}

func (s *BaseStore) ListTeamsWithGrant(round int) ([]models.Team, error) {
	var teams []models.Team
	query := s.Converter(`
		SELECT t.id, t.name, t.track
		FROM teams t
		JOIN round_access ra ON ra.team_id = t.id
		WHERE ra.round_number = ?
		ORDER BY t.track, t.id
	`)

	if err := s.DB.Select(&teams, query, round); err != nil {
		return nil, fmt.Errorf("failed to list shortlisted teams: %w", err)
	}
	return teams, nil
}

// SumScoredPoints totals the scored evaluation entries a team collected over
// the given rounds. Missing entries count as zero.
func (s *BaseStore) SumScoredPoints(teamID string, rounds []int) (int, error) {
	if len(rounds) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(rounds))
	args := []interface{}{teamID}
	for i, r := range rounds {
		placeholders[i] = "?"
		args = append(args, r)
	}

	query := s.Converter(fmt.Sprintf(`
		SELECT COALESCE(SUM(score), 0)
		FROM score_entries
		WHERE team_id = ?
		AND status = 'scored'
		AND round_number IN (%s)
	`, strings.Join(placeholders, ", ")))

	var total int
	if err := s.DB.Get(&total, query, args...); err != nil {
		return 0, fmt.Errorf("failed to sum scores: %w", err)
	}
	return total, nil
}

func (s *BaseStore) GetRoundOptions(teamID string, round int) (*models.RoundOptions, error) {
	var opts models.RoundOptions
	query := s.Converter(`
		SELECT team_id, round_number, option_a, option_b,
		       selected, selected_at, assignment_mode,
		       pair_id, priority_team_id, paired_team_id,
		       published_at, auto_assigned
		FROM round_options
		WHERE team_id = ? AND round_number = ?
	`)

	err := s.DB.Get(&opts, query, teamID, round)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round options: %w", err)
	}
	return &opts, nil
}

func (s *BaseStore) UpsertRoundOptions(opts *models.RoundOptions) error {
	_, err := s.DB.NamedExec(`
		INSERT INTO round_options (
			team_id, round_number, option_a, option_b,
			selected, selected_at, assignment_mode,
			pair_id, priority_team_id, paired_team_id,
			published_at, auto_assigned
		) VALUES (
			:team_id, :round_number, :option_a, :option_b,
			:selected, :selected_at, :assignment_mode,
			:pair_id, :priority_team_id, :paired_team_id,
			:published_at, :auto_assigned
		)
		ON CONFLICT(team_id, round_number) DO UPDATE SET
		option_a = :option_a,
		option_b = :option_b,
		selected = :selected,
		selected_at = :selected_at,
		assignment_mode = :assignment_mode,
		pair_id = :pair_id,
		priority_team_id = :priority_team_id,
		paired_team_id = :paired_team_id,
		published_at = :published_at,
		auto_assigned = :auto_assigned
	`, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert round options: %w", err)
	}
	return nil
}

// ResetRoundOptions puts a ledger row back into its clean unselected
// team-mode shape. This is the pairing-deletion cascade target state.
func (s *BaseStore) ResetRoundOptions(teamID string, round int) error {
	query := s.Converter(`
		UPDATE round_options
		SET option_a = NULL,
		    option_b = NULL,
		    selected = NULL,
		    selected_at = NULL,
		    assignment_mode = 'team',
		    pair_id = NULL,
		    priority_team_id = NULL,
		    paired_team_id = NULL,
		    published_at = NULL,
		    auto_assigned = FALSE
		WHERE team_id = ? AND round_number = ?
	`)

	if _, err := s.DB.Exec(query, teamID, round); err != nil {
		return fmt.Errorf("failed to reset round options: %w", err)
	}
	return nil
}

// FinalizeSelection is the engine's one compare-and-set write: it only lands
// while the row is still unselected. Returns false when the precondition no
// longer held, which callers treat as losing a benign race, not an error.
func (s *BaseStore) FinalizeSelection(teamID string, round int, optionID string, selectedAt int64, autoAssigned bool) (bool, error) {
	query := s.Converter(`
		UPDATE round_options
		SET selected = ?,
		    selected_at = ?,
		    auto_assigned = ?
		WHERE team_id = ?
		AND round_number = ?
		AND selected IS NULL
	`)

	res, err := s.DB.Exec(query, optionID, selectedAt, autoAssigned, teamID, round)
	if err != nil {
		return false, fmt.Errorf("failed to finalize selection: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *BaseStore) GetPairing(pairingID string, round int) (*models.Pairing, error) {
	var pairing models.Pairing
	query := s.Converter(`
		SELECT id, round_number, team_a, team_b, pair_key, created_at
		FROM pairings
		WHERE id = ? AND round_number = ?
	`)

	err := s.DB.Get(&pairing, query, pairingID, round)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pairing: %w", err)
	}
	return &pairing, nil
}

func (s *BaseStore) GetPairingByKey(pairKey string, round int) (*models.Pairing, error) {
	var pairing models.Pairing
	query := s.Converter(`
		SELECT id, round_number, team_a, team_b, pair_key, created_at
		FROM pairings
		WHERE pair_key = ? AND round_number = ?
	`)

	err := s.DB.Get(&pairing, query, pairKey, round)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pairing by key: %w", err)
	}
	return &pairing, nil
}

func (s *BaseStore) DeletePairing(pairingID string) error {
	query := s.Converter(`DELETE FROM pairings WHERE id = ?`)
	if _, err := s.DB.Exec(query, pairingID); err != nil {
		return fmt.Errorf("failed to delete pairing: %w", err)
	}
	return nil
}

func (s *BaseStore) ListPairings(round int) ([]models.Pairing, error) {
	var pairings []models.Pairing
	query := s.Converter(`
		SELECT id, round_number, team_a, team_b, pair_key, created_at
		FROM pairings
		WHERE round_number = ?
		ORDER BY created_at, id
	`)

	if err := s.DB.Select(&pairings, query, round); err != nil {
		return nil, fmt.Errorf("failed to list pairings: %w", err)
	}
	return pairings, nil
}

func (s *BaseStore) ListPairRows(pairID string) ([]models.RoundOptions, error) {
	var rows []models.RoundOptions
	query := s.Converter(`
		SELECT team_id, round_number, option_a, option_b,
		       selected, selected_at, assignment_mode,
		       pair_id, priority_team_id, paired_team_id,
		       published_at, auto_assigned
		FROM round_options
		WHERE pair_id = ?
		ORDER BY team_id
	`)

	if err := s.DB.Select(&rows, query, pairID); err != nil {
		return nil, fmt.Errorf("failed to list pair rows: %w", err)
	}
	return rows, nil
}

// ListExpiredPriorityRows fetches pair-mode priority rows whose decision
// window closed before cutoff and that are still unselected. Feed for the
// proactive sweep.
func (s *BaseStore) ListExpiredPriorityRows(round int, cutoff int64) ([]models.RoundOptions, error) {
	var rows []models.RoundOptions
	query := s.Converter(`
		SELECT team_id, round_number, option_a, option_b,
		       selected, selected_at, assignment_mode,
		       pair_id, priority_team_id, paired_team_id,
		       published_at, auto_assigned
		FROM round_options
		WHERE round_number = ?
		AND assignment_mode = 'pair'
		AND team_id = priority_team_id
		AND selected IS NULL
		AND published_at IS NOT NULL
		AND published_at <= ?
		ORDER BY published_at, team_id
	`)

	if err := s.DB.Select(&rows, query, round, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list expired priority rows: %w", err)
	}
	return rows, nil
}
