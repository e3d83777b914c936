package models

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

type Pairing struct {
	ID          string `db:"id" json:"id"`
	RoundNumber int    `db:"round_number" json:"round_number"`
	TeamA       string `db:"team_a" json:"team_a"`
	TeamB       string `db:"team_b" json:"team_b"`
	PairKey     string `db:"pair_key" json:"pair_key"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
}

// PairKey builds the canonical key for an unordered team pair: the two IDs
// sorted and joined, so (A,B) and (B,A) collide on the unique index.
func PairKey(teamA, teamB string) string {
	if teamB < teamA {
		teamA, teamB = teamB, teamA
	}
	return teamA + ":" + teamB
}

func (p *Pairing) Teams() []string {
	return []string{p.TeamA, p.TeamB}
}

func (p *Pairing) Has(teamID string) bool {
	return p.TeamA == teamID || p.TeamB == teamID
}

// Sibling returns the other half of the pairing.
func (p *Pairing) Sibling(teamID string) string {
	if p.TeamA == teamID {
		return p.TeamB
	}
	return p.TeamA
}

// PairingRequest is the admin payload for creating a pairing together with
// its shared two-option pool.
type PairingRequest struct {
	TeamA   string   `json:"team_a" validate:"required"`
	TeamB   string   `json:"team_b" validate:"required"`
	Options []string `json:"options" validate:"required,len=2,dive,required"`
}

func (r *PairingRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	return nil
}

// TrimmedOptions normalizes option IDs before they hit the ledger.
func (r *PairingRequest) TrimmedOptions() []string {
	out := make([]string, 0, len(r.Options))
	for _, o := range r.Options {
		out = append(out, strings.TrimSpace(o))
	}
	return out
}
