package models

import (
	"github.com/go-playground/validator/v10"
)

type AssignmentMode string

const (
	AssignmentTeam AssignmentMode = "team"
	AssignmentPair AssignmentMode = "pair"
)

type SelectionState string

const (
	StateUnassigned SelectionState = "unassigned"
	StateOffered    SelectionState = "offered"
	StateFinalized  SelectionState = "finalized"
)

// RoundOptions is the per-team per-round ledger row: which options were
// offered, which one got locked in, and the pairing metadata when the row
// was produced by pair allocation.
type RoundOptions struct {
	TeamID         string         `db:"team_id" json:"team_id"`
	RoundNumber    int            `db:"round_number" json:"round_number"`
	OptionA        *string        `db:"option_a" json:"option_a,omitempty"`
	OptionB        *string        `db:"option_b" json:"option_b,omitempty"`
	Selected       *string        `db:"selected" json:"selected,omitempty"`
	SelectedAt     *int64         `db:"selected_at" json:"selected_at,omitempty"`
	AssignmentMode AssignmentMode `db:"assignment_mode" json:"assignment_mode"`
	PairID         *string        `db:"pair_id" json:"pair_id,omitempty"`
	PriorityTeamID *string        `db:"priority_team_id" json:"priority_team_id,omitempty"`
	PairedTeamID   *string        `db:"paired_team_id" json:"paired_team_id,omitempty"`
	PublishedAt    *int64         `db:"published_at" json:"published_at,omitempty"`
	AutoAssigned   bool           `db:"auto_assigned" json:"auto_assigned"`
}

func (o *RoundOptions) Options() []string {
	var opts []string
	if o.OptionA != nil {
		opts = append(opts, *o.OptionA)
	}
	if o.OptionB != nil {
		opts = append(opts, *o.OptionB)
	}
	return opts
}

func (o *RoundOptions) Offers(optionID string) bool {
	for _, opt := range o.Options() {
		if opt == optionID {
			return true
		}
	}
	return false
}

// Complement returns the other option of a two-option pool. Returns false
// when the pool has fewer than two distinct options or optionID is not one
// of them.
func (o *RoundOptions) Complement(optionID string) (string, bool) {
	if o.OptionA == nil || o.OptionB == nil {
		return "", false
	}
	switch optionID {
	case *o.OptionA:
		return *o.OptionB, true
	case *o.OptionB:
		return *o.OptionA, true
	}
	return "", false
}

func (o *RoundOptions) Finalized() bool {
	return o.Selected != nil
}

func (o *RoundOptions) State() SelectionState {
	switch {
	case o.Selected != nil:
		return StateFinalized
	case len(o.Options()) > 0:
		return StateOffered
	default:
		return StateUnassigned
	}
}

// Allocation is one entry of a team-mode batch allocation request.
type Allocation struct {
	TeamID  string   `json:"team_id" validate:"required"`
	Options []string `json:"options" validate:"required,min=1,dive,required"`
}

func (a *Allocation) Validate() error {
	validate := validator.New()
	return validate.Struct(a)
}
