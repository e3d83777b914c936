package models

type Round struct {
	RoundNumber int    `db:"round_number" json:"round_number" validate:"required,min=1"`
	IsActive    bool   `db:"is_active" json:"is_active"`
	StartsAt    *int64 `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt      *int64 `db:"ends_at" json:"ends_at,omitempty"`
}

type Team struct {
	ID    string `db:"id" json:"id" validate:"required"`
	Name  string `db:"name" json:"name"`
	Track string `db:"track" json:"track" validate:"required"`
}

// TeamScore carries a team's cumulative score over the rounds that feed
// priority resolution.
type TeamScore struct {
	TeamID string `db:"team_id" json:"team_id"`
	Total  int    `db:"total" json:"total"`
}
