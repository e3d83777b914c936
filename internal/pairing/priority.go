package pairing

import (
	"github.com/shrimpsizemoose/semla/internal/models"
)

// ResolvePriority decides which of two paired teams chooses first: the one
// with the higher cumulative score over the two preceding rounds. Ties go
// to the lexicographically smaller team ID, so the outcome is stable no
// matter in which order the teams are passed.
func ResolvePriority(a, b models.TeamScore) (priorityID, pairedID string) {
	if a.Total > b.Total {
		return a.TeamID, b.TeamID
	}
	if b.Total > a.Total {
		return b.TeamID, a.TeamID
	}
	if a.TeamID < b.TeamID {
		return a.TeamID, b.TeamID
	}
	return b.TeamID, a.TeamID
}
