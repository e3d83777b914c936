// Package engine holds the error taxonomy shared by the allocation, pairing
// and selection services. Every rejected request maps to one of these codes
// so callers can tell "your request was invalid" apart from "someone already
// acted" without parsing messages.
package engine

import "errors"

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

var (
	// precondition violations
	ErrNotPairingRound   = &Error{Code: "NOT_PAIRING_ROUND", Message: "round does not use paired allocation"}
	ErrNotTeamRound      = &Error{Code: "NOT_TEAM_ROUND", Message: "round does not use team-level allocation"}
	ErrSelfPair          = &Error{Code: "SELF_PAIR", Message: "a team cannot be paired with itself"}
	ErrNotShortlisted    = &Error{Code: "NOT_SHORTLISTED", Message: "team is not shortlisted into this round"}
	ErrTrackMismatch     = &Error{Code: "TRACK_MISMATCH", Message: "paired teams must belong to the same track"}
	ErrRoundInactive     = &Error{Code: "ROUND_INACTIVE", Message: "round is not active"}
	ErrNoSelectionRound  = &Error{Code: "NO_SELECTION_IN_ROUND", Message: "this round has no subtask selection"}
	ErrNoOptionsAssigned = &Error{Code: "NO_OPTIONS_ASSIGNED", Message: "no options have been assigned yet"}
	ErrOptionNotOffered  = &Error{Code: "OPTION_NOT_OFFERED", Message: "option is not part of the offered set"}

	// conflicts
	ErrDuplicatePair      = &Error{Code: "DUPLICATE_PAIR", Message: "these teams are already paired for this round"}
	ErrAlreadyFinalized   = &Error{Code: "ALREADY_FINALIZED", Message: "selection is already finalized"}
	ErrWaitingForPriority = &Error{Code: "WAITING_FOR_PRIORITY", Message: "waiting for the priority team to choose"}
	ErrNotPriorityTeam    = &Error{Code: "NOT_PRIORITY_TEAM", Message: "only the priority team may choose"}

	ErrNotFound = &Error{Code: "NOT_FOUND", Message: "not found"}
)

// Conflict reports whether err is one of the conflict-class errors, i.e. the
// request was well-formed but somebody already acted.
func Conflict(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e {
	case ErrDuplicatePair, ErrAlreadyFinalized, ErrWaitingForPriority, ErrNotPriorityTeam:
		return true
	}
	return false
}
