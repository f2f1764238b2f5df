package room

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable rejection code surfaced to clients.
type Code string

const (
	CodeAuthFailed       Code = "AUTH_FAILED"
	CodeInvalidPhase     Code = "INVALID_PHASE"
	CodeDuplicateVote    Code = "DUPLICATE_VOTE"
	CodeDuplicateRating  Code = "DUPLICATE_RATING"
	CodeIneligibleVoter  Code = "INELIGIBLE_VOTER"
	CodeVoteTooEarly     Code = "VOTE_TOO_EARLY"
	CodeRoomNotFound     Code = "ROOM_NOT_FOUND"
	CodePlayerNotFound   Code = "PLAYER_NOT_FOUND"
	CodeRoundNotFound    Code = "ROUND_NOT_FOUND"
	CodeNotEnoughPlayers Code = "NOT_ENOUGH_PLAYERS"
	CodeInvalidRating    Code = "INVALID_RATING"
	CodeNotHost          Code = "NOT_HOST"
	CodeBadRequest       Code = "BAD_REQUEST"
)

// Error is a per-event rejection. The room state is untouched whenever one
// is returned.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a typed rejection.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the rejection code from an error, defaulting to
// BAD_REQUEST for untyped errors.
func CodeOf(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeBadRequest
}
