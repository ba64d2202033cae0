package game

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeInvalidPlay         Code = "INVALID_PLAY"
	CodeCardNotInHand       Code = "CARD_NOT_IN_HAND"
	CodeAlreadyPlayed       Code = "ALREADY_PLAYED"
	CodeStorytellerNotReady Code = "STORYTELLER_NOT_READY"

	CodeInvalidVote  Code = "INVALID_VOTE"
	CodeAlreadyVoted Code = "ALREADY_VOTED"

	CodeRoundIncomplete   Code = "ROUND_INCOMPLETE"
	CodeDeckExhausted     Code = "DECK_EXHAUSTED"
	CodeInvalidRoundState Code = "INVALID_ROUND_STATE"

	CodeGameNotFound        Code = "GAME_NOT_FOUND"
	CodeRoundNotFound       Code = "ROUND_NOT_FOUND"
	CodePlayNotFound        Code = "PLAY_NOT_FOUND"
	CodePlayerNotFound      Code = "PLAYER_NOT_FOUND"
	CodeDuplicatePlayerName Code = "DUPLICATE_PLAYER_NAME"
	CodeInvalidName         Code = "INVALID_NAME"
	CodeGameOver            Code = "GAME_OVER"
)

// Class tells a caller whether an error is an expected outcome it should
// report back to the acting client or a sequencing bug on its own side.
type Class int

const (
	ClassRejection Class = iota
	ClassInvariant
)

// Error is the domain error type returned by every game operation.
type Error struct {
	Code    Code   // Machine-readable error code
	Family  Code   // Broader code this one belongs to, if any
	Class   Class  // Rejection or invariant violation
	Message string // Human-readable reason
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code or by family.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code || (e.Family != "" && e.Family == t.Code)
}

// Sentinels for errors.Is. The messages are defaults; operations return
// fresh errors with a specific reason.
var (
	ErrInvalidPlay         = &Error{Code: CodeInvalidPlay, Message: "invalid play"}
	ErrCardNotInHand       = &Error{Code: CodeCardNotInHand, Family: CodeInvalidPlay, Message: "card not in hand"}
	ErrAlreadyPlayed       = &Error{Code: CodeAlreadyPlayed, Family: CodeInvalidPlay, Message: "player already played this round"}
	ErrStorytellerNotReady = &Error{Code: CodeStorytellerNotReady, Family: CodeInvalidPlay, Message: "storyteller has not played yet"}

	ErrInvalidVote  = &Error{Code: CodeInvalidVote, Message: "invalid vote"}
	ErrAlreadyVoted = &Error{Code: CodeAlreadyVoted, Family: CodeInvalidVote, Message: "player already voted this round"}

	ErrRoundIncomplete   = &Error{Code: CodeRoundIncomplete, Message: "round is not complete"}
	ErrDeckExhausted     = &Error{Code: CodeDeckExhausted, Message: "deck exhausted"}
	ErrInvalidRoundState = &Error{Code: CodeInvalidRoundState, Class: ClassInvariant, Message: "invalid round state"}

	ErrGameNotFound        = &Error{Code: CodeGameNotFound, Message: "game not found"}
	ErrRoundNotFound       = &Error{Code: CodeRoundNotFound, Message: "round not found"}
	ErrPlayNotFound        = &Error{Code: CodePlayNotFound, Message: "play not found"}
	ErrPlayerNotFound      = &Error{Code: CodePlayerNotFound, Message: "player not found"}
	ErrDuplicatePlayerName = &Error{Code: CodeDuplicatePlayerName, Message: "player name already taken"}
	ErrInvalidName         = &Error{Code: CodeInvalidName, Message: "name is required"}
	ErrGameOver            = &Error{Code: CodeGameOver, Message: "game is over"}
)

// reject builds a rejection carrying the sentinel's code and family.
func reject(sentinel *Error, message string) *Error {
	return &Error{
		Code:    sentinel.Code,
		Family:  sentinel.Family,
		Class:   sentinel.Class,
		Message: message,
	}
}

// IsRejection reports whether err is a domain rejection, an outcome the
// caller surfaces to the client instead of treating as a fault.
func IsRejection(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ClassRejection
	}
	return false
}

// CodeOf returns the code of the first domain error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Rejectf builds a rejection with the sentinel's code and a formatted
// reason, for collaborators such as stores.
func Rejectf(sentinel *Error, format string, args ...any) *Error {
	return reject(sentinel, fmt.Sprintf(format, args...))
}
