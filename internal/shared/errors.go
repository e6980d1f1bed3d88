package shared

import "errors"

// Code is a machine-readable error code sent back to clients.
type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeSessionNotFound  Code = "SESSION_NOT_FOUND"
	CodeSessionFull      Code = "SESSION_FULL"
	CodeDuplicatePlayer  Code = "DUPLICATE_PLAYER"
	CodeNotYourTurn      Code = "NOT_YOUR_TURN"
	CodeConsecutivePlay  Code = "CONSECUTIVE_PLAY"
	CodeInvalidMove      Code = "INVALID_MOVE"
	CodePlayerNotFound   Code = "PLAYER_NOT_FOUND"
	CodeGameNotStarted   Code = "GAME_NOT_STARTED"
	CodeRoundOver        Code = "ROUND_OVER"
	CodeRoundInProgress  Code = "ROUND_IN_PROGRESS"
	CodeBadSelection     Code = "BAD_SELECTION"
	CodeInvalidArguments Code = "INVALID_ARGUMENTS"
)

// Error is an expected, recoverable game error.
type Error struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// NewError creates a game error with a code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrSessionNotFound = NewError(CodeSessionNotFound, "Game not found.")
	ErrSessionFull     = NewError(CodeSessionFull, "Game is already full.")
	ErrDuplicatePlayer = NewError(CodeDuplicatePlayer, "Player is already in the game.")
	ErrNotYourTurn     = NewError(CodeNotYourTurn, "It's not your turn.")
	ErrConsecutivePlay = NewError(CodeConsecutivePlay, "You cannot play on top of your own cards.")
	ErrInvalidMove     = NewError(CodeInvalidMove, "Invalid move.")
	ErrPlayerNotFound  = NewError(CodePlayerNotFound, "Player not found in the game.")
	ErrGameNotStarted  = NewError(CodeGameNotStarted, "Game has not started yet.")
	ErrRoundOver       = NewError(CodeRoundOver, "The round is over.")
	ErrRoundInProgress = NewError(CodeRoundInProgress, "The round is still being played.")
	ErrBadSelection    = NewError(CodeBadSelection, "Invalid card selection.")
)

// InvalidMove returns an InvalidMove error carrying a human-readable reason.
func InvalidMove(reason string) *Error {
	return NewError(CodeInvalidMove, "Invalid move: "+reason)
}

// CodeOf extracts the game error code from err, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
