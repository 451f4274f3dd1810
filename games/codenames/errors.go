/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error identifier. The HTTP layer maps codes to
// status codes and reports them verbatim to clients.
type Code string

const (
	CodeRoomNotFound      Code = "room_not_found"
	CodeRoomExists        Code = "room_exists"
	CodeInvalidRoomID     Code = "invalid_room_id"
	CodeAlreadyRevealed   Code = "already_revealed"
	CodeForbiddenRole     Code = "forbidden_role"
	CodeWrongTurn         Code = "wrong_turn"
	CodeInvalidCard       Code = "invalid_card"
	CodeGameFinished      Code = "game_finished"
	CodeInvalidPlayerData Code = "invalid_player_data"
	CodeInsufficientWords Code = "insufficient_words"
	CodeMalformedState    Code = "malformed_state"
	CodeConflict          Code = "conflict"
	CodeWordBankNotFound  Code = "word_bank_not_found"
	CodeWordBankExists    Code = "word_bank_exists"
	CodeInvalidWordBank   Code = "invalid_word_bank"
)

// Error is the engine's error type. Two errors match under errors.Is when
// their codes are equal, so the sentinels below can be compared against any
// error carrying extra context.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrRoomNotFound      = &Error{Code: CodeRoomNotFound, Message: "room not found"}
	ErrRoomExists        = &Error{Code: CodeRoomExists, Message: "room already exists"}
	ErrInvalidRoomID     = &Error{Code: CodeInvalidRoomID, Message: "invalid room id"}
	ErrAlreadyRevealed   = &Error{Code: CodeAlreadyRevealed, Message: "card already revealed"}
	ErrForbiddenRole     = &Error{Code: CodeForbiddenRole, Message: "spymasters cannot reveal cards"}
	ErrWrongTurn         = &Error{Code: CodeWrongTurn, Message: "not your team's turn"}
	ErrInvalidCard       = &Error{Code: CodeInvalidCard, Message: "card index out of range"}
	ErrGameFinished      = &Error{Code: CodeGameFinished, Message: "game is already finished"}
	ErrInvalidPlayerData = &Error{Code: CodeInvalidPlayerData, Message: "invalid player data"}
	ErrInsufficientWords = &Error{Code: CodeInsufficientWords, Message: "not enough words to fill a board"}
	ErrMalformedState    = &Error{Code: CodeMalformedState, Message: "malformed room state"}
	ErrConflict          = &Error{Code: CodeConflict, Message: "room was modified concurrently"}
	ErrWordBankNotFound  = &Error{Code: CodeWordBankNotFound, Message: "word bank not found"}
	ErrWordBankExists    = &Error{Code: CodeWordBankExists, Message: "word bank already exists"}
	ErrInvalidWordBank   = &Error{Code: CodeInvalidWordBank, Message: "invalid word bank"}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code of an engine error, or "" for anything else.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
