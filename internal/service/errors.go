// Package service holds the booking domain: the scheduling conflict
// checker and session scheduler, the wallet ledger, the ticket settlement
// workflow and the authorization policy. Every business-rule rejection
// is an *Error carrying a stable reason code.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-booking/internal/repository"
)

// Kind groups reason codes into the categories callers branch on.
type Kind int

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindValidation
	KindSchedulingConflict
	KindUnavailable
	KindCapacityExceeded
	KindDuplicate
	KindInsufficientFunds
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "ValidationError"
	case KindSchedulingConflict:
		return "SchedulingConflict"
	case KindUnavailable:
		return "ResourceUnavailable"
	case KindCapacityExceeded:
		return "CapacityExceeded"
	case KindDuplicate:
		return "DuplicateResource"
	case KindInsufficientFunds:
		return "InsufficientFunds"
	case KindForbidden:
		return "AuthorizationDenied"
	}
	return "Unexpected"
}

// Error is a typed business-rule rejection. Two errors match under
// errors.Is when their codes are equal, so a conflict naming a specific
// session still matches ErrRoomConflict.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// SessionID names the colliding session for scheduling conflicts.
	SessionID string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Is matches on the reason code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrRoomNotFound        = newErr(KindNotFound, "ROOM_NOT_FOUND", "room not found")
	ErrMovieNotFound       = newErr(KindNotFound, "MOVIE_NOT_FOUND", "movie not found")
	ErrSessionNotFound     = newErr(KindNotFound, "SESSION_NOT_FOUND", "session not found")
	ErrUserNotFound        = newErr(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrSuperticketNotFound = newErr(KindNotFound, "SUPERTICKET_NOT_FOUND", "user has no superticket")

	ErrInvalidTimestamp = newErr(KindValidation, "INVALID_TIMESTAMP", "start must be an ISO-8601 timestamp")
	ErrInvalidAmount    = newErr(KindValidation, "INVALID_AMOUNT", "amount must be at least 1 with at most two decimals")
	ErrInvalidInput     = newErr(KindValidation, "INVALID_INPUT", "invalid input")

	ErrRoomConflict  = newErr(KindSchedulingConflict, "ROOM_CONFLICT", "room is already booked for this time window")
	ErrMovieConflict = newErr(KindSchedulingConflict, "MOVIE_CONFLICT", "movie is already screening during this time window")

	ErrRoomUnavailable   = newErr(KindUnavailable, "ROOM_UNAVAILABLE", "room is under maintenance")
	ErrRoomInUse         = newErr(KindUnavailable, "ROOM_IN_USE", "room still has sessions")
	ErrMovieInUse        = newErr(KindUnavailable, "MOVIE_IN_USE", "movie still has sessions")
	ErrSessionHasTickets = newErr(KindUnavailable, "SESSION_HAS_TICKETS", "session already sold tickets")

	ErrRoomFull = newErr(KindCapacityExceeded, "ROOM_FULL", "session is sold out")

	ErrTicketExists   = newErr(KindDuplicate, "TICKET_ALREADY_EXISTS", "user already holds a ticket for this session")
	ErrEmailTaken     = newErr(KindDuplicate, "EMAIL_TAKEN", "email already registered")
	ErrMovieNameTaken = newErr(KindDuplicate, "MOVIE_NAME_TAKEN", "a movie with this name already exists")

	ErrInsufficientBalance = newErr(KindInsufficientFunds, "INSUFFICIENT_BALANCE", "balance too low for this withdrawal")
	ErrNoUsesRemaining     = newErr(KindInsufficientFunds, "NO_USES_REMAINING", "superticket has no remaining uses")

	ErrForbidden             = newErr(KindForbidden, "FORBIDDEN", "not allowed")
	ErrPurchaseNotAffordable = newErr(KindForbidden, "PURCHASE_NOT_AFFORDABLE", "balance too low for this purchase")
)

// conflictWith returns a copy of base naming the colliding session.
func conflictWith(base *Error, sessionID string) *Error {
	e := *base
	e.SessionID = sessionID
	e.Message = fmt.Sprintf("%s (session %s)", base.Message, sessionID)
	return &e
}

// Invalid builds a validation error with a custom message.
func Invalid(msg string) *Error {
	e := *ErrInvalidInput
	e.Message = msg
	return &e
}

// KindOf returns the kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// fromRepo maps repository sentinels onto reason codes. Errors it does
// not recognise pass through and end up as KindUnexpected.
func fromRepo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRoomNotFound):
		return ErrRoomNotFound
	case errors.Is(err, repository.ErrMovieNotFound):
		return ErrMovieNotFound
	case errors.Is(err, repository.ErrSessionNotFound):
		return ErrSessionNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrSuperticketNotFound):
		return ErrSuperticketNotFound
	case errors.Is(err, repository.ErrTicketExists):
		return ErrTicketExists
	case errors.Is(err, repository.ErrEmailExists):
		return ErrEmailTaken
	case errors.Is(err, repository.ErrNameExists):
		return ErrMovieNameTaken
	}
	return err
}
