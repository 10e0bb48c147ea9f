// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios and translate them
// into reason codes.
package repository

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrMovieNotFound       = errors.New("movie not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrSuperticketNotFound = errors.New("superticket not found")
	ErrTicketNotFound      = errors.New("ticket not found")
)

// ErrEmailExists is returned when a user insert or update collides with
// an existing email.
var ErrEmailExists = errors.New("email already exists")

// ErrNameExists is returned when a movie name is already taken.
var ErrNameExists = errors.New("name already exists")

// ErrTicketExists is returned when the (user, session) key is taken.
var ErrTicketExists = errors.New("ticket already exists")

// ErrInUse is returned when a delete is refused because other rows
// still reference the record (e.g. a room with sessions).
var ErrInUse = errors.New("record in use")
