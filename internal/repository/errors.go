// Package repository implements MySQL persistence for users, tokens,
// properties, rooms and bookings.  The sentinel values below let handlers
// tell failure scenarios apart without inspecting driver errors.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/property-booking/internal/booking"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  It is the same value the booking engine uses
// so handlers translate both into an HTTP 403 response.
var ErrForbidden = booking.ErrForbidden

// ErrNotFound is returned for missing rows.  Handlers translate it into
// an HTTP 404 response.
var ErrNotFound = booking.ErrNotFound

// ErrConflict is returned when a delete cannot be performed because of
// dependent records, such as a room that still has live bookings.
// Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// notFound maps sql.ErrNoRows to ErrNotFound and passes anything else
// through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isDuplicate reports whether err is a MySQL duplicate key error (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
