// Package handler contains the HTTP handlers of the booking API.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/middleware"
	"github.com/iliyamo/property-booking/internal/repository"
)

// requestTimeout bounds every database-backed handler.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actorOf returns the authenticated caller.  Routes that need it run
// behind JWTAuth, so a missing identity is a wiring bug answered with 401.
func actorOf(c echo.Context) (booking.Actor, bool) {
	id, role, ok := middleware.CurrentUser(c)
	return booking.Actor{UserID: id, Role: role}, ok
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// errorStatus maps engine and repository errors to HTTP statuses.  Order
// matters: the more specific sentinels come first.
var errorStatus = []struct {
	target error
	status int
}{
	{booking.ErrValidation, http.StatusBadRequest},
	{booking.ErrNotFound, http.StatusNotFound},
	{booking.ErrForbidden, http.StatusForbidden},
	{booking.ErrRoomUnavailable, http.StatusConflict},
	{booking.ErrInvalidState, http.StatusConflict},
	{repository.ErrConflict, http.StatusConflict},
	{repository.ErrEmailExists, http.StatusConflict},
	{booking.ErrDeadlinePassed, http.StatusGone},
	{booking.ErrCapacityExceeded, http.StatusUnprocessableEntity},
}

// writeError answers err with the status of its class.  Unknown errors are
// logged and reported as 500 without details.
func writeError(c echo.Context, err error) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.target) {
			return c.JSON(e.status, echo.Map{"error": message(err)})
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		log.Printf("handler: %s %s timed out: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request timed out"})
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// message strips the generic "validation failed: " prefix so clients see
// the specific reason.
func message(err error) string {
	msg := err.Error()
	if p := booking.ErrValidation.Error() + ": "; strings.HasPrefix(msg, p) {
		return strings.TrimPrefix(msg, p)
	}
	return msg
}
