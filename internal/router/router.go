// Package router registers the HTTP routes of the booking API.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/property-booking/internal/handler"
	"github.com/iliyamo/property-booking/internal/middleware"
	"github.com/iliyamo/property-booking/internal/model"
)

// RegisterRoutes registers the probes.  /readyz is skipped when db is nil.
func RegisterRoutes(e *echo.Echo, db *sql.DB, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db, rdb))
	}
}

// RegisterAuth registers session endpoints under /v1/auth.  Logout needs a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers browsing endpoints that need no session.
// calendar, when non-nil, wraps the calendar route (response cache).
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, b *handler.BookingHandler, calendar echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.GET("/properties", p.SearchProperties)
	g.GET("/properties/:id/rooms", p.ListRooms)
	g.GET("/rooms/:id", p.GetRoom)
	if calendar != nil {
		g.GET("/rooms/:id/calendar", p.Calendar, calendar)
	} else {
		g.GET("/rooms/:id/calendar", p.Calendar)
	}
	g.POST("/bookings/check-availability", b.CheckAvailability)
}

// RegisterUser registers guest endpoints.  Creating, paying and cancelling
// need the USER role; reading a booking is open to its guest and to the
// tenant owning the room, which the service checks.
func RegisterUser(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)
	guest := middleware.RequireRole(model.RoleUser)
	anyone := middleware.RequireRole(model.RoleUser, model.RoleTenant)

	g := e.Group("/v1")
	g.POST("/bookings", b.Create, auth, guest)
	g.PUT("/bookings/:id/payment", b.UploadPayment, auth, guest)
	g.POST("/bookings/:id/cancel", b.Cancel, auth, guest)
	g.GET("/my-bookings", b.Mine, auth, guest)

	g.GET("/bookings/:id", b.Get, auth, anyone)
	g.GET("/bookings/:id/stream", b.Stream, auth, anyone)
}
