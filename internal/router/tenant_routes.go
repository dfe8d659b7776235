package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/property-booking/internal/handler"
	"github.com/iliyamo/property-booking/internal/middleware"
	"github.com/iliyamo/property-booking/internal/model"
)

// RegisterTenant registers property owner endpoints under /v1/tenant.
// Every route requires a valid JWT and the TENANT role.
func RegisterTenant(e *echo.Echo, h *handler.TenantHandler, jwtSecret string) {
	g := e.Group(
		"/v1/tenant",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleTenant),
	)
	g.POST("/properties", h.CreateProperty)
	g.GET("/properties", h.ListProperties)
	g.POST("/properties/:id/rooms", h.CreateRoom)
	g.DELETE("/rooms/:id", h.DeleteRoom)
	g.POST("/rooms/:id/peak-seasons", h.AddPeakSeason)
	g.DELETE("/rooms/:id/peak-seasons/:season_id", h.DeletePeakSeason)

	g.GET("/bookings", h.ListBookings)
	g.POST("/bookings/:id/review", h.Review)
	g.GET("/reports/sales", h.SalesReport)
}
