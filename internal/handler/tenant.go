package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/model"
)

// PropertyStore is the property persistence used by tenant endpoints.
type PropertyStore interface {
	Create(ctx context.Context, tenantID uint64, name, city string) (model.Property, error)
	ListByTenant(ctx context.Context, tenantID uint64) ([]model.Property, error)
}

// RoomStore is the room persistence used by tenant and public endpoints.
type RoomStore interface {
	Get(ctx context.Context, id uint64) (model.Room, error)
	ListByProperty(ctx context.Context, propertyID uint64) ([]model.Room, error)
	Create(ctx context.Context, tenantID uint64, room model.Room) (model.Room, error)
	Delete(ctx context.Context, tenantID, roomID uint64) error
	AddPeakSeason(ctx context.Context, tenantID uint64, ps model.PeakSeason) (model.PeakSeason, error)
	DeletePeakSeason(ctx context.Context, tenantID, roomID, seasonID uint64) error
}

// TenantHandler serves endpoints for property owners.
type TenantHandler struct {
	Svc   *booking.Service
	Props PropertyStore
	Rooms RoomStore
}

func NewTenantHandler(svc *booking.Service, props PropertyStore, rooms RoomStore) *TenantHandler {
	return &TenantHandler{Svc: svc, Props: props, Rooms: rooms}
}

type propertyReq struct {
	Name string `json:"name" validate:"required,max=150"`
	City string `json:"city" validate:"required,max=100"`
}

type roomReq struct {
	Name      string `json:"name" validate:"required,max=100"`
	BasePrice int64  `json:"base_price" validate:"gt=0"`
	Capacity  int    `json:"capacity" validate:"min=1,max=50"`
}

type peakReq struct {
	StartDate  string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Kind       string  `json:"kind" validate:"required,oneof=FIXED MULTIPLIER"`
	Amount     int64   `json:"amount" validate:"gte=0"`
	Multiplier float64 `json:"multiplier" validate:"gte=0"`
}

// season converts the request into a peak season for roomID.
func (r peakReq) season(roomID uint64) (model.PeakSeason, string) {
	start, err := booking.ParseDay(r.StartDate)
	if err != nil {
		return model.PeakSeason{}, "invalid start_date"
	}
	end, err := booking.ParseDay(r.EndDate)
	if err != nil {
		return model.PeakSeason{}, "invalid end_date"
	}
	if end.Before(start) {
		return model.PeakSeason{}, "end_date must not be before start_date"
	}
	ps := model.PeakSeason{RoomID: roomID, StartDate: start, EndDate: end, Kind: model.PeakKind(r.Kind)}
	switch ps.Kind {
	case model.PeakFixed:
		if r.Amount <= 0 {
			return model.PeakSeason{}, "amount must be greater than 0 for FIXED"
		}
		ps.Amount = r.Amount
	case model.PeakMultiplier:
		if r.Multiplier <= 0 {
			return model.PeakSeason{}, "multiplier must be greater than 0 for MULTIPLIER"
		}
		ps.Multiplier = r.Multiplier
	}
	return ps, ""
}

// CreateProperty adds a property owned by the caller.
func (h *TenantHandler) CreateProperty(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req propertyReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Props.Create(ctx, actor.UserID, strings.TrimSpace(req.Name), strings.TrimSpace(req.City))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListProperties lists the caller's properties.
func (h *TenantHandler) ListProperties(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ps, err := h.Props.ListByTenant(ctx, actor.UserID)
	if err != nil {
		return writeError(c, err)
	}
	if ps == nil {
		ps = []model.Property{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": ps})
}

// CreateRoom adds a room to one of the caller's properties.
func (h *TenantHandler) CreateRoom(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	propertyID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid property id")
	}
	var req roomReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	room, err := h.Rooms.Create(ctx, actor.UserID, model.Room{
		PropertyID: propertyID,
		Name:       strings.TrimSpace(req.Name),
		BasePrice:  req.BasePrice,
		Capacity:   req.Capacity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

// DeleteRoom removes a room that has no live bookings.
func (h *TenantHandler) DeleteRoom(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Rooms.Delete(ctx, actor.UserID, roomID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddPeakSeason adds a price override to one of the caller's rooms.
func (h *TenantHandler) AddPeakSeason(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	var req peakReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	ps, msg := req.season(roomID)
	if msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ps, err := h.Rooms.AddPeakSeason(ctx, actor.UserID, ps)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ps)
}

// DeletePeakSeason removes a price override.
func (h *TenantHandler) DeletePeakSeason(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	roomID, ok1 := pathID(c, "id")
	seasonID, ok2 := pathID(c, "season_id")
	if !ok1 || !ok2 {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Rooms.DeletePeakSeason(ctx, actor.UserID, roomID, seasonID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListBookings lists bookings on the caller's properties, optionally
// filtered by ?status=.
func (h *TenantHandler) ListBookings(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	status := model.BookingStatus(strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))))
	if status != "" && !booking.IsKnownStatus(status) {
		return badRequest(c, "unknown status")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	bs, err := h.Svc.ListTenantBookings(ctx, actor, status)
	if err != nil {
		return writeError(c, err)
	}
	if bs == nil {
		bs = []model.Booking{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bs})
}

type reviewReq struct {
	Decision string `json:"decision" validate:"required"`
}

// Review accepts or rejects an uploaded payment proof.
func (h *TenantHandler) Review(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var req reviewReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	d, err := booking.ParseDecision(req.Decision)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Svc.ReviewPayment(ctx, actor, id, d)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// SalesReport aggregates the caller's confirmed and completed bookings.
// start_date and end_date are inclusive days of the booking creation date.
func (h *TenantHandler) SalesReport(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	opts, err := booking.ParseReportOptions(c.QueryParam("group_by"), c.QueryParam("sort_by"), c.QueryParam("order"))
	if err != nil {
		return writeError(c, err)
	}
	var f booking.SalesFilter
	if s := c.QueryParam("property_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return badRequest(c, "invalid property_id")
		}
		f.PropertyID = id
	}
	if s := c.QueryParam("start_date"); s != "" {
		if f.From, err = booking.ParseDay(s); err != nil {
			return writeError(c, err)
		}
	}
	if s := c.QueryParam("end_date"); s != "" {
		end, err := booking.ParseDay(s)
		if err != nil {
			return writeError(c, err)
		}
		f.To = end.AddDate(0, 0, 1)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rep, err := h.Svc.SalesReport(ctx, actor, f, opts)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}
