package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/model"
	"github.com/iliyamo/property-booking/internal/repository"
)

// PropertySearcher runs the public property search.
type PropertySearcher interface {
	Search(ctx context.Context, q repository.PropertySearchQuery) ([]repository.PublicPropertyRow, int64, error)
}

// PublicHandler serves unauthenticated browsing endpoints.  Owner ids are
// left out of its responses.
type PublicHandler struct {
	Svc    *booking.Service
	Rooms  RoomStore
	Search PropertySearcher
}

func NewPublicHandler(svc *booking.Service, rooms RoomStore, search PropertySearcher) *PublicHandler {
	return &PublicHandler{Svc: svc, Rooms: rooms, Search: search}
}

// PublicPeak is a peak override as shown to guests.
type PublicPeak struct {
	StartDate  string         `json:"start_date"`
	EndDate    string         `json:"end_date"`
	Kind       model.PeakKind `json:"kind"`
	Amount     int64          `json:"amount,omitempty"`
	Multiplier float64        `json:"multiplier,omitempty"`
}

// PublicRoom is a room as shown to guests.
type PublicRoom struct {
	ID          uint64       `json:"id"`
	PropertyID  uint64       `json:"property_id"`
	Name        string       `json:"name"`
	BasePrice   int64        `json:"base_price"`
	Capacity    int          `json:"capacity"`
	PeakSeasons []PublicPeak `json:"peak_seasons"`
}

func toPublicRoom(r model.Room) PublicRoom {
	out := PublicRoom{
		ID:          r.ID,
		PropertyID:  r.PropertyID,
		Name:        r.Name,
		BasePrice:   r.BasePrice,
		Capacity:    r.Capacity,
		PeakSeasons: make([]PublicPeak, 0, len(r.PeakSeasons)),
	}
	for _, ps := range r.PeakSeasons {
		out.PeakSeasons = append(out.PeakSeasons, PublicPeak{
			StartDate:  ps.StartDate.Format(booking.DateLayout),
			EndDate:    ps.EndDate.Format(booking.DateLayout),
			Kind:       ps.Kind,
			Amount:     ps.Amount,
			Multiplier: ps.Multiplier,
		})
	}
	return out
}

// ListRooms lists the rooms of a property.
func (h *PublicHandler) ListRooms(c echo.Context) error {
	propertyID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid property id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rooms, err := h.Rooms.ListByProperty(ctx, propertyID)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]PublicRoom, 0, len(rooms))
	for _, r := range rooms {
		items = append(items, toPublicRoom(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetRoom returns one room with its peak overrides.
func (h *PublicHandler) GetRoom(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	r, err := h.Rooms.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toPublicRoom(r))
}

// Calendar returns the nightly price, peak flag and availability of every
// day of ?month=YYYY-MM, the current month when omitted.
func (h *PublicHandler) Calendar(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	month := time.Now().UTC()
	if s := strings.TrimSpace(c.QueryParam("month")); s != "" {
		m, err := time.Parse("2006-01", s)
		if err != nil {
			return badRequest(c, "month must be YYYY-MM")
		}
		month = m
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	days, err := h.Svc.Calendar(ctx, id, month)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id": id,
		"month":   month.Format("2006-01"),
		"days":    days,
	})
}

// SearchProperties lists properties by name and city.  With check_in and
// check_out only properties with a room free for that stay (and fitting
// ?guests=) are returned.
func (h *PublicHandler) SearchProperties(c echo.Context) error {
	q := repository.PropertySearchQuery{
		Name: strings.TrimSpace(c.QueryParam("name")),
		City: strings.TrimSpace(c.QueryParam("city")),
		Now:  time.Now().UTC(),
	}
	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if s := c.QueryParam("guests"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return badRequest(c, "guests must be a positive number")
		}
		q.Guests = n
	}
	var err error
	if s := c.QueryParam("check_in"); s != "" {
		if q.CheckIn, err = booking.ParseDay(s); err != nil {
			return writeError(c, err)
		}
	}
	if s := c.QueryParam("check_out"); s != "" {
		if q.CheckOut, err = booking.ParseDay(s); err != nil {
			return writeError(c, err)
		}
	}
	if err := q.Normalize(); err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Search.Search(ctx, q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}
