package handler

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/model"
	"github.com/iliyamo/property-booking/internal/realtime"
	"github.com/iliyamo/property-booking/internal/storage"
)

// proofField is the multipart field carrying the payment proof.
const proofField = "paymentProof"

// BookingHandler serves guest-facing booking endpoints.
type BookingHandler struct {
	Svc         *booking.Service
	Proofs      storage.Store
	ProofPrefix string
	Hub         *realtime.Hub
}

func NewBookingHandler(svc *booking.Service, proofs storage.Store, proofPrefix string, hub *realtime.Hub) *BookingHandler {
	return &BookingHandler{Svc: svc, Proofs: proofs, ProofPrefix: proofPrefix, Hub: hub}
}

type rangeReq struct {
	RoomID   uint64 `json:"room_id" validate:"required"`
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

func (r rangeReq) dates() (booking.DateRange, error) {
	in, err := booking.ParseDay(r.CheckIn)
	if err != nil {
		return booking.DateRange{}, err
	}
	out, err := booking.ParseDay(r.CheckOut)
	if err != nil {
		return booking.DateRange{}, err
	}
	return booking.NewDateRange(in, out), nil
}

type createReq struct {
	rangeReq
	Guests int `json:"guests" validate:"required,min=1"`
}

// CheckAvailability answers whether a room is free for a stay and prices it.
// The answer is advisory; booking re-checks under the room lock.
func (h *BookingHandler) CheckAvailability(c echo.Context) error {
	var req rangeReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	r, err := req.dates()
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	av, err := h.Svc.CheckAvailability(ctx, req.RoomID, r)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, av)
}

// Create books a room for the caller.  The booking starts in
// PENDING_PAYMENT with a payment deadline.
func (h *BookingHandler) Create(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req createReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	r, err := req.dates()
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Svc.CreateBooking(ctx, actor, booking.Stay{
		RoomID:   req.RoomID,
		CheckIn:  r.CheckIn,
		CheckOut: r.CheckOut,
		Guests:   req.Guests,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// readProof reads the uploaded proof, refusing anything larger than
// booking.MaxProofBytes without buffering it whole.
func readProof(c echo.Context) ([]byte, error) {
	fh, err := c.FormFile(proofField)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, booking.MaxProofBytes+1))
}

// UploadPayment stores a payment proof and moves the booking to
// PAYMENT_UPLOADED.  The upload must arrive strictly before the deadline.
func (h *BookingHandler) UploadPayment(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, 2*booking.MaxProofBytes)
	body, err := readProof(c)
	if err != nil {
		return badRequest(c, proofField+" file is required")
	}
	ct, ext := storage.Detect(body)
	if err := booking.ValidateProof(ct, int64(len(body))); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	// Fail fast on bookings that cannot take a payment before storing
	// anything.
	if _, err := h.Svc.GetBooking(ctx, actor, id); err != nil {
		return writeError(c, err)
	}
	ref, err := h.Proofs.Put(ctx, storage.ProofKey(h.ProofPrefix, id, ext), body, ct)
	if err != nil {
		return writeError(c, err)
	}
	b, err := h.Svc.SubmitPayment(ctx, actor, id, ref)
	if err != nil {
		if derr := h.Proofs.Delete(context.WithoutCancel(ctx), ref); derr != nil {
			log.Printf("handler: drop orphan proof %s: %v", ref, derr)
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Get returns one booking of the caller, or of a property the caller owns.
func (h *BookingHandler) Get(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Svc.GetBooking(ctx, actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Mine lists the caller's bookings.
func (h *BookingHandler) Mine(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	bs, err := h.Svc.ListMyBookings(ctx, actor)
	if err != nil {
		return writeError(c, err)
	}
	if bs == nil {
		bs = []model.Booking{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bs})
}

// Cancel withdraws an unpaid booking before its deadline.
func (h *BookingHandler) Cancel(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.Svc.CancelBooking(ctx, actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Stream upgrades to a websocket that first sends the booking and then
// every status change of it.
func (h *BookingHandler) Stream(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := reqCtx(c)
	b, err := h.Svc.GetBooking(ctx, actor, id)
	cancel()
	if err != nil {
		return writeError(c, err)
	}
	// Serve owns the connection from here; upgrade failures are already
	// answered by the websocket library.
	if err := h.Hub.Serve(c.Response(), c.Request(), id, b); err != nil {
		c.Logger().Warnf("stream booking %d: %v", id, err)
	}
	return nil
}
