// Package queue defines the booking event envelope exchanged over the
// message broker and the consumers that turn events into notifications.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/property-booking/internal/booking"
)

// Producer identifies this service in published envelopes.
const Producer = "property-booking"

// BookingEvent is published after every committed booking state change.
// It carries enough of the booking for consumers to notify the guest or
// the tenant without querying the primary database.
type BookingEvent struct {
	EventID         string    `json:"event_id"`
	EventType       string    `json:"event_type"`
	EventVersion    int       `json:"event_version"`
	OccurredAt      time.Time `json:"occurred_at"`
	Producer        string    `json:"producer"`
	BookingID       uint64    `json:"booking_id"`
	RoomID          uint64    `json:"room_id"`
	PropertyID      uint64    `json:"property_id"`
	TenantID        uint64    `json:"tenant_id"`
	UserID          uint64    `json:"user_id"`
	CheckIn         string    `json:"check_in"`
	CheckOut        string    `json:"check_out"`
	TotalPrice      int64     `json:"total_price"`
	Status          string    `json:"status"`
	PaymentDeadline time.Time `json:"payment_deadline"`
}

// NewBookingEvent wraps a committed engine event in an envelope with a
// fresh event id.
func NewBookingEvent(ev booking.Event) BookingEvent {
	b := ev.Booking
	return BookingEvent{
		EventID:         uuid.NewString(),
		EventType:       string(ev.Type),
		EventVersion:    1,
		OccurredAt:      ev.At.UTC(),
		Producer:        Producer,
		BookingID:       b.ID,
		RoomID:          b.RoomID,
		PropertyID:      b.PropertyID,
		TenantID:        b.TenantID,
		UserID:          b.UserID,
		CheckIn:         b.CheckIn.Format(booking.DateLayout),
		CheckOut:        b.CheckOut.Format(booking.DateLayout),
		TotalPrice:      b.TotalPrice,
		Status:          string(b.Status),
		PaymentDeadline: b.PaymentDeadline.UTC(),
	}
}
