package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
    StatusPendingPayment  BookingStatus = "PENDING_PAYMENT"
    StatusPaymentUploaded BookingStatus = "PAYMENT_UPLOADED"
    StatusConfirmed       BookingStatus = "CONFIRMED"
    StatusRejected        BookingStatus = "REJECTED"
    StatusExpired         BookingStatus = "EXPIRED"
    StatusCompleted       BookingStatus = "COMPLETED"
    StatusCancelled       BookingStatus = "CANCELLED"
)

// Booking records a guest's stay request for a room.  CheckOut is
// exclusive: the night of CheckOut is not part of the stay.
//
// Fields:
//  ID              – primary key identifier.
//  RoomID          – booked room.
//  PropertyID      – property of the room (joined on read).
//  TenantID        – owner of the property (joined on read).
//  UserID          – guest who created the booking.
//  CheckIn         – first night, UTC midnight.
//  CheckOut        – departure day, UTC midnight, exclusive.
//  Guests          – number of guests.
//  TotalPrice      – sum of nightly rates at creation time.
//  Status          – lifecycle state.
//  PaymentDeadline – creation time plus the payment window.
//  PaymentProof    – storage reference of the uploaded proof, if any.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Booking struct {
    ID              uint64        `json:"id"`                      // bookings.id
    RoomID          uint64        `json:"room_id"`                 // bookings.room_id
    PropertyID      uint64        `json:"property_id"`             // rooms.property_id (joined)
    TenantID        uint64        `json:"tenant_id"`               // properties.tenant_id (joined)
    UserID          uint64        `json:"user_id"`                 // bookings.user_id
    CheckIn         time.Time     `json:"check_in"`                // bookings.check_in
    CheckOut        time.Time     `json:"check_out"`               // bookings.check_out
    Guests          int           `json:"guests"`                  // bookings.guests
    TotalPrice      int64         `json:"total_price"`             // bookings.total_price
    Status          BookingStatus `json:"status"`                  // bookings.status
    PaymentDeadline time.Time     `json:"payment_deadline"`        // bookings.payment_deadline
    PaymentProof    *string       `json:"payment_proof,omitempty"` // bookings.payment_proof (nullable)
    CreatedAt       time.Time     `json:"created_at"`              // bookings.created_at
    UpdatedAt       time.Time     `json:"updated_at"`              // bookings.updated_at
}
