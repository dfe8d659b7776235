package booking

import (
	"context"
	"time"

	"github.com/iliyamo/property-booking/internal/model"
)

// Store is the persistence the engine depends on.  Implementations return
// ErrNotFound for unknown rooms and bookings.
type Store interface {
	GetRoom(ctx context.Context, roomID uint64) (model.Room, error)
	GetBooking(ctx context.Context, id uint64) (model.Booking, error)
	// ListRoomBookings returns live bookings of the room overlapping r.
	ListRoomBookings(ctx context.Context, roomID uint64, r DateRange) ([]model.Booking, error)
	ListUserBookings(ctx context.Context, userID uint64) ([]model.Booking, error)
	// ListTenantBookings filters by status when status is non-empty.
	ListTenantBookings(ctx context.Context, tenantID uint64, status model.BookingStatus) ([]model.Booking, error)

	// WithinRoom runs fn in a unit of work that holds an exclusive lock on
	// the room row.  Two calls for the same room never interleave.
	WithinRoom(ctx context.Context, roomID uint64, fn func(ctx context.Context, tx RoomTx) error) error

	// Transition applies t only when every precondition still holds and
	// reports whether a row changed.
	Transition(ctx context.Context, t Transition) (bool, error)

	ListStalePending(ctx context.Context, now time.Time) ([]model.Booking, error)
	ListCompletable(ctx context.Context, today time.Time) ([]model.Booking, error)
	ListSales(ctx context.Context, f SalesFilter) ([]SaleRecord, error)
}

// RoomTx is the view of the store available inside WithinRoom.
type RoomTx interface {
	// Room returns the locked room with its peak overrides.
	Room() model.Room
	// ExpireStale moves this room's pending bookings whose deadline is at or
	// before now to EXPIRED and returns them.
	ExpireStale(ctx context.Context, now time.Time) ([]model.Booking, error)
	LiveBookings(ctx context.Context, r DateRange) ([]model.Booking, error)
	// Insert stores b and fills its ID and timestamps.
	Insert(ctx context.Context, b *model.Booking) error
}

// DeadlineRule is the payment-deadline predicate of a Transition.
type DeadlineRule int

const (
	// DeadlineAny ignores the deadline.
	DeadlineAny DeadlineRule = iota
	// DeadlineOpen requires payment_deadline > At.
	DeadlineOpen
	// DeadlineDue requires payment_deadline <= At.
	DeadlineDue
)

// Transition is a conditional status change.  From and Deadline are
// evaluated atomically with the write; At is the single instant used both
// for the deadline comparison and for updated_at.
type Transition struct {
	BookingID    uint64
	From         model.BookingStatus
	To           model.BookingStatus
	At           time.Time
	Deadline     DeadlineRule
	CheckOutBy   time.Time // when non-zero, requires check_out <= CheckOutBy
	PaymentProof *string   // stored when non-nil
}

// Locker serialises work per room across goroutines or processes.
type Locker interface {
	Lock(ctx context.Context, roomID uint64) (unlock func(), err error)
}

// EventType names a booking notification.
type EventType string

const (
	EventCreated         EventType = "booking.created"
	EventPaymentUploaded EventType = "booking.payment_uploaded"
	EventConfirmed       EventType = "booking.confirmed"
	EventRejected        EventType = "booking.rejected"
	EventExpired         EventType = "booking.expired"
	EventCompleted       EventType = "booking.completed"
	EventCancelled       EventType = "booking.cancelled"
)

// Event is emitted after a state change has been committed.
type Event struct {
	Type    EventType
	Booking model.Booking
	At      time.Time
}

// Notifier receives committed events.  Notify must not block and its
// failures never affect the transition that produced the event.
type Notifier interface {
	Notify(ev Event)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint64
	Role   string
}
