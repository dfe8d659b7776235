package booking

import (
	"context"
	"time"

	"github.com/iliyamo/property-booking/internal/model"
)

// IsAvailable reports whether no live booking in existing overlaps r.
func IsAvailable(r DateRange, existing []model.Booking) bool {
	for _, b := range existing {
		if !IsLive(b.Status) {
			continue
		}
		if Overlaps(r, NewDateRange(b.CheckIn, b.CheckOut)) {
			return false
		}
	}
	return true
}

// Availability is the answer to a check-availability request.  Breakdown
// is set only when the room is free.
type Availability struct {
	Available bool            `json:"available"`
	Breakdown *PriceBreakdown `json:"price_breakdown,omitempty"`
}

// CheckAvailability reports whether roomID is free for [checkIn, checkOut)
// and prices the stay when it is.  The answer is advisory: CreateBooking
// checks again under the room lock.
func (s *Service) CheckAvailability(ctx context.Context, roomID uint64, r DateRange) (Availability, error) {
	r = NewDateRange(r.CheckIn, r.CheckOut)
	now := s.now()
	if err := r.ValidateFrom(now); err != nil {
		return Availability{}, err
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return Availability{}, err
	}
	existing, err := s.store.ListRoomBookings(ctx, roomID, r)
	if err != nil {
		return Availability{}, err
	}
	if !IsAvailable(r, liveAt(existing, now)) {
		return Availability{Available: false}, nil
	}
	pb, err := ResolveRange(room, r.CheckIn, r.CheckOut)
	if err != nil {
		return Availability{}, err
	}
	return Availability{Available: true, Breakdown: &pb}, nil
}

// liveAt drops pending bookings whose deadline has already passed at now;
// they are expired and only wait for a sweep to say so.
func liveAt(bs []model.Booking, now time.Time) []model.Booking {
	out := bs[:0:0]
	for _, b := range bs {
		if b.Status == model.StatusPendingPayment && !now.Before(b.PaymentDeadline) {
			continue
		}
		out = append(out, b)
	}
	return out
}
