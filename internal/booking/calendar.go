package booking

import (
	"context"
	"time"
)

// CalendarDay is the state of one night in a room calendar.
type CalendarDay struct {
	Price     int64 `json:"price"`
	IsPeak    bool  `json:"is_peak"`
	Available bool  `json:"available"`
}

// MonthRange returns the half-open range covering the calendar month of t.
func MonthRange(t time.Time) DateRange {
	y, m, _ := t.UTC().Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{CheckIn: first, CheckOut: first.AddDate(0, 1, 0)}
}

// Calendar maps every day of month (YYYY-MM-DD keys) to its price, peak
// flag and availability.  Days before today are never available.
func (s *Service) Calendar(ctx context.Context, roomID uint64, month time.Time) (map[string]CalendarDay, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	mr := MonthRange(month)
	now := s.now()
	booked, err := s.store.ListRoomBookings(ctx, roomID, mr)
	if err != nil {
		return nil, err
	}
	booked = liveAt(booked, now)
	today := Day(now)

	out := make(map[string]CalendarDay, mr.Nights())
	for n := range Nights(room, mr.CheckIn, mr.CheckOut) {
		available := !n.Date.Before(today)
		if available {
			for _, b := range booked {
				if NewDateRange(b.CheckIn, b.CheckOut).Contains(n.Date) {
					available = false
					break
				}
			}
		}
		out[n.Date.Format(DateLayout)] = CalendarDay{Price: n.Rate, IsPeak: n.IsPeak, Available: available}
	}
	return out, nil
}
