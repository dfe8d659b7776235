package booking

import (
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/property-booking/internal/model"
)

// Night is the price of one night of a stay.
type Night struct {
	Date   time.Time `json:"date"`
	Rate   int64     `json:"rate"`
	IsPeak bool      `json:"is_peak"`
}

// PriceBreakdown lists the nightly rates of a range and their sum.  It is
// derived on demand and never persisted.
type PriceBreakdown struct {
	Nights []Night `json:"nights"`
	Count  int     `json:"night_count"`
	Total  int64   `json:"total"`
}

// ResolvePrice returns the nightly rate of room on date and whether a peak
// override produced it.  When several overrides cover the date the
// shortest one wins; ties go to the most recently created override.
func ResolvePrice(room model.Room, date time.Time) (int64, bool) {
	day := Day(date)
	var best *model.PeakSeason
	for i := range room.PeakSeasons {
		ps := &room.PeakSeasons[i]
		if day.Before(Day(ps.StartDate)) || day.After(Day(ps.EndDate)) {
			continue
		}
		if best == nil || morePrecise(ps, best) {
			best = ps
		}
	}
	if best == nil {
		return room.BasePrice, false
	}
	return peakRate(room.BasePrice, *best), true
}

func seasonDays(ps *model.PeakSeason) int {
	return int(Day(ps.EndDate).Sub(Day(ps.StartDate)).Hours()/24) + 1
}

// morePrecise orders overrides: fewer days first, then newest, then highest ID.
func morePrecise(a, b *model.PeakSeason) bool {
	da, db := seasonDays(a), seasonDays(b)
	if da != db {
		return da < db
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func peakRate(base int64, ps model.PeakSeason) int64 {
	switch ps.Kind {
	case model.PeakMultiplier:
		return decimal.NewFromInt(base).
			Mul(decimal.NewFromFloat(ps.Multiplier)).
			Round(0).
			IntPart()
	default:
		return ps.Amount
	}
}

// Nights yields the priced nights of [checkIn, checkOut) one at a time.
// The sequence is finite and can be ranged over any number of times.
func Nights(room model.Room, checkIn, checkOut time.Time) iter.Seq[Night] {
	r := NewDateRange(checkIn, checkOut)
	return func(yield func(Night) bool) {
		for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
			rate, peak := ResolvePrice(room, d)
			if !yield(Night{Date: d, Rate: rate, IsPeak: peak}) {
				return
			}
		}
	}
}

// ResolveRange prices every night of [checkIn, checkOut).  The check-out
// day is not charged.
func ResolveRange(room model.Room, checkIn, checkOut time.Time) (PriceBreakdown, error) {
	r := NewDateRange(checkIn, checkOut)
	if err := r.Validate(); err != nil {
		return PriceBreakdown{}, err
	}
	pb := PriceBreakdown{Nights: make([]Night, 0, r.Nights())}
	for n := range Nights(room, r.CheckIn, r.CheckOut) {
		pb.Nights = append(pb.Nights, n)
		pb.Total += n.Rate
	}
	pb.Count = len(pb.Nights)
	return pb, nil
}
