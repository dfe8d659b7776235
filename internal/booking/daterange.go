package booking

import (
	"strings"
	"time"
)

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string, or an RFC3339 timestamp whose date
// part, in its own offset, is used.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, validationf("invalid date %q", s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// DateRange is a half-open range of calendar days: CheckIn is the first
// night, CheckOut the departure day and not itself a night.
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// NewDateRange normalises both ends to UTC midnight.
func NewDateRange(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
}

// Validate fails with ErrInvalidRange when the range holds no night.
func (r DateRange) Validate() error {
	if !r.CheckOut.After(r.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// ValidateFrom also rejects stays that start before today.
func (r DateRange) ValidateFrom(today time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.CheckIn.Before(Day(today)) {
		return ErrPastDate
	}
	return nil
}

// Nights returns the number of nights covered.
func (r DateRange) Nights() int {
	if !r.CheckOut.After(r.CheckIn) {
		return 0
	}
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Contains reports whether the night of day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// Overlaps reports whether two half-open ranges share at least one night.
// A check-out on day X does not conflict with a check-in on day X.
func Overlaps(a, b DateRange) bool {
	return a.CheckIn.Before(b.CheckOut) && b.CheckIn.Before(a.CheckOut)
}
