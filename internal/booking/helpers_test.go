package booking_test

import (
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/booking/bookingtest"
	"github.com/iliyamo/property-booking/internal/lock"
	"github.com/iliyamo/property-booking/internal/model"
)

const (
	tenantID = uint64(100)
	guestID  = uint64(7)
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []booking.Event
}

func (r *recorder) Notify(ev booking.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []booking.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]booking.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func day(s string) time.Time {
	t, err := time.Parse(booking.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testRoom() model.Room {
	return model.Room{
		ID:         1,
		PropertyID: 10,
		TenantID:   tenantID,
		Name:       "Deluxe",
		BasePrice:  100000,
		Capacity:   2,
		PeakSeasons: []model.PeakSeason{{
			ID:        1,
			RoomID:    1,
			StartDate: day("2024-12-24"),
			EndDate:   day("2024-12-26"),
			Kind:      model.PeakFixed,
			Amount:    150000,
		}},
	}
}

type harness struct {
	store *bookingtest.Store
	clock *fakeClock
	rec   *recorder
	svc   *booking.Service
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	h := &harness{
		store: bookingtest.New(),
		clock: &fakeClock{t: now},
		rec:   &recorder{},
	}
	h.store.AddRoom(testRoom())
	h.svc = booking.NewService(h.store, lock.NewLocal(), h.rec, booking.Options{Now: h.clock.Now})
	return h
}

var (
	guest  = booking.Actor{UserID: guestID, Role: model.RoleUser}
	tenant = booking.Actor{UserID: tenantID, Role: model.RoleTenant}
)

func stay(in, out string, guests int) booking.Stay {
	return booking.Stay{RoomID: 1, CheckIn: day(in), CheckOut: day(out), Guests: guests}
}
