package booking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/model"
)

func TestSweeper_RunOnce(t *testing.T) {
	h := newHarness(t, t0)
	ctx := context.Background()
	_, err := h.svc.CreateBooking(ctx, guest, stay("2024-12-10", "2024-12-12", 1))
	require.NoError(t, err)
	h.store.Put(model.Booking{RoomID: 1, UserID: guestID, CheckIn: day("2024-11-01"), CheckOut: day("2024-11-03"), Status: model.StatusConfirmed})
	h.clock.Advance(2 * time.Hour)

	sw := booking.NewSweeper(h.svc, time.Minute)
	res, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, booking.SweepResult{Expired: 1, Completed: 1}, res)

	res, err = sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, booking.SweepResult{}, res)
}

func TestSweeper_ConcurrentRunsDoNotDoubleCount(t *testing.T) {
	h := newHarness(t, t0)
	ctx := context.Background()
	for _, in := range []string{"2024-12-10", "2024-12-12", "2024-12-14"} {
		_, err := h.svc.CreateBooking(ctx, guest, stay(in, day(in).AddDate(0, 0, 2).Format(booking.DateLayout), 1))
		require.NoError(t, err)
	}
	h.clock.Advance(2 * time.Hour)

	sw := booking.NewSweeper(h.svc, time.Minute)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := sw.RunOnce(ctx)
			assert.NoError(t, err)
			mu.Lock()
			total += res.Expired
			mu.Unlock()
		}()
	}
	wg.Wait()

	expired := 0
	for _, b := range h.store.All() {
		if b.Status == model.StatusExpired {
			expired++
		}
	}
	assert.Equal(t, 3, expired)
	assert.GreaterOrEqual(t, total, 3)
}

func TestSweeper_StartStopsOnCancel(t *testing.T) {
	h := newHarness(t, t0)
	sw := booking.NewSweeper(h.svc, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Start(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
