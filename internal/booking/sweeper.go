package booking

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/singleflight"
)

// SweepResult counts the bookings moved by one sweep.
type SweepResult struct {
	Expired   int
	Completed int
}

// Sweeper runs ExpireStalePending and MarkCompleted on an interval and on
// demand.  Overlapping invocations share one run.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	group    singleflight.Group
}

// NewSweeper returns a Sweeper; a non-positive interval defaults to a minute.
func NewSweeper(svc *Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{svc: svc, interval: interval}
}

// RunOnce performs one sweep, or joins the sweep already in flight.
func (sw *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	v, err, _ := sw.group.Do("sweep", func() (interface{}, error) {
		var res SweepResult
		expired, err := sw.svc.ExpireStalePending(ctx)
		res.Expired = len(expired)
		if err != nil {
			return res, err
		}
		completed, err := sw.svc.MarkCompleted(ctx)
		res.Completed = len(completed)
		return res, err
	})
	res, _ := v.(SweepResult)
	return res, err
}

// Start sweeps every interval until ctx is cancelled.
func (sw *Sweeper) Start(ctx context.Context) error {
	t := time.NewTicker(sw.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			res, err := sw.RunOnce(ctx)
			if err != nil {
				log.Printf("booking-sweep: run failed: %v", err)
				continue
			}
			if res.Expired > 0 || res.Completed > 0 {
				log.Printf("booking-sweep: expired=%d completed=%d", res.Expired, res.Completed)
			}
		}
	}
}
