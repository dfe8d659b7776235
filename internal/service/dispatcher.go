package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/queue"
)

// Dispatcher is the booking.Notifier used in production.  Notify enqueues
// without blocking; a fixed pool of workers converts each event to an
// envelope and hands it to every sink.  When the queue is full the event
// is dropped and logged.
type Dispatcher struct {
	size    int
	jobs    chan booking.Event
	sinks   []Sink
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ booking.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher with workers goroutines and a buffer
// of queueSize events.
func NewDispatcher(workers, queueSize int, sinks ...Sink) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		size:    workers,
		jobs:    make(chan booking.Event, queueSize),
		sinks:   sinks,
		timeout: 5 * time.Second,
	}
}

// Start launches the workers.  They exit after Close once the queue drains.
func (d *Dispatcher) Start() {
	for i := 0; i < d.size; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for ev := range d.jobs {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev booking.Event) {
	env := queue.NewBookingEvent(ev)
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := s.Publish(ctx, env); err != nil {
			log.Printf("dispatcher: deliver %s for booking %d failed: %v", env.EventType, env.BookingID, err)
		}
		cancel()
	}
}

// Notify enqueues ev.  It never blocks.
func (d *Dispatcher) Notify(ev booking.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.jobs <- ev:
	default:
		log.Printf("dispatcher: queue full, dropping %s for booking %d", ev.Type, ev.Booking.ID)
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}
