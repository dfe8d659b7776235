// Package service delivers committed booking events to the message broker
// and to live subscribers.  Delivery failures are logged and never affect
// the booking transition that produced the event.
package service

import (
	"context"

	"github.com/iliyamo/property-booking/internal/queue"
)

// Sink receives booking events.  Publishers and the realtime hub are sinks.
type Sink interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev queue.BookingEvent) error

func (f SinkFunc) Publish(ctx context.Context, ev queue.BookingEvent) error { return f(ctx, ev) }
