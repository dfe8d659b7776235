// Package realtime pushes booking events to websocket subscribers watching
// a single booking, so a guest sees the payment outcome without polling.
package realtime

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iliyamo/property-booking/internal/queue"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans booking events out to the subscribers of each booking.
type Hub struct {
	mu   sync.RWMutex
	subs map[uint64]map[chan queue.BookingEvent]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: map[uint64]map[chan queue.BookingEvent]struct{}{}}
}

// Subscribe registers interest in a booking.  The returned cancel func
// unregisters and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(bookingID uint64) (<-chan queue.BookingEvent, func()) {
	ch := make(chan queue.BookingEvent, sendBuffer)
	h.mu.Lock()
	if h.subs[bookingID] == nil {
		h.subs[bookingID] = map[chan queue.BookingEvent]struct{}{}
	}
	h.subs[bookingID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[bookingID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, bookingID)
				}
			}
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber of its booking.  Slow
// subscribers whose buffer is full miss the event.
func (h *Hub) Publish(_ context.Context, ev queue.BookingEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.BookingID] {
		select {
		case ch <- ev:
		default:
			log.Printf("realtime: subscriber of booking %d is slow, dropping %s", ev.BookingID, ev.EventType)
		}
	}
	return nil
}

// Subscribers returns the number of subscribers of a booking.
func (h *Hub) Subscribers(bookingID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[bookingID])
}

// Serve upgrades the request and streams events of bookingID as JSON
// frames until the client goes away.  initial, when non-nil, is sent
// first so the client starts from the current state.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, bookingID uint64, initial any) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	events, cancel := h.Subscribe(bookingID)
	defer cancel()

	// The reader only services control frames and notices disconnects.
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if initial != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(initial); err != nil {
			return nil
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return nil
		case <-r.Context().Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
