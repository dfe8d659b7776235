package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/property-booking/internal/queue"
)

func TestHub_SubscribePublish(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(1)
	other, cancelOther := h.Subscribe(2)
	defer cancelOther()

	require.NoError(t, h.Publish(context.Background(), queue.BookingEvent{BookingID: 1, EventType: "booking.confirmed"}))

	select {
	case ev := <-ch:
		assert.Equal(t, "booking.confirmed", ev.EventType)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	select {
	case ev := <-other:
		t.Fatalf("unexpected event %v", ev)
	default:
	}

	assert.Equal(t, 1, h.Subscribers(1))
	cancel()
	cancel()
	assert.Equal(t, 0, h.Subscribers(1))
	_, open := <-ch
	assert.False(t, open)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe(1)
	defer cancel()
	for i := 0; i < sendBuffer*3; i++ {
		require.NoError(t, h.Publish(context.Background(), queue.BookingEvent{BookingID: 1}))
	}
}

func TestHub_Serve(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, 5, map[string]string{"status": "PAYMENT_UPLOADED"})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var initial map[string]string
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, "PAYMENT_UPLOADED", initial["status"])

	require.Eventually(t, func() bool { return h.Subscribers(5) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, h.Publish(context.Background(), queue.BookingEvent{BookingID: 5, EventType: "booking.confirmed", Status: "CONFIRMED"}))

	var ev queue.BookingEvent
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "CONFIRMED", ev.Status)

	conn.Close()
	assert.Eventually(t, func() bool { return h.Subscribers(5) == 0 }, 2*time.Second, 10*time.Millisecond)
}
