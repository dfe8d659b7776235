package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// NotifyLog appends one human readable line per booking event to a file.
// It stands in for guest and tenant notification delivery.
type NotifyLog struct {
	mu   sync.Mutex
	path string
}

// NewNotifyLog returns a NotifyLog writing to path.
func NewNotifyLog(path string) *NotifyLog { return &NotifyLog{path: path} }

// Handle decodes a message body and appends it.
func (l *NotifyLog) Handle(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.BookingID == 0 || ev.EventType == "" {
		return fmt.Errorf("incomplete event %q", ev.EventID)
	}
	return l.Append(ev)
}

// Append writes ev as a single line.
func (l *NotifyLog) Append(ev BookingEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev the way it is written to the notification log.
func FormatLine(ev BookingEvent) string {
	return fmt.Sprintf("[%s] %s | booking_id=%d | user_id=%d | tenant_id=%d | room_id=%d | stay=%s..%s | total=%d | status=%s\n",
		ev.OccurredAt.Format("2006-01-02T15:04:05Z07:00"), ev.EventType, ev.BookingID, ev.UserID, ev.TenantID,
		ev.RoomID, ev.CheckIn, ev.CheckOut, ev.TotalPrice, ev.Status)
}
