// Package bookingtest provides an in-memory booking.Store for tests.
package bookingtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/model"
)

// Store keeps rooms and bookings in maps guarded by a mutex.  WithinRoom
// holds a per-room mutex for the whole callback, like a row lock, and
// undoes the callback's writes when it returns an error.
type Store struct {
	mu        sync.Mutex
	rooms     map[uint64]model.Room
	props     map[uint64]string
	emails    map[uint64]string
	bookings  map[uint64]model.Booking
	nextID    uint64
	roomLocks map[uint64]*sync.Mutex

	// FailTransition, when set, is consulted before each Transition.
	FailTransition func(t booking.Transition) error
}

var _ booking.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		rooms:     map[uint64]model.Room{},
		props:     map[uint64]string{},
		emails:    map[uint64]string{},
		bookings:  map[uint64]model.Booking{},
		roomLocks: map[uint64]*sync.Mutex{},
	}
}

// AddRoom registers a room.
func (s *Store) AddRoom(r model.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
}

// SetPropertyName labels a property for sales records.
func (s *Store) SetPropertyName(id uint64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props[id] = name
}

// SetUserEmail labels a user for sales records.
func (s *Store) SetUserEmail(id uint64, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails[id] = email
}

// Put stores b as is, assigning an ID when it has none.
func (s *Store) Put(b model.Booking) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		s.nextID++
		b.ID = s.nextID
	} else if b.ID > s.nextID {
		s.nextID = b.ID
	}
	if r, ok := s.rooms[b.RoomID]; ok {
		b.PropertyID, b.TenantID = r.PropertyID, r.TenantID
	}
	s.bookings[b.ID] = b
	return b
}

// All returns every booking ordered by ID.
func (s *Store) All() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sortByID(out)
	return out
}

func sortByID(bs []model.Booking) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].ID < bs[j].ID })
}

func (s *Store) GetRoom(_ context.Context, roomID uint64) (model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return model.Room{}, booking.ErrNotFound
	}
	return r, nil
}

func (s *Store) GetBooking(_ context.Context, id uint64) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, booking.ErrNotFound
	}
	return b, nil
}

func (s *Store) filter(keep func(model.Booking) bool) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sortByID(out)
	return out
}

func (s *Store) liveOverlapping(roomID uint64, r booking.DateRange) func(model.Booking) bool {
	return func(b model.Booking) bool {
		return b.RoomID == roomID && booking.IsLive(b.Status) &&
			booking.Overlaps(r, booking.NewDateRange(b.CheckIn, b.CheckOut))
	}
}

func (s *Store) ListRoomBookings(_ context.Context, roomID uint64, r booking.DateRange) ([]model.Booking, error) {
	return s.filter(s.liveOverlapping(roomID, r)), nil
}

func (s *Store) ListUserBookings(_ context.Context, userID uint64) ([]model.Booking, error) {
	return s.filter(func(b model.Booking) bool { return b.UserID == userID }), nil
}

func (s *Store) ListTenantBookings(_ context.Context, tenantID uint64, status model.BookingStatus) ([]model.Booking, error) {
	return s.filter(func(b model.Booking) bool {
		return b.TenantID == tenantID && (status == "" || b.Status == status)
	}), nil
}

func (s *Store) roomLock(roomID uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.roomLocks[roomID]
	if !ok {
		m = &sync.Mutex{}
		s.roomLocks[roomID] = m
	}
	return m
}

func (s *Store) WithinRoom(ctx context.Context, roomID uint64, fn func(ctx context.Context, tx booking.RoomTx) error) error {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	m := s.roomLock(roomID)
	m.Lock()
	defer m.Unlock()
	tx := &roomTx{s: s, room: room, undo: map[uint64]*model.Booking{}}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *Store) Transition(_ context.Context, t booking.Transition) (bool, error) {
	if s.FailTransition != nil {
		if err := s.FailTransition(t); err != nil {
			return false, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[t.BookingID]
	if !ok || b.Status != t.From {
		return false, nil
	}
	switch t.Deadline {
	case booking.DeadlineOpen:
		if !b.PaymentDeadline.After(t.At) {
			return false, nil
		}
	case booking.DeadlineDue:
		if b.PaymentDeadline.After(t.At) {
			return false, nil
		}
	}
	if !t.CheckOutBy.IsZero() && b.CheckOut.After(t.CheckOutBy) {
		return false, nil
	}
	b.Status = t.To
	b.UpdatedAt = t.At
	if t.PaymentProof != nil {
		p := *t.PaymentProof
		b.PaymentProof = &p
	}
	s.bookings[b.ID] = b
	return true, nil
}

func (s *Store) ListStalePending(_ context.Context, now time.Time) ([]model.Booking, error) {
	return s.filter(func(b model.Booking) bool {
		return b.Status == model.StatusPendingPayment && !b.PaymentDeadline.After(now)
	}), nil
}

func (s *Store) ListCompletable(_ context.Context, today time.Time) ([]model.Booking, error) {
	return s.filter(func(b model.Booking) bool {
		return b.Status == model.StatusConfirmed && !b.CheckOut.After(today)
	}), nil
}

func (s *Store) ListSales(_ context.Context, f booking.SalesFilter) ([]booking.SaleRecord, error) {
	bs := s.filter(func(b model.Booking) bool {
		if b.TenantID != f.TenantID {
			return false
		}
		if f.PropertyID != 0 && b.PropertyID != f.PropertyID {
			return false
		}
		if !f.From.IsZero() && b.CreatedAt.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && !b.CreatedAt.Before(f.To) {
			return false
		}
		return true
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]booking.SaleRecord, 0, len(bs))
	for _, b := range bs {
		out = append(out, booking.SaleRecord{
			BookingID:    b.ID,
			PropertyID:   b.PropertyID,
			PropertyName: s.props[b.PropertyID],
			RoomID:       b.RoomID,
			UserID:       b.UserID,
			UserEmail:    s.emails[b.UserID],
			CheckIn:      b.CheckIn,
			CheckOut:     b.CheckOut,
			TotalPrice:   b.TotalPrice,
			Status:       b.Status,
			CreatedAt:    b.CreatedAt,
		})
	}
	return out, nil
}

type roomTx struct {
	s    *Store
	room model.Room
	// undo holds the pre-tx row per touched id; nil means it did not exist.
	undo map[uint64]*model.Booking
}

// touch records the row's state before its first write.  Caller holds s.mu.
func (tx *roomTx) touch(id uint64) {
	if _, seen := tx.undo[id]; seen {
		return
	}
	if b, ok := tx.s.bookings[id]; ok {
		tx.undo[id] = &b
		return
	}
	tx.undo[id] = nil
}

func (tx *roomTx) rollback() {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	for id, b := range tx.undo {
		if b == nil {
			delete(tx.s.bookings, id)
			continue
		}
		tx.s.bookings[id] = *b
	}
}

func (tx *roomTx) Room() model.Room { return tx.room }

func (tx *roomTx) ExpireStale(_ context.Context, now time.Time) ([]model.Booking, error) {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	var out []model.Booking
	for id, b := range tx.s.bookings {
		if b.RoomID == tx.room.ID && b.Status == model.StatusPendingPayment && !b.PaymentDeadline.After(now) {
			tx.touch(id)
			b.Status = model.StatusExpired
			b.UpdatedAt = now
			tx.s.bookings[id] = b
			out = append(out, b)
		}
	}
	sortByID(out)
	return out, nil
}

func (tx *roomTx) LiveBookings(_ context.Context, r booking.DateRange) ([]model.Booking, error) {
	return tx.s.filter(tx.s.liveOverlapping(tx.room.ID, r)), nil
}

func (tx *roomTx) Insert(_ context.Context, b *model.Booking) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	tx.s.nextID++
	b.ID = tx.s.nextID
	tx.touch(b.ID)
	tx.s.bookings[b.ID] = *b
	return nil
}
