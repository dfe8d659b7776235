package booking

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/property-booking/internal/model"
)

// DefaultPaymentWindow is how long a guest has to upload a payment proof.
const DefaultPaymentWindow = time.Hour

// Decision is a tenant's verdict on an uploaded payment proof.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseDecision accepts "accept"/"reject" in any case.
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionAccept:
		return DecisionAccept, nil
	case DecisionReject:
		return DecisionReject, nil
	}
	return "", validationf("decision must be accept or reject")
}

// Options tunes a Service.  Zero values select the defaults.
type Options struct {
	PaymentWindow time.Duration
	Now           func() time.Time
}

// Service runs the booking lifecycle on top of a Store.
type Service struct {
	store         Store
	locks         Locker
	notifier      Notifier
	paymentWindow time.Duration
	clock         func() time.Time
}

// NewService builds a Service.  store and locks must be non-nil; a nil
// notifier discards events.
func NewService(store Store, locks Locker, notifier Notifier, opts Options) *Service {
	if store == nil || locks == nil {
		panic("nil dependency passed to booking.NewService")
	}
	if notifier == nil {
		notifier = discard{}
	}
	if opts.PaymentWindow <= 0 {
		opts.PaymentWindow = DefaultPaymentWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:         store,
		locks:         locks,
		notifier:      notifier,
		paymentWindow: opts.PaymentWindow,
		clock:         opts.Now,
	}
}

type discard struct{}

func (discard) Notify(Event) {}

func (s *Service) now() time.Time { return s.clock().UTC() }

func (s *Service) emit(t EventType, b model.Booking, at time.Time) {
	s.notifier.Notify(Event{Type: t, Booking: b, At: at})
}

// Stay is the serializable booking request a guest builds while browsing:
// room, dates and party size.  It carries no hidden state.
type Stay struct {
	RoomID   uint64    `json:"room_id"`
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Guests   int       `json:"guests"`
}

// Range returns the normalised date range of the stay.
func (st Stay) Range() DateRange { return NewDateRange(st.CheckIn, st.CheckOut) }

// Validate checks the stay against today.
func (st Stay) Validate(today time.Time) error {
	if st.RoomID == 0 {
		return validationf("room id is required")
	}
	if st.Guests < 1 {
		return validationf("at least one guest is required")
	}
	return st.Range().ValidateFrom(today)
}

// CreateBooking re-checks availability and stores a PENDING_PAYMENT booking
// whose deadline is one payment window from now.  The check and the
// insert run under the room lock so overlapping requests cannot both win.
func (s *Service) CreateBooking(ctx context.Context, actor Actor, st Stay) (model.Booking, error) {
	if actor.UserID == 0 {
		return model.Booking{}, ErrForbidden
	}
	now := s.now()
	if err := st.Validate(now); err != nil {
		return model.Booking{}, err
	}
	r := st.Range()

	unlock, err := s.locks.Lock(ctx, st.RoomID)
	if err != nil {
		return model.Booking{}, err
	}
	defer unlock()

	var (
		created model.Booking
		expired []model.Booking
	)
	err = s.store.WithinRoom(ctx, st.RoomID, func(ctx context.Context, tx RoomTx) error {
		room := tx.Room()
		if st.Guests > room.Capacity {
			return ErrCapacityExceeded
		}
		var err error
		if expired, err = tx.ExpireStale(ctx, now); err != nil {
			return err
		}
		live, err := tx.LiveBookings(ctx, r)
		if err != nil {
			return err
		}
		if !IsAvailable(r, live) {
			return ErrRoomUnavailable
		}
		pb, err := ResolveRange(room, r.CheckIn, r.CheckOut)
		if err != nil {
			return err
		}
		created = model.Booking{
			RoomID:          room.ID,
			PropertyID:      room.PropertyID,
			TenantID:        room.TenantID,
			UserID:          actor.UserID,
			CheckIn:         r.CheckIn,
			CheckOut:        r.CheckOut,
			Guests:          st.Guests,
			TotalPrice:      pb.Total,
			Status:          model.StatusPendingPayment,
			PaymentDeadline: now.Add(s.paymentWindow),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		return tx.Insert(ctx, &created)
	})
	if err != nil {
		// The expiries rolled back with the insert; the sweep owns them now.
		return model.Booking{}, err
	}
	for _, b := range expired {
		s.emit(EventExpired, b, now)
	}
	s.emit(EventCreated, created, now)
	return created, nil
}

// GetBooking returns a booking visible to actor: its guest or the tenant
// owning the property.  A pending booking past its deadline is expired
// before it is returned.
func (s *Service) GetBooking(ctx context.Context, actor Actor, id uint64) (model.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if b.UserID != actor.UserID && b.TenantID != actor.UserID {
		return model.Booking{}, ErrForbidden
	}
	return s.expireIfDue(ctx, b)
}

// ListMyBookings returns the actor's own bookings with lazy expiry applied.
func (s *Service) ListMyBookings(ctx context.Context, actor Actor) ([]model.Booking, error) {
	bs, err := s.store.ListUserBookings(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	for i := range bs {
		if bs[i], err = s.expireIfDue(ctx, bs[i]); err != nil {
			return nil, err
		}
	}
	return bs, nil
}

// ListTenantBookings returns bookings on the tenant's properties with lazy
// expiry applied.  The status filter is matched after expiry.
func (s *Service) ListTenantBookings(ctx context.Context, actor Actor, status model.BookingStatus) ([]model.Booking, error) {
	if actor.Role != model.RoleTenant {
		return nil, ErrForbidden
	}
	bs, err := s.store.ListTenantBookings(ctx, actor.UserID, "")
	if err != nil {
		return nil, err
	}
	out := make([]model.Booking, 0, len(bs))
	for _, b := range bs {
		if b, err = s.expireIfDue(ctx, b); err != nil {
			return nil, err
		}
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

// expireIfDue moves b to EXPIRED when it is pending and its deadline has
// passed, then returns the authoritative row.
func (s *Service) expireIfDue(ctx context.Context, b model.Booking) (model.Booking, error) {
	now := s.now()
	if b.Status != model.StatusPendingPayment || now.Before(b.PaymentDeadline) {
		return b, nil
	}
	ok, err := s.store.Transition(ctx, Transition{
		BookingID: b.ID,
		From:      model.StatusPendingPayment,
		To:        model.StatusExpired,
		At:        now,
		Deadline:  DeadlineDue,
	})
	if err != nil {
		return model.Booking{}, err
	}
	fresh, err := s.store.GetBooking(ctx, b.ID)
	if err != nil {
		return model.Booking{}, err
	}
	if ok {
		s.emit(EventExpired, fresh, now)
	}
	return fresh, nil
}

// SubmitPayment attaches a payment proof and moves the booking to
// PAYMENT_UPLOADED.  It succeeds only strictly before the deadline; the
// deadline comparison happens inside the conditional update, so a
// concurrent expiry and this call cannot both succeed.
func (s *Service) SubmitPayment(ctx context.Context, actor Actor, id uint64, proofRef string) (model.Booking, error) {
	proofRef = strings.TrimSpace(proofRef)
	if proofRef == "" {
		return model.Booking{}, validationf("payment proof is required")
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if b.UserID != actor.UserID {
		return model.Booking{}, ErrForbidden
	}
	switch b.Status {
	case model.StatusPendingPayment:
	case model.StatusExpired:
		return model.Booking{}, ErrDeadlinePassed
	default:
		return model.Booking{}, ErrInvalidState
	}

	now := s.now()
	if !now.Before(b.PaymentDeadline) {
		if _, err := s.expireIfDue(ctx, b); err != nil {
			log.Printf("booking: lazy expiry of %d failed: %v", b.ID, err)
		}
		return model.Booking{}, ErrDeadlinePassed
	}
	ok, err := s.store.Transition(ctx, Transition{
		BookingID:    id,
		From:         model.StatusPendingPayment,
		To:           model.StatusPaymentUploaded,
		At:           now,
		Deadline:     DeadlineOpen,
		PaymentProof: &proofRef,
	})
	if err != nil {
		return model.Booking{}, err
	}
	fresh, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok {
		if fresh.Status == model.StatusExpired || !now.Before(fresh.PaymentDeadline) {
			return model.Booking{}, ErrDeadlinePassed
		}
		return model.Booking{}, ErrInvalidState
	}
	s.emit(EventPaymentUploaded, fresh, now)
	return fresh, nil
}

// ReviewPayment lets the tenant owning the property accept or reject an
// uploaded proof.  Rejection frees the room at once.
func (s *Service) ReviewPayment(ctx context.Context, actor Actor, id uint64, d Decision) (model.Booking, error) {
	if actor.Role != model.RoleTenant {
		return model.Booking{}, ErrForbidden
	}
	to, ev := model.StatusConfirmed, EventConfirmed
	switch d {
	case DecisionAccept:
	case DecisionReject:
		to, ev = model.StatusRejected, EventRejected
	default:
		return model.Booking{}, validationf("decision must be accept or reject")
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if b.TenantID != actor.UserID {
		return model.Booking{}, ErrForbidden
	}
	return s.transition(ctx, b, to, ev, DeadlineAny)
}

// CancelBooking lets the guest withdraw a booking that is still waiting
// for payment.
func (s *Service) CancelBooking(ctx context.Context, actor Actor, id uint64) (model.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if b.UserID != actor.UserID {
		return model.Booking{}, ErrForbidden
	}
	if b.Status == model.StatusPendingPayment && !s.now().Before(b.PaymentDeadline) {
		if _, err := s.expireIfDue(ctx, b); err != nil {
			return model.Booking{}, err
		}
		return model.Booking{}, ErrDeadlinePassed
	}
	return s.transition(ctx, b, model.StatusCancelled, EventCancelled, DeadlineOpen)
}

// transition applies a table-checked status change and emits ev on success.
func (s *Service) transition(ctx context.Context, b model.Booking, to model.BookingStatus, ev EventType, rule DeadlineRule) (model.Booking, error) {
	if !CanTransition(b.Status, to) {
		return model.Booking{}, ErrInvalidState
	}
	now := s.now()
	ok, err := s.store.Transition(ctx, Transition{
		BookingID: b.ID,
		From:      b.Status,
		To:        to,
		At:        now,
		Deadline:  rule,
	})
	if err != nil {
		return model.Booking{}, err
	}
	if !ok {
		return model.Booking{}, ErrInvalidState
	}
	fresh, err := s.store.GetBooking(ctx, b.ID)
	if err != nil {
		return model.Booking{}, err
	}
	s.emit(ev, fresh, now)
	return fresh, nil
}

// ExpireStalePending moves every PENDING_PAYMENT booking whose deadline has
// passed to EXPIRED and returns the bookings it changed.  Rows already
// moved by a concurrent call are skipped, so repeated calls converge on
// the same state.  A failing row is logged and the sweep continues.
func (s *Service) ExpireStalePending(ctx context.Context) ([]model.Booking, error) {
	now := s.now()
	stale, err := s.store.ListStalePending(ctx, now)
	if err != nil {
		return nil, err
	}
	changed := make([]model.Booking, 0, len(stale))
	for _, b := range stale {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		ok, err := s.store.Transition(ctx, Transition{
			BookingID: b.ID,
			From:      model.StatusPendingPayment,
			To:        model.StatusExpired,
			At:        now,
			Deadline:  DeadlineDue,
		})
		if err != nil {
			log.Printf("booking-sweep: expire %d failed: %v", b.ID, err)
			continue
		}
		if !ok {
			continue
		}
		b.Status = model.StatusExpired
		b.UpdatedAt = now
		changed = append(changed, b)
		s.emit(EventExpired, b, now)
	}
	return changed, nil
}

// MarkCompleted moves CONFIRMED bookings whose check-out day has been
// reached to COMPLETED.
func (s *Service) MarkCompleted(ctx context.Context) ([]model.Booking, error) {
	now := s.now()
	today := Day(now)
	due, err := s.store.ListCompletable(ctx, today)
	if err != nil {
		return nil, err
	}
	changed := make([]model.Booking, 0, len(due))
	for _, b := range due {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		ok, err := s.store.Transition(ctx, Transition{
			BookingID:  b.ID,
			From:       model.StatusConfirmed,
			To:         model.StatusCompleted,
			At:         now,
			CheckOutBy: today,
		})
		if err != nil {
			log.Printf("booking-sweep: complete %d failed: %v", b.ID, err)
			continue
		}
		if !ok {
			continue
		}
		b.Status = model.StatusCompleted
		b.UpdatedAt = now
		changed = append(changed, b)
		s.emit(EventCompleted, b, now)
	}
	return changed, nil
}

// IsClientError reports whether err belongs to the engine's taxonomy
// rather than an infrastructure failure.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrInvalidState, ErrRoomUnavailable, ErrDeadlinePassed,
		ErrCapacityExceeded, ErrNotFound, ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
