package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/model"
)

// BookingRepo is the MySQL implementation of booking.Store.  Room-scoped
// work runs in a transaction that holds the room row with SELECT ... FOR
// UPDATE; status changes are single conditional UPDATEs whose WHERE clause
// carries every precondition, so the database decides races.
type BookingRepo struct {
	db    *sql.DB
	rooms *RoomRepo
}

var _ booking.Store = (*BookingRepo)(nil)

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB, rooms *RoomRepo) *BookingRepo {
	return &BookingRepo{db: db, rooms: rooms}
}

// liveStatusList is the quoted SQL list of statuses that occupy a room.
var liveStatusList = quoteStatuses(booking.LiveStatuses())

func quoteStatuses(ss []model.BookingStatus) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = "'" + string(s) + "'"
	}
	return strings.Join(parts, ",")
}

const bookingSelect = `SELECT b.id, b.room_id, r.property_id, p.tenant_id, b.user_id, b.check_in, b.check_out,
                              b.guests, b.total_price, b.status, b.payment_deadline, b.payment_proof,
                              b.created_at, b.updated_at
                       FROM bookings b
                       JOIN rooms r ON r.id = b.room_id
                       JOIN properties p ON p.id = r.property_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (model.Booking, error) {
	var (
		b     model.Booking
		proof sql.NullString
	)
	err := s.Scan(&b.ID, &b.RoomID, &b.PropertyID, &b.TenantID, &b.UserID, &b.CheckIn, &b.CheckOut,
		&b.Guests, &b.TotalPrice, &b.Status, &b.PaymentDeadline, &proof, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	if proof.Valid {
		p := proof.String
		b.PaymentProof = &p
	}
	return b, nil
}

func queryBookings(ctx context.Context, q queryer, query string, args ...any) ([]model.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func sqlDate(t time.Time) string { return t.UTC().Format("2006-01-02") }

// GetRoom returns a room with its peak seasons.
func (r *BookingRepo) GetRoom(ctx context.Context, roomID uint64) (model.Room, error) {
	return r.rooms.Get(ctx, roomID)
}

// GetBooking returns a single booking.
func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id))
	return b, notFound(err)
}

// ListRoomBookings returns live bookings of the room whose stay overlaps rg.
func (r *BookingRepo) ListRoomBookings(ctx context.Context, roomID uint64, rg booking.DateRange) ([]model.Booking, error) {
	return queryBookings(ctx, r.db, bookingSelect+`
		WHERE b.room_id = ? AND b.status IN (`+liveStatusList+`) AND b.check_in < ? AND b.check_out > ?
		ORDER BY b.check_in, b.id`,
		roomID, sqlDate(rg.CheckOut), sqlDate(rg.CheckIn))
}

// ListUserBookings returns every booking made by a guest.
func (r *BookingRepo) ListUserBookings(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return queryBookings(ctx, r.db, bookingSelect+` WHERE b.user_id = ? ORDER BY b.id`, userID)
}

// ListTenantBookings returns bookings on the tenant's properties,
// optionally narrowed to one status.
func (r *BookingRepo) ListTenantBookings(ctx context.Context, tenantID uint64, status model.BookingStatus) ([]model.Booking, error) {
	if status == "" {
		return queryBookings(ctx, r.db, bookingSelect+` WHERE p.tenant_id = ? ORDER BY b.id`, tenantID)
	}
	return queryBookings(ctx, r.db, bookingSelect+` WHERE p.tenant_id = ? AND b.status = ? ORDER BY b.id`, tenantID, status)
}

// WithinRoom begins a transaction, locks the room row and runs fn.  The
// transaction commits only when fn returns nil.
func (r *BookingRepo) WithinRoom(ctx context.Context, roomID uint64, fn func(ctx context.Context, tx booking.RoomTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, roomID).Scan(&locked); err != nil {
		return notFound(err)
	}
	room, err := loadRoom(ctx, tx, roomID)
	if err != nil {
		return err
	}
	if err := fn(ctx, &roomTx{tx: tx, room: room}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Transition performs one conditional UPDATE and reports whether it hit
// the row.
func (r *BookingRepo) Transition(ctx context.Context, t booking.Transition) (bool, error) {
	var (
		q    strings.Builder
		args []any
	)
	q.WriteString(`UPDATE bookings SET status = ?, updated_at = ?`)
	args = append(args, t.To, t.At.UTC())
	if t.PaymentProof != nil {
		q.WriteString(`, payment_proof = ?`)
		args = append(args, *t.PaymentProof)
	}
	q.WriteString(` WHERE id = ? AND status = ?`)
	args = append(args, t.BookingID, t.From)
	switch t.Deadline {
	case booking.DeadlineOpen:
		q.WriteString(` AND payment_deadline > ?`)
		args = append(args, t.At.UTC())
	case booking.DeadlineDue:
		q.WriteString(` AND payment_deadline <= ?`)
		args = append(args, t.At.UTC())
	}
	if !t.CheckOutBy.IsZero() {
		q.WriteString(` AND check_out <= ?`)
		args = append(args, sqlDate(t.CheckOutBy))
	}
	res, err := r.db.ExecContext(ctx, q.String(), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListStalePending returns pending bookings whose deadline is at or before now.
func (r *BookingRepo) ListStalePending(ctx context.Context, now time.Time) ([]model.Booking, error) {
	return queryBookings(ctx, r.db, bookingSelect+`
		WHERE b.status = ? AND b.payment_deadline <= ? ORDER BY b.id`,
		model.StatusPendingPayment, now.UTC())
}

// ListCompletable returns confirmed bookings whose check-out day has come.
func (r *BookingRepo) ListCompletable(ctx context.Context, today time.Time) ([]model.Booking, error) {
	return queryBookings(ctx, r.db, bookingSelect+`
		WHERE b.status = ? AND b.check_out <= ? ORDER BY b.id`,
		model.StatusConfirmed, sqlDate(today))
}

// ListSales returns the tenant's bookings joined with property names and
// guest emails, filtered by property and creation time.
func (r *BookingRepo) ListSales(ctx context.Context, f booking.SalesFilter) ([]booking.SaleRecord, error) {
	var q strings.Builder
	q.WriteString(`SELECT b.id, r.property_id, p.name, b.room_id, b.user_id, u.email,
	                      b.check_in, b.check_out, b.total_price, b.status, b.created_at
	               FROM bookings b
	               JOIN rooms r ON r.id = b.room_id
	               JOIN properties p ON p.id = r.property_id
	               JOIN users u ON u.id = b.user_id
	               WHERE p.tenant_id = ?`)
	args := []any{f.TenantID}
	if f.PropertyID != 0 {
		q.WriteString(` AND r.property_id = ?`)
		args = append(args, f.PropertyID)
	}
	if !f.From.IsZero() {
		q.WriteString(` AND b.created_at >= ?`)
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		q.WriteString(` AND b.created_at < ?`)
		args = append(args, f.To.UTC())
	}
	q.WriteString(` ORDER BY b.created_at, b.id`)

	rows, err := r.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []booking.SaleRecord{}
	for rows.Next() {
		var s booking.SaleRecord
		if err := rows.Scan(&s.BookingID, &s.PropertyID, &s.PropertyName, &s.RoomID, &s.UserID, &s.UserEmail,
			&s.CheckIn, &s.CheckOut, &s.TotalPrice, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// roomTx is the booking.RoomTx handed to WithinRoom callbacks.
type roomTx struct {
	tx   *sql.Tx
	room model.Room
}

func (t *roomTx) Room() model.Room { return t.room }

// ExpireStale flips this room's overdue pending bookings to EXPIRED and
// returns them as they are after the update.
func (t *roomTx) ExpireStale(ctx context.Context, now time.Time) ([]model.Booking, error) {
	stale, err := queryBookings(ctx, t.tx, bookingSelect+`
		WHERE b.room_id = ? AND b.status = ? AND b.payment_deadline <= ? ORDER BY b.id FOR UPDATE`,
		t.room.ID, model.StatusPendingPayment, now.UTC())
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return stale, nil
	}
	_, err = t.tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE room_id = ? AND status = ? AND payment_deadline <= ?`,
		model.StatusExpired, now.UTC(), t.room.ID, model.StatusPendingPayment, now.UTC())
	if err != nil {
		return nil, err
	}
	for i := range stale {
		stale[i].Status = model.StatusExpired
		stale[i].UpdatedAt = now
	}
	return stale, nil
}

// LiveBookings returns live bookings of the locked room overlapping rg.
func (t *roomTx) LiveBookings(ctx context.Context, rg booking.DateRange) ([]model.Booking, error) {
	return queryBookings(ctx, t.tx, bookingSelect+`
		WHERE b.room_id = ? AND b.status IN (`+liveStatusList+`) AND b.check_in < ? AND b.check_out > ?
		ORDER BY b.check_in, b.id`,
		t.room.ID, sqlDate(rg.CheckOut), sqlDate(rg.CheckIn))
}

// Insert stores b and fills in its generated ID.
func (t *roomTx) Insert(ctx context.Context, b *model.Booking) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO bookings (room_id, user_id, check_in, check_out, guests, total_price, status, payment_deadline, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.RoomID, b.UserID, sqlDate(b.CheckIn), sqlDate(b.CheckOut), b.Guests, b.TotalPrice, b.Status,
		b.PaymentDeadline.UTC(), b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}
