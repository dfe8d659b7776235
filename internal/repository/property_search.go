package repository

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/model"
)

// PropertySearchQuery defines filters and pagination for the public
// property search.  When CheckIn and CheckOut are set only properties with
// at least one room free for that stay and large enough for Guests match.
type PropertySearchQuery struct {
	Name     string
	City     string
	Guests   int
	CheckIn  time.Time
	CheckOut time.Time
	Now      time.Time // stale pending bookings before Now do not block
	Page     int
	PageSize int
}

// PublicPropertyRow is one search hit.  FromPrice is the lowest base
// price among matching rooms.
type PublicPropertyRow struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	City      string `json:"city"`
	Rooms     int    `json:"rooms"`
	FromPrice int64  `json:"from_price"`
}

// Search returns a page of matching properties and the total match count.
func (r *PropertyRepo) Search(ctx context.Context, q PropertySearchQuery) ([]PublicPropertyRow, int64, error) {
	where := []string{"1=1"}
	args := []any{}

	if q.Name != "" {
		where = append(where, "LOWER(p.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}
	if q.City != "" {
		where = append(where, "LOWER(p.city) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.City)+"%")
	}
	if q.Guests > 0 {
		where = append(where, "r.capacity >= ?")
		args = append(args, q.Guests)
	}
	if !q.CheckIn.IsZero() && !q.CheckOut.IsZero() {
		where = append(where, `NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.room_id = r.id
			  AND b.status IN (`+liveStatusList+`)
			  AND NOT (b.status = ? AND b.payment_deadline <= ?)
			  AND b.check_in < ? AND b.check_out > ?)`)
		args = append(args, model.StatusPendingPayment, q.Now.UTC(), sqlDate(q.CheckOut), sqlDate(q.CheckIn))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(DISTINCT p.id)
		FROM properties p
		JOIN rooms r ON r.property_id = p.id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize
	dataSQL := `SELECT p.id, p.name, p.city, COUNT(r.id) AS rooms, MIN(r.base_price) AS from_price
		FROM properties p
		JOIN rooms r ON r.property_id = p.id
		WHERE ` + cond + `
		GROUP BY p.id, p.name, p.city
		ORDER BY from_price ASC, p.id ASC
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, dataSQL, append(append([]any{}, args...), limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]PublicPropertyRow, 0, limit)
	for rows.Next() {
		var d PublicPropertyRow
		if err := rows.Scan(&d.ID, &d.Name, &d.City, &d.Rooms, &d.FromPrice); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Normalize clamps pagination and validates the stay window.
func (q *PropertySearchQuery) Normalize() error {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	if q.CheckIn.IsZero() != q.CheckOut.IsZero() {
		return booking.ErrInvalidRange
	}
	if !q.CheckIn.IsZero() {
		return booking.NewDateRange(q.CheckIn, q.CheckOut).Validate()
	}
	return nil
}
