package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/iliyamo/property-booking/internal/model"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RoomRepo provides access to rooms and their peak seasons.  Rooms are
// read on every availability check and calendar request, so loaded rooms
// are kept in a short-lived in-process cache that is dropped whenever a
// room or one of its peak seasons changes.
type RoomRepo struct {
	db    *sql.DB
	props *PropertyRepo
	cache *cache.Cache
}

// NewRoomRepo returns a RoomRepo.  A non-positive ttl disables caching.
func NewRoomRepo(db *sql.DB, props *PropertyRepo, ttl time.Duration) *RoomRepo {
	r := &RoomRepo{db: db, props: props}
	if ttl > 0 {
		r.cache = cache.New(ttl, 2*ttl)
	}
	return r
}

func roomKey(id uint64) string { return fmt.Sprintf("room:%d", id) }

const roomSelect = `SELECT r.id, r.property_id, p.tenant_id, r.name, r.base_price, r.capacity, r.created_at
                    FROM rooms r
                    JOIN properties p ON p.id = r.property_id`

const peakSelect = `SELECT id, room_id, start_date, end_date, kind, amount, multiplier, created_at
                    FROM peak_seasons`

// Get returns a room with its peak seasons, from cache when possible.
func (r *RoomRepo) Get(ctx context.Context, id uint64) (model.Room, error) {
	if r.cache != nil {
		if v, ok := r.cache.Get(roomKey(id)); ok {
			return v.(model.Room), nil
		}
	}
	room, err := loadRoom(ctx, r.db, id)
	if err != nil {
		return model.Room{}, err
	}
	if r.cache != nil {
		r.cache.SetDefault(roomKey(id), room)
	}
	return room, nil
}

// loadRoom reads a room and its peak seasons through q.
func loadRoom(ctx context.Context, q queryer, id uint64) (model.Room, error) {
	var room model.Room
	err := q.QueryRowContext(ctx, roomSelect+` WHERE r.id = ?`, id).Scan(
		&room.ID, &room.PropertyID, &room.TenantID, &room.Name, &room.BasePrice, &room.Capacity, &room.CreatedAt,
	)
	if err != nil {
		return model.Room{}, notFound(err)
	}
	room.PeakSeasons, err = loadPeakSeasons(ctx, q, id)
	if err != nil {
		return model.Room{}, err
	}
	return room, nil
}

func loadPeakSeasons(ctx context.Context, q queryer, roomID uint64) ([]model.PeakSeason, error) {
	rows, err := q.QueryContext(ctx, peakSelect+` WHERE room_id = ? ORDER BY id`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PeakSeason{}
	for rows.Next() {
		var ps model.PeakSeason
		if err := rows.Scan(&ps.ID, &ps.RoomID, &ps.StartDate, &ps.EndDate, &ps.Kind, &ps.Amount, &ps.Multiplier, &ps.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// ListByProperty returns the rooms of a property without peak seasons.
func (r *RoomRepo) ListByProperty(ctx context.Context, propertyID uint64) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, roomSelect+` WHERE r.property_id = ? ORDER BY r.id`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Room{}
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.PropertyID, &room.TenantID, &room.Name, &room.BasePrice, &room.Capacity, &room.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// Create inserts a room into a property owned by tenantID.
func (r *RoomRepo) Create(ctx context.Context, tenantID uint64, room model.Room) (model.Room, error) {
	if err := r.props.ensureOwner(ctx, room.PropertyID, tenantID); err != nil {
		return model.Room{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (property_id, name, base_price, capacity) VALUES (?, ?, ?, ?)`,
		room.PropertyID, strings.TrimSpace(room.Name), room.BasePrice, room.Capacity)
	if err != nil {
		return model.Room{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Room{}, err
	}
	return r.Get(ctx, uint64(id))
}

// ownedRoom loads a room and checks that tenantID owns it.
func (r *RoomRepo) ownedRoom(ctx context.Context, tenantID, roomID uint64) (model.Room, error) {
	room, err := loadRoom(ctx, r.db, roomID)
	if err != nil {
		return model.Room{}, err
	}
	if room.TenantID != tenantID {
		return model.Room{}, ErrForbidden
	}
	return room, nil
}

// Delete removes a room unless it still has live bookings.
func (r *RoomRepo) Delete(ctx context.Context, tenantID, roomID uint64) error {
	if _, err := r.ownedRoom(ctx, tenantID, roomID); err != nil {
		return err
	}
	var live int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE room_id = ? AND status IN (`+liveStatusList+`)`,
		roomID).Scan(&live)
	if err != nil {
		return err
	}
	if live > 0 {
		return ErrConflict
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID); err != nil {
		return err
	}
	r.invalidate(roomID)
	return nil
}

// AddPeakSeason stores a peak override for a room owned by tenantID.
func (r *RoomRepo) AddPeakSeason(ctx context.Context, tenantID uint64, ps model.PeakSeason) (model.PeakSeason, error) {
	if _, err := r.ownedRoom(ctx, tenantID, ps.RoomID); err != nil {
		return model.PeakSeason{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO peak_seasons (room_id, start_date, end_date, kind, amount, multiplier) VALUES (?, ?, ?, ?, ?, ?)`,
		ps.RoomID, ps.StartDate.Format("2006-01-02"), ps.EndDate.Format("2006-01-02"), ps.Kind, ps.Amount, ps.Multiplier)
	if err != nil {
		return model.PeakSeason{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.PeakSeason{}, err
	}
	r.invalidate(ps.RoomID)
	err = r.db.QueryRowContext(ctx, peakSelect+` WHERE id = ?`, id).Scan(
		&ps.ID, &ps.RoomID, &ps.StartDate, &ps.EndDate, &ps.Kind, &ps.Amount, &ps.Multiplier, &ps.CreatedAt,
	)
	return ps, notFound(err)
}

// DeletePeakSeason removes one peak override of a room owned by tenantID.
func (r *RoomRepo) DeletePeakSeason(ctx context.Context, tenantID, roomID, seasonID uint64) error {
	if _, err := r.ownedRoom(ctx, tenantID, roomID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM peak_seasons WHERE id = ? AND room_id = ?`, seasonID, roomID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	r.invalidate(roomID)
	return nil
}

func (r *RoomRepo) invalidate(roomID uint64) {
	if r.cache != nil {
		r.cache.Delete(roomKey(roomID))
	}
}
