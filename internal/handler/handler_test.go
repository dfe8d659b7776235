package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/property-booking/internal/booking"
	"github.com/iliyamo/property-booking/internal/booking/bookingtest"
	"github.com/iliyamo/property-booking/internal/handler"
	"github.com/iliyamo/property-booking/internal/lock"
	"github.com/iliyamo/property-booking/internal/model"
	"github.com/iliyamo/property-booking/internal/realtime"
	"github.com/iliyamo/property-booking/internal/repository"
	"github.com/iliyamo/property-booking/internal/router"
	"github.com/iliyamo/property-booking/internal/storage"
	"github.com/iliyamo/property-booking/internal/utils"
)

const (
	secret   = "handler-secret"
	guestID  = 7
	tenantID = 100
)

var now = time.Date(2024, 12, 10, 9, 0, 0, 0, time.UTC)

// pngProof is the smallest body mimetype recognises as image/png.
var pngProof = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

// memRooms is an in-memory RoomStore and PropertyStore.
type memRooms struct {
	mu     sync.Mutex
	store  *bookingtest.Store
	props  map[uint64]model.Property
	rooms  map[uint64]model.Room
	nextID uint64
}

func newMemRooms(store *bookingtest.Store) *memRooms {
	return &memRooms{store: store, props: map[uint64]model.Property{}, rooms: map[uint64]model.Room{}, nextID: 100}
}

func (m *memRooms) put(r model.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.ID] = r
	m.store.AddRoom(r)
}

func (m *memRooms) Create(_ context.Context, tenantID uint64, name, city string) (model.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := model.Property{ID: m.nextID, TenantID: tenantID, Name: name, City: city, CreatedAt: now}
	m.props[p.ID] = p
	return p, nil
}

func (m *memRooms) ListByTenant(_ context.Context, tenantID uint64) ([]model.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Property
	for _, p := range m.props {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRooms) Get(_ context.Context, id uint64) (model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return model.Room{}, repository.ErrNotFound
	}
	return r, nil
}

func (m *memRooms) ListByProperty(_ context.Context, propertyID uint64) ([]model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Room
	for _, r := range m.rooms {
		if r.PropertyID == propertyID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRooms) CreateRoom(tenantID uint64, room model.Room) (model.Room, error) {
	m.mu.Lock()
	p, ok := m.props[room.PropertyID]
	if !ok {
		m.mu.Unlock()
		return model.Room{}, repository.ErrNotFound
	}
	if p.TenantID != tenantID {
		m.mu.Unlock()
		return model.Room{}, repository.ErrForbidden
	}
	m.nextID++
	room.ID, room.TenantID = m.nextID, tenantID
	m.mu.Unlock()
	m.put(room)
	return room, nil
}

func (m *memRooms) owned(tenantID, roomID uint64) (model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return model.Room{}, repository.ErrNotFound
	}
	if r.TenantID != tenantID {
		return model.Room{}, repository.ErrForbidden
	}
	return r, nil
}

func (m *memRooms) Delete(_ context.Context, tenantID, roomID uint64) error {
	if _, err := m.owned(tenantID, roomID); err != nil {
		return err
	}
	for _, b := range m.store.All() {
		if b.RoomID == roomID && booking.IsLive(b.Status) {
			return repository.ErrConflict
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	return nil
}

func (m *memRooms) AddPeakSeason(_ context.Context, tenantID uint64, ps model.PeakSeason) (model.PeakSeason, error) {
	r, err := m.owned(tenantID, ps.RoomID)
	if err != nil {
		return model.PeakSeason{}, err
	}
	m.mu.Lock()
	m.nextID++
	ps.ID, ps.CreatedAt = m.nextID, now
	m.mu.Unlock()
	r.PeakSeasons = append(r.PeakSeasons, ps)
	m.put(r)
	return ps, nil
}

func (m *memRooms) DeletePeakSeason(_ context.Context, tenantID, roomID, seasonID uint64) error {
	r, err := m.owned(tenantID, roomID)
	if err != nil {
		return err
	}
	for i, ps := range r.PeakSeasons {
		if ps.ID == seasonID {
			r.PeakSeasons = append(r.PeakSeasons[:i], r.PeakSeasons[i+1:]...)
			m.put(r)
			return nil
		}
	}
	return repository.ErrNotFound
}

// roomStore adapts memRooms to handler.RoomStore.
type roomStore struct{ *memRooms }

func (s roomStore) Create(_ context.Context, tenantID uint64, room model.Room) (model.Room, error) {
	return s.CreateRoom(tenantID, room)
}

// fakeSearch records the last query and returns a fixed page.
type fakeSearch struct {
	last repository.PropertySearchQuery
}

func (f *fakeSearch) Search(_ context.Context, q repository.PropertySearchQuery) ([]repository.PublicPropertyRow, int64, error) {
	f.last = q
	return []repository.PublicPropertyRow{{ID: 10, Name: "Villa Sunset", City: "Bali", Rooms: 1, FromPrice: 100000}}, 1, nil
}

type app struct {
	e      *echo.Echo
	search *fakeSearch
	store  *bookingtest.Store
	rooms  *memRooms
	hub    *realtime.Hub
	proofs string
}

func newApp(t *testing.T) *app {
	t.Helper()
	a := &app{store: bookingtest.New(), hub: realtime.NewHub(), proofs: t.TempDir(), search: &fakeSearch{}}
	a.rooms = newMemRooms(a.store)
	a.rooms.props[10] = model.Property{ID: 10, TenantID: tenantID, Name: "Villa Sunset", City: "Bali"}
	a.rooms.put(model.Room{
		ID: 1, PropertyID: 10, TenantID: tenantID, Name: "Deluxe", BasePrice: 100000, Capacity: 2,
		PeakSeasons: []model.PeakSeason{{
			ID: 1, RoomID: 1, StartDate: day("2024-12-24"), EndDate: day("2024-12-26"),
			Kind: model.PeakFixed, Amount: 150000,
		}},
	})
	a.store.SetPropertyName(10, "Villa Sunset")

	proofs, err := storage.NewLocal(a.proofs)
	require.NoError(t, err)
	svc := booking.NewService(a.store, lock.NewLocal(), nil, booking.Options{Now: func() time.Time { return now }})

	a.e = echo.New()
	a.e.Validator = handler.NewValidator()
	bh := handler.NewBookingHandler(svc, proofs, "payment-proofs", a.hub)
	router.RegisterRoutes(a.e, nil, nil)
	router.RegisterPublic(a.e, handler.NewPublicHandler(svc, roomStore{a.rooms}, a.search), bh, nil)
	router.RegisterUser(a.e, bh, secret)
	router.RegisterTenant(a.e, handler.NewTenantHandler(svc, a.rooms, roomStore{a.rooms}), secret)
	return a
}

func day(s string) time.Time {
	t, err := time.Parse(booking.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func bearer(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, 60)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func (a *app) do(t *testing.T, method, target, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *app) upload(t *testing.T, id uint64, auth string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("paymentProof", "proof.png")
	require.NoError(t, err)
	_, err = fw.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/v1/bookings/"+strconv.FormatUint(id, 10)+"/payment", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, auth)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["error"]
}

func stayBody(in, out string, guests int) map[string]any {
	return map[string]any{"room_id": 1, "check_in": in, "check_out": out, "guests": guests}
}

func (a *app) createBooking(t *testing.T, in, out string) model.Booking {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/bookings", bearer(t, guestID, model.RoleUser), stayBody(in, out, 2))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Booking](t, rec)
}

func TestCheckAvailability(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/v1/bookings/check-availability", "", stayBody("2024-12-23", "2024-12-26", 0))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	av := decode[booking.Availability](t, rec)
	assert.True(t, av.Available)
	require.NotNil(t, av.Breakdown)
	assert.EqualValues(t, 100000+150000+150000, av.Breakdown.Total)

	a.createBooking(t, "2024-12-24", "2024-12-25")
	rec = a.do(t, http.MethodPost, "/v1/bookings/check-availability", "", stayBody("2024-12-23", "2024-12-26", 0))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[booking.Availability](t, rec).Available)

	cases := []struct {
		name   string
		body   any
		status int
	}{
		{"missing room", map[string]any{"check_in": "2024-12-20", "check_out": "2024-12-21"}, http.StatusBadRequest},
		{"bad date", stayBody("20-12-2024", "2024-12-21", 1), http.StatusBadRequest},
		{"inverted range", stayBody("2024-12-21", "2024-12-20", 1), http.StatusBadRequest},
		{"past", stayBody("2024-12-01", "2024-12-02", 1), http.StatusBadRequest},
		{"unknown room", map[string]any{"room_id": 99, "check_in": "2024-12-20", "check_out": "2024-12-21"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/v1/bookings/check-availability", "", tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateBooking(t *testing.T) {
	a := newApp(t)
	b := a.createBooking(t, "2024-12-20", "2024-12-22")
	assert.Equal(t, model.StatusPendingPayment, b.Status)
	assert.Equal(t, now.Add(time.Hour), b.PaymentDeadline)
	assert.EqualValues(t, 200000, b.TotalPrice)

	user := bearer(t, guestID, model.RoleUser)
	rec := a.do(t, http.MethodPost, "/v1/bookings", user, stayBody("2024-12-21", "2024-12-23", 1))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/bookings", user, stayBody("2024-12-22", "2024-12-23", 1))
	assert.Equal(t, http.StatusCreated, rec.Code, "check-out day is free")

	rec = a.do(t, http.MethodPost, "/v1/bookings", user, stayBody("2025-01-05", "2025-01-06", 3))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/bookings", bearer(t, tenantID, model.RoleTenant), stayBody("2025-01-05", "2025-01-06", 1))
	assert.Equal(t, http.StatusForbidden, rec.Code, "tenants do not book")

	rec = a.do(t, http.MethodPost, "/v1/bookings", "", stayBody("2025-01-05", "2025-01-06", 1))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPaymentAndReview(t *testing.T) {
	a := newApp(t)
	b := a.createBooking(t, "2024-12-20", "2024-12-22")
	user := bearer(t, guestID, model.RoleUser)
	owner := bearer(t, tenantID, model.RoleTenant)

	rec := a.do(t, http.MethodPost, "/v1/tenant/bookings/"+strconv.FormatUint(b.ID, 10)+"/review", owner,
		map[string]string{"decision": "accept"})
	assert.Equal(t, http.StatusConflict, rec.Code, "nothing to review yet")

	rec = a.upload(t, b.ID, user, []byte("not an image at all"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.upload(t, b.ID, user, pngProof)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decode[model.Booking](t, rec)
	assert.Equal(t, model.StatusPaymentUploaded, paid.Status)
	require.NotNil(t, paid.PaymentProof)
	_, err := os.Stat(filepath.Join(a.proofs, filepath.FromSlash(*paid.PaymentProof)))
	assert.NoError(t, err, "proof stored on disk")

	rec = a.upload(t, b.ID, user, pngProof)
	assert.Equal(t, http.StatusConflict, rec.Code, "second upload")
	files := 0
	_ = filepath.Walk(a.proofs, func(_ string, info os.FileInfo, _ error) error {
		if info != nil && !info.IsDir() {
			files++
		}
		return nil
	})
	assert.Equal(t, 1, files, "rejected upload is not kept")

	rec = a.do(t, http.MethodPost, "/v1/tenant/bookings/"+strconv.FormatUint(b.ID, 10)+"/review", owner,
		map[string]string{"decision": "maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/tenant/bookings/"+strconv.FormatUint(b.ID, 10)+"/review",
		bearer(t, tenantID+1, model.RoleTenant), map[string]string{"decision": "accept"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "another tenant")

	rec = a.do(t, http.MethodPost, "/v1/tenant/bookings/"+strconv.FormatUint(b.ID, 10)+"/review", user,
		map[string]string{"decision": "accept"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "guests cannot review")

	rec = a.do(t, http.MethodPost, "/v1/tenant/bookings/"+strconv.FormatUint(b.ID, 10)+"/review", owner,
		map[string]string{"decision": "ACCEPT"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.StatusConfirmed, decode[model.Booking](t, rec).Status)
}

func TestUploadAfterDeadline(t *testing.T) {
	a := newApp(t)
	b := a.store.Put(model.Booking{
		RoomID: 1, UserID: guestID, CheckIn: day("2024-12-20"), CheckOut: day("2024-12-21"),
		Guests: 1, TotalPrice: 100000, Status: model.StatusPendingPayment,
		PaymentDeadline: now, CreatedAt: now.Add(-time.Hour),
	})
	rec := a.upload(t, b.ID, bearer(t, guestID, model.RoleUser), pngProof)
	assert.Equal(t, http.StatusGone, rec.Code, rec.Body.String())
	assert.Equal(t, "payment deadline passed", errorOf(t, rec))
}

func TestGetAndCancel(t *testing.T) {
	a := newApp(t)
	b := a.createBooking(t, "2024-12-20", "2024-12-22")
	id := strconv.FormatUint(b.ID, 10)
	user := bearer(t, guestID, model.RoleUser)

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/v1/bookings/"+id, user, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/v1/bookings/"+id, bearer(t, tenantID, model.RoleTenant), nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/v1/bookings/"+id, bearer(t, 8, model.RoleUser), nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/bookings/999", user, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/bookings/abc", user, nil).Code)

	rec := a.do(t, http.MethodGet, "/v1/my-bookings", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]model.Booking](t, rec)["items"], 1)

	rec = a.do(t, http.MethodPost, "/v1/bookings/"+id+"/cancel", user, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.StatusCancelled, decode[model.Booking](t, rec).Status)

	rec = a.do(t, http.MethodPost, "/v1/bookings/"+id+"/cancel", user, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

type calendarResp struct {
	RoomID uint64                         `json:"room_id"`
	Month  string                         `json:"month"`
	Days   map[string]booking.CalendarDay `json:"days"`
}

func TestCalendar(t *testing.T) {
	a := newApp(t)
	a.createBooking(t, "2024-12-20", "2024-12-22")

	rec := a.do(t, http.MethodGet, "/v1/rooms/1/calendar?month=2024-12", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[calendarResp](t, rec)
	assert.Equal(t, "2024-12", resp.Month)
	assert.Len(t, resp.Days, 31)
	assert.False(t, resp.Days["2024-12-20"].Available)
	assert.True(t, resp.Days["2024-12-22"].Available)
	assert.True(t, resp.Days["2024-12-24"].IsPeak)
	assert.EqualValues(t, 150000, resp.Days["2024-12-24"].Price)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/rooms/1/calendar?month=12-2024", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/v1/rooms/42/calendar?month=2024-12", "", nil).Code)
}

func TestPublicRooms(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, http.MethodGet, "/v1/rooms/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "tenant_id")
	room := decode[handler.PublicRoom](t, rec)
	require.Len(t, room.PeakSeasons, 1)
	assert.Equal(t, "2024-12-24", room.PeakSeasons[0].StartDate)

	rec = a.do(t, http.MethodGet, "/v1/properties/10/rooms", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]handler.PublicRoom](t, rec)["items"], 1)
}

func TestSearchProperties(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, http.MethodGet, "/v1/properties?city=bali&check_in=2024-12-20&check_out=2024-12-22&guests=2&page_size=500", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "bali", a.search.last.City)
	assert.Equal(t, 2, a.search.last.Guests)
	assert.Equal(t, day("2024-12-20"), a.search.last.CheckIn)
	assert.Equal(t, 100, a.search.last.PageSize)
	assert.Equal(t, 1, a.search.last.Page)

	for _, q := range []string{"?check_in=2024-12-20", "?check_in=2024-12-22&check_out=2024-12-20", "?guests=0", "?check_out=bad"} {
		rec := a.do(t, http.MethodGet, "/v1/properties"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestTenantInventory(t *testing.T) {
	a := newApp(t)
	owner := bearer(t, tenantID, model.RoleTenant)

	rec := a.do(t, http.MethodPost, "/v1/tenant/properties", owner, map[string]string{"name": "Lake House", "city": "Bandung"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	prop := decode[model.Property](t, rec)

	rec = a.do(t, http.MethodPost, "/v1/tenant/properties/"+strconv.FormatUint(prop.ID, 10)+"/rooms", owner,
		map[string]any{"name": "Loft", "base_price": 0, "capacity": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "base price must be positive")

	rec = a.do(t, http.MethodPost, "/v1/tenant/properties/"+strconv.FormatUint(prop.ID, 10)+"/rooms", owner,
		map[string]any{"name": "Loft", "base_price": 80000, "capacity": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	room := decode[model.Room](t, rec)
	roomPath := "/v1/tenant/rooms/" + strconv.FormatUint(room.ID, 10)

	rec = a.do(t, http.MethodPost, roomPath+"/peak-seasons", owner,
		map[string]any{"start_date": "2024-12-31", "end_date": "2024-12-30", "kind": "FIXED", "amount": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(t, http.MethodPost, roomPath+"/peak-seasons", owner,
		map[string]any{"start_date": "2024-12-30", "end_date": "2024-12-31", "kind": "MULTIPLIER"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "multiplier required")

	rec = a.do(t, http.MethodPost, roomPath+"/peak-seasons", owner,
		map[string]any{"start_date": "2024-12-30", "end_date": "2024-12-31", "kind": "MULTIPLIER", "multiplier": 1.5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ps := decode[model.PeakSeason](t, rec)

	rec = a.do(t, http.MethodPost, roomPath+"/peak-seasons", bearer(t, tenantID+1, model.RoleTenant),
		map[string]any{"start_date": "2024-12-30", "end_date": "2024-12-31", "kind": "FIXED", "amount": 5})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodDelete, roomPath+"/peak-seasons/"+strconv.FormatUint(ps.ID, 10), owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/tenant/properties", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]model.Property](t, rec)["items"], 2)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, roomPath, owner, nil).Code)

	a.createBooking(t, "2024-12-20", "2024-12-21")
	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodDelete, "/v1/tenant/rooms/1", owner, nil).Code)

	rec = a.do(t, http.MethodGet, "/v1/tenant/properties", bearer(t, guestID, model.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTenantBookingsAndSales(t *testing.T) {
	a := newApp(t)
	owner := bearer(t, tenantID, model.RoleTenant)
	a.store.SetUserEmail(guestID, "guest@example.com")
	for i, st := range []model.BookingStatus{model.StatusConfirmed, model.StatusCompleted, model.StatusCancelled} {
		a.store.Put(model.Booking{
			RoomID: 1, UserID: guestID, CheckIn: day("2024-11-01").AddDate(0, 0, i*3),
			CheckOut: day("2024-11-03").AddDate(0, 0, i*3), Guests: 1, TotalPrice: 100000,
			Status: st, CreatedAt: day("2024-10-01").AddDate(0, 0, i),
		})
	}

	rec := a.do(t, http.MethodGet, "/v1/tenant/bookings?status=confirmed", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]model.Booking](t, rec)["items"], 1)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/v1/tenant/bookings?status=PAID", owner, nil).Code)

	rec = a.do(t, http.MethodGet, "/v1/tenant/reports/sales?group_by=user", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep := decode[booking.Report](t, rec)
	assert.Equal(t, 2, rep.Summary.Count)
	assert.EqualValues(t, 200000, rep.Summary.Total)
	require.Len(t, rep.Groups, 1)
	assert.Equal(t, "guest@example.com", rep.Groups[0].Label)

	rec = a.do(t, http.MethodGet, "/v1/tenant/reports/sales?start_date=2024-10-01&end_date=2024-10-01", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[booking.Report](t, rec).Summary.Count, "end_date is inclusive")

	cases := map[string]int{
		"?group_by=room":                              http.StatusBadRequest,
		"?order=sideways":                             http.StatusBadRequest,
		"?property_id=x":                              http.StatusBadRequest,
		"?start_date=2024-10-05&end_date=2024-10-01":  http.StatusBadRequest,
		"?property_id=10&sort_by=total&order=desc":    http.StatusOK,
		"?group_by=transaction&start_date=2024-10-01": http.StatusOK,
	}
	for q, status := range cases {
		rec := a.do(t, http.MethodGet, "/v1/tenant/reports/sales"+q, owner, nil)
		assert.Equal(t, status, rec.Code, "%s: %s", q, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
