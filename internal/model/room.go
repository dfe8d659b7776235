package model

import "time"

// Room is a bookable unit inside a property.  BasePrice is the nightly
// rate applied when no peak override matches a date.  PeakSeasons is
// loaded alongside the room by the repository and is never persisted
// through the room row itself.
type Room struct {
    ID          uint64       `json:"id"`           // rooms.id
    PropertyID  uint64       `json:"property_id"`  // rooms.property_id
    TenantID    uint64       `json:"tenant_id"`    // properties.tenant_id (joined)
    Name        string       `json:"name"`         // rooms.name
    BasePrice   int64        `json:"base_price"`   // rooms.base_price
    Capacity    int          `json:"capacity"`     // rooms.capacity
    CreatedAt   time.Time    `json:"created_at"`   // rooms.created_at
    PeakSeasons []PeakSeason `json:"peak_seasons"` // peak_seasons rows for this room
}

// PeakKind selects how a peak override derives the nightly rate.
type PeakKind string

const (
    // PeakFixed replaces the base price with Amount.
    PeakFixed PeakKind = "FIXED"
    // PeakMultiplier scales the base price by Multiplier.
    PeakMultiplier PeakKind = "MULTIPLIER"
)

// PeakSeason is a date-scoped price exception for a room.  StartDate and
// EndDate are both inclusive calendar days in UTC.
//
// Fields:
//  ID         – primary key identifier.
//  RoomID     – room the override applies to.
//  StartDate  – first day covered.
//  EndDate    – last day covered.
//  Kind       – FIXED or MULTIPLIER.
//  Amount     – nightly rate when Kind is FIXED.
//  Multiplier – factor applied to the base price when Kind is MULTIPLIER.
//  CreatedAt  – creation timestamp, used to break ties between overrides.
type PeakSeason struct {
    ID         uint64    `json:"id"`          // peak_seasons.id
    RoomID     uint64    `json:"room_id"`     // peak_seasons.room_id
    StartDate  time.Time `json:"start_date"`  // peak_seasons.start_date
    EndDate    time.Time `json:"end_date"`    // peak_seasons.end_date
    Kind       PeakKind  `json:"kind"`        // peak_seasons.kind
    Amount     int64     `json:"amount"`      // peak_seasons.amount
    Multiplier float64   `json:"multiplier"`  // peak_seasons.multiplier
    CreatedAt  time.Time `json:"created_at"`  // peak_seasons.created_at
}
