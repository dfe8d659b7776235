package model

import "time"

// Property is a listing owned by a tenant.  It groups one or more rooms
// that guests can book.
//
// Fields:
//  ID        – primary key identifier.
//  TenantID  – user (role TENANT) who owns the property.
//  Name      – display name.
//  City      – city shown in listings.
//  CreatedAt – creation timestamp.
type Property struct {
    ID        uint64    `json:"id"`         // properties.id
    TenantID  uint64    `json:"tenant_id"`  // properties.tenant_id
    Name      string    `json:"name"`       // properties.name
    City      string    `json:"city"`       // properties.city
    CreatedAt time.Time `json:"created_at"` // properties.created_at
}
