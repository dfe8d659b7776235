package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/property-booking/internal/model"
)

// PropertyRepo provides access to the properties table.  Every mutating
// method takes the calling tenant and refuses to touch rows owned by
// someone else.
type PropertyRepo struct {
	db *sql.DB
}

// NewPropertyRepo returns a PropertyRepo bound to db.
func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{db: db} }

// Create inserts a property owned by tenantID and returns it.
func (r *PropertyRepo) Create(ctx context.Context, tenantID uint64, name, city string) (model.Property, error) {
	p := model.Property{TenantID: tenantID, Name: strings.TrimSpace(name), City: strings.TrimSpace(city)}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO properties (tenant_id, name, city) VALUES (?, ?, ?)`,
		p.TenantID, p.Name, p.City)
	if err != nil {
		return model.Property{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Property{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID returns a single property.
func (r *PropertyRepo) GetByID(ctx context.Context, id uint64) (model.Property, error) {
	var p model.Property
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, city, created_at FROM properties WHERE id = ?`, id,
	).Scan(&p.ID, &p.TenantID, &p.Name, &p.City, &p.CreatedAt)
	return p, notFound(err)
}

// ListByTenant returns the tenant's properties, newest first.
func (r *PropertyRepo) ListByTenant(ctx context.Context, tenantID uint64) ([]model.Property, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tenant_id, name, city, created_at FROM properties WHERE tenant_id = ? ORDER BY id DESC`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Property{}
	for rows.Next() {
		var p model.Property
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.City, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ensureOwner returns ErrNotFound for a missing property and ErrForbidden
// when it belongs to another tenant.
func (r *PropertyRepo) ensureOwner(ctx context.Context, propertyID, tenantID uint64) error {
	p, err := r.GetByID(ctx, propertyID)
	if err != nil {
		return err
	}
	if p.TenantID != tenantID {
		return ErrForbidden
	}
	return nil
}
