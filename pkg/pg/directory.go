package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

// DB is the subset of *pgxpool.Pool used here; pgx.Tx and *pgx.Conn
// satisfy it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	selectMemberships = `SELECT tenant_id FROM tenant_memberships WHERE principal_id = $1 AND active ORDER BY tenant_id`
	selectTenant      = `SELECT id, name, status, COALESCE(features, '{}'::jsonb) FROM tenants WHERE id = $1`
	upsertTenant      = `INSERT INTO tenants (id, name, status, features) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, status = EXCLUDED.status, features = EXCLUDED.features, updated_at = now()`
	insertMembership = `INSERT INTO tenant_memberships (principal_id, tenant_id) VALUES ($1, $2)
ON CONFLICT (principal_id, tenant_id) DO UPDATE SET active = TRUE`
	deactivateMembership = `UPDATE tenant_memberships SET active = FALSE WHERE principal_id = $1 AND tenant_id = $2`
)

// Directory reads tenants and memberships from the tables created by Migrate.
type Directory struct {
	db DB
}

// NewDirectory creates a directory over db.
func NewDirectory(db DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) FetchMemberships(ctx context.Context, principalID string) ([]string, error) {
	rows, err := d.db.Query(ctx, selectMemberships, principalID)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan memberships: %w", err)
	}
	return ids, nil
}

func (d *Directory) FetchTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := d.db.QueryRow(ctx, selectTenant, tenantID).Scan(&t.ID, &t.Name, &t.Status, &t.Features)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("query tenant: %w", err)
	}
	return &t, nil
}

// SaveTenant inserts or updates a tenant record. Provisioning tools and
// tests use it; the resolver never writes.
func (d *Directory) SaveTenant(ctx context.Context, t tenant.Tenant) error {
	if !t.Status.Valid() {
		return fmt.Errorf("unknown tenant status %q", t.Status)
	}
	features := t.Features
	if features == nil {
		features = map[string]bool{}
	}
	_, err := d.db.Exec(ctx, upsertTenant, t.ID, t.Name, string(t.Status), features)
	return err
}

// Bind activates the membership of principalID in tenantID.
func (d *Directory) Bind(ctx context.Context, principalID, tenantID string) error {
	_, err := d.db.Exec(ctx, insertMembership, principalID, tenantID)
	if IsForeignKeyViolationError(err) {
		return errors.Join(tenant.ErrTenantNotFound, err)
	}
	return err
}

// Unbind deactivates a membership.
func (d *Directory) Unbind(ctx context.Context, principalID, tenantID string) error {
	_, err := d.db.Exec(ctx, deactivateMembership, principalID, tenantID)
	return err
}
