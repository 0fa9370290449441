package scope

import (
	"context"
	"maps"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

// DefaultTenantColumn is the column carrying the tenant id in every scoped table.
const DefaultTenantColumn = "tenant_id"

// Operation is a CRUD verb.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Valid reports whether op is one of the four supported operations.
func (op Operation) Valid() bool {
	switch op {
	case OpCreate, OpRead, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Row is a single record keyed by column name.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return Row{}
	}
	return maps.Clone(r)
}

// Request describes one scoped data operation.
type Request struct {
	Operation Operation
	Table     string

	// PrincipalID and TenantID are checked by the validator before dispatch.
	// The caller's TenantID is advisory; the validated tenant is written into
	// the filter and payload.
	PrincipalID string
	TenantID    string

	// Filter selects rows for read, update and delete. Equality on every key.
	Filter Row

	// Payload is the new row for create and the changes for update.
	Payload Row

	AllowInactive bool
	CallSite      string
}

// Result is the outcome of Execute.
type Result struct {
	Rows     []Row
	Affected int64
	Tenant   *tenant.Tenant
}

// Store is the storage collaborator. Implementations own their transport
// and its retries.
type Store interface {
	Create(ctx context.Context, table string, row Row) (Row, error)
	Read(ctx context.Context, table string, filter Row) ([]Row, error)
	Update(ctx context.Context, table string, filter, changes Row) (int64, error)
	Delete(ctx context.Context, table string, filter Row) (int64, error)
}

// Validator checks an access before the store is touched.
// *tenant.Validator satisfies it.
type Validator interface {
	Validate(ctx context.Context, access tenant.Access) (*tenant.Tenant, error)
}
