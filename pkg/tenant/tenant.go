package tenant

import (
	"context"
	"maps"
)

// Status is the lifecycle status of a tenant.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended:
		return true
	}
	return false
}

// Tenant is an isolated organization whose rows must never be visible
// to another tenant's principals. Records are owned by an external tenant
// management process; this package only reads and caches them.
type Tenant struct {
	ID       string          `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Status   Status          `json:"status" yaml:"status"`
	Features map[string]bool `json:"features,omitempty" yaml:"features,omitempty"`

	// Bootstrap marks a tenant handed out through WithBootstrap rather than
	// resolved from a membership binding.
	Bootstrap bool `json:"bootstrap,omitempty" yaml:"-"`
}

// IsActive reports whether the tenant may be used without an explicit
// opt-in to inactive tenants.
func (t *Tenant) IsActive() bool {
	return t != nil && t.Status == StatusActive
}

// HasFeature reports whether the named feature flag is enabled.
func (t *Tenant) HasFeature(name string) bool {
	return t != nil && t.Features[name]
}

// Clone returns a deep copy of t.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}
	c := *t
	if t.Features != nil {
		c.Features = maps.Clone(t.Features)
	}
	return &c
}

// Binding links a principal to the tenant it belongs to.
type Binding struct {
	PrincipalID string `json:"principal_id" yaml:"principal_id"`
	TenantID    string `json:"tenant_id" yaml:"tenant_id"`
}

// Directory is the membership and tenant record source.
type Directory interface {
	// FetchMemberships returns the tenant ids of every active binding for
	// the principal. An empty result means the principal has no binding.
	FetchMemberships(ctx context.Context, principalID string) ([]string, error)

	// FetchTenant returns the tenant record, or ErrTenantNotFound.
	FetchTenant(ctx context.Context, tenantID string) (*Tenant, error)
}
