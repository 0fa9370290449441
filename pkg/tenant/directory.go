package tenant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// MemoryDirectory is an in-process Directory for tests, demos and local
// development.
type MemoryDirectory struct {
	mu       sync.RWMutex
	tenants  map[string]*Tenant
	bindings map[string][]string
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		tenants:  make(map[string]*Tenant),
		bindings: make(map[string][]string),
	}
}

// AddTenant stores a copy of t and returns its id. A random UUID is
// assigned when t has no id, and an empty status defaults to active.
func (d *MemoryDirectory) AddTenant(t Tenant) string {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusActive
	}
	t.Bootstrap = false

	d.mu.Lock()
	defer d.mu.Unlock()

	d.tenants[t.ID] = t.Clone()
	return t.ID
}

// RemoveTenant deletes the tenant record. Bindings pointing to it are kept.
func (d *MemoryDirectory) RemoveTenant(tenantID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.tenants, tenantID)
}

// SetStatus changes a tenant's lifecycle status.
func (d *MemoryDirectory) SetStatus(tenantID string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown tenant status %q", status)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.tenants[tenantID]
	if !ok {
		return ErrTenantNotFound
	}
	t.Status = status
	return nil
}

// Bind adds a membership binding. Binding the same pair twice is a no-op.
func (d *MemoryDirectory) Bind(principalID, tenantID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !slices.Contains(d.bindings[principalID], tenantID) {
		d.bindings[principalID] = append(d.bindings[principalID], tenantID)
	}
}

// Unbind removes a membership binding.
func (d *MemoryDirectory) Unbind(principalID, tenantID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := slices.DeleteFunc(d.bindings[principalID], func(id string) bool { return id == tenantID })
	if len(ids) == 0 {
		delete(d.bindings, principalID)
		return
	}
	d.bindings[principalID] = ids
}

func (d *MemoryDirectory) FetchMemberships(_ context.Context, principalID string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.bindings[principalID]), nil
}

func (d *MemoryDirectory) FetchTenant(_ context.Context, tenantID string) (*Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.tenants[tenantID]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return t.Clone(), nil
}

type directoryFile struct {
	Tenants  []Tenant  `yaml:"tenants"`
	Bindings []Binding `yaml:"bindings"`
}

// LoadMemoryDirectory builds a directory from YAML:
//
//	tenants:
//	  - id: t1
//	    name: Springfield Elementary
//	    status: active
//	    features: {attendance: true}
//	bindings:
//	  - principal_id: u1
//	    tenant_id: t1
func LoadMemoryDirectory(r io.Reader) (*MemoryDirectory, error) {
	var f directoryFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode tenant directory: %w", err)
	}

	d := NewMemoryDirectory()
	for _, t := range f.Tenants {
		if t.Status != "" && !t.Status.Valid() {
			return nil, fmt.Errorf("tenant %q: unknown status %q", t.ID, t.Status)
		}
		d.AddTenant(t)
	}
	for _, b := range f.Bindings {
		if err := errors.Join(checkID(b.PrincipalID), checkID(b.TenantID)); err != nil {
			return nil, fmt.Errorf("binding %q -> %q: %w", b.PrincipalID, b.TenantID, err)
		}
		d.Bind(b.PrincipalID, b.TenantID)
	}
	return d, nil
}
