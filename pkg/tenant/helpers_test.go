package tenant_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) FetchMemberships(ctx context.Context, principalID string) ([]string, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDirectory) FetchTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func activeTenant(id string) *tenant.Tenant {
	return &tenant.Tenant{
		ID:       id,
		Name:     "School " + id,
		Status:   tenant.StatusActive,
		Features: map[string]bool{"attendance": true},
	}
}

// seededDirectory returns u1 -> t1 (active), u2 -> t2 (suspended),
// u3 -> t3 (pending) and u4 with no binding.
func seededDirectory() *tenant.MemoryDirectory {
	dir := tenant.NewMemoryDirectory()
	dir.AddTenant(*activeTenant("t1"))
	dir.AddTenant(tenant.Tenant{ID: "t2", Name: "Shelbyville", Status: tenant.StatusSuspended})
	dir.AddTenant(tenant.Tenant{ID: "t3", Name: "Capital City", Status: tenant.StatusPending})
	dir.Bind("u1", "t1")
	dir.Bind("u2", "t2")
	dir.Bind("u3", "t3")
	return dir
}

func fastRetry() tenant.ResolverOption {
	return tenant.WithRetry(2, time.Millisecond, time.Millisecond)
}
