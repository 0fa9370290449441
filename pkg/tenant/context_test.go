package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithTenant(context.Background(), activeTenant("t1"))

		got, ok := tenant.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "t1", got.ID)

		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "t1", id)
		assert.Equal(t, "t1", tenant.MustFromContext(ctx).ID)

		got, err := tenant.RequireFromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)
	})

	t.Run("missing tenant", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		_, ok := tenant.FromContext(ctx)
		assert.False(t, ok)
		_, ok = tenant.IDFromContext(ctx)
		assert.False(t, ok)
		assert.PanicsWithError(t, tenant.ErrNoTenantInContext.Error(), func() { tenant.MustFromContext(ctx) })

		_, err := tenant.RequireFromContext(ctx)
		require.ErrorIs(t, err, tenant.ErrNoTenantInContext)
	})

	t.Run("nil tenant is treated as missing", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithTenant(context.Background(), nil)
		_, ok := tenant.FromContext(ctx)
		assert.False(t, ok)
	})

	t.Run("logger extractor", func(t *testing.T) {
		t.Parallel()

		extract := tenant.LoggerExtractor()

		attr, ok := extract(tenant.WithTenant(context.Background(), activeTenant("t1")))
		require.True(t, ok)
		assert.Equal(t, "tenant_id", attr.Key)
		assert.Equal(t, "t1", attr.Value.String())

		_, ok = extract(context.Background())
		assert.False(t, ok)
	})
}
