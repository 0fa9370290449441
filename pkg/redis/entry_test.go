package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

func TestCacheEntryEncoding(t *testing.T) {
	t.Parallel()

	fetched := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	data, err := encodeEntry(cacheEntry{
		Tenant:    &tenant.Tenant{ID: "t1", Name: "Springfield", Status: tenant.StatusActive},
		FetchedAt: fetched,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tenant":{"id":"t1","name":"Springfield","status":"active"},"fetched_at":"2025-09-01T08:00:00Z"}`, string(data))

	entry, err := decodeEntry(data)
	require.NoError(t, err)
	assert.Equal(t, "t1", entry.Tenant.ID)
	assert.True(t, entry.FetchedAt.Equal(fetched))

	_, err = decodeEntry([]byte(`{"fetched_at":"2025-09-01T08:00:00Z"}`))
	require.Error(t, err)
	_, err = decodeEntry([]byte(`not json`))
	require.Error(t, err)
}
