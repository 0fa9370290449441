package tenancy_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/svc/tenancy"
)

func TestFromHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	id, err := tenancy.FromHeader("")(req)
	require.NoError(t, err)
	assert.Empty(t, id)

	req.Header.Set("X-School", "  springfield  ")
	id, err = tenancy.FromHeader("X-School")(req)
	require.NoError(t, err)
	assert.Equal(t, "springfield", id)

	req.Header.Set("X-School", strings.Repeat("a", 129))
	_, err = tenancy.FromHeader("X-School")(req)
	require.ErrorIs(t, err, tenancy.ErrInvalidIdentifier)
}

func TestFromSubdomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host    string
		suffix  string
		want    string
		wantErr bool
	}{
		{host: "springfield.schools.example", want: "springfield"},
		{host: "springfield.schools.example:8080", want: "springfield"},
		{host: "www.springfield.schools.example", want: "springfield"},
		{host: "springfield.eu.schools.example", suffix: ".eu.schools.example", want: "springfield"},
		{host: "schools.example", want: ""},
		{host: "localhost", want: ""},
		{host: "-bad.schools.example", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host

			id, err := tenancy.FromSubdomain(tt.suffix)(req)
			if tt.wantErr {
				require.ErrorIs(t, err, tenancy.ErrInvalidIdentifier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		position int
		want     string
		wantErr  bool
	}{
		{path: "/schools/t1/students", position: 2, want: "t1"},
		{path: "/schools/t1/", position: 2, want: "t1"},
		{path: "/schools", position: 2, want: ""},
		{path: "/", position: 1, want: ""},
		{path: "/schools/t1", position: 0, wantErr: true},
		{path: "/schools/t%20x/students", position: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			id, err := tenancy.FromPath(tt.position)(req)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestFirstOf(t *testing.T) {
	t.Parallel()

	extract := tenancy.FirstOf(tenancy.FromHeader(""), tenancy.FromPath(2))

	req := httptest.NewRequest(http.MethodGet, "/schools/t2/students", nil)
	id, err := extract(req)
	require.NoError(t, err)
	assert.Equal(t, "t2", id)

	req.Header.Set(tenancy.DefaultTenantHeader, "t1")
	id, err = extract(req)
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(tenancy.DefaultTenantHeader, "bad value")
	_, err = extract(req)
	require.ErrorIs(t, err, tenancy.ErrInvalidIdentifier)

	// A valid path id does not mask a malformed header.
	req = httptest.NewRequest(http.MethodGet, "/schools/t2/students", nil)
	req.Header.Set(tenancy.DefaultTenantHeader, "t1;drop")
	id, err = extract(req)
	require.ErrorIs(t, err, tenancy.ErrInvalidIdentifier)
	assert.Empty(t, id)

	id, err = extract(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Empty(t, id)
}
