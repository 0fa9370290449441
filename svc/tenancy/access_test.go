package tenancy_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/requestid"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/svc/tenancy"
)

func TestRequireAccess(t *testing.T) {
	t.Parallel()
	svc, dir, _ := newService(t)
	dir.AddTenant(tenant.Tenant{ID: "t3", Name: "Capital City High", Status: tenant.StatusPending})
	dir.Bind("u3", "t3")

	handler := svc.RequireAccess(tenancy.FromHeader(""))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := tenant.IDFromContext(r.Context())
		assert.True(t, ok)
		_, _ = w.Write([]byte(id))
	}))

	tests := []struct {
		name      string
		principal string
		header    string
		status    int
		body      string
	}{
		{name: "bound tenant", principal: "u1", header: "t1", status: http.StatusOK, body: "t1"},
		{name: "other tenant", principal: "u1", header: "t2", status: http.StatusForbidden},
		{name: "unbound principal", principal: "u9", header: "t1", status: http.StatusForbidden},
		{name: "pending tenant", principal: "u3", header: "t3", status: http.StatusForbidden},
		{name: "no principal", header: "t1", status: http.StatusUnauthorized},
		{name: "no tenant", principal: "u1", status: http.StatusBadRequest},
		{name: "malformed tenant", principal: "u1", header: "t1;drop", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/students", nil)
			if tt.header != "" {
				req.Header.Set(tenancy.DefaultTenantHeader, tt.header)
			}
			if tt.principal != "" {
				req = req.WithContext(tenancy.WithPrincipal(req.Context(), tt.principal))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRequireAccess_Options(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)

	t.Run("optional tenant passes through", func(t *testing.T) {
		t.Parallel()

		called := false
		handler := svc.RequireAccess(tenancy.FromHeader(""), tenancy.WithOptionalTenant())(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				_, ok := tenant.FromContext(r.Context())
				assert.False(t, ok)
			}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("custom principal and error handler", func(t *testing.T) {
		t.Parallel()

		var got error
		handler := svc.RequireAccess(tenancy.FromPath(2),
			tenancy.WithPrincipalFunc(func(r *http.Request) (string, bool) {
				return r.Header.Get("X-User"), r.Header.Get("X-User") != ""
			}),
			tenancy.WithAccessErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
				got = err
				w.WriteHeader(http.StatusTeapot)
			}),
		)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		handler = requestid.Middleware(handler)

		req := httptest.NewRequest(http.MethodGet, "/schools/t2/students", nil)
		req.Header.Set("X-User", "u1")
		req.Header.Set(requestid.Header, "r-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		require.ErrorIs(t, got, tenant.ErrTenantMismatch)

		var accessErr *tenant.AccessError
		require.ErrorAs(t, got, &accessErr)
		assert.Equal(t, "GET /schools/t2/students #r-1", accessErr.CallSite)
	})
}
