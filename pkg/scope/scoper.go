package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/logger"
	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/tenant"
)

// Scoper runs CRUD operations against a Store with the validated tenant
// injected into every filter and payload.
type Scoper struct {
	validator Validator
	store     Store
	column    string
	logger    *slog.Logger
}

// Option configures a Scoper.
type Option func(*Scoper)

// WithTenantColumn sets the tenant column name.
func WithTenantColumn(column string) Option {
	return func(s *Scoper) {
		if column = strings.TrimSpace(column); column != "" {
			s.column = column
		}
	}
}

// WithLogger sets the scoper logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scoper) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a scoper. Both validator and store are required.
func New(validator Validator, store Store, opts ...Option) *Scoper {
	if validator == nil || store == nil {
		panic("scope: validator and store are required")
	}

	s := &Scoper{
		validator: validator,
		store:     store,
		column:    DefaultTenantColumn,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("scope"))
	return s
}

// TenantColumn returns the column the tenant id is written to.
func (s *Scoper) TenantColumn() string {
	return s.column
}

// Execute validates the request's principal and tenant, then dispatches the
// operation. Validation failures are returned unchanged and the store is not
// called. Nothing is retried here.
func (s *Scoper) Execute(ctx context.Context, req Request) (*Result, error) {
	if !req.Operation.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, req.Operation)
	}
	if strings.TrimSpace(req.Table) == "" {
		return nil, ErrMissingTable
	}

	t, err := s.validator.Validate(ctx, tenant.Access{
		PrincipalID:   req.PrincipalID,
		TenantID:      req.TenantID,
		AllowInactive: req.AllowInactive,
		CallSite:      req.CallSite,
	})
	if err != nil {
		return nil, err
	}

	res, err := s.dispatch(ctx, req, t.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "scoped operation failed",
			logger.Operation(string(req.Operation)),
			logger.Table(req.Table),
			logger.PrincipalID(req.PrincipalID),
			logger.TenantID(t.ID),
			logger.CallSite(req.CallSite),
			logger.Error(err),
		)
		return nil, err
	}
	res.Tenant = t
	return res, nil
}

func (s *Scoper) dispatch(ctx context.Context, req Request, tenantID string) (*Result, error) {
	switch req.Operation {
	case OpCreate:
		row, err := s.store.Create(ctx, req.Table, s.scoped(req.Payload, tenantID))
		if err != nil {
			return nil, errors.Join(ErrStore, err)
		}
		if !s.owns(row, tenantID) {
			return nil, fmt.Errorf("%w: created row in %s", ErrForeignRow, req.Table)
		}
		return &Result{Rows: []Row{row}, Affected: 1}, nil

	case OpRead:
		rows, err := s.store.Read(ctx, req.Table, s.scoped(req.Filter, tenantID))
		if err != nil {
			return nil, errors.Join(ErrStore, err)
		}
		for _, row := range rows {
			if !s.owns(row, tenantID) {
				return nil, fmt.Errorf("%w: read from %s", ErrForeignRow, req.Table)
			}
		}
		return &Result{Rows: rows, Affected: int64(len(rows))}, nil

	case OpUpdate:
		n, err := s.store.Update(ctx, req.Table, s.scoped(req.Filter, tenantID), s.scoped(req.Payload, tenantID))
		if err != nil {
			return nil, errors.Join(ErrStore, err)
		}
		return &Result{Affected: n}, nil

	case OpDelete:
		n, err := s.store.Delete(ctx, req.Table, s.scoped(req.Filter, tenantID))
		if err != nil {
			return nil, errors.Join(ErrStore, err)
		}
		return &Result{Affected: n}, nil
	}
	return nil, ErrUnknownOperation
}

// scoped copies r with the tenant column overwritten.
func (s *Scoper) scoped(r Row, tenantID string) Row {
	out := r.Clone()
	out[s.column] = tenantID
	return out
}

func (s *Scoper) owns(row Row, tenantID string) bool {
	v, ok := row[s.column]
	if !ok {
		return false
	}
	return fmt.Sprint(v) == tenantID
}
