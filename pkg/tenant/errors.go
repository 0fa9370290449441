package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// Caller errors.
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrInvalidPrincipal       = errors.New("invalid principal identifier")
	ErrSuspectedArgumentOrder = errors.New("suspected argument order: tenant id passed where principal id was expected")

	// State errors.
	ErrNoTenantAssigned = errors.New("no tenant assigned to principal")
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrTenantInactive   = errors.New("tenant is inactive")
	ErrTenantMismatch   = errors.New("tenant does not match the principal's tenant")
	ErrNoBinding        = errors.New("principal is not a member of the tenant")
	ErrDuplicateBinding = errors.New("principal has more than one active tenant binding")

	// Transient errors.
	ErrResolutionFailed = errors.New("tenant resolution failed")

	ErrNoTenantInContext = errors.New("no tenant in context")
)

// AccessError describes a rejected tenant access check.
type AccessError struct {
	Reason           error
	PrincipalID      string
	TenantID         string
	ResolvedTenantID string
	CallSite         string
	Cause            error
}

func (e *AccessError) Error() string {
	var b strings.Builder
	b.WriteString("tenant access denied: ")
	b.WriteString(e.Reason.Error())
	fmt.Fprintf(&b, " (principal=%q tenant=%q", e.PrincipalID, e.TenantID)
	if e.ResolvedTenantID != "" {
		fmt.Fprintf(&b, " resolved=%q", e.ResolvedTenantID)
	}
	if e.CallSite != "" {
		fmt.Fprintf(&b, " call_site=%q", e.CallSite)
	}
	b.WriteString(")")
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *AccessError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Reason != nil {
		errs = append(errs, e.Reason)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Kind groups errors by how a caller can recover from them.
type Kind int

const (
	KindUnknown Kind = iota
	// KindCaller is a bug at the call site. Never retried.
	KindCaller
	// KindState needs out-of-band remediation: assignment, support or re-authentication.
	KindState
	// KindTransient may succeed if resolution is retried.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindCaller:
		return "caller"
	case KindState:
		return "state"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

// KindOf classifies err. Unrecognized non-nil errors are transient.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidPrincipal),
		errors.Is(err, ErrSuspectedArgumentOrder):
		return KindCaller
	case errors.Is(err, ErrResolutionFailed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	case isStateError(err),
		errors.Is(err, ErrTenantInactive),
		errors.Is(err, ErrTenantMismatch),
		errors.Is(err, ErrNoBinding):
		return KindState
	}
	return KindTransient
}

// isStateError reports errors a directory lookup produces deterministically.
// Retrying them cannot change the outcome.
func isStateError(err error) bool {
	return errors.Is(err, ErrNoTenantAssigned) ||
		errors.Is(err, ErrTenantNotFound) ||
		errors.Is(err, ErrDuplicateBinding)
}
