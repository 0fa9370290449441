package guard

import "errors"

var (
	ErrSessionEnded  = errors.New("session ended before the tenant was resolved")
	ErrNoSession     = errors.New("no active session")
	ErrTenantPending = errors.New("tenant resolution in progress")
	ErrNotRetryable  = errors.New("no failed resolution to retry")
	ErrNotReady      = errors.New("tenant is not ready")
	ErrClosed        = errors.New("guard is closed")
)
