package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// PrincipalID records the authenticated principal under the key "principal_id".
// Empty ids produce an empty Attr so callers can log unconditionally.
func PrincipalID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("principal_id", id)
}

// TenantID records a tenant identifier under the key "tenant_id".
func TenantID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("tenant_id", id)
}

// ResolvedTenantID records the tenant a principal actually belongs to.
func ResolvedTenantID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("resolved_tenant_id", id)
}

// CallSite records the caller-supplied operation label under the key "call_site".
func CallSite(site string) slog.Attr {
	if site == "" {
		return slog.Attr{}
	}
	return slog.String("call_site", site)
}

// Reason records a failure reason under the key "reason".
func Reason(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("reason", err.Error())
}

// Table records the storage table under the key "table".
func Table(name string) slog.Attr {
	return slog.String("table", name)
}

// Operation records a data operation name under the key "operation".
func Operation(op string) slog.Attr {
	return slog.String("operation", op)
}

// Generation records a session generation counter.
func Generation(gen uint64) slog.Attr {
	return slog.Uint64("generation", gen)
}

// State records a state machine state under the key "state".
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
