// Package logger provides a context-aware wrapper around log/slog used by every
// component of the tenancy layer.
//
// New builds a *slog.Logger from functional options (format, level, static
// attributes, environment presets) and wraps the handler with
// LogHandlerDecorator, which runs registered ContextExtractor callbacks on each
// record. tenant.LoggerExtractor is the main extractor: it stamps the tenant id
// carried by a request context onto every log line.
//
// Attribute helpers (PrincipalID, TenantID, CallSite, Reason, ...) keep key
// names consistent across packages. Helpers that receive an empty value return
// an empty slog.Attr, which slog drops, so call sites need no nil checks:
//
//	log.WarnContext(ctx, "tenant access denied",
//		logger.PrincipalID(principalID),
//		logger.TenantID(tenantID),
//		logger.Reason(err),
//	)
package logger
