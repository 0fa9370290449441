// Package async provides a small generic Future type.
//
// The race guard starts every tenant resolution with Async and hands the
// Future back to the session source, so callers that need the tenant can wait
// on it while everything else observes a pending state:
//
//	f := async.Async(ctx, principalID, resolve)
//	t, err := f.AwaitContext(ctx)
package async
