// Package guard coordinates the window between "session established" and
// "tenant resolved".
//
// The guard is a state machine:
//
//	unauthenticated -> session_ready -> tenant_resolving -> tenant_ready
//	                                          |
//	                                          +-> error -> (retry) tenant_resolving
//
// and session_ended returns to unauthenticated from any state.
//
// While a session is pending, CurrentTenant reports StatusPending, never a
// tenant cached for an earlier session and never a placeholder. Every session
// change advances a generation counter; a resolution that lands after its
// session ended or was replaced is discarded.
//
//	g := guard.New(resolver)
//	g.OnSessionEstablished(ctx, "u1")
//	switch cur := g.CurrentTenant(); cur.Status {
//	case guard.StatusPending:
//		// render a neutral loading state
//	case guard.StatusReady:
//		// cur.Tenant belongs to u1
//	}
//
// Middleware exposes the same contract to HTTP handlers.
package guard
