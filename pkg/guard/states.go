package guard

import (
	"context"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/statemachine"
)

var (
	StateUnauthenticated = statemachine.StringState("unauthenticated")
	StateSessionReady    = statemachine.StringState("session_ready")
	StateTenantResolving = statemachine.StringState("tenant_resolving")
	StateTenantReady     = statemachine.StringState("tenant_ready")
	StateError           = statemachine.StringState("error")
)

var (
	EventSessionEstablished = statemachine.StringEvent("session_established")
	EventResolveStarted     = statemachine.StringEvent("resolve_started")
	EventResolved           = statemachine.StringEvent("resolved")
	EventResolveFailed      = statemachine.StringEvent("resolve_failed")
	EventRetry              = statemachine.StringEvent("retry")
	EventRefresh            = statemachine.StringEvent("refresh")
	EventSessionEnded       = statemachine.StringEvent("session_ended")
)

var allStates = []statemachine.State{
	StateUnauthenticated,
	StateSessionReady,
	StateTenantResolving,
	StateTenantReady,
	StateError,
}

// newMachine builds the session lifecycle. Completion events carry the
// generation that started the resolution and are rejected once it is stale.
func newMachine(current func() uint64) statemachine.StateMachine {
	sameGeneration := func(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
		gen, ok := data.(uint64)
		return ok && gen == current()
	}

	return statemachine.MustNew(StateUnauthenticated,
		statemachine.WithTransition(StateUnauthenticated, StateSessionReady, EventSessionEstablished),
		statemachine.WithTransition(StateSessionReady, StateTenantResolving, EventResolveStarted),
		statemachine.WithTransition(StateTenantResolving, StateTenantReady, EventResolved,
			statemachine.WithGuard(sameGeneration)),
		statemachine.WithTransition(StateTenantResolving, StateError, EventResolveFailed,
			statemachine.WithGuard(sameGeneration)),
		statemachine.WithTransition(StateError, StateTenantResolving, EventRetry),
		statemachine.WithTransition(StateTenantReady, StateTenantResolving, EventRefresh),
		statemachine.WithTransitionFrom(allStates, StateUnauthenticated, EventSessionEnded),
	)
}
