// Package statemachine implements a small finite state machine with guarded
// transitions and transition actions.
//
// States and events are anything with a Name method; StringState and
// StringEvent cover the common case. Transitions are registered through
// functional options and looked up by (current state, event). When several
// transitions match, the first whose guards all pass wins, so guards double as
// branching conditions. Actions run before the state changes and can veto it
// by returning an error.
//
//	sm := statemachine.MustNew(Idle,
//		statemachine.WithTransition(Idle, Loading, Start),
//		statemachine.WithTransition(Loading, Ready, Loaded,
//			statemachine.WithGuard(isCurrentRequest),
//		),
//		statemachine.WithTransitionFrom([]statemachine.State{Idle, Loading, Ready}, Idle, Stop),
//	)
//
// Fire returns *ErrNoTransitionAvailable when the event is not valid in the
// current state and *ErrTransitionRejected when guards refused it. All methods
// are safe for concurrent use.
package statemachine
