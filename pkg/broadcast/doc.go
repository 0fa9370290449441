// Package broadcast fans values out to in-memory subscribers.
//
// The race guard publishes a snapshot of the current tenant state on every
// transition; screens subscribe to re-render when the tenant becomes ready or
// the session ends. Delivery never blocks the publisher: a subscriber whose
// buffer is full loses its oldest queued value, so the latest state always
// gets through.
//
//	b := broadcast.New[State](4)
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//	for s := range sub.Receive() {
//		render(s)
//	}
package broadcast
