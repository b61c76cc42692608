// Package thread provides the unit-of-work slot that replaces thread-local
// storage for the transaction and session managers.
//
// A slot is attached to a context once, at the start of a unit of work, and
// then travels with that context through every call. Components keep their
// per-unit state in the slot under private keys:
//
//	ctx := thread.New(context.Background())
//
//	if err := txm.Begin(ctx); err != nil {
//		return err
//	}
//	// ... work ...
//	return txm.Commit(ctx)
//
// Two goroutines must never share a slot. To hand work to another goroutine,
// derive a new slot with thread.New; values stored in the parent slot are not
// inherited.
//
// # Keys
//
// Owners use unexported struct types as keys, the same way context keys are
// declared:
//
//	type stateKey struct{ m *Manager }
//
//	t, _ := thread.From(ctx)
//	t.Store(stateKey{m}, state)
//
// Keys may embed a pointer to the owner so that several independent managers
// can keep separate state in the same slot.
package thread
