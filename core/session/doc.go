// Package session carries identity, locale, keyed state and deferred
// post-commit work across the units of work a user's requests run in.
//
// # Core Components
//
//   - Session: concurrent key-value store, UserInformation, locale, client IP,
//     request metadata, access counters and the per-slot on-commit queue
//   - Manager: session registry, per-slot binding and locking, lifecycle events
//   - DoAs: runs code against a temporary overlay of identity, locale, IP and values
//
// Sessions are bound to the unit-of-work slot carried by the context (see
// package thread). A slot must be unlocked, or given a session explicitly,
// before CurrentSession will create one:
//
//	m := session.NewManager(session.WithLogger(log))
//	defer m.Close(ctx)
//
//	ctx = thread.New(ctx)
//	if err := m.Unlock(ctx); err != nil {
//		return err
//	}
//	s, err := m.CurrentSession(ctx)
//	if err != nil {
//		return err
//	}
//	defer m.ReleaseCurrentSession(ctx)
//
//	s.Put(ctx, "cart", cart)
//	s.SetLocale(ctx, language.English)
//
// # Identity
//
// SetUserInformation guards against privilege escalation through session
// reuse: Guest, System and the configured superuser may switch to anyone,
// every other user only to guest, system or themselves.
//
//	if err := s.SetUserInformation(ctx, session.User{ID: "alice"}); err != nil {
//		return err
//	}
//	err := s.SetUserInformation(ctx, session.User{ID: "mallory"}) // ErrUserTransition
//
// # Deferred Work
//
// OnCommit queues work for after the transaction manager commits. The
// manager's SubmitOnCommitTasks is meant to be installed with
// txn.WithAfterCommit:
//
//	s.OnCommit(ctx, func(ctx context.Context) error {
//		return mailer.Send(ctx, receipt)
//	})
//
// Tasks run concurrently on the executor, each in its own slot with the session
// bound. When the executor is saturated a task runs synchronously.
//
// # Scoped Sessions
//
// DoAs evaluates code as someone else without touching the base session:
//
//	allowed, err := session.DoAs(ctx, s, session.ScopedValues{User: reviewer},
//		func(ctx context.Context) (bool, error) {
//			return acl.Check(ctx, s.UserInformation(ctx), doc)
//		})
//
// Other slots keep seeing the base session while the scope runs, and the
// caller's slot reverts when fn returns or panics.
//
// # Lifecycle Events
//
// Listeners receive Created, Activated, Passivated and Destroyed events.
// Activated and Passivated fire when the number of slots holding the session
// goes from 0 to 1 and back to 0.
//
//	m.AddListener(event.Listen(func(ctx context.Context, e session.Event) {
//		log.Info("session event", "type", e.Type, "accessors", e.ConcurrentAccessors)
//	}))
package session
