package txn

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/dmitrymomot/repocore/core/logger"
	"github.com/dmitrymomot/repocore/core/thread"
)

// Manager coordinates the backend transactions of the unit of work bound to a
// thread slot (see package thread). Every slot has its own active list and
// rollback-only marks; operations never observe another slot's state.
//
// Any failure while beginning or committing rolls back every active
// transaction in the slot and returns an *Error.
type Manager struct {
	loader      Loader
	logger      *slog.Logger
	afterCommit []AfterCommitFunc
}

// NewManager creates a manager drawing backends from loader.
func NewManager(loader Loader, opts ...Option) *Manager {
	m := &Manager{
		loader: loader,
		logger: defaultLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// state is the per-slot transaction state.
type state struct {
	active       []Participant
	rollbackOnly map[Kind]struct{}
}

type stateKey struct{ m *Manager }

func (s *state) index(kind Kind) int {
	return slices.IndexFunc(s.active, func(p Participant) bool { return p.Kind == kind })
}

func (s *state) remove(kind Kind) {
	if i := s.index(kind); i >= 0 {
		s.active = slices.Delete(s.active, i, i+1)
	}
	delete(s.rollbackOnly, kind)
}

// targets returns the active participants named by ks, or all of them when ks
// is empty. Kinds that are not active are skipped.
func (s *state) targets(ks []Kind) []Participant {
	if len(ks) == 0 {
		return slices.Clone(s.active)
	}
	out := make([]Participant, 0, len(ks))
	for _, p := range s.active {
		if slices.Contains(ks, p.Kind) {
			out = append(out, p)
		}
	}
	return out
}

// lookup returns the slot state without creating it.
func (m *Manager) lookup(ctx context.Context) *state {
	st, _ := thread.Value[*state](ctx, stateKey{m})
	return st
}

// acquire returns the slot state, creating it on first use.
func (m *Manager) acquire(ctx context.Context) (*thread.Thread, *state, error) {
	t, err := thread.Must(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrIllegalState, err)
	}
	if v, ok := t.Load(stateKey{m}); ok {
		return t, v.(*state), nil
	}
	st := &state{rollbackOnly: make(map[Kind]struct{})}
	t.Store(stateKey{m}, st)
	return t, st, nil
}

// release drops the slot state once the unit of work is over.
func (m *Manager) release(t *thread.Thread, st *state) {
	if len(st.active) == 0 {
		t.Delete(stateKey{m})
	}
}

// Begin starts a unit of work. Without kinds it begins every ready backend
// and fails with ErrIllegalState if any transaction is already active. With
// kinds it begins exactly those and fails if one of them is already active.
func (m *Manager) Begin(ctx context.Context, ks ...Kind) error {
	t, st, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer m.release(t, st)

	var ps []Participant
	if len(ks) == 0 {
		if len(st.active) > 0 {
			return usageError("cannot begin, transactions already active: %v", kinds(st.active))
		}
		ps = m.loader.Load(ctx)
	} else {
		for _, k := range ks {
			if st.index(k) >= 0 {
				return usageError("cannot begin %s, already active", k)
			}
		}
		if ps, err = m.resolve(ctx, ks); err != nil {
			return err
		}
	}

	return m.begin(ctx, st, OpBegin, ps)
}

// Require ensures transactions are active. Without kinds it begins every ready
// backend that is not active yet; with kinds it begins those that are not.
// Already active transactions are left untouched.
func (m *Manager) Require(ctx context.Context, ks ...Kind) error {
	t, st, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer m.release(t, st)

	var ps []Participant
	if len(ks) == 0 {
		for _, p := range m.loader.Load(ctx) {
			if st.index(p.Kind) < 0 {
				ps = append(ps, p)
			}
		}
	} else {
		missing := make([]Kind, 0, len(ks))
		for _, k := range ks {
			if st.index(k) < 0 {
				missing = append(missing, k)
			}
		}
		if len(missing) == 0 {
			return nil
		}
		if ps, err = m.resolve(ctx, missing); err != nil {
			return err
		}
	}

	return m.begin(ctx, st, OpRequire, ps)
}

// resolve picks fresh instances of ks from the loader, deduplicated, in the
// requested order.
func (m *Manager) resolve(ctx context.Context, ks []Kind) ([]Participant, error) {
	loaded := m.loader.Load(ctx)
	out := make([]Participant, 0, len(ks))
	for _, k := range ks {
		if slices.ContainsFunc(out, func(p Participant) bool { return p.Kind == k }) {
			continue
		}
		i := slices.IndexFunc(loaded, func(p Participant) bool { return p.Kind == k })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
		}
		out = append(out, loaded[i])
	}
	return out, nil
}

// begin starts ps in order, appending each to the active list once it began.
func (m *Manager) begin(ctx context.Context, st *state, op Op, ps []Participant) error {
	for _, p := range ps {
		if err := p.Begin(ctx); err != nil {
			m.logger.ErrorContext(ctx, "failed to begin transaction, rolling back unit of work",
				logger.Component("txn"),
				logger.TxKind(string(p.Kind)),
				logger.TxKinds(kinds(st.active)),
				logger.Error(err))
			return &Error{Op: op, Kind: p.Kind, Err: err, Suppressed: m.rollbackAll(ctx, st)}
		}
		st.active = append(st.active, p)
		m.logger.DebugContext(ctx, "transaction started",
			logger.Component("txn"),
			logger.TxKind(string(p.Kind)))
	}
	return nil
}

// Commit commits the active transactions named by ks, or all of them when ks
// is empty, and then runs the after-commit hooks.
func (m *Manager) Commit(ctx context.Context, ks ...Kind) error {
	return m.CommitKinds(ctx, ks)
}

// CommitKinds is Commit with per-call options.
//
// Targets commit in descending CommitPriority; ties keep their begin order.
// If any target is rollback-only, the targets are rolled back and nothing is
// committed; active kinds outside ks are left untouched. If a commit fails,
// every transaction still active in the slot is rolled back and an *Error is
// returned.
//
// A commit failure is not atomic across backends: targets that committed
// before the failing one stay committed, so a caller that sees an OpCommit
// error must treat higher-priority backends as already written.
func (m *Manager) CommitKinds(ctx context.Context, ks []Kind, opts ...CommitOption) error {
	o := &commitOptions{}
	for _, opt := range opts {
		opt(o)
	}

	t, st, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer m.release(t, st)

	targets := st.targets(ks)
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].CommitPriority() > targets[j].CommitPriority()
	})

	for _, p := range targets {
		if _, marked := st.rollbackOnly[p.Kind]; marked {
			m.logger.WarnContext(ctx, "commit aborted, transaction is rollback-only",
				logger.Component("txn"),
				logger.TxKind(string(p.Kind)))
			return &Error{Op: OpCommit, Kind: p.Kind, Err: ErrRollbackOnly, Suppressed: m.rollback(ctx, st, targets)}
		}
	}

	for _, p := range targets {
		if err := p.Commit(ctx); err != nil {
			m.logger.ErrorContext(ctx, "failed to commit transaction, rolling back remaining",
				logger.Component("txn"),
				logger.TxKind(string(p.Kind)),
				logger.Priority(p.CommitPriority()),
				logger.Error(err))
			return &Error{Op: OpCommit, Kind: p.Kind, Err: err, Suppressed: m.rollbackAll(ctx, st)}
		}
		st.remove(p.Kind)
		m.logger.DebugContext(ctx, "transaction committed",
			logger.Component("txn"),
			logger.TxKind(string(p.Kind)),
			logger.Priority(p.CommitPriority()))
	}

	if !o.skipAfterCommit {
		m.runAfterCommit(ctx)
	}
	return nil
}

func (m *Manager) runAfterCommit(ctx context.Context) {
	for _, fn := range m.afterCommit {
		if err := fn(ctx); err != nil {
			m.logger.WarnContext(ctx, "after-commit hook failed",
				logger.Component("txn"),
				logger.Error(err))
		}
	}
}

// Rollback rolls back the active transactions named by ks, or all of them
// when ks is empty. Every target is attempted and leaves the active list
// whatever the outcome; failures are aggregated into one *Error.
func (m *Manager) Rollback(ctx context.Context, ks ...Kind) error {
	t, st, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer m.release(t, st)

	if errs := m.rollback(ctx, st, st.targets(ks)); len(errs) > 0 {
		return &Error{Op: OpRollback, Err: ErrRollbackFailed, Suppressed: errs}
	}
	return nil
}

// rollbackAll rolls back everything active in the slot.
func (m *Manager) rollbackAll(ctx context.Context, st *state) []error {
	return m.rollback(ctx, st, slices.Clone(st.active))
}

func (m *Manager) rollback(ctx context.Context, st *state, ps []Participant) []error {
	var merr *multierror.Error
	for _, p := range ps {
		err := p.Rollback(ctx)
		st.remove(p.Kind)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("rollback %s: %w", p.Kind, err))
			m.logger.ErrorContext(ctx, "failed to roll back transaction",
				logger.Component("txn"),
				logger.TxKind(string(p.Kind)),
				logger.Error(err))
			continue
		}
		m.logger.DebugContext(ctx, "transaction rolled back",
			logger.Component("txn"),
			logger.TxKind(string(p.Kind)))
	}
	return merr.WrappedErrors()
}

// SetRollbackOnly marks the active transactions named by ks, or all of them
// when ks is empty, so that the next commit rolls back instead.
func (m *Manager) SetRollbackOnly(ctx context.Context, ks ...Kind) error {
	t, st, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer m.release(t, st)

	for _, p := range st.targets(ks) {
		st.rollbackOnly[p.Kind] = struct{}{}
	}
	return nil
}

// HasActive reports whether any transaction is active in the slot.
func (m *Manager) HasActive(ctx context.Context) bool {
	st := m.lookup(ctx)
	return st != nil && len(st.active) > 0
}

// IsActive reports whether kind is active in the slot.
func (m *Manager) IsActive(ctx context.Context, kind Kind) bool {
	st := m.lookup(ctx)
	return st != nil && st.index(kind) >= 0
}

// ListActive returns the active kinds in begin order.
func (m *Manager) ListActive(ctx context.Context) []Kind {
	st := m.lookup(ctx)
	if st == nil {
		return nil
	}
	return kinds(st.active)
}

// HasRollbackOnly reports whether any active transaction is marked rollback-only.
func (m *Manager) HasRollbackOnly(ctx context.Context) bool {
	st := m.lookup(ctx)
	return st != nil && len(st.rollbackOnly) > 0
}

// IsRollbackOnly reports whether kind is marked rollback-only.
func (m *Manager) IsRollbackOnly(ctx context.Context, kind Kind) bool {
	st := m.lookup(ctx)
	if st == nil {
		return false
	}
	_, ok := st.rollbackOnly[kind]
	return ok
}

// ListRollbackOnly returns the rollback-only kinds in begin order.
func (m *Manager) ListRollbackOnly(ctx context.Context) []Kind {
	st := m.lookup(ctx)
	if st == nil {
		return nil
	}
	var out []Kind
	for _, p := range st.active {
		if _, ok := st.rollbackOnly[p.Kind]; ok {
			out = append(out, p.Kind)
		}
	}
	return out
}

// Active returns the active transaction instance of kind in the slot.
func (m *Manager) Active(ctx context.Context, kind Kind) (Transaction, bool) {
	st := m.lookup(ctx)
	if st == nil {
		return nil, false
	}
	if i := st.index(kind); i >= 0 {
		return st.active[i].Transaction, true
	}
	return nil, false
}

// Active returns the active transaction of kind with its concrete type.
func Active[T Transaction](ctx context.Context, m *Manager, kind Kind) (T, bool) {
	var zero T
	tx, ok := m.Active(ctx, kind)
	if !ok {
		return zero, false
	}
	t, ok := tx.(T)
	return t, ok
}

// IsReady reports whether the loader can provide kind.
func (m *Manager) IsReady(ctx context.Context, kind Kind) bool {
	return m.loader.IsReady(ctx, kind)
}
