package txn_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrymomot/repocore/core/txn"
)

// journal records backend calls in order across fake transactions.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(kind txn.Kind, op string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, fmt.Sprintf("%s.%s", kind, op))
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.calls)
}

func (j *journal) count(call string) int {
	n := 0
	for _, c := range j.all() {
		if c == call {
			n++
		}
	}
	return n
}

// fakeTx is a scriptable backend transaction.
type fakeTx struct {
	kind        txn.Kind
	priority    int
	notReady    bool
	beginErr    error
	commitErr   error
	rollbackErr error
	j           *journal

	active bool
}

func (f *fakeTx) IsReady() bool { return !f.notReady }

func (f *fakeTx) CommitPriority() int { return f.priority }

func (f *fakeTx) Begin(context.Context) error {
	f.j.add(f.kind, "begin")
	if f.active {
		return txn.ErrAlreadyActive
	}
	if f.beginErr != nil {
		return f.beginErr
	}
	f.active = true
	return nil
}

func (f *fakeTx) Commit(context.Context) error {
	f.j.add(f.kind, "commit")
	if !f.active {
		return txn.ErrNotActive
	}
	if f.commitErr != nil {
		return f.commitErr
	}
	f.active = false
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.j.add(f.kind, "rollback")
	if !f.active {
		return txn.ErrNotActive
	}
	f.active = false
	return f.rollbackErr
}

// backend describes a fake kind registered with newRegistry.
type backend struct {
	kind        txn.Kind
	priority    int
	notReady    bool
	beginErr    error
	commitErr   error
	rollbackErr error
}

func newRegistry(j *journal, backends ...backend) *txn.Registry {
	reg := txn.NewRegistry()
	for _, b := range backends {
		reg.MustRegister(b.kind, func() txn.Transaction {
			return &fakeTx{
				kind:        b.kind,
				priority:    b.priority,
				notReady:    b.notReady,
				beginErr:    b.beginErr,
				commitErr:   b.commitErr,
				rollbackErr: b.rollbackErr,
				j:           j,
			}
		})
	}
	return reg
}
