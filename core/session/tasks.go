package session

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/repocore/core/logger"
	"github.com/dmitrymomot/repocore/core/thread"
	"github.com/dmitrymomot/repocore/pkg/async"
)

// OnCommit queues task to run after the current unit of work commits.
// The queue belongs to the caller's slot and is dropped on passivation.
func (s *Session) OnCommit(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", ErrIllegalState)
	}
	t, err := thread.Must(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIllegalState, err)
	}
	st := s.acquireSlot(t)
	st.tasks = append(st.tasks, task)
	return nil
}

// PendingTasks returns how many tasks are queued in the caller's slot.
func (s *Session) PendingTasks(ctx context.Context) int {
	if st := s.slot(ctx); st != nil {
		return len(st.tasks)
	}
	return 0
}

// SubmitOnCommitTasks drains the caller's queue and runs every task on the
// executor, each in a fresh slot with this session bound. A task the executor
// cannot take runs synchronously instead; if it fails there it is logged and
// dropped. SubmitOnCommitTasks returns once every task finished, joining the
// errors of the tasks that ran on the executor.
func (s *Session) SubmitOnCommitTasks(ctx context.Context) error {
	t, ok := thread.From(ctx)
	if !ok {
		return nil
	}
	v, ok := t.Load(slotKey{s})
	if !ok {
		return nil
	}
	st := v.(*slotState)
	tasks := st.tasks
	st.tasks = nil
	s.releaseSlot(t, st)

	if len(tasks) == 0 {
		return nil
	}

	log := s.manager.logger.With(logger.SessionID(s.ID()), logger.ThreadID(t.ID()))
	futures := make([]*async.ExecFuture, 0, len(tasks))
	for _, task := range tasks {
		run := s.bind(task)

		f, err := s.manager.pool.Submit(ctx, run)
		if err != nil {
			log.WarnContext(ctx, "on-commit task dispatch failed, running synchronously", logger.Error(err))
			if err := run(ctx); err != nil {
				log.ErrorContext(ctx, "on-commit task failed, abandoning it", logger.Error(err))
			}
			continue
		}
		futures = append(futures, f)
	}

	if err := async.AwaitAll(futures...); err != nil {
		log.ErrorContext(ctx, "on-commit tasks failed", logger.Error(err))
		return err
	}
	return nil
}

// bind wraps task so it runs in its own slot with s as the current session.
func (s *Session) bind(task Task) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx = thread.New(ctx)
		if err := s.manager.SetCurrentSession(ctx, s); err != nil {
			return err
		}
		defer s.manager.ReleaseCurrentSession(ctx)

		if err := async.Run(ctx, task); err != nil {
			return fmt.Errorf("on-commit task: %w", err)
		}
		return nil
	}
}
