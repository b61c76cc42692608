package txn

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/repocore/core/logger"
)

// AfterCommitFunc runs after a commit has succeeded. A returned error is
// logged; the commit itself is not affected.
type AfterCommitFunc func(ctx context.Context) error

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithAfterCommit adds hooks run after every successful commit,
// e.g. submitting a session's deferred on-commit tasks.
func WithAfterCommit(fns ...AfterCommitFunc) Option {
	return func(m *Manager) {
		for _, fn := range fns {
			if fn != nil {
				m.afterCommit = append(m.afterCommit, fn)
			}
		}
	}
}

func defaultLogger() *slog.Logger {
	return logger.Discard()
}

// CommitOption configures a single commit.
type CommitOption func(*commitOptions)

type commitOptions struct {
	skipAfterCommit bool
}

// WithoutOnCommitTasks skips the after-commit hooks for this commit.
func WithoutOnCommitTasks() CommitOption {
	return func(o *commitOptions) {
		o.skipAfterCommit = true
	}
}
