package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/repocore/core/logger"
)

// ErrNotReady is returned when at least one check failed.
var ErrNotReady = errors.New("service is not ready")

// Func is a single dependency check.
type Func func(context.Context) error

// Check is a named dependency check.
type Check struct {
	Name string
	Fn   Func
}

// Named attaches a name to fn for error reports and logs.
func Named(name string, fn func(context.Context) error) Check {
	return Check{Name: name, Fn: fn}
}

// Readiness returns a check that runs all checks concurrently. It fails with
// ErrNotReady joined with every individual failure. Nil checks are skipped.
func Readiness(log *slog.Logger, checks ...Check) Func {
	if log == nil {
		log = logger.Discard()
	}
	return func(ctx context.Context) error {
		errs := make([]error, len(checks))

		var g errgroup.Group
		for i, c := range checks {
			if c.Fn == nil {
				continue
			}
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("panic: %v", r)
					}
					if err != nil {
						errs[i] = fmt.Errorf("%s: %w", c.Name, err)
					}
				}()
				return c.Fn(ctx)
			})
		}
		_ = g.Wait()

		if err := errors.Join(errs...); err != nil {
			log.ErrorContext(ctx, "readiness check failed",
				logger.Component("health"),
				logger.Error(err))
			return errors.Join(ErrNotReady, err)
		}
		return nil
	}
}
