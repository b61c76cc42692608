package session

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/repocore/core/logger"
	"github.com/dmitrymomot/repocore/core/thread"
)

// ScopedHintKey is present in the visible store while a scoped overlay is
// installed. Its value is the ScopedValues the scope was entered with.
const ScopedHintKey = "repocore:scoped"

// ScopedValues is the substitute state visible inside DoAs.
// A nil User, language.Und Locale or empty IP inherit the base session's value.
type ScopedValues struct {
	Values map[string]any
	User   UserInformation
	Locale language.Tag
	IP     string
}

// overlay is the live state of one installed scope.
type overlay struct {
	store  *store
	user   UserInformation
	locale language.Tag
	ip     string
}

// DoAs runs fn with v installed over the session in the caller's slot.
// See the package-level DoAs.
func (s *Session) DoAs(ctx context.Context, v ScopedValues, fn func(ctx context.Context) error) error {
	_, err := DoAs(ctx, s, v, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoAs installs v over s in the caller's slot, runs fn and returns its result.
//
// Inside fn every accessor of s reads and writes the overlay, other slots keep
// seeing the base session, and SetUserInformation fails with ErrScoped. When
// fn returns or panics, io.Closer values left in the overlay are closed and
// the slot reverts to what it was before, including an outer scope.
func DoAs[T any](ctx context.Context, s *Session, v ScopedValues, fn func(ctx context.Context) (T, error)) (result T, err error) {
	t, err := thread.Must(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrIllegalState, err)
	}
	if s.IsClosed() {
		return result, ErrClosed
	}

	o := &overlay{
		store:  newStore(v.Values),
		user:   v.User,
		locale: v.Locale,
		ip:     v.IP,
	}
	if o.user == nil {
		o.user = s.UserInformation(ctx)
	}
	if o.locale == language.Und {
		o.locale = s.Locale(ctx)
	}
	if o.ip == "" {
		o.ip = s.CurrentIP(ctx)
	}
	o.store.put(ScopedHintKey, v)

	st := s.acquireSlot(t)
	outer := st.overlay
	st.overlay = o

	defer func() {
		st.overlay = outer
		s.releaseSlot(t, st)

		if cerr := o.store.closeAll(); cerr != nil {
			s.manager.logger.WarnContext(ctx, "failed to close scoped session resources",
				logger.SessionID(s.ID()),
				logger.Error(cerr))
			err = errors.Join(err, cerr)
		}
	}()

	return fn(ctx)
}

// InScope reports whether a scoped overlay is installed in the caller's slot.
func (s *Session) InScope(ctx context.Context) bool {
	return s.current(ctx) != nil
}
