package session

import (
	"log/slog"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/repocore/pkg/async"
)

// Config holds the environment-driven session settings.
type Config struct {
	DefaultLanguage string `env:"REPOCORE_DEFAULT_LANGUAGE" envDefault:"de"`
	SuperUserID     string `env:"REPOCORE_SUPERUSER_ID" envDefault:"administrator"`
}

// Option is a functional option for configuring the session manager.
type Option func(*Manager)

// WithConfig applies cfg. An unparsable language keeps the current default.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		if tag, err := language.Parse(cfg.DefaultLanguage); err == nil {
			m.defaultLocale = tag
		}
		if cfg.SuperUserID != "" {
			m.superUserID = cfg.SuperUserID
		}
	}
}

// WithDefaultLanguage sets the locale of sessions that have none.
func WithDefaultLanguage(tag language.Tag) Option {
	return func(m *Manager) {
		if tag != language.Und {
			m.defaultLocale = tag
		}
	}
}

// WithSuperUserID sets the user id treated as superuser by the escalation guard.
func WithSuperUserID(id string) Option {
	return func(m *Manager) {
		if id != "" {
			m.superUserID = id
		}
	}
}

// WithExecutor sets the pool deferred on-commit tasks run on.
// The caller keeps ownership: Manager.Close does not close it.
func WithExecutor(p *async.Pool) Option {
	return func(m *Manager) {
		if p != nil {
			m.pool = p
			m.ownsPool = false
		}
	}
}

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}
