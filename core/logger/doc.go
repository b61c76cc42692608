// Package logger provides structured logging utilities built on Go's standard slog package.
//
// # Features
//
//   - Built on Go's standard slog for compatibility and performance
//   - Environment-specific configurations (development, production)
//   - Attribute helpers for sessions, unit-of-work slots and transactions
//   - Type-safe attribute creation with nil safety
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/repocore/core/logger"
//
//	// Development: text format, debug level, stdout
//	log := logger.New(logger.WithDevelopment("repocore"))
//
//	// Production: JSON format, info level, stdout
//	log := logger.New(
//		logger.WithProduction("repocore"),
//		logger.WithAttr(slog.String("node", hostname)),
//	)
//
// Library components default to logger.Discard() and accept a *slog.Logger through
// their WithLogger options.
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for zero values, so they can be passed
// unconditionally:
//
//	log.ErrorContext(ctx, "commit failed",
//		logger.Component("txn"),
//		logger.TxKind(string(kind)),
//		logger.Priority(priority),
//		logger.Error(err),
//	)
//
//	log.WarnContext(ctx, "session activated twice in the same unit of work",
//		logger.SessionID(s.ID()),
//		logger.ThreadID(t.ID()),
//		logger.CallSite("first_activation", site),
//	)
//
// Multiple failures are grouped with index keys:
//
//	log.Error("rollback failed", logger.Errors(errs...))
package logger
