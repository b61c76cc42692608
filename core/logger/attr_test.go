package logger_test

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/repocore/core/logger"
)

func TestGroup(t *testing.T) {
	t.Parallel()
	attr := logger.Group("tx", slog.String("kind", "pg"), slog.Int("n", 2))
	require.Equal(t, "tx", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "kind", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

// ============================================================================
// Error Handling Tests
// ============================================================================

func TestErrors(t *testing.T) {
	t.Parallel()
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	t.Parallel()
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestPanic(t *testing.T) {
	t.Parallel()
	attr := logger.Panic("boom")
	require.Equal(t, "panic", attr.Key)
	assert.Equal(t, "boom", attr.Value.Any())
	assert.True(t, logger.Panic(nil).Equal(slog.Attr{}))
}

// ============================================================================
// Timing Tests
// ============================================================================

func TestDuration(t *testing.T) {
	t.Parallel()
	attr := logger.Duration(2 * time.Second)
	require.Equal(t, "duration", attr.Key)
	assert.Equal(t, 2*time.Second, attr.Value.Duration())
}

func TestElapsed(t *testing.T) {
	t.Parallel()
	start := time.Now().Add(-time.Second)
	attr := logger.Elapsed(start)
	require.Equal(t, "elapsed", attr.Key)
	assert.GreaterOrEqual(t, attr.Value.Duration(), time.Second)
}

// ============================================================================
// Identifier Tests
// ============================================================================

func TestID(t *testing.T) {
	t.Parallel()
	attr := logger.ID("order_id", 42)
	require.Equal(t, "order_id", attr.Key)
	assert.Equal(t, int64(42), attr.Value.Int64())
	assert.True(t, logger.ID("x", nil).Equal(slog.Attr{}))
}

func TestSessionID(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	attr := logger.SessionID(id)
	require.Equal(t, "session_id", attr.Key)
	assert.Equal(t, id.String(), attr.Value.String())
	assert.True(t, logger.SessionID(uuid.Nil).Equal(slog.Attr{}))
}

func TestThreadID(t *testing.T) {
	t.Parallel()
	attr := logger.ThreadID(7)
	require.Equal(t, "thread_id", attr.Key)
	assert.Equal(t, uint64(7), attr.Value.Uint64())
	assert.True(t, logger.ThreadID(0).Equal(slog.Attr{}))
}

func TestUserID(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "alice", logger.UserID("alice").Value.String())
	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
}

// ============================================================================
// Transaction Tests
// ============================================================================

type kind string

func TestTxKind(t *testing.T) {
	t.Parallel()
	attr := logger.TxKind("pg")
	require.Equal(t, "tx_kind", attr.Key)
	assert.Equal(t, "pg", attr.Value.String())
	assert.True(t, logger.TxKind("").Equal(slog.Attr{}))
}

func TestTxKinds(t *testing.T) {
	t.Parallel()
	attr := logger.TxKinds([]kind{"pg", "opensearch"})
	require.Equal(t, "tx_kinds", attr.Key)
	assert.Equal(t, []string{"pg", "opensearch"}, attr.Value.Any())
}

func TestPriority(t *testing.T) {
	t.Parallel()
	attr := logger.Priority(10)
	require.Equal(t, "priority", attr.Key)
	assert.Equal(t, int64(10), attr.Value.Int64())
}

// ============================================================================
// Generic Metadata Tests
// ============================================================================

func TestMetadata(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "component", logger.Component("txn").Key)
	assert.Equal(t, "event", logger.Event("created").Key)
	assert.Equal(t, "action", logger.Action("commit").Key)

	count := logger.Count("tasks", 3)
	require.Equal(t, "tasks", count.Key)
	assert.Equal(t, int64(3), count.Value.Int64())

	key := logger.Key("k", "v")
	require.Equal(t, "k", key.Key)
	assert.Equal(t, "v", key.Value.String())
	assert.True(t, logger.Key("k", nil).Equal(slog.Attr{}))
}

// ============================================================================
// Debugging Tests
// ============================================================================

func TestStack(t *testing.T) {
	t.Parallel()
	attr := logger.Stack()
	require.Equal(t, "stack", attr.Key)
	stack := attr.Value.String()
	assert.Contains(t, stack, "TestStack")
	assert.Contains(t, stack, "attr_test.go")
}

func TestCaller(t *testing.T) {
	t.Parallel()
	attr := logger.Caller()
	require.Equal(t, "caller", attr.Key)
	caller := attr.Value.String()
	assert.Contains(t, caller, "attr_test.go")
	parts := strings.Split(caller, ":")
	assert.Len(t, parts, 2)
}

func TestCallSite(t *testing.T) {
	t.Parallel()
	attr := logger.CallSite("first_activation", "file.go:10")
	require.Equal(t, "first_activation", attr.Key)
	assert.True(t, logger.CallSite("x", "").Equal(slog.Attr{}))
}
