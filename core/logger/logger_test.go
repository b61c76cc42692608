package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/repocore/core/logger"
)

func TestNewProduction(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithProduction("repocore"), logger.WithOutput(&buf))

	log.Debug("hidden")
	log.Info("visible", logger.Component("txn"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "visible", rec["msg"])
	assert.Equal(t, "repocore", rec["service"])
	assert.Equal(t, "production", rec["env"])
	assert.Equal(t, "txn", rec["component"])
}

func TestNewDevelopment(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithDevelopment("repocore"), logger.WithOutput(&buf))
	log.Debug("debug line")

	out := buf.String()
	assert.Contains(t, out, "debug line")
	assert.Contains(t, out, "env=development")
}

func TestNewLevelAndAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithLevel(slog.LevelWarn),
		logger.WithJSONFormatter(),
		logger.WithAttr(slog.String("node", "a")),
		logger.WithOutput(&buf),
	)
	log.Info("dropped")
	assert.Empty(t, buf.String())

	log.Warn("kept")
	assert.Contains(t, buf.String(), `"node":"a"`)
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	log := logger.Discard()
	require.NotNil(t, log)
	log.Error("nothing happens")
}
