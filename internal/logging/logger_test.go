package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWriter(t *testing.T) {
	t.Run("renames the error key", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWriter(&buf, slog.LevelInfo)

		log.Warn("listener failed", "error", errors.New("boom"))

		assert.Contains(t, buf.String(), "err=boom")
		assert.NotContains(t, buf.String(), "error=")
	})

	t.Run("filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWriter(&buf, slog.LevelWarn)

		log.Debug("transaction closed")

		assert.Empty(t, buf.String())
	})
}

func TestNewNop(t *testing.T) {
	log := NewNop()

	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
	log.Error("dropped")
}
