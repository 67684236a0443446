package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureHandlerRecords(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Info("upload received", slog.String("filename", "wells.csv"))
	logger.Warn("slow request", slog.Int("duration_ms", 1200))

	records := handler.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "upload received", records[0].Message)
	assert.Equal(t, "wells.csv", records[0].Attrs["filename"])

	assert.True(t, handler.ContainsMessage("slow request"))
	assert.True(t, handler.ContainsAttr("duration_ms", int64(1200)))
	assert.False(t, handler.ContainsAttr("duration_ms", int64(1)))
}

func TestCaptureHandlerWithAttrsSharesBuffer(t *testing.T) {
	logger, handler := NewTestLogger(t)

	component := logger.With(slog.String("component", "processor"))
	component.Info("file processed")

	require.Len(t, handler.Records(), 1)
	assert.True(t, handler.ContainsAttr("component", "processor"))
}

func TestRecordsAtFiltersByLevel(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Debug("noise")
	logger.Error("boom")

	require.Len(t, handler.RecordsAt(slog.LevelError), 1)
	assert.Empty(t, handler.RecordsAt(slog.LevelWarn))
}
