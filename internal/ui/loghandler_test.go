package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/splinter/internal/ui"
)

// logPair mirrors the CLI setup: a console handler at the user's level and
// a JSON log file that records everything.
func logPair(consoleLevel slog.Level) (console, file *bytes.Buffer, m *ui.MultiHandler) {
	console, file = &bytes.Buffer{}, &bytes.Buffer{}
	m = ui.NewMultiHandler(
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: consoleLevel}),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	return console, file, m
}

func decodeLines(t *testing.T, b *bytes.Buffer) []map[string]any {
	t.Helper()
	var recs []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		recs = append(recs, rec)
	}
	return recs
}

func TestMultiHandler_QuietConsoleFullLogFile(t *testing.T) {
	t.Parallel()

	console, file, m := logPair(slog.LevelWarn)
	logger := slog.New(m)
	logger.Debug("starting split", "source", "disk.img", "chunk_size", 3000)
	logger.Warn("chunk failed verification", "chunk", "disk.img.002")

	assert.NotContains(t, console.String(), "starting split")
	assert.Contains(t, console.String(), "chunk=disk.img.002")

	recs := decodeLines(t, file)
	require.Len(t, recs, 2)
	assert.Equal(t, "starting split", recs[0]["msg"])
	assert.InDelta(t, 3000, recs[0]["chunk_size"], 0)
	assert.Equal(t, "chunk failed verification", recs[1]["msg"])
	assert.Equal(t, "WARN", recs[1]["level"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	quiet := ui.NewMultiHandler(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	assert.False(t, quiet.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, quiet.Enabled(context.Background(), slog.LevelError))

	// A debug log file turns debug records on even with a quiet console.
	_, _, m := logPair(slog.LevelWarn)
	assert.True(t, m.Enabled(context.Background(), slog.LevelDebug))
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	console, file, m := logPair(slog.LevelInfo)
	logger := slog.New(m).With("op", "merge")
	logger.Info("wrote output", "path", "restored.iso")

	assert.Contains(t, console.String(), "op=merge")
	recs := decodeLines(t, file)
	require.Len(t, recs, 1)
	assert.Equal(t, "merge", recs[0]["op"])
	assert.Equal(t, "restored.iso", recs[0]["path"])
}

func TestMultiHandler_WithGroup(t *testing.T) {
	t.Parallel()

	_, file, m := logPair(slog.LevelInfo)
	logger := slog.New(m.WithGroup("chunk"))
	logger.Info("sealed", "seq", 3, "size", 3000)

	recs := decodeLines(t, file)
	require.Len(t, recs, 1)
	group, ok := recs[0]["chunk"].(map[string]any)
	require.True(t, ok, "expected group 'chunk' in JSON output")
	assert.InDelta(t, 3, group["seq"], 0)
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("log file closed")
}

func TestMultiHandler_HandleErrorDoesNotStarveOthers(t *testing.T) {
	t.Parallel()

	var console bytes.Buffer
	text := slog.NewTextHandler(&console, nil)
	m := ui.NewMultiHandler(failingHandler{text}, text)

	err := m.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "wrote manifest", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log file closed")
	assert.Contains(t, console.String(), "wrote manifest")
}

func TestMultiHandler_CarriesEventRecords(t *testing.T) {
	t.Parallel()

	console, file, m := logPair(slog.LevelWarn)
	events := make(chan ui.Event, 2)
	events <- ui.Event{Type: ui.ChunkCreated, Path: "disk.img.001", Seq: 1, Size: 3000}
	close(events)

	for range ui.TeeEvents(events, slog.New(m)) {
	}

	assert.Empty(t, console.String())
	recs := decodeLines(t, file)
	require.Len(t, recs, 1)
	assert.Equal(t, ui.EventMessage, recs[0]["msg"])
	assert.Equal(t, "disk.img.001", recs[0]["path"])
}
