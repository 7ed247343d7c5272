package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColorHandler(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewColorHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}))

	logger.Debug("hidden")
	require.Empty(t, out.String())

	logger.With("Run", "abc").Warn("Media was removed by its host", "URL", "https://i.imgur.com/x.jpg")
	line := out.String()
	require.Contains(t, line, "WARN")
	require.Contains(t, line, "Media was removed by its host")
	require.Contains(t, line, `"Run": "abc"`)
	require.Contains(t, line, `"URL": "https://i.imgur.com/x.jpg"`)
}

func TestColorHandlerGroups(t *testing.T) {
	var out bytes.Buffer
	handler := NewColorHandler(&out, nil)
	require.False(t, handler.Enabled(context.Background(), slog.LevelDebug))

	slog.New(handler).WithGroup("stats").Info("Download summary", "Failed", 2)
	require.Contains(t, out.String(), `"stats.Failed": 2`)
}
