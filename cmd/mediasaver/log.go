package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

const (
	colorReset     = "\033[0m"
	colorGray      = "\033[90m"
	colorWhiteBold = "\033[1;37m"
)

// ColorHandler prints one coloured line per record with its attributes as
// indented JSON.
type ColorHandler struct {
	out    io.Writer
	mu     *sync.Mutex
	opts   *slog.HandlerOptions
	attrs  []slog.Attr
	group  string
	colors map[slog.Level]string
}

func NewColorHandler(out io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	return &ColorHandler{
		out:  out,
		mu:   &sync.Mutex{},
		opts: opts,
		colors: map[slog.Level]string{
			slog.LevelError: "\033[0;31m", // red
			slog.LevelWarn:  "\033[0;33m", // yellow
			slog.LevelInfo:  "\033[0;36m", // cyan
			slog.LevelDebug: "\033[0;32m", // green
		},
	}
}

func (h *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	timestamp := r.Time.Format("[01/02 15:04:05]")
	colorCode, ok := h.colors[r.Level]
	if !ok {
		colorCode = colorReset
	}

	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[h.key(a.Key)] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "" {
			attrs[h.key(a.Key)] = a.Value.Any()
		}
		return true
	})

	var jsonAttrs string
	if len(attrs) > 0 {
		jsonBytes, err := json.MarshalIndent(attrs, "", "  ")
		if err == nil {
			jsonAttrs = " " + string(jsonBytes)
		}
	}

	msg := fmt.Sprintf("%s%s %s%s%s: %s%s%s\n",
		colorGray,
		timestamp,
		colorCode,
		r.Level.String(),
		colorWhiteBold,
		r.Message,
		colorReset,
		jsonAttrs,
	)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write([]byte(msg))
	return err
}

func (h *ColorHandler) key(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *ColorHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.group = h.key(name)
	return &clone
}

func (h *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}
