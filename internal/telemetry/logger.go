package telemetry

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// SetupLogger installs the default slog logger. format is json, text or console.
func SetupLogger(w io.Writer, format, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	case "text":
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	case "console":
		h = NewConsoleHandler(w, lvl)
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	slog.SetDefault(slog.New(h))
	return nil
}

// ConsoleHandler prints one colored line per record, for local development.
type ConsoleHandler struct {
	mu    *sync.Mutex
	l     *log.Logger
	level slog.Level
	attrs []slog.Attr
}

func NewConsoleHandler(w io.Writer, level slog.Level) *ConsoleHandler {
	return &ConsoleHandler{
		mu:    new(sync.Mutex),
		l:     log.New(w, "", 0),
		level: level,
	}
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	switch {
	case r.Level >= slog.LevelError:
		level = color.RedString(level)
	case r.Level >= slog.LevelWarn:
		level = color.YellowString(level)
	case r.Level >= slog.LevelInfo:
		level = color.HiBlueString(level)
	default:
		level = color.MagentaString(level)
	}

	var sb strings.Builder
	write := func(a slog.Attr) bool {
		sb.WriteString(color.GreenString(a.Key))
		sb.WriteString("=")
		sb.WriteString(fmt.Sprint(a.Value.Any()))
		sb.WriteString(" ")
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.l.Println(r.Time.Format("15:04:05.000"), level, r.Message, sb.String())
	return nil
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &c
}

// WithGroup is not supported; group names are dropped.
func (h *ConsoleHandler) WithGroup(_ string) slog.Handler {
	return h
}
