package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeSystem LogType = "SYS"
	TypeDB     LogType = "DB"
	TypeSync   LogType = "SYNC"
	TypeError  LogType = "ERR"
)

// Handler prints one colored line per record:
//
//	[name] [15:04:05] [INFO] [SYNC] message key=value ...
type Handler struct {
	name   string
	out    io.Writer
	level  slog.Leveler
	color  bool
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

type Option func(*Handler)

func WithWriter(w io.Writer) Option {
	return func(h *Handler) { h.out = w }
}

func WithLevel(level slog.Leveler) Option {
	return func(h *Handler) { h.level = level }
}

func WithColor(enabled bool) Option {
	return func(h *Handler) { h.color = enabled }
}

func NewHandler(name string, opts ...Option) *Handler {
	h := &Handler{
		name:  name,
		out:   os.Stdout,
		level: slog.LevelInfo,
		color: true,
		mu:    &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string{}, h.groups...), name)
	return &c
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	logType := TypeSystem
	var fields []string
	var errText string

	collect := func(a slog.Attr) {
		switch a.Key {
		case "type":
			logType = typeOf(a.Value.String())
		case "error":
			errText = a.Value.String()
		default:
			key := a.Key
			if len(h.groups) > 0 {
				key = strings.Join(h.groups, ".") + "." + key
			}
			fields = append(fields, fmt.Sprintf("%s=%v", key, a.Value))
		}
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a)
		return true
	})

	message := r.Message
	if errText != "" {
		message = fmt.Sprintf("%s: %s", message, errText)
		if r.Level >= slog.LevelError {
			logType = TypeError
		}
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]%s [%s] [%s] [%s] %s",
		h.paint(colorWhite), h.name, h.paint(colorReset),
		ts.Format("15:04:05"),
		h.paint(levelColor(r.Level))+levelText(r.Level)+h.paint(colorReset),
		h.paint(typeColor(logType))+string(logType)+h.paint(colorReset),
		message)
	if len(fields) > 0 {
		b.WriteString(" ")
		b.WriteString(h.paint(colorCyan))
		b.WriteString(strings.Join(fields, " "))
		b.WriteString(h.paint(colorReset))
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *Handler) paint(color string) string {
	if !h.color {
		return ""
	}
	return color
}

func typeOf(v string) LogType {
	switch v {
	case "db":
		return TypeDB
	case "sync":
		return TypeSync
	case "error":
		return TypeError
	default:
		return TypeSystem
	}
}

func levelText(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return colorRed
	case l >= slog.LevelWarn:
		return colorYellow
	case l >= slog.LevelInfo:
		return colorGreen
	default:
		return colorPurple
	}
}

func typeColor(t LogType) string {
	switch t {
	case TypeDB:
		return colorBlue
	case TypeSync:
		return colorCyan
	case TypeError:
		return colorRed
	default:
		return colorGreen
	}
}
