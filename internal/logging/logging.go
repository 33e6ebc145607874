// Package logging builds the process slog.Logger and adapts it to the
// printf style Logger used across the module.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// New returns a slog.Logger writing to stderr. format is "json" or "text".
func New(format, level string) *slog.Logger {
	return NewWithWriter(os.Stderr, format, level)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps debug, info, warn and error to slog levels. Unknown values map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Adapter exposes a slog.Logger through Debug/Info/Warn/Error(format, args...)
type Adapter struct {
	l         *slog.Logger
	component string
}

// Adapt wraps l, tagging every record with component
func Adapt(l *slog.Logger, component string) *Adapter {
	if l == nil {
		l = slog.Default()
	}
	return &Adapter{l: l, component: component}
}

// Default adapts slog.Default()
func Default(component string) *Adapter {
	return Adapt(slog.Default(), component)
}

func (a *Adapter) Debug(format string, args ...any) {
	a.log(slog.LevelDebug, format, args...)
}

func (a *Adapter) Info(format string, args ...any) {
	a.log(slog.LevelInfo, format, args...)
}

func (a *Adapter) Warn(format string, args ...any) {
	a.log(slog.LevelWarn, format, args...)
}

func (a *Adapter) Error(format string, args ...any) {
	a.log(slog.LevelError, format, args...)
}

// Slog returns the underlying logger
func (a *Adapter) Slog() *slog.Logger {
	return a.l
}

func (a *Adapter) log(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !a.l.Enabled(ctx, level) {
		return
	}

	attrs := []slog.Attr{}
	if a.component != "" {
		attrs = append(attrs, slog.String("component", a.component))
	}

	for _, arg := range args {
		if err, ok := arg.(error); ok {
			attrs = append(attrs, goerrors.ToSlogAttributes(err)...)
		}
	}

	a.l.LogAttrs(ctx, level, fmt.Sprintf(format, args...), attrs...)
}

// LogError logs err with the structured attributes carried by rich errors
func LogError(ctx context.Context, l *slog.Logger, msg string, err error) {
	if l == nil || err == nil {
		return
	}

	attrs := append([]slog.Attr{slog.String("error", err.Error())}, goerrors.ToSlogAttributes(err)...)
	l.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}
