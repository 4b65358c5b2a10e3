package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes human-oriented lines:
//
//	2026-01-02T15:04:05Z INFO ddp: [process 01234567] engine finished exit_code=0
//
// The component, mode and invocation ID are lifted into the prefix; every
// other attribute is rendered by slog's text handler.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool

	component, mode, invocation string

	// chain replays WithAttrs/WithGroup calls onto the per-record text handler.
	chain []func(slog.Handler) slog.Handler

	grouped bool
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(ctx context.Context, record slog.Record) error {
	subject := *h
	rest := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		if !subject.take(a) {
			rest.AddAttrs(a)
		}
		return true
	})

	var line bytes.Buffer
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	fmt.Fprintf(&line, "%s %s ", ts.UTC().Format(time.RFC3339), levelLabel(record.Level))
	if subject.component != "" {
		line.WriteString(subject.component + ": ")
	}
	if prefix := FormatSubject(subject.mode, subject.invocation); prefix != "" {
		line.WriteString(prefix + " ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	line.WriteString(msg)

	var attrs bytes.Buffer
	var text slog.Handler = slog.NewTextHandler(&attrs, &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		AddSource:   h.addSource,
		ReplaceAttr: consoleReplaceAttr,
	})
	for _, apply := range h.chain {
		text = apply(text)
	}
	if err := text.Handle(ctx, rest); err != nil {
		return err
	}
	if tail := strings.TrimSpace(attrs.String()); tail != "" {
		line.WriteString(" " + tail)
	}
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(line.Bytes())
	return err
}

// take records a and reports true when a is one of the prefix fields.
func (h *consoleHandler) take(a slog.Attr) bool {
	if h.grouped {
		return false
	}
	var dst *string
	switch a.Key {
	case FieldComponent:
		dst = &h.component
	case FieldMode:
		dst = &h.mode
	case FieldInvocationID:
		dst = &h.invocation
	default:
		return false
	}
	if *dst == "" {
		*dst = a.Value.Resolve().String()
	}
	return true
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	kept := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if !clone.take(a) {
			kept = append(kept, a)
		}
	}
	if len(kept) > 0 {
		clone.chain = append(clone.chain, func(next slog.Handler) slog.Handler { return next.WithAttrs(kept) })
	}
	return clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.grouped = true
	clone.chain = append(clone.chain, func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
	return clone
}

func (h *consoleHandler) clone() *consoleHandler {
	clone := *h
	clone.chain = append([]func(slog.Handler) slog.Handler(nil), h.chain...)
	return &clone
}

// consoleReplaceAttr drops the keys already printed in the prefix and
// shortens source locations to file:line.
func consoleReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey, slog.LevelKey, slog.MessageKey:
		return slog.Attr{}
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return a
}

// FormatSubject renders the "[mode abcd1234]" prefix for console lines.
func FormatSubject(mode, invocationID string) string {
	mode = strings.TrimSpace(mode)
	invocationID = strings.TrimSpace(invocationID)
	if len(invocationID) > 8 {
		invocationID = invocationID[:8]
	}
	if parts := strings.Fields(mode + " " + invocationID); len(parts) > 0 {
		return "[" + strings.Join(parts, " ") + "]"
	}
	return ""
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
