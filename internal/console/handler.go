// Package console renders log records the way CI job logs show them: one
// line per message line, prefixed with a tag that identifies the tool and the
// severity. Every rendered line is also kept in memory, including the debug
// lines that are not printed, so that the whole transcript can be attached to
// the job afterwards.
package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

const (
	Tag      = "[critic]"
	DebugTag = "[critic:debug]"
	ErrorTag = "[critic:error]"
)

type transcript struct {
	mu    sync.Mutex
	lines []string
}

// Handler is a slog.Handler writing tagged lines to w.
type Handler struct {
	w      io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
	buf    *transcript
}

var _ slog.Handler = &Handler{}

// NewHandler returns a handler printing records at or above opts.Level to w.
// Records below that level are only kept in the transcript.
func NewHandler(w io.Writer, opts *slog.HandlerOptions) *Handler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &Handler{
		w:     w,
		level: level,
		buf:   &transcript{},
	}
}

// Enabled always returns true since debug records must reach the transcript
// even when they are not printed.
func (h *Handler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	lines := SplitLines(r.Message)
	var fields []string
	for _, a := range h.attrs {
		fields = appendAttr(fields, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, h.prefix, a)
		return true
	})
	if len(fields) > 0 {
		if len(lines) == 0 {
			lines = []string{""}
		}
		last := len(lines) - 1
		if lines[last] != "" {
			lines[last] += " "
		}
		lines[last] += strings.Join(fields, " ")
	}

	tag := tagFor(r.Level)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, tag+" "+l)
	}

	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	h.buf.lines = append(h.buf.lines, out...)
	if r.Level < h.level.Level() || len(out) == 0 {
		return nil
	}
	_, err := io.WriteString(h.w, strings.Join(out, "\n")+"\n")
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// Note records a line in the transcript without printing it.
func (h *Handler) Note(line string) {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	h.buf.lines = append(h.buf.lines, line)
}

// Lines returns a copy of the transcript.
func (h *Handler) Lines() []string {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	lines := make([]string, len(h.buf.lines))
	copy(lines, h.buf.lines)
	return lines
}

// WriteTo writes the transcript to w, one line per entry.
func (h *Handler) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, l := range h.Lines() {
		n, err := io.WriteString(w, l+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// SplitLines splits s on line boundaries. A trailing line break does not
// produce an empty last line, and the empty string has no lines at all.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

func tagFor(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return DebugTag
	case level >= slog.LevelError:
		return ErrorTag
	default:
		return Tag
	}
}

func appendAttr(fields []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			fields = appendAttr(fields, p, ga)
		}
		return fields
	}
	return append(fields, fmt.Sprintf("%s%s=%s", prefix, a.Key, quoteIfNeeded(a.Value.String())))
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " =\"\t\n") {
		return strconv.Quote(s)
	}
	return s
}
