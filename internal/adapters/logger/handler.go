package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/makit/internal/ui/output"
	"go.trai.ch/makit/internal/ui/style"
)

// PrettyHandler is a slog.Handler that produces human-readable,
// colored output using the shared UI components.
type PrettyHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewPrettyHandler creates a new PrettyHandler writing to w.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   output.New(w),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var msg string
	var color termenv.Color

	switch {
	case r.Level >= slog.LevelError:
		msg = style.Cross + " " + r.Message
		color = termenv.RGBColor(string(style.Red))
	case r.Level >= slog.LevelWarn:
		msg = style.Warning + " " + r.Message
		color = termenv.RGBColor(string(style.Yellow))
	case r.Level >= slog.LevelInfo:
		msg = r.Message
		color = termenv.RGBColor(string(style.Slate))
	case r.Level >= LevelVerbose:
		msg = style.Tilde + " " + r.Message
		color = termenv.RGBColor(string(style.Iris))
	default:
		msg = style.Circle + " " + r.Message
		color = termenv.RGBColor(string(style.Slate))
	}

	prefix := strings.Join(h.groups, ".")
	attrParts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, attr := range h.attrs {
		attrParts = appendAttr(attrParts, "", attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		attrParts = appendAttr(attrParts, prefix, attr)
		return true
	})
	if len(attrParts) > 0 {
		msg += " " + strings.Join(attrParts, " ")
	}

	styled := h.out.String(msg).Foreground(color)
	_, err := h.out.WriteString(styled.String() + "\n")
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := strings.Join(h.groups, ".")
	qualified := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	qualified = append(qualified, h.attrs...)
	for _, attr := range attrs {
		if prefix != "" {
			attr.Key = prefix + "." + attr.Key
		}
		qualified = append(qualified, attr)
	}

	return &PrettyHandler{
		out:    h.out,
		level:  h.level,
		attrs:  qualified,
		groups: h.groups,
	}
}

// WithGroup returns a new Handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)

	return &PrettyHandler{
		out:    h.out,
		level:  h.level,
		attrs:  h.attrs,
		groups: groups,
	}
}

// appendAttr formats attr as key=value, flattening groups into dotted keys.
func appendAttr(parts []string, prefix string, attr slog.Attr) []string {
	attr.Value = attr.Value.Resolve()
	key := attr.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	}
	if attr.Value.Kind() == slog.KindGroup {
		if key == "" {
			key = prefix
		}
		for _, child := range attr.Value.Group() {
			parts = appendAttr(parts, key, child)
		}
		return parts
	}
	return append(parts, key+"="+attr.Value.String())
}
