package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/makit/internal/adapters/logger"
)

func TestPrettyHandler_Levels(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		msg        string
		goldenName string
	}{
		{name: "debug", level: slog.LevelDebug, msg: "debug message", goldenName: "handler_debug"},
		{name: "verbose", level: logger.LevelVerbose, msg: "addRule foo", goldenName: "handler_verbose"},
		{name: "info", level: slog.LevelInfo, msg: "information message", goldenName: "handler_info"},
		{name: "warn", level: slog.LevelWarn, msg: "warning message", goldenName: "handler_warn"},
		{name: "error", level: slog.LevelError, msg: "error message", goldenName: "handler_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			lg.Log(t.Context(), tt.level, tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestPrettyHandler_Attrs(t *testing.T) {
	tests := []struct {
		name       string
		handler    func(h slog.Handler) slog.Handler
		args       []any
		goldenName string
	}{
		{
			name: "handler attrs",
			handler: func(h slog.Handler) slog.Handler {
				return h.WithAttrs([]slog.Attr{slog.String("a", "1"), slog.Int("b", 2)})
			},
			goldenName: "handler_attrs",
		},
		{
			name: "group attr",
			handler: func(h slog.Handler) slog.Handler {
				return h.WithAttrs([]slog.Attr{slog.Group("outer", slog.Group("inner", slog.String("k", "v")))})
			},
			goldenName: "handler_attrs_group",
		},
		{
			name: "nested groups",
			handler: func(h slog.Handler) slog.Handler {
				return h.WithGroup("a").WithGroup("b")
			},
			args:       []any{"key", "val"},
			goldenName: "handler_group_nested",
		},
		{
			name: "empty group name",
			handler: func(h slog.Handler) slog.Handler {
				return h.WithGroup("")
			},
			args:       []any{"key", "val"},
			goldenName: "handler_group_empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			h := tt.handler(logger.NewPrettyHandler(buf, nil))
			slog.New(h).Info("message", tt.args...)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	level := &slog.LevelVar{}
	h := logger.NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: level})

	assert.False(t, h.Enabled(t.Context(), logger.LevelVerbose))
	assert.True(t, h.Enabled(t.Context(), slog.LevelInfo))

	level.Set(logger.LevelVerbose)
	assert.True(t, h.Enabled(t.Context(), logger.LevelVerbose))
	assert.False(t, h.Enabled(t.Context(), slog.LevelDebug))
}
