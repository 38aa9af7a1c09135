package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/makit/cmd/makit/commands"
	"go.trai.ch/makit/internal/app"
	"go.trai.ch/makit/internal/build"
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type call struct {
	method  string
	targets []string
	opts    app.Options
	clean   app.CleanOptions
}

type mockApp struct {
	calls []call
	err   error
}

func (m *mockApp) Make(_ context.Context, targets []string, opts app.Options) error {
	m.calls = append(m.calls, call{method: "make", targets: targets, opts: opts})
	return m.err
}

func (m *mockApp) Graph(_ context.Context, targets []string, opts app.Options) error {
	m.calls = append(m.calls, call{method: "graph", targets: targets, opts: opts})
	return m.err
}

func (m *mockApp) Watch(_ context.Context, target string, opts app.Options) error {
	var targets []string
	if target != "" {
		targets = []string{target}
	}
	m.calls = append(m.calls, call{method: "watch", targets: targets, opts: opts})
	return m.err
}

func (m *mockApp) Clean(_ context.Context, opts app.CleanOptions) error {
	m.calls = append(m.calls, call{method: "clean", clean: opts})
	return m.err
}

func execute(t *testing.T, a *mockApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a, nil)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Make(t *testing.T) {
	t.Run("root command makes targets", func(t *testing.T) {
		a := &mockApp{}
		_, err := execute(t, a, "dist/app.js", "dist/lib.js", "-m", "sub/makefile.yaml", "-r", "dot", "--graph")
		require.NoError(t, err)
		require.Len(t, a.calls, 1)
		assert.Equal(t, "make", a.calls[0].method)
		assert.Equal(t, []string{"dist/app.js", "dist/lib.js"}, a.calls[0].targets)
		assert.Equal(t, app.Options{Makefile: "sub/makefile.yaml", Reporter: "dot", Graph: true}, a.calls[0].opts)
	})

	t.Run("make subcommand without targets", func(t *testing.T) {
		a := &mockApp{}
		_, err := execute(t, a, "make", "--database", "tmp/db", "--no-check-circular", "-v")
		require.NoError(t, err)
		require.Len(t, a.calls, 1)
		assert.Empty(t, a.calls[0].targets)
		assert.Equal(t, app.Options{Database: "tmp/db", Reporter: "auto", Verbose: true, NoCheckCircular: true}, a.calls[0].opts)
	})

	t.Run("returns error on make failure", func(t *testing.T) {
		a := &mockApp{err: errors.New("simulated error")}
		_, err := execute(t, a, "make", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})
}

func TestCommands_Graph(t *testing.T) {
	a := &mockApp{}
	_, err := execute(t, a, "graph", "bundle.js")
	require.NoError(t, err)
	require.Len(t, a.calls, 1)
	assert.Equal(t, "graph", a.calls[0].method)
	assert.Equal(t, []string{"bundle.js"}, a.calls[0].targets)
}

func TestCommands_Watch(t *testing.T) {
	a := &mockApp{}
	_, err := execute(t, a, "watch", "bundle.js")
	require.NoError(t, err)
	require.Len(t, a.calls, 1)
	assert.Equal(t, "watch", a.calls[0].method)
	assert.Equal(t, []string{"bundle.js"}, a.calls[0].targets)

	_, err = execute(t, a, "watch", "a", "b")
	require.Error(t, err, "watch takes at most one target")
}

func TestCommands_Clean(t *testing.T) {
	a := &mockApp{}
	_, err := execute(t, a, "clean", "--records", "-d", "custom.db")
	require.NoError(t, err)
	require.Len(t, a.calls, 1)
	assert.True(t, a.calls[0].clean.Records)
	assert.Equal(t, "custom.db", a.calls[0].clean.Database)

	_, err = execute(t, a, "clean", "extra")
	require.Error(t, err)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "makit version "+build.Version)
}

func TestCommands_LogLevel(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		level domain.LogLevel
		json  bool
	}{
		{name: "default", args: []string{"make"}, level: domain.LogLevelInfo},
		{name: "loglevel flag", args: []string{"make", "--loglevel", "warn"}, level: domain.LogLevelWarn},
		{name: "verbose", args: []string{"make", "--verbose"}, level: domain.LogLevelVerbose},
		{name: "debug wins", args: []string{"make", "--verbose", "--debug"}, level: domain.LogLevelDebug},
		{name: "json", args: []string{"make", "--json"}, level: domain.LogLevelInfo, json: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			settings := mocks.NewMockLogSettings(ctrl)
			settings.EXPECT().SetLevel(tt.level)
			settings.EXPECT().SetJSON(tt.json)

			cli := commands.New(&mockApp{}, settings)
			cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
			cli.SetArgs(tt.args)
			require.NoError(t, cli.Execute(context.Background()))
		})
	}
}
