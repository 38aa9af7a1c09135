package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/makit/internal/adapters/config"
	"go.trai.ch/makit/internal/adapters/db"
	"go.trai.ch/makit/internal/adapters/fs"
	"go.trai.ch/makit/internal/adapters/telemetry"
	"go.trai.ch/makit/internal/app"
	"go.trai.ch/makit/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newComponents(t *testing.T) (*app.Components, *mocks.MockLogger, *mocks.MockExecutor) {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Verbose(gomock.Any()).AnyTimes()
	executor := mocks.NewMockExecutor(ctrl)

	a := app.New(
		config.NewLoader(log),
		executor,
		log,
		db.NewOpener(log),
		fs.NewOS(),
		telemetry.NewNoOpTracer(),
		mocks.NewMockWatcher(ctrl),
		fs.NewWalker(),
	)
	return app.NewComponents(a, log), log, executor
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	components, _, _ := newComponents(t)
	provider := func(context.Context) (*app.Components, error) { return components, nil }

	stdout := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stdout, new(bytes.Buffer), provider)
	assert.Equal(t, 0, exitCode)
	assert.Contains(t, stdout.String(), "makit version")
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(context.Context) (*app.Components, error) {
		return nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, new(bytes.Buffer), stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run logs the error and returns 1 when the command fails.
func TestRun_ExecutionError(t *testing.T) {
	components, log, _ := newComponents(t)
	log.EXPECT().Error(gomock.Any()).Times(1)
	provider := func(context.Context) (*app.Components, error) { return components, nil }

	dir := t.TempDir()
	exitCode := run(context.Background(), []string{"make", "-m", dir}, new(bytes.Buffer), new(bytes.Buffer), provider)
	assert.Equal(t, 1, exitCode, "no makefile.yaml in the directory")
}

// TestRun_Make verifies a make against a makefile on disk.
func TestRun_Make(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	components, _, executor := newComponents(t)
	executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	provider := func(context.Context) (*app.Components, error) { return components, nil }

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "makefile.yaml"), []byte(`
rules:
  - target: stamp
    recipe: touch $@
`), 0o600))

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"-m", dir, "-r", "verbose"}, new(bytes.Buffer), stderr, provider)
	assert.Equal(t, 0, exitCode)
	assert.Contains(t, stderr.String(), "MADE stamp")
	assert.FileExists(t, filepath.Join(dir, ".makit.db"))
}
