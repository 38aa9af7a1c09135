// Package shell provides a shell-based executor for running recipes.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
	"go.trai.ch/zerr"
)

// Shell is the interpreter recipes are passed to with -c.
const Shell = "sh"

// Executor implements ports.Executor with sh -c on a pty. When no pty can be
// allocated the command falls back to plain pipes.
type Executor struct {
	logger ports.Logger
}

var _ ports.Executor = (*Executor)(nil)

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// Execute runs cmd and waits for it to complete. Output is streamed to
// stdout and stderr and mirrored line by line to the debug log.
func (e *Executor) Execute(ctx context.Context, cmd domain.Command, stdout, stderr io.Writer) error {
	if strings.TrimSpace(cmd.Line) == "" {
		return nil
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	env := resolveEnvironment(os.Environ(), cmd.Env)
	executable := Shell
	if lp, err := lookPath(Shell, env); err == nil {
		executable = lp
	}

	c := exec.CommandContext(ctx, executable, "-c", cmd.Line) //nolint:gosec // recipes are user provided
	c.Args[0] = Shell
	c.Dir = cmd.Dir
	c.Env = env

	stdoutLog := &logWriter{logger: e.logger}
	defer func() { _ = stdoutLog.Close() }()

	e.logger.Debug("exec " + cmd.Line)
	err := runPTY(ctx, c, io.MultiWriter(stdout, stdoutLog))
	if errors.Is(err, errNoPTY) {
		c = exec.CommandContext(ctx, executable, "-c", cmd.Line) //nolint:gosec // recipes are user provided
		c.Args[0] = Shell
		c.Dir = cmd.Dir
		c.Env = env
		c.Stdout = io.MultiWriter(stdout, stdoutLog)
		c.Stderr = stderr
		err = c.Run()
	}
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.With(zerr.Wrap(err, domain.ErrCommandFailed.Error()), "exit_code", exitCode), "command", cmd.Line)
	}
	return nil
}

var errNoPTY = errors.New("pty unavailable")

// runPTY runs c on a pseudo terminal. stdout and stderr are merged.
func runPTY(ctx context.Context, c *exec.Cmd, out io.Writer) error {
	ptmx, err := pty.Start(c)
	if err != nil {
		if c.Process == nil {
			return errNoPTY
		}
		return err
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// Reading a pty after the child exits fails with EIO; that is the end of output.
		_, _ = io.Copy(out, ptmx)
	}()

	err = c.Wait()
	if ctx.Err() != nil {
		// Orphaned children may still hold the terminal open.
		_ = ptmx.Close()
		<-ioDone
		return err
	}
	<-ioDone
	_ = ptmx.Close()
	return err
}

type logWriter struct {
	logger ports.Logger
	buf    []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	// PTYs may introduce \r.
	w.logger.Debug(strings.TrimSuffix(string(line), "\r"))
}

// resolveEnvironment overlays extra "KEY=VALUE" entries on the system environment.
func resolveEnvironment(sysEnv, extra []string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(extra))
	order := make([]string, 0, len(sysEnv)+len(extra))
	for _, entries := range [][]string{sysEnv, extra} {
		for _, entry := range entries {
			k, v, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			if _, seen := envMap[k]; !seen {
				order = append(order, k)
			}
			envMap[k] = v
		}
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
