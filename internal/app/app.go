// Package app implements the application layer for makit.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"go.trai.ch/makit/internal/adapters/reporter" //nolint:depguard // Wired in app layer
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
	"go.trai.ch/makit/internal/engine/clock"
	"go.trai.ch/makit/internal/engine/makefile"
	"go.trai.ch/zerr"
)

// RecordFinder locates dynamic dependency records below a project root.
type RecordFinder interface {
	DynamicRecords(root string) iter.Seq[string]
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	executor     ports.Executor
	logger       ports.Logger
	opener       ports.DataBaseOpener
	fs           ports.FileSystem
	tracer       ports.Tracer
	watcher      ports.Watcher
	records      RecordFinder

	stdout io.Writer
	stderr io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	executor ports.Executor,
	log ports.Logger,
	opener ports.DataBaseOpener,
	fsys ports.FileSystem,
	tracer ports.Tracer,
	watcher ports.Watcher,
	records RecordFinder,
) *App {
	return &App{
		configLoader: loader,
		executor:     executor,
		logger:       log,
		opener:       opener,
		fs:           fsys,
		tracer:       tracer,
		watcher:      watcher,
		records:      records,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithOutput sets the streams recipes and reports are written to.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// Options configures how the makefile is loaded and reported.
type Options struct {
	// Makefile is the makefile path or a directory to search from. Empty means ".".
	Makefile string
	// Database overrides the timestamp database path of the makefile.
	Database string
	// Reporter names the console reporter: auto, verbose or dot.
	Reporter string
	// Verbose makes the verbose reporter print targets as they are prepared.
	Verbose bool
	// Graph prints the dependency tree after making.
	Graph bool
	// NoCheckCircular disables cycle detection.
	NoCheckCircular bool
}

// session is one loaded makefile with its open database.
type session struct {
	manifest *domain.Manifest
	db       ports.DataBase
	makefile *makefile.Makefile
}

func (a *App) open(opts Options) (*session, error) {
	path := opts.Makefile
	if path == "" {
		path = "."
	}
	manifest, err := a.configLoader.Load(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load makefile")
	}
	if opts.Database != "" {
		abs, err := filepath.Abs(opts.Database)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrDatabaseReadFailed.Error()), "path", opts.Database)
		}
		manifest.Database = abs
	}

	db, err := a.opener.Open(manifest.Database)
	if err != nil {
		return nil, err
	}

	mf := makefile.New(
		manifest.Root,
		a.fs,
		clock.NewMTime(db, a.fs),
		makefile.WithLogger(a.logger),
		makefile.WithTracer(a.tracer),
	)
	if opts.NoCheckCircular {
		mf.DisableCheckCircular()
	}
	if err := a.compile(mf, manifest); err != nil {
		return nil, err
	}
	return &session{manifest: manifest, db: db, makefile: mf}, nil
}

// close flushes the database. It runs on every exit path, cancellation included.
func (s *session) close(err error) error {
	if syncErr := s.db.Sync(); syncErr != nil {
		return errors.Join(err, syncErr)
	}
	return err
}

// subscribe forwards the events of mf to rep and returns the unsubscribe func.
func subscribe(mf *makefile.Makefile, rep ports.Reporter) func() {
	ids := []int{
		mf.On(domain.EventPreparing, rep.Report),
		mf.On(domain.EventSkipped, rep.Report),
		mf.On(domain.EventMade, rep.Report),
	}
	return func() {
		for _, id := range ids {
			mf.Off(id)
		}
	}
}

// Make makes every target concurrently, or the default target when none is given.
func (a *App) Make(ctx context.Context, targets []string, opts Options) (err error) {
	s, err := a.open(opts)
	if err != nil {
		return err
	}
	defer func() { err = s.close(err) }()

	rep, err := reporter.New(reporter.Kind(opts.Reporter), a.stderr, opts.Verbose)
	if err != nil {
		return err
	}
	defer subscribe(s.makefile, rep)()

	if err := a.makeAll(ctx, s, targets, opts.Graph); err != nil {
		rep.Finish(err)
		return zerr.Wrap(err, domain.ErrMakeFailed.Error())
	}
	rep.Finish(nil)
	return nil
}

// makeAll makes the targets concurrently on one engine.
func (a *App) makeAll(ctx context.Context, s *session, targets []string, graph bool) error {
	e, err := s.makefile.MakeAll(ctx, targets...)
	if e != nil {
		// Recipes started before a failure still run to completion.
		e.Wait()
	}
	if graph && e != nil {
		_, _ = io.WriteString(a.stdout, e.GraphString())
	}
	return err
}

// Graph makes the targets and prints their dependency trees. The graph is
// discovered while making, so stale targets are rebuilt.
func (a *App) Graph(ctx context.Context, targets []string, opts Options) (err error) {
	s, err := a.open(opts)
	if err != nil {
		return err
	}
	defer func() { err = s.close(err) }()

	if err := a.makeAll(ctx, s, targets, true); err != nil {
		return zerr.Wrap(err, domain.ErrMakeFailed.Error())
	}
	return nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Options
	// Records also removes every dynamic dependency record below the root.
	Records bool
}

// Clean removes the timestamp database and, optionally, the dynamic dependency records.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	path := opts.Makefile
	if path == "" {
		path = "."
	}
	manifest, err := a.configLoader.Load(path)
	if err != nil {
		return zerr.Wrap(err, "failed to load makefile")
	}
	if opts.Database != "" {
		if manifest.Database, err = filepath.Abs(opts.Database); err != nil {
			return zerr.Wrap(err, "failed to resolve database path")
		}
	}

	var errs error
	remove := func(p string) {
		if err := a.fs.Remove(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return
			}
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove file"), "path", p))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", p))
	}

	remove(manifest.Database)
	if opts.Records {
		for record := range a.records.DynamicRecords(manifest.Root) {
			remove(record)
		}
	}
	return errs
}
