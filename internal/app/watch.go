package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.trai.ch/makit/internal/adapters/reporter" //nolint:depguard // Wired in app layer
	"go.trai.ch/makit/internal/adapters/watcher"  //nolint:depguard // Wired in app layer
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
	"go.trai.ch/makit/internal/engine/makefile"
	"go.trai.ch/makit/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// Watch makes target, then rebuilds it whenever one of its source files
// changes. Sources are targets of the graph that no rule produces. Each batch
// of changes invalidates the changed sources on the same engine and makes the
// target again. Watch returns when ctx is cancelled.
func (a *App) Watch(ctx context.Context, target string, opts Options) (err error) {
	s, err := a.open(opts)
	if err != nil {
		return err
	}
	defer func() { err = s.close(err) }()

	if target == "" {
		if target, err = s.makefile.DefaultTarget(); err != nil {
			return err
		}
	}

	rep, err := reporter.New(reporter.Kind(opts.Reporter), a.stderr, opts.Verbose)
	if err != nil {
		return err
	}
	defer subscribe(s.makefile, rep)()

	e, makeErr := s.makefile.Make(ctx, target)
	e.Wait()
	rep.Finish(makeErr)
	if makeErr != nil {
		a.logger.Error(zerr.Wrap(makeErr, domain.ErrMakeFailed.Error()))
	}
	if err := s.db.Sync(); err != nil {
		a.logger.Error(err)
	}

	if err := a.watcher.Start(ctx, s.manifest.Root); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()
	a.logger.Info(fmt.Sprintf("watching %s for changes to %s", s.manifest.Root, target))

	batches := make(chan []string)
	deb := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		select {
		case batches <- paths:
		case <-ctx.Done():
		}
	})

	go func() {
		for ev := range a.watcher.Events() {
			if name, ok := watchedName(s, ev.Path); ok {
				deb.Add(name)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case names := <-batches:
			a.rebuild(ctx, s, e, rep, target, names)
		}
	}
}

// watchedName maps an event path to a target name. The database and dynamic
// dependency records are written by makit itself and never trigger a rebuild.
func watchedName(s *session, path string) (string, bool) {
	if path == s.manifest.Database || strings.HasPrefix(path, s.manifest.Database+".") {
		return "", false
	}
	if domain.IsDynamicRecord(path) {
		return "", false
	}
	rel, err := filepath.Rel(s.manifest.Root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (a *App) rebuild(
	ctx context.Context,
	s *session,
	e *scheduler.Engine,
	rep ports.Reporter,
	target string,
	names []string,
) {
	cycle := uuid.NewString()
	var changed int
	for _, name := range names {
		if !e.Has(name) {
			continue
		}
		if rule, _ := s.makefile.FindRule(name); rule != nil {
			// Outputs of rules change whenever their recipe runs.
			continue
		}
		if err := e.Invalidate(ctx, name); err != nil {
			a.logger.Error(err)
			continue
		}
		changed++
	}
	if changed == 0 {
		return
	}
	a.logger.Debug(fmt.Sprintf("watch cycle %s: %d of %d changed files are sources", cycle, changed, len(names)))

	_, err := e.Make(ctx, target, "")
	e.Wait()
	if err != nil {
		err = makefile.Describe(e, err)
	}
	rep.Finish(err)
	if err != nil {
		a.logger.Error(zerr.Wrap(err, domain.ErrMakeFailed.Error()))
	}
	if err := s.db.Sync(); err != nil {
		a.logger.Error(err)
	}
}
