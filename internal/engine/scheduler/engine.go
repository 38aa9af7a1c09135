// Package scheduler implements the make engine: it builds the dependency
// graph lazily, decides which targets are stale and runs their recipes as
// soon as their prerequisites are resolved.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
	"go.trai.ch/makit/internal/engine/pattern"
	"go.trai.ch/makit/internal/engine/prereq"
	"go.trai.ch/zerr"
)

// Config holds the collaborators of an Engine.
type Config struct {
	// Root is the project root. Target names are resolved against it.
	Root  string
	Rules RuleSource
	Store ports.TimestampStore
	FS    ports.FileSystem

	// Logger is optional.
	Logger ports.Logger
	// Tracer is optional. When set, every recipe run is wrapped in a span.
	Tracer ports.Tracer
	// Emit is optional. It is called outside the engine lock, possibly from
	// several goroutines at once.
	Emit func(domain.Event)
	// Subscribed is optional. When it reports false for a kind, no event of
	// that kind is built.
	Subscribed func(domain.EventKind) bool

	DisableCheckCircular bool
}

type queued struct {
	name string
	gen  int
}

type delivery struct {
	to chan outcome
	o  outcome
}

// Engine owns the target table and the dependency graph of one or more
// make invocations. It is safe for concurrent use.
type Engine struct {
	cfg Config
	log ports.Logger

	mu       sync.Mutex
	graph    *domain.DirectedGraph[string]
	targets  map[string]*target
	queue    []queued
	draining bool
	events   []domain.Event
	outbox   []delivery

	inflight sync.WaitGroup
}

// New creates an Engine.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Engine{
		cfg:     cfg,
		log:     log,
		graph:   domain.NewDirectedGraph[string](),
		targets: make(map[string]*target),
	}
}

// Make makes name and blocks until it is resolved or rejected. parent is the
// dependant that requires name, or empty for an invocation root.
// It returns the logical time of the target.
//
// Cancelling ctx only stops the wait. Recipes run under the context of the
// invocation root that first reached the target, so a cancelled sibling
// never aborts a recipe that is already running.
func (e *Engine) Make(ctx context.Context, name, parent string) (domain.Timestamp, error) {
	if err := ctx.Err(); err != nil {
		return domain.NotExist, err
	}

	e.mu.Lock()

	if parent != "" {
		e.graph.AddEdge(parent, name)
	} else {
		e.graph.AddVertex(name)
	}

	if !e.cfg.DisableCheckCircular {
		if cycle := e.graph.CheckCircular(name); cycle != nil {
			e.unlock()
			path := strings.Join(cycle, " -> ")
			return domain.NotExist, &TargetError{
				Target: name,
				Err:    zerr.With(zerr.Wrap(zerr.New(path), domain.ErrCircularDependency.Error()), "cycle", path),
			}
		}
	}

	t, created, err := e.targetLocked(ctx, name, parent)
	if err != nil {
		e.unlock()
		return domain.NotExist, &TargetError{Target: name, Err: err}
	}

	switch t.state {
	case domain.TargetResolved:
		mtime := t.mtime
		e.unlock()
		return mtime, nil
	case domain.TargetRejected:
		err := t.err
		e.unlock()
		return domain.NotExist, err
	}

	if p, ok := e.targets[parent]; ok {
		p.pending[name] = struct{}{}
	}
	if parent == "" {
		t.root = true
	}
	w := t.addWaiter()

	switch {
	case created:
		e.emitLocked(domain.EventPreparing, t)
		e.prepareLocked(t)
		e.drainLocked()
	case t.parked:
		e.enqueueLocked(t)
		e.drainLocked()
	}
	e.unlock()

	select {
	case o := <-w:
		return o.mtime, o.err
	case <-ctx.Done():
		return domain.NotExist, ctx.Err()
	}
}

// Invalidate marks name as changed: its logical time is advanced and it is
// reset, together with every target that transitively depends on it, so the
// next make rebuilds them. Queued but not yet started work for the reset
// targets is cancelled; recipes already running finish but their result is
// discarded. ctx bounds the recipes the reset targets run from now on.
func (e *Engine) Invalidate(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.unlock()

	t, ok := e.targets[name]
	if !ok {
		return zerr.With(domain.ErrUnknownTarget, "target", name)
	}

	mtime, err := e.cfg.Store.SetModifiedTime(e.fullPath(name))
	if err != nil {
		return zerr.With(err, "target", name)
	}
	t.mtime = mtime

	reset := append([]string{name}, e.graph.Ancestors(name)...)
	for _, n := range reset {
		r := e.targets[n]
		if r == nil {
			continue
		}
		r.gen++
		r.state = domain.TargetInit
		r.err = nil
		r.runCtx = ctx
	}
	for _, n := range reset {
		r := e.targets[n]
		if r == nil || r.state != domain.TargetInit {
			continue
		}
		r.pending = make(map[string]struct{})
		if !r.prepared {
			if !r.preparing {
				e.prepareLocked(r)
			}
			continue
		}
		for _, d := range r.dependencies() {
			dt, ok := e.targets[d]
			if !ok {
				continue
			}
			switch dt.state {
			case domain.TargetResolved:
				continue
			case domain.TargetRejected:
				// Failures outside the reset set stand until they are invalidated.
				e.rejectLocked(r, dt.err)
			case domain.TargetInit:
				if dt.parked {
					e.enqueueLocked(dt)
				}
			}
			r.pending[d] = struct{}{}
		}
		if r.isReady() {
			e.enqueueLocked(r)
		}
	}

	e.log.Debug(fmt.Sprintf("invalidated %s and %d dependants", name, len(reset)-1))
	e.drainLocked()
	return nil
}

// Wait blocks until every recipe started by the engine has finished.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Graph returns a snapshot of the dependency graph.
func (e *Engine) Graph() *domain.DirectedGraph[string] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Clone()
}

// GraphString renders the dependency graph as text trees.
func (e *Engine) GraphString() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.String()
}

// FindPathToRoot returns the chain of dependants from name to an invocation root.
func (e *Engine) FindPathToRoot(name string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.FindPathToRoot(name)
}

// State returns the state of a known target.
func (e *Engine) State(name string) (domain.TargetState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.targets[name]
	if !ok {
		return domain.TargetInit, false
	}
	return t.state, true
}

// Has reports whether the engine has seen name.
func (e *Engine) Has(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.targets[name]
	return ok
}

// Targets returns every known target in discovery order.
func (e *Engine) Targets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []string
	for v := range e.graph.Vertices() {
		if _, ok := e.targets[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

func (e *Engine) fullPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(e.cfg.Root, name)
}

// targetLocked returns the record of name, creating it on first sight.
// A new target runs its recipe under the context of its parent, or under ctx
// when it is an invocation root.
func (e *Engine) targetLocked(ctx context.Context, name, parent string) (*target, bool, error) {
	if t, ok := e.targets[name]; ok {
		return t, false, nil
	}

	rule, match := e.cfg.Rules.FindRule(name)
	ctxTarget := name
	if rule == nil {
		match = pattern.Match{name}
	} else if rule.IsDependencyTarget {
		ctxTarget = domain.TargetForDynamicRecord(name)
		if _, m := e.cfg.Rules.FindRule(ctxTarget); m != nil {
			match = m
		}
	}

	mtime, err := e.cfg.Store.ModifiedTime(e.fullPath(name))
	if err != nil {
		return nil, false, err
	}

	runCtx := ctx
	if p, ok := e.targets[parent]; ok {
		runCtx = p.runCtx
	}

	t := &target{
		name:    name,
		parent:  parent,
		runCtx:  runCtx,
		rule:    rule,
		mtime:   mtime,
		state:   domain.TargetInit,
		pending: make(map[string]struct{}),
	}
	t.ctx = &Context{
		target: ctxTarget,
		match:  match,
		root:   e.cfg.Root,
		fs:     e.cfg.FS,
		make: func(ctx context.Context, dep string) (domain.Timestamp, error) {
			return e.Make(ctx, dep, name)
		},
	}
	e.targets[name] = t
	return t, true, nil
}

// prepareLocked resolves the prerequisites of t, in the background unless
// there are none. The caller drains the queue.
func (e *Engine) prepareLocked(t *target) {
	if t.rule == nil || t.rule.Prerequisites.IsZero() {
		e.preparedLocked(t, nil)
		return
	}
	t.preparing = true
	e.inflight.Add(1)
	go e.prepare(t.runCtx, t, t.gen)
}

// prepare makes every prerequisite of t and records the resolved names.
func (e *Engine) prepare(ctx context.Context, t *target, gen int) {
	defer e.inflight.Done()

	deps, err := prereq.Map(ctx, t.rule.Prerequisites, t.ctx, func(ctx context.Context, dep string) (string, error) {
		_, err := e.Make(ctx, dep, t.name)
		return dep, err
	})

	e.mu.Lock()
	defer e.unlock()

	t.preparing = false
	if t.gen != gen {
		// Invalidated while resolving: start over for the new generation.
		if t.state == domain.TargetInit && !t.prepared {
			e.prepareLocked(t)
			e.drainLocked()
		}
		return
	}
	if err != nil {
		var te *TargetError
		if !errors.As(err, &te) {
			err = &TargetError{Target: t.name, Err: err}
		}
		e.rejectLocked(t, err)
		e.drainLocked()
		return
	}
	e.preparedLocked(t, deps)
	e.drainLocked()
}

func (e *Engine) preparedLocked(t *target, deps []string) {
	if t.state.IsFinished() {
		return
	}
	t.deps = deps
	t.prepared = true
	t.ctx.setDependencies(deps)
	if t.isReady() {
		e.enqueueLocked(t)
	}
}

func (e *Engine) enqueueLocked(t *target) {
	t.parked = false
	e.queue = append(e.queue, queued{name: t.name, gen: t.gen})
}

// wantedLocked reports whether t is an invocation root or has a dependant
// that has not been rejected.
func (e *Engine) wantedLocked(t *target) bool {
	if t.root {
		return true
	}
	for p := range e.graph.InNeighbors(t.name) {
		if pt, ok := e.targets[p]; !ok || pt.state != domain.TargetRejected {
			return true
		}
	}
	return false
}

// drainLocked runs the ready queue. Skipped targets resolve inline and may
// enqueue their dependants, which the same loop picks up. Ready targets that
// nothing wants any more are parked until a later make asks for them.
func (e *Engine) drainLocked() {
	if e.draining {
		return
	}
	e.draining = true
	defer func() { e.draining = false }()

	for len(e.queue) > 0 {
		q := e.queue[0]
		e.queue = e.queue[1:]

		t := e.targets[q.name]
		if t == nil || t.gen != q.gen || !t.isReady() {
			continue
		}
		if !e.wantedLocked(t) {
			e.log.Debug("parked " + t.name)
			t.parked = true
			continue
		}
		t.state = domain.TargetStarted

		var times []domain.Timestamp
		for _, d := range t.dependencies() {
			if dt, ok := e.targets[d]; ok {
				times = append(times, dt.mtime)
			}
		}
		dmtime := domain.MaxTimestamp(times...)
		e.log.Debug(fmt.Sprintf("%s: mtime(%d) dmtime(%d)", t.name, t.mtime, dmtime))

		if !domain.IsStale(dmtime, t.mtime) {
			e.emitLocked(domain.EventSkipped, t)
			e.resolveLocked(t)
			continue
		}
		if t.rule == nil {
			e.rejectLocked(t, &TargetError{
				Target: t.name,
				Err:    zerr.With(domain.ErrNoMatchingRule, "target", t.name),
			})
			continue
		}

		t.ctx.resetDynamic()
		e.inflight.Add(1)
		go e.run(t.runCtx, t, t.gen)
	}
}

// run executes the recipe of t outside the lock and records the result.
func (e *Engine) run(ctx context.Context, t *target, gen int) {
	defer e.inflight.Done()

	if e.cfg.Tracer != nil {
		var span ports.Span
		ctx, span = e.cfg.Tracer.Start(ctx, t.name)
		defer span.End()
		defer func() {
			e.mu.Lock()
			span.SetAttribute("makit.state", t.state.String())
			if t.err != nil {
				span.RecordError(t.err)
			}
			e.mu.Unlock()
		}()
	}

	e.log.Verbose("make " + t.name)

	err := t.rule.Recipe.Run(ctx, t.ctx)
	if err != nil {
		err = zerr.With(zerr.Wrap(err, domain.ErrRecipeFailed.Error()), "target", t.name)
	}

	var (
		record      string
		recordMtime domain.Timestamp
	)
	if err == nil && t.rule.HasDynamicDependencies {
		record = domain.DynamicRecordFor(t.name)
		recordMtime, err = e.writeRecord(record, t.ctx.DynamicDependencies())
	}

	mtime := domain.NotExist
	if err == nil {
		mtime, err = e.cfg.Store.SetModifiedTime(e.fullPath(t.name))
	}

	e.mu.Lock()
	defer e.unlock()

	if t.gen != gen || t.state != domain.TargetStarted {
		return
	}
	if err != nil {
		e.rejectLocked(t, &TargetError{Target: t.name, Err: err})
		e.drainLocked()
		return
	}

	if rt, ok := e.targets[record]; ok {
		rt.mtime = recordMtime
	}
	t.mtime = mtime
	e.emitLocked(domain.EventMade, t)
	e.resolveLocked(t)
	e.drainLocked()
}

// writeRecord stores the dynamic dependencies of a target in its sidecar file
// and stamps the file before the target itself is stamped.
func (e *Engine) writeRecord(record string, deps []string) (domain.Timestamp, error) {
	if deps == nil {
		deps = []string{}
	}
	data, err := json.Marshal(deps)
	if err != nil {
		return domain.NotExist, zerr.Wrap(err, domain.ErrDynamicRecordWriteFailed.Error())
	}

	path := e.fullPath(record)
	if err := e.cfg.FS.WriteFile(path, data); err != nil {
		return domain.NotExist, zerr.With(zerr.Wrap(err, domain.ErrDynamicRecordWriteFailed.Error()), "path", path)
	}
	e.log.Debug(fmt.Sprintf("recorded %s: %s", record, data))
	return e.cfg.Store.SetModifiedTime(path)
}

func (e *Engine) resolveLocked(t *target) {
	t.state = domain.TargetResolved
	t.err = nil
	e.notifyLocked(t, outcome{mtime: t.mtime})

	for p := range e.graph.InNeighbors(t.name) {
		pt, ok := e.targets[p]
		if !ok {
			continue
		}
		delete(pt.pending, t.name)
		if pt.isReady() {
			e.enqueueLocked(pt)
		}
	}
}

// rejectLocked fails t and every unfinished target that depends on it.
func (e *Engine) rejectLocked(t *target, err error) {
	if t.state.IsFinished() {
		return
	}
	e.failLocked(t, err)
	for _, a := range e.graph.Ancestors(t.name) {
		if at, ok := e.targets[a]; ok && !at.state.IsFinished() {
			e.failLocked(at, err)
		}
	}
}

func (e *Engine) failLocked(t *target, err error) {
	t.state = domain.TargetRejected
	t.err = err
	e.notifyLocked(t, outcome{mtime: domain.NotExist, err: err})
}

func (e *Engine) notifyLocked(t *target, o outcome) {
	for _, w := range t.waiters {
		e.outbox = append(e.outbox, delivery{to: w, o: o})
	}
	t.waiters = nil
}

func (e *Engine) emitLocked(kind domain.EventKind, t *target) {
	if e.cfg.Emit == nil {
		return
	}
	if e.cfg.Subscribed != nil && !e.cfg.Subscribed(kind) {
		return
	}
	e.events = append(e.events, domain.Event{
		Kind:         kind,
		Target:       t.name,
		Parent:       t.parent,
		Dependencies: t.dependencies(),
		Graph:        e.graph.Clone(),
	})
}

// unlock releases the engine lock, then delivers the events and results
// collected while it was held. Events go first so that listeners observe a
// target before anyone waiting on it resumes.
func (e *Engine) unlock() {
	events, outbox := e.events, e.outbox
	e.events, e.outbox = nil, nil
	e.mu.Unlock()

	for _, ev := range events {
		e.cfg.Emit(ev)
	}
	for _, d := range outbox {
		d.to <- d.o
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string)   {}
func (nopLogger) Verbose(string) {}
func (nopLogger) Info(string)    {}
func (nopLogger) Warn(string)    {}
func (nopLogger) Error(error)    {}
