// Package makefile is the rule registry and the entry point for making targets.
package makefile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
	"go.trai.ch/makit/internal/engine/pattern"
	"go.trai.ch/makit/internal/engine/prereq"
	"go.trai.ch/makit/internal/engine/recipe"
	"go.trai.ch/makit/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ scheduler.RuleSource = (*Makefile)(nil)

// Option configures a Makefile.
type Option func(*Makefile)

// WithLogger sets the logger handed to every engine.
func WithLogger(log ports.Logger) Option {
	return func(m *Makefile) { m.log = log }
}

// WithTracer wraps every recipe run in a span.
func WithTracer(tracer ports.Tracer) Option {
	return func(m *Makefile) { m.tracer = tracer }
}

// WithoutCheckCircular disables cycle detection. A cycle then blocks until
// the make context is cancelled.
func WithoutCheckCircular() Option {
	return func(m *Makefile) { m.disableCheckCircular = true }
}

type listener struct {
	id   int
	kind domain.EventKind
	fn   func(domain.Event)
}

// Makefile maps target declarations to rules and makes targets. Rules are
// matched by exact name first, then pattern rules are scanned from the most
// recently registered to the oldest.
type Makefile struct {
	root   string
	fs     ports.FileSystem
	store  ports.TimestampStore
	log    ports.Logger
	tracer ports.Tracer

	mu                   sync.RWMutex
	byKey                map[string]*scheduler.Rule
	files                map[string]*scheduler.Rule
	fileOrder            []string
	patterns             []*scheduler.Rule
	disableCheckCircular bool
	listeners            []listener
	nextListener         int
	last                 *scheduler.Engine
}

// New creates an empty Makefile rooted at root.
func New(root string, fsys ports.FileSystem, store ports.TimestampStore, opts ...Option) *Makefile {
	m := &Makefile{
		root:  root,
		fs:    fsys,
		store: store,
		byKey: make(map[string]*scheduler.Rule),
		files: make(map[string]*scheduler.Rule),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = nopLogger{}
	}
	return m
}

// Root returns the project root.
func (m *Makefile) Root() string {
	return m.root
}

// DisableCheckCircular turns off cycle detection for subsequent makes.
func (m *Makefile) DisableCheckCircular() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disableCheckCircular = true
}

// AddRule registers a rule for a string declaration.
func (m *Makefile) AddRule(decl string, prereqs prereq.Schedule, rc recipe.Recipe) (*scheduler.Rule, error) {
	p, err := pattern.Compile(decl)
	if err != nil {
		return nil, err
	}
	return m.AddPatternRule(p, prereqs, rc), nil
}

// AddPatternRule registers a rule for a compiled pattern. Registering the same
// declaration twice keeps both rules; the later one wins for pattern rules
// and replaces the earlier one for plain paths.
func (m *Makefile) AddPatternRule(p *pattern.Pattern, prereqs prereq.Schedule, rc recipe.Recipe) *scheduler.Rule {
	rule := &scheduler.Rule{Pattern: p, Prerequisites: normalize(prereqs), Recipe: rc}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(rule)
	m.log.Verbose(fmt.Sprintf("addRule %s: %s", p, rule.Prerequisites))
	return rule
}

// UpdateRule replaces the prerequisites and recipe of a registered
// declaration. Regular expression rules are addressed as "/expr/".
func (m *Makefile) UpdateRule(decl string, prereqs prereq.Schedule, rc recipe.Recipe) (*scheduler.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.byKey[decl]
	if !ok {
		return nil, zerr.With(domain.ErrRuleNotFound, "decl", decl)
	}
	rule := &scheduler.Rule{
		Pattern:                old.Pattern,
		Prerequisites:          normalize(prereqs),
		Recipe:                 rc,
		HasDynamicDependencies: old.HasDynamicDependencies,
		IsDependencyTarget:     old.IsDependencyTarget,
	}
	if old.HasDynamicDependencies {
		rule.Prerequisites = dynamicPrerequisites(rule.Prerequisites, m.log)
	}
	m.replaceLocked(old, rule)
	m.log.Verbose(fmt.Sprintf("updateRule %s: %s", rule.Pattern, rule.Prerequisites))
	return rule, nil
}

// UpdateOrAddRule updates decl when it is registered and adds it otherwise.
func (m *Makefile) UpdateOrAddRule(decl string, prereqs prereq.Schedule, rc recipe.Recipe) (*scheduler.Rule, error) {
	m.mu.RLock()
	_, ok := m.byKey[decl]
	m.mu.RUnlock()

	if ok {
		return m.UpdateRule(decl, prereqs, rc)
	}
	return m.AddRule(decl, prereqs, rc)
}

// FindRule returns the rule matching target.
func (m *Makefile) FindRule(target string) (*scheduler.Rule, pattern.Match) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if rule, ok := m.files[target]; ok {
		return rule, pattern.Match{target}
	}
	for i := len(m.patterns) - 1; i >= 0; i-- {
		rule := m.patterns[i]
		if match, ok := rule.Pattern.Match(target); ok {
			return rule, match
		}
	}
	return nil, nil
}

// DefaultTarget returns the first registered plain path rule.
func (m *Makefile) DefaultTarget() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.fileOrder) == 0 {
		return "", domain.ErrNoDefaultTarget
	}
	return m.fileOrder[0], nil
}

// NewEngine creates an engine over the current rules.
func (m *Makefile) NewEngine() *scheduler.Engine {
	m.mu.RLock()
	disable := m.disableCheckCircular
	m.mu.RUnlock()

	return scheduler.New(scheduler.Config{
		Root:                 m.root,
		Rules:                m,
		Store:                m.store,
		FS:                   m.fs,
		Logger:               m.log,
		Tracer:               m.tracer,
		Emit:                 m.emit,
		Subscribed:           m.subscribed,
		DisableCheckCircular: disable,
	})
}

// Make makes target, or the default target when target is empty, on a fresh
// engine. The engine is returned even on failure so callers can inspect the
// graph, and it is kept for Invalidate.
func (m *Makefile) Make(ctx context.Context, target string) (*scheduler.Engine, error) {
	if target == "" {
		return m.MakeAll(ctx)
	}
	return m.MakeAll(ctx, target)
}

// MakeAll makes every target concurrently on one fresh engine, so
// prerequisites they share are made once. With no targets it makes the
// default target. It returns the first failure.
func (m *Makefile) MakeAll(ctx context.Context, targets ...string) (*scheduler.Engine, error) {
	if len(targets) == 0 {
		target, err := m.DefaultTarget()
		if err != nil {
			return nil, err
		}
		targets = []string{target}
	}

	e := m.NewEngine()
	m.mu.Lock()
	m.last = e
	m.mu.Unlock()

	var g errgroup.Group
	for _, target := range targets {
		g.Go(func() error {
			_, err := e.Make(ctx, target, "")
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return e, Describe(e, err)
	}
	return e, nil
}

// Invalidate invalidates target on the engine of the latest make.
func (m *Makefile) Invalidate(ctx context.Context, target string) error {
	m.mu.RLock()
	e := m.last
	m.mu.RUnlock()

	if e == nil {
		return zerr.With(domain.ErrUnknownTarget, "target", target)
	}
	return e.Invalidate(ctx, target)
}

// Graph renders the dependency graph of the latest make.
func (m *Makefile) Graph() string {
	m.mu.RLock()
	e := m.last
	m.mu.RUnlock()

	if e == nil {
		return ""
	}
	return e.GraphString()
}

// On subscribes fn to events of kind and returns a subscription id for Off.
func (m *Makefile) On(kind domain.EventKind, fn func(domain.Event)) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextListener++
	m.listeners = append(m.listeners, listener{id: m.nextListener, kind: kind, fn: fn})
	return m.nextListener
}

// Off removes a subscription.
func (m *Makefile) Off(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, l := range m.listeners {
		if l.id == id {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return
		}
	}
}

func (m *Makefile) subscribed(kind domain.EventKind) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.listeners {
		if l.kind == kind {
			return true
		}
	}
	return false
}

func (m *Makefile) emit(ev domain.Event) {
	m.mu.RLock()
	var fns []func(domain.Event)
	for _, l := range m.listeners {
		if l.kind == ev.Kind {
			fns = append(fns, l.fn)
		}
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (m *Makefile) insertLocked(rule *scheduler.Rule) {
	key := rule.Pattern.String()
	if rule.Pattern.IsFilePath() {
		if _, ok := m.files[key]; !ok {
			m.fileOrder = append(m.fileOrder, key)
		}
		m.files[key] = rule
	} else {
		m.patterns = append(m.patterns, rule)
	}
	m.byKey[key] = rule
}

func (m *Makefile) replaceLocked(old, rule *scheduler.Rule) {
	key := rule.Pattern.String()
	m.byKey[key] = rule
	if rule.Pattern.IsFilePath() {
		m.files[key] = rule
		return
	}
	for i, r := range m.patterns {
		if r == old {
			m.patterns[i] = rule
		}
	}
}

func normalize(s prereq.Schedule) prereq.Schedule {
	if s.IsZero() {
		return prereq.None()
	}
	return s
}

// MakeError is returned by Make. It names the target where the failure
// started and the chain of dependants up to the invocation root.
type MakeError struct {
	Target string
	Chain  []string
	Err    error
}

func (e *MakeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v while making %q", e.Err, e.Target)
	for _, dep := range e.Chain {
		fmt.Fprintf(&sb, "\n    required by %q", dep)
	}
	return sb.String()
}

// Message renders the chain without the cause.
func (e *MakeError) Message() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "while making %q", e.Target)
	for _, dep := range e.Chain {
		fmt.Fprintf(&sb, "\nrequired by %q", dep)
	}
	return sb.String()
}

func (e *MakeError) Unwrap() error {
	return e.Err
}

// Describe attaches the dependency chain of the failing target to err.
func Describe(e *scheduler.Engine, err error) error {
	var te *scheduler.TargetError
	if !errors.As(err, &te) {
		return err
	}
	path := e.FindPathToRoot(te.Target)
	if len(path) > 0 {
		path = path[1:]
	}
	return &MakeError{Target: te.Target, Chain: path, Err: te.Err}
}

type nopLogger struct{}

func (nopLogger) Debug(string)   {}
func (nopLogger) Verbose(string) {}
func (nopLogger) Info(string)    {}
func (nopLogger) Warn(string)    {}
func (nopLogger) Error(error)    {}
