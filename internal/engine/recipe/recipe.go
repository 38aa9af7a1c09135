// Package recipe normalizes the supported recipe shapes into one contract:
// run to completion, then report success or an error.
package recipe

import (
	"context"
	"fmt"
	"sync"

	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/engine/prereq"
	"go.trai.ch/zerr"
)

// Context is what a recipe sees of the target it produces.
type Context interface {
	prereq.Context

	// Root returns the project root.
	Root() string
	// Dependencies returns the static prerequisites in declaration order.
	Dependencies() []string
	// DynamicDependencies returns the targets made from inside the recipe so far.
	DynamicDependencies() []string
	// DependencyPath returns the full path of the i-th static prerequisite.
	DependencyPath(i int) (string, error)
	// ReadDependency reads the i-th static prerequisite.
	ReadDependency(i int) ([]byte, error)
	// ReadTarget reads the target.
	ReadTarget() ([]byte, error)
	// WriteTarget writes the target, creating parent directories.
	WriteTarget(data []byte) error
	// ToFullPath joins p with the project root unless it is absolute.
	ToFullPath(p string) string
	// WriteFile writes a file relative to the project root, creating parent directories.
	WriteFile(path string, data []byte) error
	// Make makes target and records it as a dynamic dependency.
	Make(ctx context.Context, target string) (domain.Timestamp, error)
}

// Kind identifies the calling convention of a recipe.
type Kind int

const (
	// KindNone is the zero recipe, which does nothing.
	KindNone Kind = iota
	// KindReturnValue is a synchronous function that succeeds unless it panics.
	KindReturnValue
	// KindAwaitable is a function whose returned error decides the outcome.
	KindAwaitable
	// KindCallback is a function that reports its outcome through a completion callback.
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindReturnValue:
		return "return-value"
	case KindAwaitable:
		return "awaitable"
	case KindCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Recipe is a tagged union over the supported calling conventions. The kind
// is fixed when the recipe is built.
type Recipe struct {
	kind     Kind
	value    func(c Context)
	await    func(ctx context.Context, c Context) error
	callback func(c Context, done func(error))
}

// Func builds a recipe from a synchronous function.
func Func(fn func(c Context)) Recipe {
	return Recipe{kind: KindReturnValue, value: fn}
}

// Await builds a recipe from a function returning an error.
func Await(fn func(ctx context.Context, c Context) error) Recipe {
	return Recipe{kind: KindAwaitable, await: fn}
}

// Callback builds a recipe from a function that calls done exactly once.
// Calls after the first are ignored.
func Callback(fn func(c Context, done func(error))) Recipe {
	return Recipe{kind: KindCallback, callback: fn}
}

// Kind returns the calling convention.
func (r Recipe) Kind() Kind {
	return r.kind
}

// IsZero reports whether r is the no-op recipe.
func (r Recipe) IsZero() bool {
	return r.kind == KindNone
}

// Run executes the recipe and blocks until it signals completion or ctx is done.
// A panic inside the recipe is reported as an error.
func (r Recipe) Run(ctx context.Context, c Context) (err error) {
	switch r.kind {
	case KindNone:
		return nil
	case KindReturnValue:
		defer recoverInto(&err)
		r.value(c)
		return nil
	case KindAwaitable:
		defer recoverInto(&err)
		return r.await(ctx, c)
	case KindCallback:
		return r.runCallback(ctx, c)
	default:
		return zerr.With(zerr.New("unknown recipe kind"), "kind", int(r.kind))
	}
}

func (r Recipe) runCallback(ctx context.Context, c Context) error {
	result := make(chan error, 1)
	var once sync.Once
	done := func(err error) {
		once.Do(func() { result <- err })
	}

	go func() {
		var err error
		defer func() {
			if err != nil {
				done(err)
			}
		}()
		defer recoverInto(&err)
		r.callback(c, done)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = e
			return
		}
		*err = zerr.New(fmt.Sprint(r))
	}
}
