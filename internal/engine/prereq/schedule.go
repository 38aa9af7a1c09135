// Package prereq implements prerequisite schedules: small expression trees
// of single items, series and concurrent groups that resolve a rule's
// prerequisites for one target.
package prereq

import (
	"context"
	"slices"
	"strings"

	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/engine/pattern"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Context is the view of the target being prepared that resolvers receive.
type Context interface {
	// Target returns the name of the target whose prerequisites are resolved.
	Target() string
	// Match returns the pattern match of the target.
	Match() pattern.Match
	// TargetFullPath returns the target path joined with the project root.
	TargetFullPath() string
	// ReadFile reads a file relative to the project root.
	ReadFile(path string) ([]byte, error)
	// Unlink removes a file relative to the project root.
	Unlink(path string) error
}

// Resolver computes prerequisites at preparation time. The returned schedule
// is resolved in turn, so a resolver may yield a single name, a list or a
// nested series.
type Resolver func(ctx context.Context, c Context) (Schedule, error)

type kind int

const (
	kindInvalid kind = iota
	kindName
	kindResolver
	kindSeries
	kindConcurrent
)

// Schedule is an immutable prerequisite declaration. The zero value is invalid.
type Schedule struct {
	kind     kind
	name     string
	resolver Resolver
	children []Schedule
}

// Name declares a single prerequisite. $n references are replaced with the
// captures of the target's match.
func Name(name string) Schedule {
	return Schedule{kind: kindName, name: name}
}

// Names declares concurrent prerequisites by name.
func Names(names ...string) Schedule {
	children := make([]Schedule, len(names))
	for i, n := range names {
		children[i] = Name(n)
	}
	return Schedule{kind: kindConcurrent, children: children}
}

// Resolve declares prerequisites computed by fn.
func Resolve(fn Resolver) Schedule {
	return Schedule{kind: kindResolver, resolver: fn}
}

// Series declares prerequisites that are resolved strictly in order: each
// item, including the side effects of the mapping function, completes before
// the next one starts.
func Series(items ...Schedule) Schedule {
	return Schedule{kind: kindSeries, children: slices.Clone(items)}
}

// Concurrent declares prerequisites resolved without ordering constraints.
// Results keep declaration order.
func Concurrent(items ...Schedule) Schedule {
	return Schedule{kind: kindConcurrent, children: slices.Clone(items)}
}

// None declares no prerequisites.
func None() Schedule {
	return Concurrent()
}

// IsZero reports whether s is the zero value.
func (s Schedule) IsZero() bool {
	return s.kind == kindInvalid
}

// String renders the declaration.
func (s Schedule) String() string {
	switch s.kind {
	case kindName:
		return s.name
	case kindResolver:
		return "<resolver>"
	case kindSeries, kindConcurrent:
		parts := make([]string, len(s.children))
		for i, c := range s.children {
			parts[i] = c.String()
		}
		if s.kind == kindSeries {
			return "series(" + strings.Join(parts, ", ") + ")"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<invalid>"
	}
}

// Map resolves every prerequisite of s for c and calls fn once per resolved
// name. Results are flattened in declaration order. Series children run fn
// one after another; concurrent children run fn in parallel.
func Map[T any](ctx context.Context, s Schedule, c Context, fn func(ctx context.Context, name string) (T, error)) ([]T, error) {
	switch s.kind {
	case kindName:
		name, err := c.Match().Expand(s.name)
		if err != nil {
			return nil, zerr.With(err, "target", c.Target())
		}
		v, err := fn(ctx, name)
		if err != nil {
			return nil, err
		}
		return []T{v}, nil

	case kindResolver:
		next, err := s.resolver(ctx, c)
		if err != nil {
			return nil, err
		}
		return Map(ctx, next, c, fn)

	case kindSeries:
		var out []T
		for _, child := range s.children {
			vs, err := Map(ctx, child, c, fn)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil

	case kindConcurrent:
		results := make([][]T, len(s.children))
		// gctx only stops the resolution of the remaining children.
		g, gctx := errgroup.WithContext(ctx)
		for i, child := range s.children {
			g.Go(func() error {
				vs, err := Map(gctx, child, c, fn)
				if err != nil {
					return err
				}
				results[i] = vs
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return slices.Concat(results...), nil

	default:
		return nil, zerr.With(domain.ErrInvalidPrerequisite, "target", c.Target())
	}
}

// Targets resolves s to the list of prerequisite names.
func Targets(ctx context.Context, s Schedule, c Context) ([]string, error) {
	return Map(ctx, s, c, func(_ context.Context, name string) (string, error) {
		return name, nil
	})
}
