package scheduler

import (
	"context"
	"path/filepath"
	"slices"
	"sync"

	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
	"go.trai.ch/makit/internal/engine/pattern"
	"go.trai.ch/makit/internal/engine/recipe"
	"go.trai.ch/zerr"
)

var _ recipe.Context = (*Context)(nil)

// Context is handed to resolvers and recipes. It holds only the target name
// and a make capability, never the engine itself.
type Context struct {
	target string
	match  pattern.Match
	root   string
	fs     ports.FileSystem
	make   func(ctx context.Context, target string) (domain.Timestamp, error)

	mu      sync.Mutex
	deps    []string
	dynamic []string
}

// Target returns the target name.
func (c *Context) Target() string {
	return c.target
}

// Match returns the pattern match of the target.
func (c *Context) Match() pattern.Match {
	return c.match
}

// Root returns the project root.
func (c *Context) Root() string {
	return c.root
}

// ToFullPath joins p with the project root unless it is absolute.
func (c *Context) ToFullPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.root, p)
}

// TargetFullPath returns the full path of the target.
func (c *Context) TargetFullPath() string {
	return c.ToFullPath(c.target)
}

// Dependencies returns the static prerequisites in declaration order.
func (c *Context) Dependencies() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.deps)
}

// DynamicDependencies returns the targets made by the recipe so far.
func (c *Context) DynamicDependencies() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.dynamic)
}

// AllDependencies returns the static followed by the dynamic prerequisites.
func (c *Context) AllDependencies() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Concat(c.deps, c.dynamic)
}

// DependencyPath returns the full path of the i-th static prerequisite.
func (c *Context) DependencyPath(i int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.deps) {
		return "", zerr.With(zerr.With(domain.ErrDependencyIndexOutOfRange, "index", i), "count", len(c.deps))
	}
	return c.ToFullPath(c.deps[i]), nil
}

// ReadDependency reads the i-th static prerequisite.
func (c *Context) ReadDependency(i int) ([]byte, error) {
	p, err := c.DependencyPath(i)
	if err != nil {
		return nil, err
	}
	return c.fs.ReadFile(p)
}

// ReadTarget reads the target.
func (c *Context) ReadTarget() ([]byte, error) {
	return c.fs.ReadFile(c.TargetFullPath())
}

// WriteTarget writes the target, creating parent directories.
func (c *Context) WriteTarget(data []byte) error {
	return c.fs.WriteFile(c.TargetFullPath(), data)
}

// ReadFile reads a file relative to the project root.
func (c *Context) ReadFile(path string) ([]byte, error) {
	return c.fs.ReadFile(c.ToFullPath(path))
}

// WriteFile writes a file relative to the project root, creating parent directories.
func (c *Context) WriteFile(path string, data []byte) error {
	return c.fs.WriteFile(c.ToFullPath(path), data)
}

// Unlink removes a file relative to the project root.
func (c *Context) Unlink(path string) error {
	return c.fs.Remove(c.ToFullPath(path))
}

// Make makes target as a dynamic dependency of this context's target.
func (c *Context) Make(ctx context.Context, target string) (domain.Timestamp, error) {
	c.mu.Lock()
	if !slices.Contains(c.dynamic, target) {
		c.dynamic = append(c.dynamic, target)
	}
	c.mu.Unlock()

	return c.make(ctx, target)
}

func (c *Context) setDependencies(deps []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deps = deps
}

func (c *Context) resetDynamic() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dynamic = nil
}
