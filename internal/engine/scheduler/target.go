package scheduler

import (
	"context"
	"slices"

	"go.trai.ch/makit/internal/core/domain"
)

type outcome struct {
	mtime domain.Timestamp
	err   error
}

// target is the engine's record of one target. All fields except rule and
// ctx are guarded by the engine mutex.
type target struct {
	name   string
	parent string
	rule   *Rule
	ctx    *Context
	// runCtx bounds the recipe and the prerequisite resolution of the target.
	runCtx context.Context

	mtime domain.Timestamp
	state domain.TargetState
	gen   int
	err   error

	root      bool
	parked    bool
	preparing bool
	prepared  bool
	deps      []string
	pending   map[string]struct{}
	waiters   []chan outcome
}

func (t *target) isReady() bool {
	return t.state == domain.TargetInit && t.prepared && len(t.pending) == 0
}

// dependencies returns the static and dynamic prerequisites.
func (t *target) dependencies() []string {
	out := slices.Clone(t.deps)
	for _, d := range t.ctx.DynamicDependencies() {
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}

func (t *target) addWaiter() chan outcome {
	w := make(chan outcome, 1)
	t.waiters = append(t.waiters, w)
	return w
}
