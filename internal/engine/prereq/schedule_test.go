package prereq_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/engine/pattern"
	"go.trai.ch/makit/internal/engine/prereq"
)

type fakeContext struct {
	target string
	match  pattern.Match
}

func (f fakeContext) Target() string                  { return f.target }
func (f fakeContext) Match() pattern.Match            { return f.match }
func (f fakeContext) TargetFullPath() string          { return "/root/" + f.target }
func (f fakeContext) ReadFile(string) ([]byte, error) { return nil, errors.New("not implemented") }
func (f fakeContext) Unlink(string) error             { return nil }

func newContext(target string, captures ...string) fakeContext {
	return fakeContext{target: target, match: append(pattern.Match{target}, captures...)}
}

func TestTargets(t *testing.T) {
	ctx := context.Background()
	c := newContext("src/foo/a.md5", "src/foo", "a")

	tests := []struct {
		name     string
		schedule prereq.Schedule
		want     []string
	}{
		{"none", prereq.None(), nil},
		{"single", prereq.Name("a.js"), []string{"a.js"}},
		{"captures", prereq.Name("$1/$2.san.js"), []string{"src/foo/a.san.js"}},
		{"whole match", prereq.Name("$0.rude.dep"), []string{"src/foo/a.md5.rude.dep"}},
		{"names", prereq.Names("b", "c"), []string{"b", "c"}},
		{"series", prereq.Series(prereq.Name("x"), prereq.Names("y", "z")), []string{"x", "y", "z"}},
		{
			"nested",
			prereq.Concurrent(prereq.Name("a"), prereq.Series(prereq.Name("b"), prereq.Name("c")), prereq.Name("d")),
			[]string{"a", "b", "c", "d"},
		},
		{
			"resolver",
			prereq.Resolve(func(_ context.Context, c prereq.Context) (prereq.Schedule, error) {
				return prereq.Name(c.Target() + ".js"), nil
			}),
			[]string{"src/foo/a.md5.js"},
		},
		{
			"resolver returning series",
			prereq.Resolve(func(context.Context, prereq.Context) (prereq.Schedule, error) {
				return prereq.Series(prereq.Name("$2"), prereq.Name("$1")), nil
			}),
			[]string{"a", "src/foo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := prereq.Targets(ctx, tt.schedule, c)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMap_Errors(t *testing.T) {
	ctx := context.Background()
	c := newContext("a.out")

	t.Run("zero schedule", func(t *testing.T) {
		_, err := prereq.Targets(ctx, prereq.Schedule{}, c)
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrInvalidPrerequisite.Error())
	})

	t.Run("capture out of range", func(t *testing.T) {
		_, err := prereq.Targets(ctx, prereq.Name("$2.js"), c)
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrCaptureOutOfRange.Error())
	})

	t.Run("resolver error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := prereq.Targets(ctx, prereq.Resolve(func(context.Context, prereq.Context) (prereq.Schedule, error) {
			return prereq.Schedule{}, boom
		}), c)
		require.ErrorIs(t, err, boom)
	})

	t.Run("mapping error stops series", func(t *testing.T) {
		var seen []string
		_, err := prereq.Map(ctx, prereq.Series(prereq.Name("a"), prereq.Name("b")), c,
			func(_ context.Context, name string) (string, error) {
				seen = append(seen, name)
				return "", errors.New("fail " + name)
			})
		require.EqualError(t, err, "fail a")
		assert.Equal(t, []string{"a"}, seen)
	})
}

func TestMap_SeriesRunsInOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var (
			mu    sync.Mutex
			order []string
		)
		delays := map[string]time.Duration{"slow": 30 * time.Millisecond, "fast": time.Millisecond}

		_, err := prereq.Map(t.Context(), prereq.Series(prereq.Name("slow"), prereq.Name("fast")), newContext("t"),
			func(_ context.Context, name string) (struct{}, error) {
				time.Sleep(delays[name])
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				return struct{}{}, nil
			})
		require.NoError(t, err)
		assert.Equal(t, []string{"slow", "fast"}, order)
	})
}

func TestMap_ConcurrentKeepsDeclarationOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var (
			mu        sync.Mutex
			completed []string
		)
		delays := map[string]time.Duration{"slow": 30 * time.Millisecond, "fast": time.Millisecond}

		got, err := prereq.Map(t.Context(), prereq.Names("slow", "fast"), newContext("t"),
			func(_ context.Context, name string) (string, error) {
				time.Sleep(delays[name])
				mu.Lock()
				completed = append(completed, name)
				mu.Unlock()
				return name + "!", nil
			})
		require.NoError(t, err)
		assert.Equal(t, []string{"fast", "slow"}, completed)
		assert.Equal(t, []string{"slow!", "fast!"}, got)
	})
}

func TestSchedule_String(t *testing.T) {
	s := prereq.Concurrent(prereq.Name("a"), prereq.Series(prereq.Name("b"), prereq.Name("c")))
	assert.Equal(t, "[a, series(b, c)]", s.String())
	assert.True(t, prereq.Schedule{}.IsZero())
	assert.False(t, prereq.None().IsZero())
}
