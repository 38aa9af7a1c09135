package makefile_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/makit/internal/adapters/db"
	"go.trai.ch/makit/internal/adapters/fs"
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports/mocks"
	"go.trai.ch/makit/internal/engine/clock"
	"go.trai.ch/makit/internal/engine/makefile"
	"go.trai.ch/makit/internal/engine/pattern"
	"go.trai.ch/makit/internal/engine/prereq"
	"go.trai.ch/makit/internal/engine/recipe"
	"go.uber.org/mock/gomock"
)

const root = "/project"

type counter struct {
	mu   sync.Mutex
	runs map[string]int
}

func (c *counter) inc(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runs == nil {
		c.runs = make(map[string]int)
	}
	c.runs[name]++
}

func (c *counter) get(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs[name]
}

func (c *counter) writes() recipe.Recipe {
	return recipe.Await(func(_ context.Context, rc recipe.Context) error {
		c.inc(rc.Target())
		return rc.WriteTarget([]byte(rc.Target()))
	})
}

func newMakefile(t *testing.T, opts ...makefile.Option) (*makefile.Makefile, *fs.Memory) {
	t.Helper()
	memfs := fs.NewMemory()
	return makefile.New(root, memfs, clock.NewMTime(db.NewMemory(), memfs), opts...), memfs
}

func md5Recipe() recipe.Recipe {
	return recipe.Await(func(_ context.Context, c recipe.Context) error {
		src, err := c.ReadDependency(0)
		if err != nil {
			return err
		}
		sum := md5.Sum(src)
		return c.WriteTarget([]byte(hex.EncodeToString(sum[:])))
	})
}

func md5Of(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestMakefile_ReportsDependencyChain(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c counter
		m, _ := newMakefile(t)
		_, err := m.AddRule("foo", prereq.Names("bar"), c.writes())
		require.NoError(t, err)
		_, err = m.AddRule("bar", prereq.Names("coo"), c.writes())
		require.NoError(t, err)

		_, err = m.Make(t.Context(), "foo")
		require.Error(t, err)

		var me *makefile.MakeError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, "coo", me.Target)
		assert.Equal(t, []string{"bar", "foo"}, me.Chain)
		assert.ErrorContains(t, err, domain.ErrNoMatchingRule.Error())
		assert.Contains(t, err.Error(), "while making \"coo\"\n    required by \"bar\"\n    required by \"foo\"")
		assert.Zero(t, c.get("foo"))
		assert.Zero(t, c.get("bar"))
	})
}

func TestMakefile_PatternRules(t *testing.T) {
	tests := []struct {
		name    string
		add     func(m *makefile.Makefile) error
		target  string
		content string
	}{
		{
			name: "capture glob",
			add: func(m *makefile.Makefile) error {
				_, err := m.AddRule("(*).md5.out", prereq.Names("$1"), md5Recipe())
				return err
			},
			target: "a.js.md5.out",
		},
		{
			name: "regexp",
			add: func(m *makefile.Makefile) error {
				p, err := pattern.Regexp(`(.+)\.sum$`)
				if err != nil {
					return err
				}
				m.AddPatternRule(p, prereq.Names("$1"), md5Recipe())
				return nil
			},
			target: "a.js.sum",
		},
		{
			name: "resolver",
			add: func(m *makefile.Makefile) error {
				resolve := prereq.Resolve(func(context.Context, prereq.Context) (prereq.Schedule, error) {
					return prereq.Name("a.js"), nil
				})
				_, err := m.AddRule("*.digest", resolve, md5Recipe())
				return err
			},
			target: "x.digest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				m, memfs := newMakefile(t)
				require.NoError(t, memfs.WriteFile(root+"/a.js", []byte("console.log(1)")))
				require.NoError(t, tt.add(m))

				_, err := m.Make(t.Context(), tt.target)
				require.NoError(t, err)

				data, err := memfs.ReadFile(root + "/" + tt.target)
				require.NoError(t, err)
				assert.Equal(t, md5Of("console.log(1)"), string(data))
			})
		})
	}
}

func TestMakefile_LaterPatternRuleWins(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c counter
		m, _ := newMakefile(t)
		_, err := m.AddRule("*.txt", prereq.None(), recipe.Func(func(recipe.Context) { c.inc("first") }))
		require.NoError(t, err)
		_, err = m.AddRule("a.*", prereq.None(), recipe.Func(func(recipe.Context) { c.inc("second") }))
		require.NoError(t, err)

		_, err = m.Make(t.Context(), "a.txt")
		require.NoError(t, err)
		assert.Zero(t, c.get("first"))
		assert.Equal(t, 1, c.get("second"))
	})
}

func TestMakefile_PlainRuleBeatsPattern(t *testing.T) {
	m, _ := newMakefile(t)
	plain, err := m.AddRule("a.txt", prereq.None(), recipe.Recipe{})
	require.NoError(t, err)
	_, err = m.AddRule("*.txt", prereq.None(), recipe.Recipe{})
	require.NoError(t, err)

	rule, match := m.FindRule("a.txt")
	assert.Same(t, plain, rule)
	assert.Equal(t, pattern.Match{"a.txt"}, match)

	rule, _ = m.FindRule("nothing")
	assert.Nil(t, rule)
}

func TestMakefile_DynamicRule(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c counter
		m, memfs := newMakefile(t)
		require.NoError(t, memfs.WriteFile(root+"/coo", []byte("coo")))

		_, err := m.AddDynamicRule("foo", prereq.Names("coo"), recipe.Await(func(ctx context.Context, rc recipe.Context) error {
			c.inc("foo")
			if _, err := rc.Make(ctx, "bar"); err != nil {
				return err
			}
			bar, err := rc.ReadFile("bar")
			if err != nil {
				return err
			}
			return rc.WriteTarget(bar)
		}))
		require.NoError(t, err)
		_, err = m.AddRule("bar", prereq.None(), c.writes())
		require.NoError(t, err)

		build := func() {
			t.Helper()
			_, err := m.Make(t.Context(), "foo")
			require.NoError(t, err)
		}

		build()
		assert.Equal(t, 1, c.get("foo"))
		assert.Equal(t, 1, c.get("bar"))
		record, err := memfs.ReadFile(root + "/foo" + domain.DynamicRecordExt)
		require.NoError(t, err)
		assert.JSONEq(t, `["bar"]`, string(record))

		build()
		assert.Equal(t, 1, c.get("foo"), "nothing changed")

		require.NoError(t, memfs.WriteFile(root+"/bar", []byte("bar2")))
		build()
		assert.Equal(t, 2, c.get("foo"), "a recorded dependency changed")
		assert.Equal(t, 1, c.get("bar"))
		out, err := memfs.ReadFile(root + "/foo")
		require.NoError(t, err)
		assert.Equal(t, "bar2", string(out))

		build()
		assert.Equal(t, 2, c.get("foo"))

		require.NoError(t, memfs.WriteFile(root+"/coo", []byte("coo2")))
		build()
		assert.Equal(t, 3, c.get("foo"), "a declared prerequisite changed")
		record, err = memfs.ReadFile(root + "/foo" + domain.DynamicRecordExt)
		require.NoError(t, err)
		assert.JSONEq(t, `["bar"]`, string(record))
	})
}

func TestMakefile_CorruptedDynamicRecord(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		log := mocks.NewMockLogger(ctrl)
		log.EXPECT().Debug(gomock.Any()).AnyTimes()
		log.EXPECT().Verbose(gomock.Any()).AnyTimes()
		log.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
			assert.Contains(t, msg, domain.ErrCorruptedDynamicRecord.Error())
		}).Times(1)

		var c counter
		m, memfs := newMakefile(t, makefile.WithLogger(log))
		_, err := m.AddDynamicRule("foo", prereq.None(), recipe.Await(func(ctx context.Context, rc recipe.Context) error {
			c.inc("foo")
			if _, err := rc.Make(ctx, "bar"); err != nil {
				return err
			}
			return rc.WriteTarget(nil)
		}))
		require.NoError(t, err)
		_, err = m.AddRule("bar", prereq.None(), c.writes())
		require.NoError(t, err)

		_, err = m.Make(t.Context(), "foo")
		require.NoError(t, err)

		require.NoError(t, memfs.WriteFile(root+"/foo"+domain.DynamicRecordExt, []byte("{not json")))
		_, err = m.Make(t.Context(), "foo")
		require.NoError(t, err)
		assert.Equal(t, 2, c.get("foo"))

		record, err := memfs.ReadFile(root + "/foo" + domain.DynamicRecordExt)
		require.NoError(t, err)
		assert.JSONEq(t, `["bar"]`, string(record))
	})
}

func TestMakefile_DynamicRuleRejectsRegexp(t *testing.T) {
	m, _ := newMakefile(t)
	p, err := pattern.Regexp(`(.+)\.out$`)
	require.NoError(t, err)

	_, err = m.AddDynamicPatternRule(p, prereq.None(), recipe.Recipe{})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrDynamicRegexpRule.Error())
}

func TestMakefile_UpdateRule(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c counter
		m, _ := newMakefile(t)

		_, err := m.UpdateRule("foo", prereq.None(), recipe.Recipe{})
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrRuleNotFound.Error())

		_, err = m.UpdateOrAddRule("foo", prereq.None(), recipe.Func(func(recipe.Context) { c.inc("old") }))
		require.NoError(t, err)
		_, err = m.UpdateOrAddRule("foo", prereq.None(), recipe.Func(func(recipe.Context) { c.inc("new") }))
		require.NoError(t, err)

		_, err = m.Make(t.Context(), "foo")
		require.NoError(t, err)
		assert.Zero(t, c.get("old"))
		assert.Equal(t, 1, c.get("new"))

		_, err = m.AddRule("*.txt", prereq.None(), recipe.Recipe{})
		require.NoError(t, err)
		updated, err := m.UpdateRule("*.txt", prereq.Names("foo"), recipe.Recipe{})
		require.NoError(t, err)
		rule, _ := m.FindRule("a.txt")
		assert.Same(t, updated, rule)
	})
}

func TestMakefile_DefaultTarget(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c counter
		m, _ := newMakefile(t)

		_, err := m.Make(t.Context(), "")
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrNoDefaultTarget.Error())

		_, err = m.AddRule("*.txt", prereq.None(), c.writes())
		require.NoError(t, err)
		_, err = m.AddRule("all", prereq.Names("a.txt"), c.writes())
		require.NoError(t, err)
		_, err = m.AddRule("other", prereq.None(), c.writes())
		require.NoError(t, err)

		target, err := m.DefaultTarget()
		require.NoError(t, err)
		assert.Equal(t, "all", target)

		_, err = m.Make(t.Context(), "")
		require.NoError(t, err)
		assert.Equal(t, 1, c.get("all"))
		assert.Equal(t, 1, c.get("a.txt"))
		assert.Zero(t, c.get("other"))
	})
}

func TestMakefile_Events(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var (
			mu      sync.Mutex
			made    []string
			skipped []string
		)
		m, _ := newMakefile(t)
		_, err := m.AddRule("foo", prereq.Names("bar"), recipe.Await(func(_ context.Context, c recipe.Context) error {
			return c.WriteTarget(nil)
		}))
		require.NoError(t, err)
		_, err = m.AddRule("bar", prereq.None(), recipe.Await(func(_ context.Context, c recipe.Context) error {
			return c.WriteTarget(nil)
		}))
		require.NoError(t, err)

		madeID := m.On(domain.EventMade, func(ev domain.Event) {
			mu.Lock()
			made = append(made, ev.Target)
			mu.Unlock()
		})
		m.On(domain.EventSkipped, func(ev domain.Event) {
			mu.Lock()
			skipped = append(skipped, ev.Target)
			mu.Unlock()
		})

		_, err = m.Make(t.Context(), "foo")
		require.NoError(t, err)
		m.Off(madeID)
		_, err = m.Make(t.Context(), "foo")
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		assert.ElementsMatch(t, []string{"bar", "foo"}, made)
		assert.ElementsMatch(t, []string{"bar", "foo"}, skipped)
	})
}

func TestMakefile_Invalidate(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c counter
		m, memfs := newMakefile(t)

		err := m.Invalidate(t.Context(), "bar")
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrUnknownTarget.Error())

		_, err = m.AddRule("foo", prereq.Names("bar"), c.writes())
		require.NoError(t, err)
		require.NoError(t, memfs.WriteFile(root+"/bar", []byte("bar")))

		e, err := m.Make(t.Context(), "foo")
		require.NoError(t, err)
		assert.Equal(t, 1, c.get("foo"))
		assert.Contains(t, m.Graph(), "foo\n└─ bar\n")

		require.NoError(t, memfs.WriteFile(root+"/bar", []byte("bar2")))
		require.NoError(t, m.Invalidate(t.Context(), "bar"))
		synctest.Wait()
		e.Wait()
		assert.Equal(t, 2, c.get("foo"))
	})
}

func TestMakefile_DisableCheckCircular(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, _ := newMakefile(t, makefile.WithoutCheckCircular())
		_, err := m.AddRule("a", prereq.Names("b"), recipe.Recipe{})
		require.NoError(t, err)
		_, err = m.AddRule("b", prereq.None(), recipe.Recipe{})
		require.NoError(t, err)

		_, err = m.Make(t.Context(), "a")
		require.NoError(t, err)
	})
}

func TestMakefile_CircularDependency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, _ := newMakefile(t)
		_, err := m.AddRule("a", prereq.Names("b"), recipe.Recipe{})
		require.NoError(t, err)
		_, err = m.AddRule("b", prereq.Names("a"), recipe.Recipe{})
		require.NoError(t, err)

		_, err = m.Make(t.Context(), "a")
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrCircularDependency.Error())
		assert.ErrorContains(t, err, "a -> b -> a")
	})
}

func TestMakefile_MakeAllSharesPrerequisites(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c counter
		m, memfs := newMakefile(t)
		_, err := m.AddRule("a", prereq.Names("shared"), c.writes())
		require.NoError(t, err)
		_, err = m.AddRule("b", prereq.Names("shared"), c.writes())
		require.NoError(t, err)
		_, err = m.AddRule("shared", prereq.None(), c.writes())
		require.NoError(t, err)

		e, err := m.MakeAll(t.Context(), "a", "b")
		require.NoError(t, err)
		e.Wait()

		assert.Equal(t, 1, c.get("shared"))
		assert.Equal(t, 1, c.get("a"))
		assert.Equal(t, 1, c.get("b"))
		assert.ElementsMatch(t, []string{"a", "b"}, e.Graph().Roots())

		data, err := memfs.ReadFile(root + "/b")
		require.NoError(t, err)
		assert.Equal(t, "b", string(data))
	})
}

func TestMakefile_MakeAllReportsFirstFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c counter
		m, _ := newMakefile(t)
		_, err := m.AddRule("ok", prereq.None(), c.writes())
		require.NoError(t, err)
		_, err = m.AddRule("broken", prereq.Names("missing"), c.writes())
		require.NoError(t, err)

		e, err := m.MakeAll(t.Context(), "ok", "broken")
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrNoMatchingRule.Error())
		assert.ErrorContains(t, err, `required by "broken"`)
		e.Wait()

		assert.Equal(t, 1, c.get("ok"), "an unrelated root is still made")
		assert.Zero(t, c.get("broken"))
	})
}
