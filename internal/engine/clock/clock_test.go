package clock_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/makit/internal/adapters/db"
	"go.trai.ch/makit/internal/adapters/fs"
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/engine/clock"
)

func TestClock_NowIsStrictlyIncreasing(t *testing.T) {
	c := clock.New(db.NewMemory())

	prev := domain.EmptyDependency
	for range 10 {
		now, err := c.Now()
		require.NoError(t, err)
		assert.Greater(t, now, prev)
		prev = now
	}

	cur, err := c.Current()
	require.NoError(t, err)
	assert.Equal(t, prev, cur)
}

func TestClock_ResumesFromDatabase(t *testing.T) {
	store := db.NewMemory()
	first, err := clock.New(store).Now()
	require.NoError(t, err)

	second, err := clock.New(store).Now()
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

func TestClock_ConcurrentCallsAreUnique(t *testing.T) {
	c := clock.New(db.NewMemory())

	var (
		mu   sync.Mutex
		seen = make(map[domain.Timestamp]bool)
		wg   sync.WaitGroup
	)
	for range 50 {
		wg.Go(func() {
			now, err := c.Now()
			assert.NoError(t, err)
			mu.Lock()
			seen[now] = true
			mu.Unlock()
		})
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

func TestMTime_ModifiedTime(t *testing.T) {
	memfs := fs.NewMemory()
	m := clock.NewMTime(db.NewMemory(), memfs)

	t.Run("missing file", func(t *testing.T) {
		got, err := m.ModifiedTime("missing")
		require.NoError(t, err)
		assert.Equal(t, domain.NotExist, got)
	})

	t.Run("stable while unchanged", func(t *testing.T) {
		require.NoError(t, memfs.WriteFile("a.js", []byte("a")))
		first, err := m.ModifiedTime("a.js")
		require.NoError(t, err)
		assert.Greater(t, first, domain.EmptyDependency)

		again, err := m.ModifiedTime("a.js")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	})

	t.Run("advances when the file changes", func(t *testing.T) {
		require.NoError(t, memfs.WriteFile("b.js", []byte("b")))
		before, err := m.ModifiedTime("b.js")
		require.NoError(t, err)

		require.NoError(t, memfs.WriteFile("b.js", []byte("b2")))
		after, err := m.ModifiedTime("b.js")
		require.NoError(t, err)
		assert.Greater(t, after, before)
	})
}

func TestMTime_SetModifiedTime(t *testing.T) {
	memfs := fs.NewMemory()
	m := clock.NewMTime(db.NewMemory(), memfs)

	got, err := m.SetModifiedTime("missing")
	require.NoError(t, err)
	assert.Equal(t, domain.NotExist, got)

	require.NoError(t, memfs.WriteFile("out", nil))
	dep, err := m.ModifiedTime("out")
	require.NoError(t, err)

	stamped, err := m.SetModifiedTime("out")
	require.NoError(t, err)
	assert.Greater(t, stamped, dep)

	read, err := m.ModifiedTime("out")
	require.NoError(t, err)
	assert.Equal(t, stamped, read, "a stamped file keeps its time while unchanged")

	at, err := m.SetModifiedTimeAt("out", stamped+10)
	require.NoError(t, err)
	assert.Equal(t, stamped+10, at)
}

func TestMTime_PersistsAcrossInstances(t *testing.T) {
	memfs := fs.NewMemory()
	store := db.NewMemory()
	require.NoError(t, memfs.WriteFile("a", nil))

	first, err := clock.NewMTime(store, memfs).ModifiedTime("a")
	require.NoError(t, err)

	second, err := clock.NewMTime(store, memfs).ModifiedTime("a")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
