package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/makit/internal/adapters/watcher"
)

type batches struct {
	mu  sync.Mutex
	got [][]string
}

func (b *batches) record(paths []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, paths)
}

func (b *batches) snapshot() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.got...)
}

func TestDebouncer_CoalescesAndSorts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var b batches
		d := watcher.NewDebouncer(100*time.Millisecond, b.record)

		d.Add("/project/src/b.js")
		d.Add("/project/src/a.js")
		d.Add("/project/src/b.js")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		got := b.snapshot()
		require.Len(t, got, 1)
		assert.Equal(t, []string{"/project/src/a.js", "/project/src/b.js"}, got[0])
	})
}

func TestDebouncer_AddRestartsWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var b batches
		d := watcher.NewDebouncer(100*time.Millisecond, b.record)

		d.Add("/project/a")
		time.Sleep(60 * time.Millisecond)
		d.Add("/project/b")
		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, b.snapshot())

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		got := b.snapshot()
		require.Len(t, got, 1)
		assert.Equal(t, []string{"/project/a", "/project/b"}, got[0])
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var b batches
		d := watcher.NewDebouncer(100*time.Millisecond, b.record)

		d.Add("/project/a")
		d.Flush()
		require.Len(t, b.snapshot(), 1, "flush delivers synchronously")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Len(t, b.snapshot(), 1, "the stopped timer does not deliver again")

		d.Flush()
		assert.Len(t, b.snapshot(), 1, "flushing an empty batch is a no-op")
	})
}

func TestDebouncer_FlushAfterFire(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var b batches
		d := watcher.NewDebouncer(50*time.Millisecond, b.record)

		d.Add("/project/a")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		require.Len(t, b.snapshot(), 1)

		d.Flush()
		assert.Len(t, b.snapshot(), 1)
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		d := watcher.NewDebouncer(50*time.Millisecond, nil)
		d.Add("/project/a")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		d.Flush()
	})
}
