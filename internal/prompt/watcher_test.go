package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Load())
	require.Empty(t, store.Names())

	w, err := NewWatcher(store)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.True(t, w.IsWatching())

	path := filepath.Join(dir, "hint.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hint for ${subject}"), 0644))

	require.Eventually(t, func() bool {
		return store.Get("hint") != nil
	}, 5*time.Second, 50*time.Millisecond, "store never picked up new template")
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Load())

	w, err := NewWatcher(store)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.md"), []byte("ignored"), 0644))

	time.Sleep(time.Second)
	require.Zero(t, w.Reloads())
}

func TestWatcherStopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewStore(t.TempDir())
	w, err := NewWatcher(store)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
	require.False(t, w.IsWatching())
}
