package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const waitFor = 5 * time.Second

type harness struct {
	dir      string
	rebuilds chan struct{}
	cancel   context.CancelFunc
	done     chan error
}

func start(t *testing.T, debounce time.Duration, rebuildErr error) *harness {
	t.Helper()
	dir := t.TempDir()
	return startWatching(t, dir, []string{dir, filepath.Join(dir, "missing")}, debounce, rebuildErr)
}

func startWatching(t *testing.T, dir string, paths []string, debounce time.Duration, rebuildErr error) *harness {
	t.Helper()
	h := &harness{
		dir:      dir,
		rebuilds: make(chan struct{}, 16),
		done:     make(chan error, 1),
	}
	w, err := New(Options{Paths: paths, Debounce: debounce}, func() error {
		h.rebuilds <- struct{}{}
		return rebuildErr
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- w.Run(ctx) }()
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("watcher did not stop")
	}
}

func (h *harness) expectRebuild(t *testing.T) {
	t.Helper()
	select {
	case <-h.rebuilds:
	case <-time.After(waitFor):
		t.Fatal("expected a rebuild")
	}
}

func (h *harness) expectQuiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case <-h.rebuilds:
		t.Fatal("unexpected rebuild")
	case <-time.After(d):
	}
}

func TestWatcher_RebuildsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := start(t, 20*time.Millisecond, nil)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "post.md"), []byte("hi"), 0o644))
	h.expectRebuild(t)
	h.stop(t)
}

func TestWatcher_Debounces(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := start(t, 200*time.Millisecond, nil)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(h.dir, "post.md"), []byte{byte('a' + i)}, 0o644))
	}
	h.expectRebuild(t)
	h.expectQuiet(t, 500*time.Millisecond)
	h.stop(t)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := start(t, 20*time.Millisecond, nil)
	sub := filepath.Join(h.dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	h.expectRebuild(t)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "nested.md"), []byte("x"), 0o644))
	h.expectRebuild(t)
	h.stop(t)
}

func TestWatcher_KeepsRunningAfterFailedRebuild(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := start(t, 20*time.Millisecond, errors.New("boom"))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "a.md"), []byte("1"), 0o644))
	h.expectRebuild(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "b.md"), []byte("2"), 0o644))
	h.expectRebuild(t)
	h.stop(t)
}

// replace saves path the way most editors do: write a temporary file, then
// rename it over the original.
func replace(t *testing.T, path, body string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(body), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatcher_SingleFileSurvivesRenameOver(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	about := filepath.Join(dir, "ME.md")
	require.NoError(t, os.WriteFile(about, []byte("v1"), 0o644))

	h := startWatching(t, dir, []string{about}, 20*time.Millisecond, nil)

	replace(t, about, "v2")
	h.expectRebuild(t)
	replace(t, about, "v3")
	h.expectRebuild(t)
	h.stop(t)
}

func TestWatcher_SingleFileIgnoresSiblings(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	about := filepath.Join(dir, "ME.md")
	require.NoError(t, os.WriteFile(about, []byte("v1"), 0o644))

	h := startWatching(t, dir, []string{about}, 20*time.Millisecond, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "public"), 0o755))
	h.expectQuiet(t, 200*time.Millisecond)

	require.NoError(t, os.WriteFile(about, []byte("v2"), 0o644))
	h.expectRebuild(t)
	h.stop(t)
}
