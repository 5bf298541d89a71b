package services

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsCatalogChanges(t *testing.T) {
	c := newTestCatalog(t)

	var calls atomic.Int32
	w, err := NewWatcher(c.checksDir, c.manifest, func() { calls.Add(1) }, nil)
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	c.writePage(t, "edited.html", samplePage)
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	before := calls.Load()
	c.writeManifest(t, "[]\n")
	assert.Eventually(t, func() bool { return calls.Load() > before }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherRelevant(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "checks"), filepath.Join(dir, "manifest.json"), nil, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	assert.True(t, w.relevant(filepath.Join(dir, "checks", "a.html")))
	assert.True(t, w.relevant(filepath.Join(dir, "manifest.json")))
	assert.False(t, w.relevant(filepath.Join(dir, "checks", "a.html.tmp")))
	assert.False(t, w.relevant(filepath.Join(dir, "other.json")))
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	c := newTestCatalog(t)
	require.NoError(t, os.WriteFile(c.manifest, []byte("[]"), 0o644))

	w, err := NewWatcher(c.checksDir, c.manifest, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func TestWatcherStartFailureLeavesStopUsable(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "absent"), filepath.Join(dir, "manifest.json"), nil, nil)
	require.NoError(t, err)

	err = w.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsIO(err))

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
}
