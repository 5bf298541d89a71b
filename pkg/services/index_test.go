package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexerScan(t *testing.T) {
	c := newTestCatalog(t)
	c.writePage(t, "a.html", samplePage)
	c.writePage(t, "b.html", samplePage)
	c.writePage(t, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(c.checksDir, "sub.html"), 0o755))
	c.writeManifest(t, `[
  {"id": "CHK-2", "level": "ERROR", "script": "N/A", "file": "checks/a.html"},
  {"id": "CHK-1", "level": "INFO", "script": "N/A", "file": "checks/c.html"}
]`)

	items, err := NewIndexer(c.checksDir, c.store, "").Scan()
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "b.html", items[0].File)
	assert.True(t, items[0].Orphan())
	assert.True(t, items[0].Exists)

	assert.Equal(t, "c.html", items[1].File)
	assert.True(t, items[1].Missing())
	assert.Equal(t, "CHK-1", items[1].Entry.ID)

	assert.Equal(t, "a.html", items[2].File)
	assert.False(t, items[2].Orphan())
	assert.False(t, items[2].Missing())
	assert.False(t, items[2].IsDirty)
}

func TestIndexerScanMissingDir(t *testing.T) {
	c := newTestCatalog(t)
	require.NoError(t, os.RemoveAll(c.checksDir))

	_, err := NewIndexer(c.checksDir, c.store, "").Scan()
	assert.True(t, IsIO(err))
}

func TestIndexCache(t *testing.T) {
	c := newTestCatalog(t)
	c.writePage(t, "a.html", samplePage)
	cache := NewIndexCache(NewIndexer(c.checksDir, c.store, ""))

	items, err := cache.Items()
	require.NoError(t, err)
	assert.Len(t, items, 1)

	c.writePage(t, "b.html", samplePage)
	items, err = cache.Items()
	require.NoError(t, err)
	assert.Len(t, items, 1)

	cache.Invalidate()
	items, err = cache.Items()
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDirtyFilesOutsideGit(t *testing.T) {
	c := newTestCatalog(t)
	ix := NewIndexer(c.checksDir, c.store, c.root)
	assert.Empty(t, ix.dirtyFiles())
}
