package services

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"checkdocs/pkg/models"
)

// Indexer joins the pages of the checks directory with the manifest rows.
type Indexer struct {
	checksDir string
	store     *ManifestStore
	// repoDir, when set, is asked for uncommitted changes.
	repoDir string
}

func NewIndexer(checksDir string, store *ManifestStore, repoDir string) *Indexer {
	return &Indexer{checksDir: checksDir, store: store, repoDir: repoDir}
}

// Scan lists every page and every manifest row once. Pages without a row are
// orphans; rows without a page are reported with Exists false.
func (ix *Indexer) Scan() ([]models.IndexItem, error) {
	dirEntries, err := os.ReadDir(ix.checksDir)
	if err != nil {
		return nil, ioError(err, "cannot list checks directory")
	}

	manifest := ix.store.Load()
	byFile := make(map[string]*models.CheckEntry, len(manifest.Entries))
	for i := range manifest.Entries {
		key := manifest.Entries[i].File
		if _, seen := byFile[key]; !seen {
			byFile[key] = &manifest.Entries[i]
		}
	}

	items := make(map[string]*models.IndexItem)
	for _, d := range dirEntries {
		if d.IsDir() || !strings.HasSuffix(d.Name(), htmlExt) {
			continue
		}
		items[d.Name()] = &models.IndexItem{
			File:   d.Name(),
			Entry:  byFile[models.FileKey(d.Name())],
			Exists: true,
		}
	}

	for i := range manifest.Entries {
		entry := &manifest.Entries[i]
		name := path.Base(entry.File)
		if entry.File == "" || name == "." || name == "/" {
			continue
		}
		if item, ok := items[name]; ok {
			if item.Entry == nil {
				item.Entry = entry
			}
			continue
		}
		_, statErr := os.Stat(filepath.Join(ix.checksDir, name))
		items[name] = &models.IndexItem{File: name, Entry: entry, Exists: statErr == nil}
	}

	dirty := ix.dirtyFiles()
	out := make([]models.IndexItem, 0, len(items))
	for _, item := range items {
		item.IsDirty = dirty[item.File]
		out = append(out, *item)
	}
	SortIndex(out)
	return out, nil
}

// SortIndex orders items by manifest id, or file name, ignoring case.
func SortIndex(items []models.IndexItem) {
	c := newCollator()
	sort.SliceStable(items, func(i, j int) bool {
		if cmp := c.CompareString(items[i].SortKey(), items[j].SortKey()); cmp != 0 {
			return cmp < 0
		}
		return items[i].File < items[j].File
	})
}
