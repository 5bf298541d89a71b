package services

import (
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"checkdocs/pkg/models"
)

// dirtyFiles returns the page names git reports as changed. Catalogs outside
// a git work tree have none.
func (ix *Indexer) dirtyFiles() map[string]bool {
	dirty := make(map[string]bool)
	if ix.repoDir == "" {
		return dirty
	}
	cmd := exec.Command("git", "status", "--porcelain", "--", ix.checksDir)
	cmd.Dir = ix.repoDir
	out, err := cmd.Output()
	if err != nil {
		return dirty
	}

	lines := strings.Split(string(out), "\n")
	for _, line := range lines {
		if len(line) < 4 {
			continue
		}
		p := strings.TrimSpace(line[3:])
		if i := strings.Index(p, " -> "); i >= 0 {
			p = p[i+4:]
		}
		p = strings.Trim(p, "\"")
		dirty[path.Base(filepath.ToSlash(p))] = true
	}
	return dirty
}

// IndexCache memoizes Scan until Invalidate is called.
type IndexCache struct {
	indexer *Indexer

	mu     sync.Mutex
	items  []models.IndexItem
	loaded bool
}

func NewIndexCache(indexer *Indexer) *IndexCache {
	return &IndexCache{indexer: indexer}
}

func (c *IndexCache) Items() ([]models.IndexItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.items, nil
	}
	items, err := c.indexer.Scan()
	if err != nil {
		return nil, err
	}
	c.items = items
	c.loaded = true
	return c.items, nil
}

func (c *IndexCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.items = nil
}
