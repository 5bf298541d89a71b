package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"checkdocs/pkg/models"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []models.CheckEntry {
	return []models.CheckEntry{
		{
			ID:            "CHK-001",
			Level:         "ERROR",
			Script:        "check_orders.sql",
			TitleFr:       "Commandes & clients",
			TitleEn:       "Orders & customers",
			DescriptionFr: "Les commandes doivent avoir un client.",
			DescriptionEn: "Orders must have a customer.",
			File:          "checks/orders.html",
			Extra:         map[string]json.RawMessage{"tags": json.RawMessage(`["orders","b2b"]`)},
		},
		{
			Level:  "FATAL_ERROR",
			Script: "N/A",
			File:   "checks/draft.html",
		},
	}
}

func TestEncodeManifestGolden(t *testing.T) {
	data, err := EncodeManifest(sampleEntries())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "manifest", data)
}

func TestEncodeManifestEmpty(t *testing.T) {
	data, err := EncodeManifest(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestManifestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	store := NewManifestStore(path, nil)

	entries := sampleEntries()
	require.NoError(t, store.Save(entries))

	loaded := store.Load()
	assert.Equal(t, entries, loaded.Entries)

	// Saving what was loaded writes the same bytes.
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(loaded.Entries))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestManifestLoadFailsSoft(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"invalid json": "{not json",
		"empty":        "   \n",
		"object":       `{"id": "CHK-1"}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			m := NewManifestStore(path, nil).Load()
			assert.Empty(t, m.Entries)
		})
	}

	t.Run("missing", func(t *testing.T) {
		m := NewManifestStore(filepath.Join(dir, "absent.json"), nil).Load()
		assert.Empty(t, m.Entries)
	})
}

func TestManifestLoadSkipsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	content := `[1, "text", {"id": 42, "level": "INFO", "file": "checks/a.html", "enabled": true}, []]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m := NewManifestStore(path, nil).Load()
	require.Len(t, m.Entries, 1)
	assert.Equal(t, "42", m.Entries[0].ID)
	assert.Equal(t, "checks/a.html", m.Entries[0].File)
	assert.JSONEq(t, "true", string(m.Entries[0].Extra["enabled"]))
}

func TestUpsertReplacesByFile(t *testing.T) {
	m := &Manifest{}
	m.Upsert(models.CheckEntry{ID: "A", File: "checks/a.html", TitleFr: "one"}, "")
	m.Upsert(models.CheckEntry{ID: "A", File: "checks/a.html", TitleFr: "two"}, "")

	require.Len(t, m.Entries, 1)
	assert.Equal(t, "two", m.Entries[0].TitleFr)
}

func TestUpsertMatchesPreviousFileThenID(t *testing.T) {
	m := &Manifest{Entries: []models.CheckEntry{
		{ID: "A", File: "checks/a.html"},
		{ID: "B", File: "checks/b.html"},
	}}

	m.Upsert(models.CheckEntry{ID: "A", File: "checks/renamed.html"}, "checks/a.html")
	require.Len(t, m.Entries, 2)
	_, ok := m.ByFile("checks/a.html")
	assert.False(t, ok)

	m.Upsert(models.CheckEntry{ID: "B", File: "checks/b2.html"}, "")
	require.Len(t, m.Entries, 2)
	e, ok := m.ByID("B")
	require.True(t, ok)
	assert.Equal(t, "checks/b2.html", e.File)
}

func TestUpsertDropsDuplicateFileKeys(t *testing.T) {
	m := &Manifest{Entries: []models.CheckEntry{
		{ID: "A", File: "checks/a.html"},
		{ID: "B", File: "checks/b.html"},
	}}

	// B moves onto a.html: the row found for a.html is replaced and B's old
	// row is left alone, so a.html is listed once.
	m.Upsert(models.CheckEntry{ID: "B", File: "checks/a.html"}, "checks/b.html")

	count := 0
	for _, e := range m.Entries {
		if e.File == "checks/a.html" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestManifestSortIgnoresCase(t *testing.T) {
	m := &Manifest{}
	m.Upsert(models.CheckEntry{ID: "b", File: "checks/1.html"}, "")
	m.Upsert(models.CheckEntry{ID: "A", File: "checks/2.html"}, "")
	m.Upsert(models.CheckEntry{File: "checks/c.html"}, "")
	m.Upsert(models.CheckEntry{ID: "Écart", File: "checks/3.html"}, "")

	var keys []string
	for _, e := range m.Entries {
		keys = append(keys, e.SortKey())
	}
	assert.Equal(t, []string{"A", "b", "checks/c.html", "Écart"}, keys)
}

func TestManifestRemove(t *testing.T) {
	m := &Manifest{Entries: []models.CheckEntry{{ID: "A", File: "checks/a.html"}}}

	assert.False(t, m.Remove("checks/other.html"))
	assert.True(t, m.Remove("checks/a.html"))
	assert.Empty(t, m.Entries)
}
