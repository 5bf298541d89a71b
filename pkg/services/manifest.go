package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"sort"

	"checkdocs/pkg/logging"
	"checkdocs/pkg/models"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ManifestStore reads and writes manifest.json. It never persists on its
// own: callers Save after every Upsert or Remove.
type ManifestStore struct {
	path  string
	log   *zap.Logger
	write func(path string, data []byte) error
}

func NewManifestStore(path string, log *zap.Logger) *ManifestStore {
	return &ManifestStore{path: path, log: logging.OrNop(log), write: WriteFileAtomic}
}

func (s *ManifestStore) Path() string { return s.path }

// Load parses the manifest. A missing, empty or malformed file yields an
// empty manifest; the problem is logged, not returned.
func (s *ManifestStore) Load() *Manifest {
	m := &Manifest{}
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Debug("manifest not found, starting empty", zap.String("path", s.path))
		} else {
			s.log.Warn("cannot read manifest", zap.String("path", s.path), zap.Error(err))
		}
		return m
	}
	m.Entries = s.decode(content)
	return m
}

func (s *ManifestStore) decode(content []byte) []models.CheckEntry {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(content, &rows); err != nil {
		s.log.Warn("cannot parse manifest, treating it as empty", zap.String("path", s.path), zap.Error(err))
		return nil
	}

	entries := make([]models.CheckEntry, 0, len(rows))
	for i, row := range rows {
		var entry models.CheckEntry
		if err := json.Unmarshal(row, &entry); err != nil {
			s.log.Warn("skipping manifest row", zap.Int("index", i), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// Save overwrites the manifest with entries, pretty-printed with a trailing
// newline.
func (s *ManifestStore) Save(entries []models.CheckEntry) error {
	data, err := EncodeManifest(entries)
	if err != nil {
		return ioError(err, "cannot encode manifest.json")
	}
	if err := s.write(s.path, data); err != nil {
		return ioError(err, "cannot write manifest.json")
	}
	s.log.Debug("manifest saved", zap.String("path", s.path), zap.Int("entries", len(entries)))
	return nil
}

// EncodeManifest renders entries the way Save writes them.
func EncodeManifest(entries []models.CheckEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.CheckEntry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Manifest is the in-memory collection of check entries.
type Manifest struct {
	Entries []models.CheckEntry
}

// IndexByFile returns the position of the row whose file equals file, or -1.
func (m *Manifest) IndexByFile(file string) int {
	if file == "" {
		return -1
	}
	for i := range m.Entries {
		if m.Entries[i].File == file {
			return i
		}
	}
	return -1
}

// IndexByID returns the position of the first row with the given id, or -1.
func (m *Manifest) IndexByID(id string) int {
	if id == "" {
		return -1
	}
	for i := range m.Entries {
		if m.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manifest) ByFile(file string) (models.CheckEntry, bool) {
	if i := m.IndexByFile(file); i >= 0 {
		return m.Entries[i], true
	}
	return models.CheckEntry{}, false
}

func (m *Manifest) ByID(id string) (models.CheckEntry, bool) {
	if i := m.IndexByID(id); i >= 0 {
		return m.Entries[i], true
	}
	return models.CheckEntry{}, false
}

// Upsert replaces the row matching entry.File, then previousFile, then
// entry.ID, or appends entry when none matches. The collection is re-sorted
// afterwards.
func (m *Manifest) Upsert(entry models.CheckEntry, previousFile string) {
	index := m.IndexByFile(entry.File)
	if index < 0 && previousFile != "" {
		index = m.IndexByFile(previousFile)
	}
	if index < 0 {
		index = m.IndexByID(entry.ID)
	}

	if index >= 0 {
		m.Entries[index] = entry
		m.dropDuplicates(index)
	} else {
		m.Entries = append(m.Entries, entry)
	}
	m.Sort()
}

// dropDuplicates removes rows other than keep that share its file key.
func (m *Manifest) dropDuplicates(keep int) {
	file := m.Entries[keep].File
	out := m.Entries[:0]
	for i, e := range m.Entries {
		if i != keep && e.File == file {
			continue
		}
		out = append(out, e)
	}
	m.Entries = out
}

// Remove deletes the row whose file equals file.
func (m *Manifest) Remove(file string) bool {
	removed := false
	out := m.Entries[:0]
	for _, e := range m.Entries {
		if e.File == file {
			removed = true
			continue
		}
		out = append(out, e)
	}
	m.Entries = out
	return removed
}

// Sort orders rows by id, or file when the id is blank, ignoring case.
func (m *Manifest) Sort() {
	c := newCollator()
	sort.SliceStable(m.Entries, func(i, j int) bool {
		return c.CompareString(m.Entries[i].SortKey(), m.Entries[j].SortKey()) < 0
	})
}

// newCollator returns a case-insensitive French collator. Collators are not
// safe for concurrent use, so every sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.French, collate.IgnoreCase)
}
