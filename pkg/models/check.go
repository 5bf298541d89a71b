package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	DefaultLevel  = "FATAL_ERROR"
	DefaultScript = "N/A"

	// ChecksPrefix is the directory part of every manifest file key.
	ChecksPrefix = "checks/"
)

// CheckEntry is one row of manifest.json.
type CheckEntry struct {
	ID            string `json:"id"`
	Level         string `json:"level"`
	Script        string `json:"script"`
	TitleFr       string `json:"title_fr,omitempty"`
	TitleEn       string `json:"title_en,omitempty"`
	DescriptionFr string `json:"description_fr,omitempty"`
	DescriptionEn string `json:"description_en,omitempty"`
	File          string `json:"file"`

	// Extra keeps keys this tool does not know about so they survive a rewrite.
	Extra map[string]json.RawMessage `json:"-"`
}

var knownKeys = []string{"id", "level", "script", "title_fr", "title_en", "description_fr", "description_en", "file"}

func (e *CheckEntry) field(key string) *string {
	switch key {
	case "id":
		return &e.ID
	case "level":
		return &e.Level
	case "script":
		return &e.Script
	case "title_fr":
		return &e.TitleFr
	case "title_en":
		return &e.TitleEn
	case "description_fr":
		return &e.DescriptionFr
	case "description_en":
		return &e.DescriptionEn
	case "file":
		return &e.File
	}
	return nil
}

// FileKey builds the manifest file key for a bare file name.
func FileKey(name string) string {
	return ChecksPrefix + name
}

// FileName strips the checks/ prefix from a manifest file key.
func (e CheckEntry) FileName() string {
	return strings.TrimPrefix(e.File, ChecksPrefix)
}

// SortKey is the value the manifest and the admin list are ordered by.
func (e CheckEntry) SortKey() string {
	if e.ID != "" {
		return e.ID
	}
	return e.File
}

// Clone returns a deep copy, Extra included.
func (e CheckEntry) Clone() CheckEntry {
	out := e
	if e.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(e.Extra))
		for k, v := range e.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

func (e *CheckEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("manifest entry is not an object")
	}

	*e = CheckEntry{}
	for key, value := range raw {
		target := e.field(key)
		if target == nil {
			if e.Extra == nil {
				e.Extra = make(map[string]json.RawMessage)
			}
			var compact bytes.Buffer
			if err := json.Compact(&compact, value); err != nil {
				return err
			}
			e.Extra[key] = compact.Bytes()
			continue
		}
		*target = scalarString(value)
	}
	return nil
}

// scalarString reads a JSON scalar as text; numbers and booleans keep their
// literal form, null and containers become empty.
func scalarString(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	var v any
	if err := json.Unmarshal(value, &v); err != nil {
		return ""
	}
	switch v.(type) {
	case float64, bool:
		return strings.TrimSpace(string(value))
	}
	return ""
}

func (e CheckEntry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, value []byte) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := encodeString(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(value)
	}

	for _, key := range knownKeys {
		value := *e.field(key)
		if value == "" && optionalKey(key) {
			continue
		}
		encoded, err := encodeString(value)
		if err != nil {
			return nil, err
		}
		write(key, encoded)
	}

	extras := make([]string, 0, len(e.Extra))
	for key := range e.Extra {
		if e.field(key) != nil {
			continue
		}
		extras = append(extras, key)
	}
	sort.Strings(extras)
	for _, key := range extras {
		value := e.Extra[key]
		if !json.Valid(value) {
			return nil, fmt.Errorf("manifest entry key %q holds invalid JSON", key)
		}
		write(key, value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func optionalKey(key string) bool {
	switch key {
	case "title_fr", "title_en", "description_fr", "description_en":
		return true
	}
	return false
}

// encodeString marshals s without escaping <, > and &, the way the catalog
// files were always written.
func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
