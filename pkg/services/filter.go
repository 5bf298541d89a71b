package services

import (
	"strings"
	"unicode"

	"checkdocs/pkg/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Query narrows the admin list. Every term of Text must appear in one of the
// searchable fields; Levels, when set, keeps only the listed level families.
type Query struct {
	Text   string
	Levels []string
}

func (q Query) empty() bool {
	return strings.TrimSpace(q.Text) == "" && len(q.Levels) == 0
}

// Filter returns the items matching q, keeping their order.
func Filter(items []models.IndexItem, q Query) []models.IndexItem {
	if q.empty() {
		return items
	}

	terms := strings.Fields(foldText(q.Text))
	families := make(map[string]bool, len(q.Levels))
	for _, l := range q.Levels {
		if f := LevelFamily(l); f != "" {
			families[f] = true
		}
	}

	out := make([]models.IndexItem, 0, len(items))
	for _, item := range items {
		if len(families) > 0 {
			level := ""
			if item.Entry != nil {
				level = item.Entry.Level
			}
			if !families[LevelFamily(level)] {
				continue
			}
		}
		if len(terms) > 0 && !matchesAll(haystack(item), terms) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func haystack(item models.IndexItem) string {
	parts := []string{item.File}
	if e := item.Entry; e != nil {
		parts = append(parts, e.ID, e.TitleFr, e.TitleEn, e.Script, e.File)
	}
	return foldText(strings.Join(parts, " "))
}

func matchesAll(text string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

// LevelFamily maps the level spellings found in manifests onto the four
// families shown in the list filter.
func LevelFamily(level string) string {
	token := NormalizeLevelToken(level)
	switch token {
	case "":
		return ""
	case "FATAL", "FATAL_ERROR", "FATALERROR":
		return "fatal"
	case "ERROR":
		return "error"
	case "WARNING", "WARN":
		return "warning"
	case "INFO", "INFORMATION":
		return "info"
	}
	return strings.ToLower(token)
}

// foldText lowercases s and strips combining accents.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
