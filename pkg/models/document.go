package models

// Localized is a French/English text pair.
type Localized struct {
	Fr string `json:"fr"`
	En string `json:"en"`
}

// Document is the structured view of a check page's embedded fields.
type Document struct {
	Title       Localized `json:"title"`
	Description Localized `json:"description"`
	Resolution  Localized `json:"resolution"`
	Level       string    `json:"level"`
	Identifier  string    `json:"identifier"`
	Script      string    `json:"script"`
}

// DocumentFields is the partial set of values spliced into a check page.
// Empty values leave the matching markup untouched.
type DocumentFields struct {
	ID            string `json:"id"`
	Level         string `json:"level"`
	Script        string `json:"script"`
	TitleFr       string `json:"title_fr"`
	TitleEn       string `json:"title_en"`
	ExplanationFr string `json:"explanation_fr"`
	ExplanationEn string `json:"explanation_en"`
	ResolutionFr  string `json:"resolution_fr"`
	ResolutionEn  string `json:"resolution_en"`
}

// IndexItem is one line of the admin list: a file name joined with its
// manifest row.
type IndexItem struct {
	File   string      `json:"file"`
	Entry  *CheckEntry `json:"manifest,omitempty"`
	Exists bool        `json:"exists"`
	// IsDirty is set when git reports uncommitted changes to the page.
	IsDirty bool `json:"is_dirty"`
}

// Orphan reports an HTML file that has no manifest row.
func (i IndexItem) Orphan() bool {
	return i.Entry == nil
}

// Missing reports a manifest row whose HTML file is gone.
func (i IndexItem) Missing() bool {
	return !i.Exists
}

func (i IndexItem) SortKey() string {
	if i.Entry != nil && i.Entry.ID != "" {
		return i.Entry.ID
	}
	return i.File
}
