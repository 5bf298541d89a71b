package services

import (
	"regexp"
	"strings"

	"checkdocs/pkg/logging"
	"checkdocs/pkg/models"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

var (
	identifierLabels  = []string{"identifiant", "identifier", "check id"}
	scriptLabels      = []string{"script associé", "associated script", "script"}
	explanationLabels = []string{"explications", "overview"}
	resolutionLabels  = []string{"résolution", "resolution", "remediation"}

	levelTokenChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

const (
	levelPillClass   = "level-pill"
	levelClassPrefix = "level-"
	titleSeparator   = " · "
)

// Documents reads and rewrites the fields embedded in check pages.
type Documents struct {
	codec     HTMLCodec
	siteLabel string
	log       *zap.Logger
}

func NewDocuments(codec HTMLCodec, siteLabel string, log *zap.Logger) *Documents {
	if codec == nil {
		codec = NetHTMLCodec{}
	}
	return &Documents{codec: codec, siteLabel: siteLabel, log: logging.OrNop(log)}
}

// Extract derives the structured fields of a check page. Missing markup
// yields empty values; English falls back to French, never the reverse.
func (d *Documents) Extract(htmlText string) models.Document {
	var out models.Document
	if strings.TrimSpace(htmlText) == "" {
		return out
	}
	doc, err := d.codec.Parse(htmlText)
	if err != nil {
		d.log.Warn("unparseable check page", zap.Error(err))
		return out
	}

	if h := pageTitle(doc); h != nil {
		out.Title = localizedValue(h)
	}
	if cell := infoCell(doc, identifierLabels); cell != nil {
		out.Identifier = textContent(cell)
	}
	if cell := infoCell(doc, scriptLabels); cell != nil {
		out.Script = textContent(cell)
	}
	if pill := levelPill(doc); pill != nil {
		out.Level = levelFromPill(pill)
	}
	if p := sectionParagraph(doc, explanationLabels); p != nil {
		out.Description = localizedValue(p)
	}
	if p := sectionParagraph(doc, resolutionLabels); p != nil {
		out.Resolution = localizedValue(p)
	}
	return out
}

// Merge splices the non-empty fields into htmlText and returns the updated
// page. Nothing is blanked; unparseable input comes back unchanged.
func (d *Documents) Merge(htmlText string, fields models.DocumentFields) string {
	f := trimFields(fields)
	if strings.TrimSpace(htmlText) == "" {
		return htmlText
	}
	doc, err := d.codec.Parse(htmlText)
	if err != nil {
		d.log.Warn("unparseable check page, leaving it untouched", zap.Error(err))
		return htmlText
	}

	changed := false

	if f.TitleFr != "" {
		if title := findFirst(doc, isTag("title")); title != nil {
			label := f.TitleFr
			if d.siteLabel != "" {
				label += titleSeparator + d.siteLabel
			}
			setTextContent(title, label)
			changed = true
		}
	}

	if h := pageTitle(doc); h != nil {
		if f.TitleFr != "" {
			setAttr(h, "data-fr", f.TitleFr)
			setTextContent(h, f.TitleFr)
			changed = true
		}
		if f.TitleEn != "" {
			setAttr(h, "data-en", f.TitleEn)
			changed = true
		}
	}

	if f.ID != "" {
		if cell := infoCell(doc, identifierLabels); cell != nil {
			setTextContent(cell, f.ID)
			changed = true
		}
	}
	if f.Script != "" {
		if cell := infoCell(doc, scriptLabels); cell != nil {
			setTextContent(cell, f.Script)
			changed = true
		}
	}

	if f.Level != "" {
		if pill := levelPill(doc); pill != nil {
			setAttr(pill, "class", levelClass(getAttrValue(pill, "class"), f.Level))
			setTextContent(pill, f.Level)
			changed = true
		}
	}

	if p := sectionParagraph(doc, explanationLabels); p != nil {
		changed = setLocalized(p, f.ExplanationFr, f.ExplanationEn) || changed
	}
	if p := sectionParagraph(doc, resolutionLabels); p != nil {
		changed = setLocalized(p, f.ResolutionFr, f.ResolutionEn) || changed
	}

	description := f.ExplanationFr
	if description == "" {
		description = f.ExplanationEn
	}
	if description != "" {
		meta := findFirst(doc, func(n *html.Node) bool {
			return n.Data == "meta" && strings.EqualFold(getAttrValue(n, "name"), "description")
		})
		if meta != nil {
			setAttr(meta, "content", description)
			changed = true
		}
	}

	if !changed {
		return htmlText
	}
	rendered, err := d.codec.Render(doc)
	if err != nil {
		d.log.Warn("cannot render check page, leaving it untouched", zap.Error(err))
		return htmlText
	}
	return rendered
}

func trimFields(f models.DocumentFields) models.DocumentFields {
	return models.DocumentFields{
		ID:            strings.TrimSpace(f.ID),
		Script:        strings.TrimSpace(f.Script),
		Level:         strings.TrimSpace(f.Level),
		TitleFr:       strings.TrimSpace(f.TitleFr),
		TitleEn:       strings.TrimSpace(f.TitleEn),
		ExplanationFr: strings.TrimSpace(f.ExplanationFr),
		ExplanationEn: strings.TrimSpace(f.ExplanationEn),
		ResolutionFr:  strings.TrimSpace(f.ResolutionFr),
		ResolutionEn:  strings.TrimSpace(f.ResolutionEn),
	}
}

// setLocalized writes both variant attributes; French also becomes the
// visible text.
func setLocalized(n *html.Node, fr, en string) bool {
	changed := false
	if fr != "" {
		setAttr(n, "data-fr", fr)
		setTextContent(n, fr)
		changed = true
	}
	if en != "" {
		setAttr(n, "data-en", en)
		changed = true
	}
	return changed
}

func localizedValue(n *html.Node) models.Localized {
	fr := strings.TrimSpace(getAttrValue(n, "data-fr"))
	if fr == "" {
		fr = textContent(n)
	}
	en := strings.TrimSpace(getAttrValue(n, "data-en"))
	if en == "" {
		en = fr
	}
	return models.Localized{Fr: fr, En: en}
}

// NormalizeLevelToken is the class suffix written for a level label.
func NormalizeLevelToken(level string) string {
	return levelTokenChars.ReplaceAllString(strings.ToUpper(strings.TrimSpace(level)), "")
}

func levelClass(existing, level string) string {
	classes := []string{levelPillClass}
	for _, c := range strings.Fields(existing) {
		if c == levelPillClass || strings.HasPrefix(c, levelClassPrefix) {
			continue
		}
		classes = append(classes, c)
	}
	if token := NormalizeLevelToken(level); token != "" {
		classes = append(classes, levelClassPrefix+token)
	}
	return strings.Join(classes, " ")
}

// levelFromPill prefers the machine-written level-<LEVEL> class over the
// displayed text.
func levelFromPill(n *html.Node) string {
	for _, c := range strings.Fields(getAttrValue(n, "class")) {
		if c == levelPillClass || !strings.HasPrefix(c, levelClassPrefix) {
			continue
		}
		if token := strings.TrimPrefix(c, levelClassPrefix); token != "" {
			return token
		}
	}
	return textContent(n)
}

func pageTitle(doc *html.Node) *html.Node {
	if h := findFirst(doc, withClass("h1", "page-title")); h != nil {
		return h
	}
	if h := findFirst(doc, withClass("", "page-title")); h != nil {
		return h
	}
	return findFirst(doc, func(n *html.Node) bool {
		return n.Data == "h1" && hasAttr(n, "data-fr") && hasAttr(n, "data-en")
	})
}

// infoCell returns the data cell of the first info-table row whose header
// carries one of labels.
func infoCell(doc *html.Node, labels []string) *html.Node {
	for _, table := range findAll(doc, withClass("table", "info-table")) {
		for _, row := range findAll(table, isTag("tr")) {
			header := findFirst(row, isTag("th"))
			if header == nil || !labelMatches(header, labels, false) {
				continue
			}
			if cell := findFirst(row, isTag("td")); cell != nil {
				return cell
			}
		}
	}
	return nil
}

func levelPill(doc *html.Node) *html.Node {
	return findFirst(doc, withClass("", levelPillClass))
}

// sectionParagraph finds the first paragraph of the content section whose
// heading carries one of labels.
func sectionParagraph(doc *html.Node, labels []string) *html.Node {
	for _, section := range findAll(doc, withClass("", "content-section")) {
		heading := findFirst(section, isHeading)
		if heading == nil || !labelMatches(heading, labels, true) {
			continue
		}
		if p := findFirst(section, func(n *html.Node) bool {
			return n.Data == "p" && (hasAttr(n, "data-fr") || hasAttr(n, "data-en"))
		}); p != nil {
			return p
		}
		if p := findFirst(section, isTag("p")); p != nil {
			return p
		}
	}
	return nil
}

func isHeading(n *html.Node) bool {
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

// labelMatches compares the localized labels of n, case-insensitively,
// against labels. With contains set a label may be part of a longer heading.
func labelMatches(n *html.Node, labels []string, contains bool) bool {
	candidates := []string{getAttrValue(n, "data-fr"), getAttrValue(n, "data-en"), textContent(n)}
	for _, candidate := range candidates {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		for _, label := range labels {
			if candidate == label || (contains && strings.Contains(candidate, label)) {
				return true
			}
		}
	}
	return false
}
