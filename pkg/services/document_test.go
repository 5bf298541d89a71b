package services

import (
	"errors"
	"strings"
	"testing"

	"checkdocs/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type failingCodec struct{}

func (failingCodec) Parse(string) (*html.Node, error) { return nil, errors.New("boom") }
func (failingCodec) Render(*html.Node) (string, error) { return "", errors.New("boom") }

func TestExtract(t *testing.T) {
	docs := NewDocuments(nil, "Consistency Checker", nil)

	doc := docs.Extract(samplePage)

	assert.Equal(t, models.Localized{Fr: "Commandes sans client", En: "Orders without customer"}, doc.Title)
	assert.Equal(t, "CHK-001", doc.Identifier)
	assert.Equal(t, "check_orders.sql", doc.Script)
	assert.Equal(t, "ERROR", doc.Level)
	assert.Equal(t, models.Localized{Fr: "Les commandes doivent avoir un client.", En: "Orders must have a customer."}, doc.Description)
	// English mirrors French when the page has no English variant.
	assert.Equal(t, models.Localized{Fr: "Rattacher un client.", En: "Rattacher un client."}, doc.Resolution)
}

func TestExtractMissingMarkup(t *testing.T) {
	docs := NewDocuments(nil, "", nil)

	assert.Equal(t, models.Document{}, docs.Extract(""))
	assert.Equal(t, models.Document{}, docs.Extract("<p>nothing to see</p>"))
	assert.Equal(t, models.Document{}, docs.Extract("<div><table class=info-table><tr><th>Identifiant"))
}

func TestExtractLevelFallsBackToText(t *testing.T) {
	docs := NewDocuments(nil, "", nil)
	doc := docs.Extract(`<span class="level-pill">Warning</span>`)
	assert.Equal(t, "Warning", doc.Level)
}

func TestExtractEnglishHeadings(t *testing.T) {
	page := `<h1 data-fr="Titre" data-en="Title">Titre</h1>
<table class="info-table"><tr><th>Check ID</th><td>X-9</td></tr></table>
<div class="content-section"><h3>Remediation steps</h3><p>Do it.</p></div>`
	doc := NewDocuments(nil, "", nil).Extract(page)

	assert.Equal(t, models.Localized{Fr: "Titre", En: "Title"}, doc.Title)
	assert.Equal(t, "X-9", doc.Identifier)
	assert.Equal(t, models.Localized{Fr: "Do it.", En: "Do it."}, doc.Resolution)
	assert.Empty(t, doc.Description.Fr)
}

func TestMergeRoundTrip(t *testing.T) {
	docs := NewDocuments(nil, "Consistency Checker", nil)
	before := docs.Extract(samplePage)

	fields := models.DocumentFields{
		ID:            "CHK-002",
		Level:         "WARNING",
		TitleFr:       "Nouveau titre",
		TitleEn:       "New title",
		ExplanationFr: "Nouvelle explication.",
		ResolutionEn:  "Attach a customer.",
	}
	merged := docs.Merge(samplePage, fields)
	after := docs.Extract(merged)

	assert.Equal(t, "CHK-002", after.Identifier)
	assert.Equal(t, "WARNING", after.Level)
	assert.Equal(t, models.Localized{Fr: "Nouveau titre", En: "New title"}, after.Title)
	assert.Equal(t, "Nouvelle explication.", after.Description.Fr)
	assert.Equal(t, "Attach a customer.", after.Resolution.En)

	// Fields left blank keep what the page had.
	assert.Equal(t, before.Description.En, after.Description.En)
	assert.Equal(t, before.Resolution.Fr, after.Resolution.Fr)
	assert.Equal(t, before.Script, after.Script)

	assert.Contains(t, merged, "<title>Nouveau titre · Consistency Checker</title>")
	assert.Contains(t, merged, `content="Nouvelle explication."`)
	assert.Contains(t, merged, `class="level-pill level-WARNING"`)
	assert.Contains(t, merged, ">WARNING</span>")
}

func TestMergeLevelClass(t *testing.T) {
	docs := NewDocuments(nil, "", nil)
	merged := docs.Merge(`<span class="badge level-pill level-ERROR">Erreur</span>`,
		models.DocumentFields{Level: "fatal error!"})

	assert.Contains(t, merged, `class="level-pill badge level-FATALERROR"`)
	assert.Contains(t, merged, ">fatal error!</span>")
}

func TestMergeNothingToApply(t *testing.T) {
	docs := NewDocuments(nil, "Consistency Checker", nil)

	assert.Equal(t, samplePage, docs.Merge(samplePage, models.DocumentFields{}))
	assert.Equal(t, samplePage, docs.Merge(samplePage, models.DocumentFields{TitleFr: "   ", ID: "\t"}))

	plain := "<p>no hooks here</p>"
	assert.Equal(t, plain, docs.Merge(plain, models.DocumentFields{ID: "CHK-1", Level: "INFO"}))
}

func TestMergeHeadingKeepsDisplayedTextForEnglish(t *testing.T) {
	docs := NewDocuments(nil, "", nil)
	merged := docs.Merge(samplePage, models.DocumentFields{TitleEn: "Customerless orders"})

	assert.Contains(t, merged, `data-en="Customerless orders"`)
	assert.Contains(t, merged, ">Commandes sans client</h1>")
}

func TestMergeMetaDescriptionFallsBackToEnglish(t *testing.T) {
	docs := NewDocuments(nil, "", nil)
	merged := docs.Merge(samplePage, models.DocumentFields{ExplanationEn: "English only."})

	assert.Contains(t, merged, `content="English only."`)
}

func TestCodecFailureLeavesPageUntouched(t *testing.T) {
	docs := NewDocuments(failingCodec{}, "", nil)

	assert.Equal(t, models.Document{}, docs.Extract(samplePage))
	assert.Equal(t, samplePage, docs.Merge(samplePage, models.DocumentFields{ID: "CHK-9"}))
}

func TestNetHTMLCodecIsLenient(t *testing.T) {
	codec := NetHTMLCodec{}
	doc, err := codec.Parse("<div><p>unclosed <b>tags")
	require.NoError(t, err)

	out, err := codec.Render(doc)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "<b>tags</b>"))
}

func TestNormalizeLevelToken(t *testing.T) {
	assert.Equal(t, "FATAL_ERROR", NormalizeLevelToken(" fatal_error "))
	assert.Equal(t, "WARN-1", NormalizeLevelToken("warn-1"))
	assert.Equal(t, "INFO", NormalizeLevelToken("i.n f/o"))
	assert.Empty(t, NormalizeLevelToken("  "))
}
