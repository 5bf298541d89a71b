package services

import (
	"bytes"
	"testing"

	"checkdocs/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	err := ExportCSV(&buf, []models.CheckEntry{
		{ID: "CHK-001", Level: "ERROR", Script: "a.sql", TitleFr: "Commandes, clients", TitleEn: "Orders", File: "checks/a.html"},
		{ID: "CHK-002", Level: "INFO", Script: "N/A", DescriptionFr: `Dit "bonjour"`, File: "checks/b.html"},
	})
	require.NoError(t, err)

	want := "id,level,script,title_fr,title_en,description_fr,description_en,file\n" +
		"CHK-001,ERROR,a.sql,\"Commandes, clients\",Orders,,,checks/a.html\n" +
		"CHK-002,INFO,N/A,,,\"Dit \"\"bonjour\"\"\",,checks/b.html\n"
	assert.Equal(t, want, buf.String())
}

func TestExportCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, nil))
	assert.Equal(t, "id,level,script,title_fr,title_en,description_fr,description_en,file\n", buf.String())
}
