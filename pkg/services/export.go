package services

import (
	"encoding/csv"
	"io"

	"checkdocs/pkg/models"
)

var exportHeader = []string{
	"id", "level", "script", "title_fr", "title_en",
	"description_fr", "description_en", "file",
}

// ExportCSV writes one record per manifest row, in the given order.
func ExportCSV(w io.Writer, entries []models.CheckEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return ioError(err, "cannot write export")
	}
	for _, e := range entries {
		record := []string{
			e.ID, e.Level, e.Script, e.TitleFr, e.TitleEn,
			e.DescriptionFr, e.DescriptionEn, e.File,
		}
		if err := cw.Write(record); err != nil {
			return ioError(err, "cannot write export")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return ioError(err, "cannot write export")
	}
	return nil
}
