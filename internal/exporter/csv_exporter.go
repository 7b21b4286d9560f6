// Package exporter produces CSV backups of published dialogues.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"dialogues/internal/dialogues"
)

// SchemaVersion identifies the CSV export format version. Increment when
// adding columns or changing the format.
const SchemaVersion = "1"

var csvColumns = []string{
	"schemaVersion",
	"id",
	"authorProfileId",
	"title",
	"content",
	"createdAt",
}

// CSVExporter writes dialogues in the export CSV format.
type CSVExporter struct{}

// NewCSVExporter creates an exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export writes a header row followed by one row per dialogue.
func (e *CSVExporter) Export(w io.Writer, list []dialogues.Dialogue) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, d := range list {
		row := []string{
			SchemaVersion,
			d.ID.String(),
			strconv.FormatInt(d.AuthorProfileID, 10),
			d.Title,
			d.Content,
			d.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", d.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
