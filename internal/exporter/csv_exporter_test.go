package exporter

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"

	"dialogues/internal/dialogues"
)

func TestExportEmpty(t *testing.T) {
	exporter := NewCSVExporter()
	var buf bytes.Buffer

	if err := exporter.Export(&buf, nil); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want header only", len(rows))
	}
	if rows[0][0] != "schemaVersion" {
		t.Errorf("first column = %q, want schemaVersion", rows[0][0])
	}
}

func TestExportRoundsFields(t *testing.T) {
	exporter := NewCSVExporter()
	var buf bytes.Buffer

	created := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	id := uuid.New()
	list := []dialogues.Dialogue{
		{
			ID:              id,
			AuthorProfileID: 42,
			Title:           "Title, with comma",
			Content:         "Line one\nLine two",
			CreatedAt:       created,
		},
	}

	if err := exporter.Export(&buf, list); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header and one row", len(rows))
	}

	row := rows[1]
	if row[0] != SchemaVersion {
		t.Errorf("schema version = %q, want %q", row[0], SchemaVersion)
	}
	if row[1] != id.String() {
		t.Errorf("id = %q, want %q", row[1], id)
	}
	if row[2] != "42" {
		t.Errorf("author = %q, want 42", row[2])
	}
	if row[3] != "Title, with comma" {
		t.Errorf("title = %q", row[3])
	}
	if row[4] != "Line one\nLine two" {
		t.Errorf("content = %q", row[4])
	}
	if row[5] != "2026-08-01T10:30:00Z" {
		t.Errorf("createdAt = %q", row[5])
	}
}
