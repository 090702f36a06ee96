// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"tenderboq/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	if err := collections.Setup(app); err != nil {
		t.Fatalf("failed to set up collections: %v", err)
	}

	return app
}

// CreateTestTender creates a tender record with the given title and returns it.
func CreateTestTender(t *testing.T, app core.App, title string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("tenders")
	if err != nil {
		t.Fatalf("failed to find tenders collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("title", title)
	record.Set("reference_number", "TND-001")
	record.Set("client_name", "Public Works Department")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test tender: %v", err)
	}

	return record
}

// CreateTestSection creates a boq_sections record for a tender.
func CreateTestSection(t *testing.T, app core.App, tenderID, number, title string, sortOrder int) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("boq_sections")
	if err != nil {
		t.Fatalf("failed to find boq_sections collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("tender", tenderID)
	record.Set("section_number", number)
	record.Set("title", title)
	record.Set("sort_order", sortOrder)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test section: %v", err)
	}

	return record
}

// CreateTestItem creates a boq_items record. An empty sectionID leaves the
// item without a section.
func CreateTestItem(t *testing.T, app core.App, tenderID, sectionID, number, description string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("boq_items")
	if err != nil {
		t.Fatalf("failed to find boq_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("tender", tenderID)
	record.Set("section", sectionID)
	record.Set("item_number", number)
	record.Set("description", description)
	record.Set("quantity", "1")
	record.Set("uom", "Nos")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test item: %v", err)
	}

	return record
}

// CSV renders records as CSV bytes for upload tests.
func CSV(t *testing.T, records [][]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	return buf.Bytes()
}
