package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildExportData_Order(t *testing.T) {
	sections := []Section{
		{ID: "s2", SectionNumber: "2", Title: "Concrete"},
		{ID: "s1", SectionNumber: "1", Title: "Earthwork"},
	}
	items := []Item{
		{ID: "c", ItemNumber: "2.1", SectionID: "s2", SortOrder: 0, IsGroup: true},
		{ID: "b", ItemNumber: "1.2", SectionID: "s1", SortOrder: 1},
		{ID: "a", ItemNumber: "1.1", SectionID: "s1", SortOrder: 0},
		{ID: "d", ItemNumber: "2.1.a", SectionID: "s2", SortOrder: 1, ParentItemID: "c"},
		{ID: "e", ItemNumber: "9.9", SectionID: "s2", SortOrder: 2, ParentItemID: "gone"},
	}

	data := BuildExportData("Tender", "REF", "2025-01-15", sections, items)
	assert.Equal(t, 2, data.SectionCount)
	assert.Equal(t, 5, data.ItemCount)

	type row struct {
		kind  ExportRowKind
		level int
		index string
	}
	got := make([]row, len(data.Rows))
	for i, r := range data.Rows {
		got[i] = row{r.Kind, r.Level, r.Index}
	}
	assert.Equal(t, []row{
		{ExportSection, 0, "1"},
		{ExportItem, 1, "1.1"},
		{ExportItem, 1, "1.2"},
		{ExportSection, 0, "2"},
		{ExportGroup, 1, "2.1"},
		{ExportSubItem, 2, "2.1.a"},
		{ExportItem, 1, "9.9"},
	}, got)
}

func TestBuildExportData_FromImport(t *testing.T) {
	h := importRows(t, ImportRequest{Rows: propertySheet, Mapping: propertyMapping})
	data := BuildExportData("Tender", "", "", h.Sections, h.Items)

	var items int
	for _, r := range data.Rows {
		if r.Kind != ExportSection {
			items++
		}
	}
	require.Equal(t, len(h.Items), items, "every item is exported exactly once")
}
