package services

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ExportRowKind tells exporters how to style a row.
type ExportRowKind string

const (
	ExportSection ExportRowKind = "section"
	ExportGroup   ExportRowKind = "group"
	ExportItem    ExportRowKind = "item"
	ExportSubItem ExportRowKind = "sub_item"
)

// ExportRow represents a single row in the BOQ export (section, item or sub-item).
type ExportRow struct {
	Kind        ExportRowKind
	Level       int    // nesting depth: section depth, +1 for items, +2 for sub-items
	Index       string // section or item number
	Description string
	Qty         decimal.Decimal
	UOM         string
	Notes       string
}

// ExportData holds all data needed for export.
type ExportData struct {
	Title           string
	ReferenceNumber string
	CreatedDate     string
	Rows            []ExportRow
	SectionCount    int
	ItemCount       int
}

// BuildExportData flattens a tender's sections and items into export rows.
// Sections are ordered like the import summary; items follow their section
// by sort order with sub-items directly below their parent.
func BuildExportData(title, reference, createdDate string, sections []Section, items []Item) ExportData {
	data := ExportData{
		Title:           title,
		ReferenceNumber: reference,
		CreatedDate:     createdDate,
		SectionCount:    len(sections),
		ItemCount:       len(items),
	}

	itemIDs := make(map[string]bool, len(items))
	for _, it := range items {
		itemIDs[it.ID] = true
	}
	topBySection := make(map[string][]Item)
	children := make(map[string][]Item)
	for _, it := range items {
		if it.ParentItemID != "" && itemIDs[it.ParentItemID] {
			children[it.ParentItemID] = append(children[it.ParentItemID], it)
			continue
		}
		topBySection[it.SectionID] = append(topBySection[it.SectionID], it)
	}

	sectionIDs := make(map[string]bool, len(sections))
	childSections := make(map[string][]Section)
	var roots []Section
	for _, s := range sections {
		sectionIDs[s.ID] = true
	}
	for _, s := range sections {
		if s.ParentSectionID == "" || !sectionIDs[s.ParentSectionID] {
			roots = append(roots, s)
			continue
		}
		childSections[s.ParentSectionID] = append(childSections[s.ParentSectionID], s)
	}

	visited := make(map[string]bool, len(sections))
	var walk func(depth int, list []Section)
	walk = func(depth int, list []Section) {
		sortBySectionNumber(list)
		for _, s := range list {
			if visited[s.ID] {
				continue
			}
			visited[s.ID] = true
			data.Rows = append(data.Rows, ExportRow{
				Kind:        ExportSection,
				Level:       depth,
				Index:       s.SectionNumber,
				Description: s.Title,
			})

			top := topBySection[s.ID]
			sortBySortOrder(top)
			for _, it := range top {
				kind := ExportItem
				if it.IsGroup {
					kind = ExportGroup
				}
				data.Rows = append(data.Rows, itemExportRow(it, kind, depth+1))

				subs := children[it.ID]
				sortBySortOrder(subs)
				for _, sub := range subs {
					data.Rows = append(data.Rows, itemExportRow(sub, ExportSubItem, depth+2))
				}
			}
			walk(depth+1, childSections[s.ID])
		}
	}
	walk(0, roots)
	return data
}

func itemExportRow(it Item, kind ExportRowKind, level int) ExportRow {
	return ExportRow{
		Kind:        kind,
		Level:       level,
		Index:       it.ItemNumber,
		Description: it.Description,
		Qty:         it.Quantity,
		UOM:         it.UnitOfMeasure,
		Notes:       it.Notes,
	}
}

func sortBySortOrder(list []Item) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].SortOrder != list[j].SortOrder {
			return list[i].SortOrder < list[j].SortOrder
		}
		return list[i].RowNumber < list[j].RowNumber
	})
}
