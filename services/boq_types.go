package services

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrNoSections is returned when item placement starts with an empty section
// registry. Every item would be orphaned, so the whole import is aborted.
var ErrNoSections = errors.New("no sections available for item placement")

// BOQField is a logical spreadsheet field that can be mapped to a column.
type BOQField string

const (
	FieldItemNumber   BOQField = "item_number"
	FieldDescription  BOQField = "description"
	FieldQuantity     BOQField = "quantity"
	FieldUOM          BOQField = "uom"
	FieldNotes        BOQField = "notes"
	FieldBillNumber   BOQField = "bill_number"
	FieldSubItemLabel BOQField = "sub_item_label"
)

// AllBOQFields lists every mappable field in display order.
var AllBOQFields = []BOQField{
	FieldItemNumber,
	FieldDescription,
	FieldQuantity,
	FieldUOM,
	FieldNotes,
	FieldBillNumber,
	FieldSubItemLabel,
}

// Row is one spreadsheet data row: column header -> raw cell value.
type Row map[string]any

// Section is a grouping node of the BoQ tree.
type Section struct {
	ID              string `json:"id"`
	TenderID        string `json:"tender_id"`
	SectionNumber   string `json:"section_number"`
	Title           string `json:"title"`
	SortOrder       int    `json:"sort_order"`
	ParentSectionID string `json:"parent_section_id,omitempty"`
}

// Item is a priced line of the BoQ. Groups own sub-items through ParentItemID.
type Item struct {
	ID            string          `json:"id"`
	TenderID      string          `json:"tender_id"`
	ItemNumber    string          `json:"item_number"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitOfMeasure string          `json:"uom"`
	Notes         string          `json:"notes,omitempty"`
	SortOrder     int             `json:"sort_order"`
	IsGroup       bool            `json:"is_group"`
	SectionID     string          `json:"section_id"`
	ParentItemID  string          `json:"parent_item_id,omitempty"`
	RowNumber     int             `json:"row_number"`
}

// DetectedSection is a section candidate found before items are built.
type DetectedSection struct {
	SectionNumber       string `json:"section_number"`
	Title               string `json:"title,omitempty"`
	ParentSectionNumber string `json:"parent_section_number,omitempty"`
	Level               int    `json:"level"`
}

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue flags a single spreadsheet row. Row is the 1-indexed sheet row.
type ValidationIssue struct {
	Row      int      `json:"row"`
	Severity Severity `json:"severity"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
}

// SkipReason explains why a row produced no item.
type SkipReason string

const (
	SkipBillOnly          SkipReason = "bill_only"
	SkipEmpty             SkipReason = "empty"
	SkipBillHeader        SkipReason = "bill_header"
	SkipSectionHeader     SkipReason = "section_header"
	SkipValidationError   SkipReason = "validation_error"
	SkipValidationWarning SkipReason = "validation_warning"
)

// SkippedRow records a row that was excluded from item creation.
type SkippedRow struct {
	Row    int        `json:"row"`
	Reason SkipReason `json:"reason"`
}

// Warning codes attached to ImportWarning.
const (
	WarnOrphanedSubItem    = "orphaned_sub_item"
	WarnDuplicateItemNo    = "duplicate_item_number"
	WarnSectionCycle       = "section_cycle"
	WarnDuplicateSectionNo = "duplicate_section_number"
)

// ImportWarning is a non-fatal condition collected during an import run.
type ImportWarning struct {
	Row     int    `json:"row,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RowNumber converts a 0-based data row index to the 1-indexed sheet row
// shown in audit and error messages.
func RowNumber(rowIndex, headerRowOffset int) int {
	return rowIndex + headerRowOffset + 2
}
