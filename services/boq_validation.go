package services

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ValidateBOQRows checks each row's measurable fields. Warnings flag
// questionable quantities; errors flag measurements with nothing to attach
// them to. Issues are ordered by row.
func ValidateBOQRows(rows []Row, mapping FieldMapping, headerRowOffset int) []ValidationIssue {
	issues := make([]ValidationIssue, 0)
	for i, row := range rows {
		rowNum := RowNumber(i, headerRowOffset)
		issues = append(issues, validateBOQRow(rowNum, row, mapping)...)
	}
	return issues
}

func validateBOQRow(rowNum int, row Row, mapping FieldMapping) []ValidationIssue {
	var issues []ValidationIssue

	itemNumber := mapping.Value(row, FieldItemNumber)
	description := mapping.Value(row, FieldDescription)
	label := mapping.Value(row, FieldSubItemLabel)
	qty := mapping.Value(row, FieldQuantity)
	uom := mapping.Value(row, FieldUOM)

	if (qty != "" || uom != "") && itemNumber == "" && description == "" && label == "" {
		issues = append(issues, ValidationIssue{
			Row:      rowNum,
			Severity: SeverityError,
			Field:    "Item Number",
			Message:  "Quantity or unit given without an item number, description or sub-item label",
		})
	}

	if qty == "" {
		return issues
	}
	q, ok := tryParseQuantity(qty)
	switch {
	case !ok:
		issues = append(issues, ValidationIssue{
			Row:      rowNum,
			Severity: SeverityWarning,
			Field:    "Quantity",
			Message:  fmt.Sprintf("Quantity %q is not a number and will be imported as 0", qty),
		})
	case q.IsNegative():
		issues = append(issues, ValidationIssue{
			Row:      rowNum,
			Severity: SeverityWarning,
			Field:    "Quantity",
			Message:  "Quantity is negative",
		})
	}
	if ok && !q.IsZero() && uom == "" {
		issues = append(issues, ValidationIssue{
			Row:      rowNum,
			Severity: SeverityWarning,
			Field:    "UOM",
			Message:  "Quantity given without a unit of measure",
		})
	}
	return issues
}

// CountIssueRows returns how many distinct rows carry errors and warnings.
func CountIssueRows(issues []ValidationIssue) (errorRows, warningRows int) {
	errorSet := make(map[int]bool)
	warningSet := make(map[int]bool)
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			errorSet[issue.Row] = true
		} else {
			warningSet[issue.Row] = true
		}
	}
	return len(errorSet), len(warningSet)
}

// GenerateValidationReport creates a downloadable .xlsx file from validation issues.
func GenerateValidationReport(issues []ValidationIssue) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Issues"
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, errors.Wrap(err, "set sheet name")
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})
	warningStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FEF3C7"}, Pattern: 1},
	})

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Severity")
	f.SetCellValue(sheet, "C1", "Field")
	f.SetCellValue(sheet, "D1", "Message")
	f.SetCellStyle(sheet, "A1", "D1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 10)
	f.SetColWidth(sheet, "C", "C", 16)
	f.SetColWidth(sheet, "D", "D", 70)

	for i, issue := range issues {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, issue.Row)
		f.SetCellValue(sheet, "B"+row, string(issue.Severity))
		f.SetCellValue(sheet, "C"+row, issue.Field)
		f.SetCellValue(sheet, "D"+row, sanitizeExcelCell(issue.Message))
		if issue.Severity == SeverityWarning {
			f.SetCellStyle(sheet, "A"+row, "D"+row, warningStyle)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "write validation report")
	}
	return buf.Bytes(), nil
}
