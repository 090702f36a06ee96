package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// GenerateBOQExcel creates an Excel workbook of a tender's BoQ hierarchy and
// returns the file contents as a byte slice.
func GenerateBOQExcel(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Determine sheet name (max 31 chars).
	sheetName := excelSheetName(data.Title)

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, errors.Wrap(err, "set sheet name")
	}

	columns := []string{"A", "B", "C", "D", "E"}
	lastCol := columns[len(columns)-1]

	widths := []float64{12, 60, 12, 10, 30}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, errors.Wrapf(err, "set col width %s", col)
		}
	}

	// ── Styles ──────────────────────────────────────────────────────────

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create title style")
	}

	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create subtitle style")
	}

	// Column header style: bold, white text, charcoal background, centered.
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create header style")
	}

	// Section rows: bold on a light grey band.
	sectionStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create section style")
	}

	groupStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create group style")
	}

	itemStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create item style")
	}

	summaryLabelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create summary label style")
	}

	// ── Header Rows (1-3) ───────────────────────────────────────────────

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, errors.Wrap(err, "merge title")
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)

	if data.ReferenceNumber != "" {
		if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
			return nil, errors.Wrap(err, "merge ref")
		}
		f.SetCellValue(sheetName, "A2", "Ref: "+sanitizeExcelCell(data.ReferenceNumber))
		f.SetCellStyle(sheetName, "A2", lastCol+"2", subtitleStyle)
	}

	if err := f.MergeCell(sheetName, "A3", lastCol+"3"); err != nil {
		return nil, errors.Wrap(err, "merge date")
	}
	f.SetCellValue(sheetName, "A3", "Date: "+data.CreatedDate)
	f.SetCellStyle(sheetName, "A3", lastCol+"3", subtitleStyle)

	// ── Row 5: Column Headers ───────────────────────────────────────────

	headers := []string{"Item No", "Description", "Qty", "UOM", "Notes"}
	for i, h := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%s5", columns[i]), h)
	}
	f.SetCellStyle(sheetName, "A5", lastCol+"5", headerStyle)

	// ── Data Rows (starting row 6) ──────────────────────────────────────

	row := 6
	for _, r := range data.Rows {
		rowStr := fmt.Sprintf("%d", row)

		f.SetCellValue(sheetName, "A"+rowStr, sanitizeExcelCell(r.Index))
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(strings.Repeat("  ", r.Level)+r.Description))

		style := itemStyle
		switch r.Kind {
		case ExportSection:
			style = sectionStyle
		case ExportGroup:
			style = groupStyle
		default:
			qty, _ := r.Qty.Float64()
			f.SetCellValue(sheetName, "C"+rowStr, qty)
			f.SetCellValue(sheetName, "D"+rowStr, sanitizeExcelCell(r.UOM))
			f.SetCellValue(sheetName, "E"+rowStr, sanitizeExcelCell(r.Notes))
		}
		f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, style)

		row++
	}

	// ── Summary Rows ────────────────────────────────────────────────────

	row++
	summaryRow := fmt.Sprintf("%d", row)
	f.SetCellValue(sheetName, "B"+summaryRow, "Sections:")
	f.SetCellStyle(sheetName, "B"+summaryRow, "B"+summaryRow, summaryLabelStyle)
	f.SetCellValue(sheetName, "C"+summaryRow, data.SectionCount)
	row++

	summaryRow = fmt.Sprintf("%d", row)
	f.SetCellValue(sheetName, "B"+summaryRow, "Items:")
	f.SetCellStyle(sheetName, "B"+summaryRow, "B"+summaryRow, summaryLabelStyle)
	f.SetCellValue(sheetName, "C"+summaryRow, data.ItemCount)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "write excel")
	}

	return buf.Bytes(), nil
}

func excelSheetName(title string) string {
	// Excel rejects these in sheet names.
	name := strings.NewReplacer(":", "", "\\", "", "/", "", "?", "", "*", "", "[", "", "]", "").Replace(title)
	name = strings.TrimSpace(name)
	if len([]rune(name)) > 31 {
		name = string([]rune(name)[:31])
	}
	if name == "" {
		name = "BOQ"
	}
	return name
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
