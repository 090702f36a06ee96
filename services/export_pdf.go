package services

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ImportSummary is what the import summary PDF shows.
type ImportSummary struct {
	Title           string
	ReferenceNumber string
	FileName        string
	CreatedDate     string
	Result          ImportResult
}

// GenerateImportSummaryPDF renders the nested section tree of an import run
// with item counts, totals and warnings using maroto/v2.
func GenerateImportSummaryPDF(s ImportSummary) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addSummaryHeader(m, s)
	addTotals(m, s.Result)

	addSectionTableHeader(m)
	Walk(s.Result.Sections, func(depth int, r SectionResult) {
		addSectionRow(m, depth, r)
	})

	if len(s.Result.Warnings) > 0 {
		addWarnings(m, s.Result.Warnings)
	}
	addFooter(m, s)

	doc, err := m.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate PDF")
	}
	return doc.GetBytes(), nil
}

// addSummaryHeader adds the title, reference, file name and date.
func addSummaryHeader(m core.Maroto, s ImportSummary) {
	title := s.Title
	if title == "" {
		title = "BOQ Import Summary"
	}
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	grey := &props.Color{Red: 80, Green: 80, Blue: 80}
	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Reference: %s", s.ReferenceNumber), props.Text{
					Size: 9, Align: align.Left, Color: grey,
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Date: %s", s.CreatedDate), props.Text{
					Size: 9, Align: align.Right, Color: grey,
				}),
			),
		),
	)
	if s.FileName != "" {
		m.AddRows(
			row.New(6).Add(
				col.New(12).Add(
					text.New("Source file: "+s.FileName, props.Text{Size: 8, Align: align.Left, Color: grey}),
				),
			),
		)
	}

	m.AddRows(row.New(4))
}

// addTotals adds the run counters in a shaded band.
func addTotals(m core.Maroto, r ImportResult) {
	cell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	label := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Left}
	value := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}

	lines := []struct {
		label string
		value int
	}{
		{"Total rows", r.TotalRows},
		{"Items created", r.ItemsCreated},
		{"Rows skipped", r.SkippedRows},
		{"Sections", r.SectionsCreated},
		{"Warnings", len(r.Warnings)},
	}
	for _, l := range lines {
		m.AddRows(
			row.New(7).Add(
				col.New(8).Add(text.New(l.label, label)).WithStyle(cell),
				col.New(4).Add(text.New(FormatQuantity(decimal.NewFromInt(int64(l.value))), value)).WithStyle(cell),
			),
		)
	}
	m.AddRows(row.New(6))
}

// addSectionTableHeader adds the column header row for the section tree.
func addSectionTableHeader(m core.Maroto) {
	headerCell := props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	m.AddRows(
		row.New(8).Add(
			col.New(2).Add(text.New("Section", headerText)).WithStyle(&headerCell),
			col.New(8).Add(text.New("Title", headerTextLeft)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Items", headerText)).WithStyle(&headerCell),
		),
	)
}

// addSectionRow adds one section of the tree, indented by depth.
func addSectionRow(m core.Maroto, depth int, r SectionResult) {
	base := props.Text{Size: 8, Align: align.Center}
	var cellStyle *props.Cell
	if depth == 0 {
		base.Style = fontstyle.Bold
	} else {
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
	}
	left := base
	left.Align = align.Left

	colNumber := col.New(2).Add(text.New(r.SectionNumber, base))
	colTitle := col.New(8).Add(text.New(strings.Repeat("    ", depth)+r.Title, left))
	colCount := col.New(2).Add(text.New(fmt.Sprintf("%d", r.ItemCount), base))
	if cellStyle != nil {
		colNumber = colNumber.WithStyle(cellStyle)
		colTitle = colTitle.WithStyle(cellStyle)
		colCount = colCount.WithStyle(cellStyle)
	}
	m.AddRows(row.New(7).Add(colNumber, colTitle, colCount))
}

// addWarnings lists the non-fatal conditions collected during the run.
func addWarnings(m core.Maroto, warnings []ImportWarning) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(text.New("Warnings", props.Text{Size: 10, Style: fontstyle.Bold})),
		),
	)
	small := props.Text{Size: 7, Align: align.Left}
	for _, w := range warnings {
		where := "-"
		if w.Row > 0 {
			where = fmt.Sprintf("Row %d", w.Row)
		}
		m.AddRows(
			row.New(6).Add(
				col.New(2).Add(text.New(where, small)),
				col.New(3).Add(text.New(w.Code, small)),
				col.New(7).Add(text.New(w.Message, small)),
			),
		)
	}
}

// addFooter adds the generated-date line at the bottom.
func addFooter(m core.Maroto, s ImportSummary) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Generated on %s", s.CreatedDate),
					props.Text{
						Size:  7,
						Align: align.Left,
						Color: &props.Color{Red: 140, Green: 140, Blue: 140},
					},
				),
			),
		),
	)
}
