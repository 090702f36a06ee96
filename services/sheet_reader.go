package services

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for uploads that are neither .csv nor .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format: must be .csv or .xlsx")
	// ErrNoDataRows is returned when a sheet has a header but nothing below it.
	ErrNoDataRows = errors.New("file must contain a header row and at least one data row")
)

// Sheet is an uploaded BoQ sheet split into a header and data rows.
type Sheet struct {
	FileName        string
	Headers         []string
	Rows            []Row
	HeaderRowOffset int
}

// ReadBOQSheet parses a .csv or .xlsx upload. The row at headerRowOffset
// (0-based) holds the column headers; everything below it is data.
func ReadBOQSheet(r io.Reader, fileName string, headerRowOffset int) (*Sheet, error) {
	if headerRowOffset < 0 {
		return nil, errors.Errorf("header row offset must not be negative, got %d", headerRowOffset)
	}

	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		records, err = parseCSV(r)
	case ".xlsx":
		records, err = parseExcel(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	if len(records) <= headerRowOffset {
		return nil, ErrNoDataRows
	}
	headers := make([]string, len(records[headerRowOffset]))
	for i, h := range records[headerRowOffset] {
		headers[i] = strings.TrimSpace(h)
	}

	data := trimTrailingBlank(records[headerRowOffset+1:])
	if len(data) == 0 {
		return nil, ErrNoDataRows
	}

	rows := make([]Row, len(data))
	for i, rec := range data {
		row := make(Row, len(headers))
		for col, h := range headers {
			if h == "" {
				continue
			}
			value := ""
			if col < len(rec) {
				value = rec[col]
			}
			// Duplicate headers keep the first non-empty cell.
			if existing, ok := row[h]; ok && existing != "" {
				continue
			}
			row[h] = value
		}
		rows[i] = row
	}

	return &Sheet{
		FileName:        fileName,
		Headers:         headers,
		Rows:            rows,
		HeaderRowOffset: headerRowOffset,
	}, nil
}

// parseCSV reads every record of a CSV file. Records may be ragged.
func parseCSV(file io.Reader) ([][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse CSV")
	}
	return records, nil
}

// parseExcel reads every row of the first sheet of an xlsx file.
func parseExcel(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read sheet")
	}
	return rows, nil
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func trimTrailingBlank(records [][]string) [][]string {
	end := len(records)
	for end > 0 && isBlankRecord(records[end-1]) {
		end--
	}
	return records[:end]
}
