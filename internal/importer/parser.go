package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"product-import-service/internal/models"
)

// Row is one data row of the uploaded sheet. Number is 1-based and counts
// data rows only (the header is excluded); blank rows keep their number so
// error positions always match the source file.
type Row struct {
	Number int
	Cells  []string
}

// Cell returns the trimmed value of a column, tolerating short rows.
func (r Row) Cell(col int) string {
	return strings.TrimSpace(r.RawCell(col))
}

// RawCell returns the value as read from the file, whitespace intact, for
// validators that inspect leading/trailing whitespace themselves.
func (r Row) RawCell(col int) string {
	if col < 0 || col >= len(r.Cells) {
		return ""
	}
	return r.Cells[col]
}

// ParseResult is the ordered outcome of reading one file.
type ParseResult struct {
	Rows      []Row // non-blank data rows, in file order
	TotalRows int   // all data rows, blank included
	BlankRows int   // fully blank rows, silently skipped
}

// Parse turns the raw bytes of an uploaded tabular file into an ordered row
// sequence. The first row is treated as a header and dropped; fully blank
// rows are skipped but still counted. The format is chosen by extension:
// .csv is read as CSV, anything else through excelize.
func Parse(filename string, data []byte) (*ParseResult, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return parseCSV(bytes.NewReader(data))
	}
	return parseXLSX(bytes.NewReader(data))
}

func parseCSV(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Read and drop the header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("file is empty")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	result := &ParseResult{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", result.TotalRows+2, err)
		}
		result.TotalRows++
		appendRow(result, record)
	}

	if result.TotalRows == 0 {
		return nil, fmt.Errorf("file has no data rows")
	}

	return result, nil
}

func parseXLSX(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in spreadsheet")
	}

	sheetRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(sheetRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	result := &ParseResult{}
	for _, cells := range sheetRows[1:] {
		result.TotalRows++
		appendRow(result, cells)
	}

	return result, nil
}

func appendRow(result *ParseResult, cells []string) {
	if isBlank(cells) {
		result.BlankRows++
		return
	}
	result.Rows = append(result.Rows, Row{
		Number: result.TotalRows,
		Cells:  normalizeCells(cells),
	})
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// normalizeCells pads short rows out to the full column count so positional
// access never goes out of range, and drops trailing extra cells.
func normalizeCells(cells []string) []string {
	out := make([]string, models.NumImportColumns)
	for i := 0; i < models.NumImportColumns && i < len(cells); i++ {
		out[i] = cells[i]
	}
	return out
}
