package stub

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"femstat/internal/errors"
)

// Dataset is an uploaded table kept as raw strings. Empty cells are
// missing values; typing happens at analysis time.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// ReadDataset parses an upload into a Dataset. The extension decides the
// parser: csv goes through encoding/csv, xlsx/xls through excelize.
func ReadDataset(r io.Reader, ext string) (*Dataset, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return readCSV(r)
	case ".xlsx", ".xls":
		return readExcel(r)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type %q", ext))
	}
}

func readCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.InvalidInput("could not parse CSV file: " + err.Error())
	}
	return fromRows(rows)
}

func readExcel(r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.InvalidInput("could not open Excel file: " + err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.InvalidInput("could not read Excel sheet: " + err.Error())
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (*Dataset, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput("File appears to be empty or could not be parsed")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) == 0 || allBlank(headers) {
		return nil, errors.InvalidInput("File has no columns")
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make([]string, len(headers))
		for i := range headers {
			if i < len(row) {
				cells[i] = strings.TrimSpace(row[i])
			}
		}
		data = append(data, cells)
	}

	return &Dataset{Headers: headers, Rows: data}, nil
}

func allBlank(ss []string) bool {
	for _, s := range ss {
		if s != "" {
			return false
		}
	}
	return true
}

// NRows is the number of data rows (header excluded).
func (d *Dataset) NRows() int { return len(d.Rows) }

// ColumnIndex resolves a column name case-insensitively, -1 when absent.
func (d *Dataset) ColumnIndex(name string) int {
	for i, h := range d.Headers {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// Column returns the raw cells of one column, row-aligned with missing
// cells as "".
func (d *Dataset) Column(name string) []string {
	idx := d.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[idx]
	}
	return out
}

// parseNumber accepts the numeric forms datasets actually contain.
func parseNumber(cell string) (float64, bool) {
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
