// Package sheet turns uploaded XLSX and CSV files into header-keyed rows.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type, upload .xlsx or .csv")
	ErrEmpty             = errors.New("uploaded file has no data rows")
	ErrTooManyRows       = errors.New("uploaded file exceeds the row limit")
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ContentType maps a file name to the content type used when archiving it.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ContentTypeCSV
	case ".xlsx":
		return ContentTypeXLSX
	}
	return "application/octet-stream"
}

// Read parses the first non-empty sheet (or the CSV body). The first row is
// the header; blank rows and columns without a header are dropped. A
// maxRows of zero means no limit.
func Read(name string, content []byte, maxRows int) ([]map[string]any, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		records, err = readCSV(content)
	case ".xlsx":
		records, err = readXLSX(content)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return toRows(records, maxRows)
}

func readCSV(content []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = detectDelimiter(content)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	records := make([][]string, 0, 256)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// detectDelimiter picks ';' for spreadsheet exports from German locales,
// which use ',' as the decimal mark.
func detectDelimiter(content []byte) rune {
	firstLine := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		firstLine = content[:i]
	}
	if bytes.Count(firstLine, []byte{';'}) > bytes.Count(firstLine, []byte{','}) {
		return ';'
	}
	return ','
}

func readXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, nil
}

func toRows(records [][]string, maxRows int) ([]map[string]any, error) {
	header := -1
	for i, record := range records {
		if !blank(record) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, ErrEmpty
	}

	headers := make([]string, len(records[header]))
	for i, h := range records[header] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([]map[string]any, 0, len(records)-header-1)
	for _, record := range records[header+1:] {
		if blank(record) {
			continue
		}
		if maxRows > 0 && len(rows) == maxRows {
			return nil, fmt.Errorf("%w of %d", ErrTooManyRows, maxRows)
		}
		row := make(map[string]any, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(record) {
				continue
			}
			row[h] = strings.TrimSpace(record[i])
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
