package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseCSV parses delimited text with a header row into records.
func ParseCSV(data []byte) ([]string, []Record, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return fromRows(rows)
}

// ParseXLSX reads the first sheet of a workbook, first row as header.
func ParseXLSX(data []byte) ([]string, []Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrNoHeader
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("error reading sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

// fromRows turns a header row plus data rows into records. Cells past the
// end of a short row are left out of its record.
func fromRows(rows [][]string) ([]string, []Record, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, nil, ErrNoHeader
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		records = append(records, rec)
	}
	return header, records, nil
}

// parse picks a parser from the resource name.
func parse(source string, data []byte) ([]string, []Record, error) {
	name := strings.ToLower(source)
	if i := strings.IndexAny(name, "?#"); i >= 0 && strings.Contains(name, "://") {
		name = name[:i]
	}
	if strings.HasSuffix(name, ".xlsx") {
		return ParseXLSX(data)
	}
	return ParseCSV(data)
}
