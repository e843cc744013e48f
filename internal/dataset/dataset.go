// Package dataset reads test data records from spreadsheets. The first row of
// a sheet holds the keys, the rows below hold records.
package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/v0xg/pagekit/internal/errs"
)

// DefaultSheet is read when no sheet is named
const DefaultSheet = "LoginData"

// Record is one data row keyed by header
type Record map[string]string

// Get returns the value for key, or an error naming the missing column.
func (r Record) Get(key string) (string, error) {
	v, ok := r[key]
	if !ok {
		return "", errs.New(errs.InvalidArgument, fmt.Sprintf("no column %q in test data", key))
	}
	return v, nil
}

// LoadRecord returns the first data row of sheet.
func LoadRecord(path, sheet string) (Record, error) {
	records, err := LoadRecords(path, sheet)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errs.New(errs.InvalidArgument, fmt.Sprintf("sheet %q in %s has no data rows", sheetOrDefault(sheet), path))
	}
	return records[0], nil
}

// LoadRecords returns every data row of sheet. Blank header cells are skipped,
// as are rows whose cells are all empty.
func LoadRecords(path, sheet string) ([]Record, error) {
	sheet = sheetOrDefault(sheet)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "open test data "+path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, fmt.Sprintf("read sheet %q", sheet), err)
	}
	if len(rows) == 0 {
		return nil, errs.New(errs.InvalidArgument, fmt.Sprintf("sheet %q in %s is empty", sheet, path))
	}

	header := rows[0]
	var out []Record
	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		blank := true
		for i, key := range header {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			var v string
			if i < len(row) {
				v = row[i]
			}
			if v != "" {
				blank = false
			}
			rec[key] = v
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out, nil
}

func sheetOrDefault(sheet string) string {
	if sheet == "" {
		return DefaultSheet
	}
	return sheet
}
