package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/v0xg/pagekit/internal/errs"
)

func workbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadRecord_DefaultSheet(t *testing.T) {
	path := workbook(t, DefaultSheet, [][]any{
		{"email", "password", "searchTerm"},
		{"user@test.com", "secret", "go programming"},
		{"other@test.com", "hunter2", "rod"},
	})

	rec, err := LoadRecord(path, "")
	require.NoError(t, err)
	assert.Equal(t, Record{"email": "user@test.com", "password": "secret", "searchTerm": "go programming"}, rec)

	v, err := rec.Get("password")
	require.NoError(t, err)
	assert.Equal(t, "secret", v)

	_, err = rec.Get("username")
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}

func TestLoadRecords_SkipsBlankRowsAndHeaders(t *testing.T) {
	path := workbook(t, "Accounts", [][]any{
		{"email", "", "password"},
		{"a@test.com", "ignored", "1"},
		{"", "", ""},
		{"b@test.com", nil, nil},
	})

	recs, err := LoadRecords(path, "Accounts")
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{"email": "a@test.com", "password": "1"},
		{"email": "b@test.com", "password": ""},
	}, recs)
}

func TestLoadRecord_Errors(t *testing.T) {
	headerOnly := workbook(t, DefaultSheet, [][]any{{"email", "password"}})

	_, err := LoadRecord(headerOnly, "")
	assert.ErrorContains(t, err, "no data rows")

	_, err = LoadRecord(headerOnly, "Missing")
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))

	_, err = LoadRecord(filepath.Join(t.TempDir(), "nope.xlsx"), "")
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}
