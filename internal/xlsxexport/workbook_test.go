package xlsxexport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bpextract/internal/csvexport"
	"bpextract/internal/domain"
)

func openRows(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

// pad restores trailing empty cells that GetRows may drop.
func pad(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}

func TestExportProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "proc.xlsx")
	details := &domain.ProcessDetails{
		Stages: []domain.Stage{
			{ID: "S1", Name: "Check", Kind: domain.StageKindDecision,
				Detail: domain.DecisionDetail{Expression: "X>1", OnTrue: "S2", OnFalse: "S3"}},
		},
		Subsheets: []string{"a", "b"},
	}

	require.NoError(t, ExportProcess(details, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{SheetStages, SheetSubsheets}, f.GetSheetList())
	require.NoError(t, f.Close())

	stages := openRows(t, path, SheetStages)
	require.Len(t, stages, 2)
	assert.Equal(t, csvexport.StageColumns, stages[0])
	assert.Equal(t,
		[]string{"1", "S1", "Check", "Decision", "", "X>1", "S2", "S3", "", "", "", "", "", ""},
		pad(stages[1], len(csvexport.StageColumns)))

	subsheets := openRows(t, path, SheetSubsheets)
	assert.Equal(t, [][]string{{"Index", "SubsheetID"}, {"1", "a"}, {"2", "b"}}, subsheets)
}

func TestExportCalendars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendars.xlsx")

	require.NoError(t, ExportCalendars([]domain.Calendar{
		{FileName: "uk.xml", ID: "7", Name: "UK", WorkingWeek: "62"},
	}, path))

	rows := openRows(t, path, SheetCalendars)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"uk.xml", "7", "UK", "62", "Mon,Tue,Wed,Thu,Fri"}, rows[1])
}

func TestExportSchedules_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.xlsx")

	require.NoError(t, ExportSchedules(nil, path))

	rows := openRows(t, path, SheetSchedules)
	require.Len(t, rows, 1)
	assert.Equal(t, csvexport.ScheduleColumns, rows[0])
}

func TestExport_DestinationNotCreatable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := ExportCalendars(nil, filepath.Join(blocker, "calendars.xlsx"))
	assert.ErrorIs(t, err, domain.ErrWriteFailure)
}

func TestExportProcess_OversizedCellIsTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.xlsx")
	calcs := make([]domain.Calculation, 2000)
	for i := range calcs {
		calcs[i] = domain.Calculation{Expression: strings.Repeat("x", 20), Stage: "Data Item"}
	}
	details := &domain.ProcessDetails{Stages: []domain.Stage{{
		ID: "S1", Name: "Many", Kind: domain.StageKindMultipleCalculation,
		Detail: domain.MultipleCalculationDetail{Calculations: calcs},
	}}}

	require.NoError(t, ExportProcess(details, path))

	rows := openRows(t, path, SheetStages)
	require.Len(t, rows, 2)
	var truncated string
	for _, v := range rows[1] {
		if strings.HasSuffix(v, TruncatedMarker) {
			truncated = v
		}
	}
	require.NotEmpty(t, truncated)
	assert.Equal(t, excelize.TotalCellChars, utf8.RuneCountInString(truncated))
	assert.Equal(t, "S1", rows[1][1])
}

func TestFitCell(t *testing.T) {
	short := strings.Repeat("é", excelize.TotalCellChars)
	assert.Equal(t, short, fitCell(short))

	long := short + "a"
	got := fitCell(long)
	assert.Equal(t, excelize.TotalCellChars, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, TruncatedMarker))
}
