// Package xlsxexport writes extracted records as Excel workbooks. Sheets use
// the same columns and cell values as the CSV exports.
package xlsxexport

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"bpextract/internal/csvexport"
	"bpextract/internal/domain"
)

const (
	SheetStages    = "Stages"
	SheetSubsheets = "Subsheets"
	SheetCalendars = "Calendars"
	SheetSchedules = "Schedules"
)

// TruncatedMarker ends a cell value cut to fit the Excel cell limit. The
// CSV export of the same data keeps the full value.
const TruncatedMarker = "...[truncated]"

type sheet struct {
	name    string
	columns []string
	rows    [][]string
}

// ExportProcess writes a workbook with a Stages and a Subsheets sheet.
func ExportProcess(details *domain.ProcessDetails, path string) error {
	stages := make([][]string, 0, len(details.Stages))
	for i := range details.Stages {
		stages = append(stages, csvexport.StageRow(i+1, &details.Stages[i]))
	}
	subsheets := make([][]string, 0, len(details.Subsheets))
	for i, id := range details.Subsheets {
		subsheets = append(subsheets, []string{strconv.Itoa(i + 1), id})
	}
	return save(path,
		sheet{name: SheetStages, columns: csvexport.StageColumns, rows: stages},
		sheet{name: SheetSubsheets, columns: csvexport.SubsheetColumns, rows: subsheets},
	)
}

// ExportCalendars writes the calendar summary as a single-sheet workbook.
func ExportCalendars(cals []domain.Calendar, path string) error {
	rows := make([][]string, 0, len(cals))
	for i := range cals {
		rows = append(rows, csvexport.CalendarRow(&cals[i]))
	}
	return save(path, sheet{name: SheetCalendars, columns: csvexport.CalendarColumns, rows: rows})
}

// ExportSchedules writes the schedule summary as a single-sheet workbook.
func ExportSchedules(schedules []domain.Schedule, path string) error {
	rows := make([][]string, 0, len(schedules))
	for i := range schedules {
		rows = append(rows, csvexport.ScheduleRow(&schedules[i]))
	}
	return save(path, sheet{name: SheetSchedules, columns: csvexport.ScheduleColumns, rows: rows})
}

func save(path string, sheets ...sheet) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close workbook: %w", domain.ErrWriteFailure, cerr)
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			// A new workbook starts with one default sheet.
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("rename sheet %s: %w", s.name, err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := fillSheet(f, s, bold); err != nil {
			return fmt.Errorf("fill sheet %s: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWriteFailure, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: save %s: %w", domain.ErrWriteFailure, path, err)
	}
	return nil
}

func fillSheet(f *excelize.File, s sheet, headerStyle int) error {
	header := s.columns
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(s.name, 1, 1, headerStyle); err != nil {
		return err
	}
	if err := f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]string, len(row))
		for j, v := range row {
			values[j] = fitCell(v)
		}
		if err := f.SetSheetRow(s.name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// fitCell shortens v to excelize.TotalCellChars characters, marker included.
func fitCell(v string) string {
	if utf8.RuneCountInString(v) <= excelize.TotalCellChars {
		return v
	}
	runes := []rune(v)
	return string(runes[:excelize.TotalCellChars-utf8.RuneCountInString(TruncatedMarker)]) + TruncatedMarker
}
