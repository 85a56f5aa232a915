package csvexport

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"bpextract/internal/domain"
	"bpextract/internal/workweek"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// StageColumns is the union of the common and all kind-specific stage fields.
var StageColumns = []string{
	"Index",
	"StageID",
	"Name",
	"Type",
	"OnSuccess",
	"Expression",
	"OnTrue",
	"OnFalse",
	"Calculation_Stage",
	"Exception_Type",
	"Exception_Detail",
	"Localized",
	"UseCurrent",
	"Multiple_Calculations",
}

// SubsheetColumns is the header of the referenced-subsheet file.
var SubsheetColumns = []string{"Index", "SubsheetID"}

// CalendarColumns is the header of the calendar summary.
var CalendarColumns = []string{"file_name", "id", "name", "working_week", "working_days"}

// ScheduleColumns is the header of the schedule summary.
var ScheduleColumns = []string{
	"file_name",
	"name",
	"description",
	"status",
	"start_date",
	"end_date",
	"frequency_type",
	"frequency_interval",
	"frequency_days",
	"frequency_time",
	"processes",
}

// WorkdayColumns is the header of a generated working-day list.
var WorkdayColumns = []string{"Index", "Date", "Weekday"}

// Writer wraps csv.Writer for exporting extracted records. Numbered rows
// continue counting across calls.
type Writer struct {
	csv   *csv.Writer
	index int
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes a header row.
func (w *Writer) WriteHeader(columns []string) error {
	return w.csv.Write(columns)
}

// WriteStages writes one numbered row per stage.
func (w *Writer) WriteStages(stages []domain.Stage) error {
	for i := range stages {
		w.index++
		if err := w.csv.Write(StageRow(w.index, &stages[i])); err != nil {
			return err
		}
	}
	return nil
}

// WriteSubsheets writes one numbered row per subsheet ID.
func (w *Writer) WriteSubsheets(ids []string) error {
	for _, id := range ids {
		w.index++
		if err := w.csv.Write([]string{strconv.Itoa(w.index), id}); err != nil {
			return err
		}
	}
	return nil
}

// WriteCalendars writes one row per calendar.
func (w *Writer) WriteCalendars(cals []domain.Calendar) error {
	for i := range cals {
		if err := w.csv.Write(CalendarRow(&cals[i])); err != nil {
			return err
		}
	}
	return nil
}

// WriteSchedules writes one row per schedule.
func (w *Writer) WriteSchedules(schedules []domain.Schedule) error {
	for i := range schedules {
		if err := w.csv.Write(ScheduleRow(&schedules[i])); err != nil {
			return err
		}
	}
	return nil
}

// WriteWorkdays writes one numbered row per working day.
func (w *Writer) WriteWorkdays(days []workweek.Workday) error {
	for _, d := range days {
		w.index++
		row := []string{strconv.Itoa(w.index), d.Date.Format("2006-01-02"), d.Weekday.String()}
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// StageRow converts a stage to a row in StageColumns order. Columns of
// other kinds stay empty.
func StageRow(index int, st *domain.Stage) []string {
	row := make([]string, len(StageColumns))
	row[0] = strconv.Itoa(index)
	row[1] = st.ID
	row[2] = st.Name
	row[3] = string(st.Kind)
	row[4] = st.OnSuccess

	switch d := st.Detail.(type) {
	case domain.DecisionDetail:
		row[5] = d.Expression
		row[6] = d.OnTrue
		row[7] = d.OnFalse
	case domain.CalculationDetail:
		row[5] = d.Expression
		row[8] = d.Stage
	case domain.ExceptionDetail:
		row[9] = d.Type
		row[10] = d.Detail
		row[11] = d.Localized
		row[12] = d.UseCurrent
	case domain.MultipleCalculationDetail:
		if len(d.Calculations) > 0 {
			row[13] = jsonCell(d.Calculations)
		}
	}
	return row
}

// CalendarRow converts a calendar to a row in CalendarColumns order.
func CalendarRow(c *domain.Calendar) []string {
	days := ""
	if mask, err := workweek.ParseMask(c.WorkingWeek); err == nil {
		days = mask.String()
	}
	return []string{c.FileName, c.ID, c.Name, c.WorkingWeek, days}
}

// ScheduleRow converts a schedule to a row in ScheduleColumns order.
func ScheduleRow(s *domain.Schedule) []string {
	row := make([]string, len(ScheduleColumns))
	row[0] = s.FileName
	row[1] = s.Name
	row[2] = s.Description
	row[3] = s.Status
	row[4] = s.StartDate
	row[5] = s.EndDate
	if f := s.Frequency; f != nil {
		row[6] = f.Type
		row[7] = f.Interval
		row[8] = f.Days
		row[9] = f.Time
	}
	if len(s.Processes) > 0 {
		row[10] = jsonCell(s.Processes)
	}
	return row
}

// jsonCell renders nested values into one cell. Expressions routinely hold
// < and >, so HTML escaping is off.
func jsonCell(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
