package extract

import (
	"fmt"
	"strings"
	"time"

	"bpextract/internal/domain"
	"bpextract/internal/xmltree"
)

// Schedule record fields.
const (
	FieldStatus            = "status"
	FieldDescription       = "description"
	FieldStartDate         = "start_date"
	FieldEndDate           = "end_date"
	FieldFrequencyType     = "frequency_type"
	FieldFrequencyInterval = "frequency_interval"
	FieldFrequencyDays     = "frequency_days"
	FieldFrequencyTime     = "frequency_time"
	FieldProcesses         = "processes"
	FieldParameters        = "parameters"
	FieldValue             = "value"
)

// FlagFrequency is set when a schedule has a frequency element.
const FlagFrequency = "frequency"

// ScheduleSpec is the extraction table for schedules.
func ScheduleSpec() Spec {
	return Spec{
		Selector: Selector{Element: "schedule", NameAttr: "name"},
		Common: FieldSpec{
			Attrs: []AttrRule{
				{Attr: "status", Field: FieldStatus},
				{Element: "frequency", Attr: "type", Field: FieldFrequencyType},
				{Element: "frequency", Attr: "interval", Field: FieldFrequencyInterval},
			},
			Texts: []TextRule{
				{Element: "description", Field: FieldDescription},
				{Element: "startDate", Field: FieldStartDate},
				{Element: "endDate", Field: FieldEndDate},
				{Element: "frequency/days", Field: FieldFrequencyDays},
				{Element: "frequency/time", Field: FieldFrequencyTime},
			},
			Presence: []PresenceRule{{Element: "frequency", Flag: FlagFrequency}},
			Lists: []ListRule{{
				Element: "process",
				Field:   FieldProcesses,
				Item: FieldSpec{
					Attrs: []AttrRule{
						{Attr: "id", Field: FieldID},
						{Attr: "name", Field: FieldName},
					},
					Lists: []ListRule{{
						Element: "parameter",
						Field:   FieldParameters,
						Item: FieldSpec{
							Attrs: []AttrRule{{Attr: "name", Field: FieldName}},
							Texts: []TextRule{{Field: FieldValue}},
						},
					}},
				},
			}},
		},
	}
}

// ExtractSchedules returns the schedules in a document. When no schedule
// element exists the root element is read as the schedule.
func ExtractSchedules(fileName string, data []byte) ([]domain.Schedule, error) {
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("extracting schedules: %w", err)
	}

	spec := ScheduleSpec()
	records := ExtractTree(root, spec).Records
	if len(records) == 0 {
		records = []Record{RecordOf(root, spec)}
	}

	schedules := make([]domain.Schedule, 0, len(records))
	for _, rec := range records {
		s, err := scheduleFromRecord(fileName, rec)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, nil
}

func scheduleFromRecord(fileName string, rec Record) (domain.Schedule, error) {
	s := domain.Schedule{
		FileName:    fileName,
		Name:        rec.Get(FieldName),
		Description: rec.Get(FieldDescription),
		Status:      rec.Get(FieldStatus),
		Processes:   []domain.ScheduleProcess{},
	}

	var err error
	if s.StartDate, err = normalizeDate(rec.Get(FieldStartDate)); err != nil {
		return s, fmt.Errorf("schedule %q start date: %w", s.Name, err)
	}
	if s.EndDate, err = normalizeDate(rec.Get(FieldEndDate)); err != nil {
		return s, fmt.Errorf("schedule %q end date: %w", s.Name, err)
	}

	if rec.Flag(FlagFrequency) {
		s.Frequency = &domain.Frequency{
			Type:     rec.Get(FieldFrequencyType),
			Interval: rec.Get(FieldFrequencyInterval),
			Days:     rec.Get(FieldFrequencyDays),
			Time:     rec.Get(FieldFrequencyTime),
		}
	}

	for _, p := range rec.List(FieldProcesses) {
		proc := domain.ScheduleProcess{
			ID:         p.Get(FieldID),
			Name:       p.Get(FieldName),
			Parameters: []domain.Parameter{},
		}
		for _, param := range p.List(FieldParameters) {
			proc.Parameters = append(proc.Parameters, domain.Parameter{
				Name:  param.Get(FieldName),
				Value: param.Get(FieldValue),
			})
		}
		s.Processes = append(s.Processes, proc)
	}
	return s, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// normalizeDate reduces a date or timestamp to YYYY-MM-DD. Empty stays empty.
func normalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidDate, s)
}
