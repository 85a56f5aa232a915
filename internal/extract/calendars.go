package extract

import (
	"fmt"

	"bpextract/internal/domain"
	"bpextract/internal/xmltree"
)

// FieldWorkingWeek holds the working-week bitmask of a calendar.
const FieldWorkingWeek = "working_week"

// CalendarSpec is the extraction table for calendars.
func CalendarSpec() Spec {
	return Spec{
		Selector: Selector{Element: "calendar", IDAttr: "id", NameAttr: "name"},
		Common: FieldSpec{
			Attrs: []AttrRule{{Element: "schedule-calendar", Attr: "working-week", Field: FieldWorkingWeek}},
		},
	}
}

// ExtractCalendars returns the calendars in a document. A document whose
// root is not a calendar element is read as a single calendar.
func ExtractCalendars(fileName string, data []byte) ([]domain.Calendar, error) {
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("extracting calendars: %w", err)
	}

	spec := CalendarSpec()
	records := ExtractTree(root, spec).Records
	if len(records) == 0 {
		records = []Record{RecordOf(root, spec)}
	}

	cals := make([]domain.Calendar, 0, len(records))
	for _, rec := range records {
		cals = append(cals, domain.Calendar{
			FileName:    fileName,
			ID:          rec.Get(FieldID),
			Name:        rec.Get(FieldName),
			WorkingWeek: rec.Get(FieldWorkingWeek),
		})
	}
	return cals, nil
}
