package csvexport

import (
	"fmt"
	"os"
	"path/filepath"

	"bpextract/internal/domain"
	"bpextract/internal/workweek"
)

// Options controls file-level output details.
type Options struct {
	BOM bool
}

// Summary lists the files written and the number of data rows in them.
type Summary struct {
	Files []string
	Rows  int
}

func (s *Summary) add(path string, rows int) {
	s.Files = append(s.Files, path)
	s.Rows += rows
}

// ProcessPaths returns the subsheet and stage file paths for a prefix.
func ProcessPaths(dir, prefix string) (subsheets, stages string) {
	return filepath.Join(dir, "subsheets", prefix+"_subsheets.csv"),
		filepath.Join(dir, "stages", prefix+"_stages.csv")
}

// ExportProcess writes the subsheet and stage files for one process.
func ExportProcess(details *domain.ProcessDetails, dir, prefix string, opts Options) (*Summary, error) {
	subsheetsPath, stagesPath := ProcessPaths(dir, prefix)
	sum := &Summary{}

	err := writeFile(subsheetsPath, opts, func(w *Writer) error {
		if err := w.WriteHeader(SubsheetColumns); err != nil {
			return err
		}
		return w.WriteSubsheets(details.Subsheets)
	})
	if err != nil {
		return nil, err
	}
	sum.add(subsheetsPath, len(details.Subsheets))

	err = writeFile(stagesPath, opts, func(w *Writer) error {
		if err := w.WriteHeader(StageColumns); err != nil {
			return err
		}
		return w.WriteStages(details.Stages)
	})
	if err != nil {
		return nil, err
	}
	sum.add(stagesPath, len(details.Stages))

	return sum, nil
}

// ExportCalendars writes the calendar summary to path.
func ExportCalendars(cals []domain.Calendar, path string, opts Options) (*Summary, error) {
	err := writeFile(path, opts, func(w *Writer) error {
		if err := w.WriteHeader(CalendarColumns); err != nil {
			return err
		}
		return w.WriteCalendars(cals)
	})
	if err != nil {
		return nil, err
	}
	return &Summary{Files: []string{path}, Rows: len(cals)}, nil
}

// ExportSchedules writes the schedule summary to path.
func ExportSchedules(schedules []domain.Schedule, path string, opts Options) (*Summary, error) {
	err := writeFile(path, opts, func(w *Writer) error {
		if err := w.WriteHeader(ScheduleColumns); err != nil {
			return err
		}
		return w.WriteSchedules(schedules)
	})
	if err != nil {
		return nil, err
	}
	return &Summary{Files: []string{path}, Rows: len(schedules)}, nil
}

// ExportWorkdays writes a generated working-day list to path.
func ExportWorkdays(days []workweek.Workday, path string, opts Options) (*Summary, error) {
	err := writeFile(path, opts, func(w *Writer) error {
		if err := w.WriteHeader(WorkdayColumns); err != nil {
			return err
		}
		return w.WriteWorkdays(days)
	})
	if err != nil {
		return nil, err
	}
	return &Summary{Files: []string{path}, Rows: len(days)}, nil
}

// writeFile creates path and its parent directories, lets fill write the
// rows and closes the file on every path. A failed write may leave a
// partial file behind.
func writeFile(path string, opts Options, fill func(*Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWriteFailure, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWriteFailure, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: closing %s: %w", domain.ErrWriteFailure, path, cerr)
		}
	}()

	if opts.BOM {
		if _, err := f.Write(BOM); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrWriteFailure, err)
		}
	}

	w := NewWriter(f)
	if err := fill(w); err != nil {
		return fmt.Errorf("%w: writing %s: %w", domain.ErrWriteFailure, path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: writing %s: %w", domain.ErrWriteFailure, path, err)
	}
	return nil
}
