package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bpextract/internal/config"
	"bpextract/internal/csvexport"
	"bpextract/internal/domain"
	"bpextract/internal/extract"
	"bpextract/internal/port"
	"bpextract/internal/split"
	"bpextract/internal/workweek"
	"bpextract/internal/xlsxexport"
)

const (
	// DefaultContainer holds the exported items of a release package.
	DefaultContainer = "contents"

	calendarSummary = "calendar_summary"
	scheduleSummary = "schedule_summary"
)

var contentTypes = map[string]string{
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xml":  "application/xml",
}

// WorkdaysInput describes a working-day listing.
type WorkdaysInput struct {
	Mask  string
	From  time.Time
	Years int
	// WriteCSV also writes the listing to the summary directory.
	WriteCSV bool
}

// ExtractionService runs the conversions behind each command. Every method
// processes its inputs in order and keeps going when a single input fails;
// the returned error is reserved for failures that stop the whole run.
type ExtractionService interface {
	ExportProcesses(ctx context.Context, input string) (*BatchReport, error)
	ExportCalendars(ctx context.Context, dir string) (*BatchReport, error)
	// ExportSchedules echoes each schedule to w when w is not nil.
	ExportSchedules(ctx context.Context, input string, w io.Writer) (*BatchReport, error)
	SplitRelease(ctx context.Context, file, container string) (*BatchReport, error)
	SplitProcesses(ctx context.Context, file string) (*BatchReport, error)
	// ExportWorkdays lists the working days to w when w is not nil.
	ExportWorkdays(ctx context.Context, input WorkdaysInput, w io.Writer) (*BatchReport, error)
}

type extractionService struct {
	cfg     *config.Config
	storage port.ObjectStorage
	catalog port.CatalogRepository
	logger  *zap.Logger
}

// NewExtractionService creates a new ExtractionService implementation.
// storage and catalog may be nil, which turns publishing and cataloging off.
func NewExtractionService(
	cfg *config.Config,
	storage port.ObjectStorage,
	catalog port.CatalogRepository,
	logger *zap.Logger,
) ExtractionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &extractionService{
		cfg:     cfg,
		storage: storage,
		catalog: catalog,
		logger:  logger,
	}
}

func (s *extractionService) ExportProcesses(ctx context.Context, input string) (*BatchReport, error) {
	files, err := resolveInputs(input)
	if err != nil {
		return nil, err
	}

	report := newReport()
	log := s.logger.With(zap.String("run_id", report.RunID.String()))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outputs, err := s.exportProcess(ctx, report.RunID, file)
		if err != nil {
			log.Error("process export failed", zap.String("file", file), zap.Error(err))
			report.fail(file, err)
			continue
		}
		log.Info("process exported", zap.String("file", file), zap.Strings("outputs", outputs))
		report.done(file, outputs)
	}
	return report, nil
}

func (s *extractionService) exportProcess(ctx context.Context, runID uuid.UUID, file string) ([]string, error) {
	data, err := readDocument(file)
	if err != nil {
		return nil, err
	}
	details, err := extract.ExtractStages(data)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", file, err)
	}
	details.Source = file

	dir := s.cfg.Paths.OutputDir
	prefix := baseName(file) + "_details"
	var outputs []string

	if s.cfg.Export.Format.WantsCSV() {
		sum, err := csvexport.ExportProcess(details, dir, prefix, csvexport.Options{BOM: s.cfg.Export.BOM})
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", file, err)
		}
		outputs = append(outputs, sum.Files...)
	}
	if s.cfg.Export.Format.WantsXLSX() {
		path := filepath.Join(dir, "xlsx", prefix+".xlsx")
		if err := xlsxexport.ExportProcess(details, path); err != nil {
			return nil, fmt.Errorf("export %s: %w", file, err)
		}
		outputs = append(outputs, path)
	}

	if err := s.publish(ctx, runID, dir, outputs); err != nil {
		return outputs, err
	}
	if s.catalog != nil {
		if err := s.catalog.SaveProcess(ctx, runID, details); err != nil {
			return outputs, fmt.Errorf("catalog %s: %w", file, err)
		}
	}
	return outputs, nil
}

func (s *extractionService) ExportCalendars(ctx context.Context, dir string) (*BatchReport, error) {
	files, err := resolveInputs(dir)
	if err != nil {
		return nil, err
	}

	report := newReport()
	log := s.logger.With(zap.String("run_id", report.RunID.String()))
	var cals []domain.Calendar
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		got, err := s.readCalendars(file)
		if err != nil {
			log.Error("calendar read failed", zap.String("file", file), zap.Error(err))
			report.fail(file, err)
			continue
		}
		cals = append(cals, got...)
		report.done(file, nil)
	}

	outputs, err := s.writeSummary(calendarSummary,
		func(path string, opts csvexport.Options) error {
			_, err := csvexport.ExportCalendars(cals, path, opts)
			return err
		},
		func(path string) error { return xlsxexport.ExportCalendars(cals, path) },
	)
	if err != nil {
		return report, err
	}
	report.Outputs = outputs
	log.Info("calendar summary written", zap.Int("calendars", len(cals)), zap.Strings("outputs", outputs))

	return report, s.publish(ctx, report.RunID, s.cfg.Paths.SummaryDir, outputs)
}

func (s *extractionService) readCalendars(file string) ([]domain.Calendar, error) {
	data, err := readDocument(file)
	if err != nil {
		return nil, err
	}
	cals, err := extract.ExtractCalendars(filepath.Base(file), data)
	if err != nil {
		return nil, fmt.Errorf("calendar %s: %w", file, err)
	}
	return cals, nil
}

func (s *extractionService) ExportSchedules(ctx context.Context, input string, w io.Writer) (*BatchReport, error) {
	files, err := resolveInputs(input)
	if err != nil {
		return nil, err
	}

	report := newReport()
	log := s.logger.With(zap.String("run_id", report.RunID.String()))
	var schedules []domain.Schedule
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		got, err := s.readSchedules(file)
		if err != nil {
			log.Error("schedule read failed", zap.String("file", file), zap.Error(err))
			report.fail(file, err)
			continue
		}
		if w != nil {
			for i := range got {
				printSchedule(w, &got[i])
			}
		}
		schedules = append(schedules, got...)
		report.done(file, nil)
	}

	outputs, err := s.writeSummary(scheduleSummary,
		func(path string, opts csvexport.Options) error {
			_, err := csvexport.ExportSchedules(schedules, path, opts)
			return err
		},
		func(path string) error { return xlsxexport.ExportSchedules(schedules, path) },
	)
	if err != nil {
		return report, err
	}
	report.Outputs = outputs
	log.Info("schedule summary written", zap.Int("schedules", len(schedules)), zap.Strings("outputs", outputs))

	return report, s.publish(ctx, report.RunID, s.cfg.Paths.SummaryDir, outputs)
}

func (s *extractionService) readSchedules(file string) ([]domain.Schedule, error) {
	data, err := readDocument(file)
	if err != nil {
		return nil, err
	}
	schedules, err := extract.ExtractSchedules(filepath.Base(file), data)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", file, err)
	}
	return schedules, nil
}

func printSchedule(w io.Writer, sc *domain.Schedule) {
	fmt.Fprintf(w, "%s: %s [%s] %s to %s\n", sc.FileName, sc.Name, sc.Status, sc.StartDate, sc.EndDate)
	if f := sc.Frequency; f != nil {
		fmt.Fprintf(w, "  frequency: %s every %s, days %s at %s\n", f.Type, f.Interval, f.Days, f.Time)
	}
	for _, p := range sc.Processes {
		fmt.Fprintf(w, "  process: %s (%s)\n", p.Name, p.ID)
		for _, param := range p.Parameters {
			fmt.Fprintf(w, "    %s = %s\n", param.Name, param.Value)
		}
	}
}

// writeSummary writes a batch summary in the configured formats under the
// summary directory.
func (s *extractionService) writeSummary(
	name string,
	writeCSV func(path string, opts csvexport.Options) error,
	writeXLSX func(path string) error,
) ([]string, error) {
	var outputs []string
	if s.cfg.Export.Format.WantsCSV() {
		path := filepath.Join(s.cfg.Paths.SummaryDir, name+".csv")
		if err := writeCSV(path, csvexport.Options{BOM: s.cfg.Export.BOM}); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		outputs = append(outputs, path)
	}
	if s.cfg.Export.Format.WantsXLSX() {
		path := filepath.Join(s.cfg.Paths.SummaryDir, name+".xlsx")
		if err := writeXLSX(path); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		outputs = append(outputs, path)
	}
	return outputs, nil
}

func (s *extractionService) SplitRelease(ctx context.Context, file, container string) (*BatchReport, error) {
	if container == "" {
		container = DefaultContainer
	}
	return s.split(ctx, file, split.Selector{Container: container}, split.Options{
		OutputDir: s.cfg.Paths.SplitDir,
	})
}

func (s *extractionService) SplitProcesses(ctx context.Context, file string) (*BatchReport, error) {
	return s.split(ctx, file, split.Selector{Element: "process"}, split.Options{
		OutputDir:  s.cfg.Paths.ProcessDir,
		Group:      ".",
		FilePrefix: "process_",
	})
}

func (s *extractionService) split(ctx context.Context, file string, sel split.Selector, opts split.Options) (*BatchReport, error) {
	data, err := readDocument(file)
	if err != nil {
		return nil, err
	}

	report := newReport()
	log := s.logger.With(zap.String("run_id", report.RunID.String()), zap.String("file", file))

	res, splitErr := split.Split(data, sel, opts)
	if res == nil {
		log.Error("split failed", zap.Error(splitErr))
		report.fail(file, fmt.Errorf("split %s: %w", file, splitErr))
		return report, nil
	}
	if res.Fallback {
		log.Warn("document is not well-formed, elements were cut out of the raw text",
			zap.String("element", sel.Element))
	}
	log.Info("document split", zap.Int("files", len(res.Paths)))

	if err := s.publish(ctx, report.RunID, opts.OutputDir, res.Paths); err != nil {
		log.Error("publish failed", zap.Error(err))
		report.failPartial(file, res.Paths, errors.Join(splitErr, err))
		return report, nil
	}
	if splitErr != nil {
		log.Error("some elements could not be written", zap.Error(splitErr))
		report.failPartial(file, res.Paths, fmt.Errorf("split %s: %w", file, splitErr))
		return report, nil
	}
	report.done(file, res.Paths)
	return report, nil
}

func (s *extractionService) ExportWorkdays(ctx context.Context, input WorkdaysInput, w io.Writer) (*BatchReport, error) {
	mask, err := workweek.ParseMask(input.Mask)
	if err != nil {
		return nil, err
	}
	years := input.Years
	if years <= 0 {
		years = 1
	}
	from := input.From
	if from.IsZero() {
		from = time.Now()
	}

	days := workweek.Generate(mask, from, years)
	if w != nil {
		fmt.Fprintf(w, "working days: %s\n", mask)
		for _, d := range days {
			fmt.Fprintf(w, "%s %s\n", d.Date.Format("2006-01-02"), d.Weekday)
		}
	}

	report := newReport()
	if !input.WriteCSV {
		return report, nil
	}

	path := filepath.Join(s.cfg.Paths.SummaryDir, "workdays_"+strings.TrimSpace(input.Mask)+".csv")
	if _, err := csvexport.ExportWorkdays(days, path, csvexport.Options{BOM: s.cfg.Export.BOM}); err != nil {
		return report, fmt.Errorf("write workdays: %w", err)
	}
	report.Outputs = []string{path}
	s.logger.Info("workdays written",
		zap.String("run_id", report.RunID.String()),
		zap.String("path", path),
		zap.Int("days", len(days)))

	return report, s.publish(ctx, report.RunID, s.cfg.Paths.SummaryDir, report.Outputs)
}

// publish uploads each file under <prefix>/<run id>/<path relative to root>.
// It is a no-op without object storage.
func (s *extractionService) publish(ctx context.Context, runID uuid.UUID, root string, files []string) error {
	if s.storage == nil {
		return nil
	}
	for _, file := range files {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			rel = filepath.Base(file)
		}
		key := path.Join(s.cfg.S3.Prefix, runID.String(), filepath.ToSlash(rel))
		if err := s.upload(ctx, file, key); err != nil {
			return fmt.Errorf("publish %s: %w", file, err)
		}
		s.logger.Debug("artifact published", zap.String("key", key))
	}
	return nil
}

func (s *extractionService) upload(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	contentType, ok := contentTypes[strings.ToLower(filepath.Ext(file))]
	if !ok {
		contentType = "application/octet-stream"
	}

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.S3.Bucket,
		Key:         key,
		Body:        f,
		ContentType: contentType,
		Size:        info.Size(),
	})
	return err
}
