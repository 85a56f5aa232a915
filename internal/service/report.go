package service

import (
	"github.com/google/uuid"

	"bpextract/internal/domain"
)

// FileResult is the outcome for one input document.
type FileResult struct {
	Input   string
	Status  domain.FileStatus
	Outputs []string
	Err     error
}

// BatchReport summarizes one command run. Outputs lists artifacts built
// from the whole batch, such as summaries.
type BatchReport struct {
	RunID     uuid.UUID
	Processed int
	Failed    int
	Files     []FileResult
	Outputs   []string
}

func newReport() *BatchReport {
	return &BatchReport{RunID: uuid.New()}
}

func (r *BatchReport) done(input string, outputs []string) {
	r.Processed++
	r.Files = append(r.Files, FileResult{Input: input, Status: domain.FileStatusDone, Outputs: outputs})
}

func (r *BatchReport) fail(input string, err error) {
	r.failPartial(input, nil, err)
}

// failPartial records a failed input that still produced some outputs.
func (r *BatchReport) failPartial(input string, outputs []string, err error) {
	r.Processed++
	r.Failed++
	r.Files = append(r.Files, FileResult{Input: input, Status: domain.FileStatusFailed, Outputs: outputs, Err: err})
}

// HasFailures reports whether any input failed.
func (r *BatchReport) HasFailures() bool {
	return r.Failed > 0
}
