package domain

// StageKind is the value of a stage's type attribute.
type StageKind string

const (
	StageKindDecision            StageKind = "Decision"
	StageKindCalculation         StageKind = "Calculation"
	StageKindException           StageKind = "Exception"
	StageKindMultipleCalculation StageKind = "MultipleCalculation"
)

// StageKinds lists the kinds that carry a kind-specific payload.
var StageKinds = []StageKind{
	StageKindDecision,
	StageKindCalculation,
	StageKindException,
	StageKindMultipleCalculation,
}

// ExportFormat selects which tabular artifacts are produced.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatBoth ExportFormat = "both"
)

// WantsCSV reports whether CSV files should be written.
func (f ExportFormat) WantsCSV() bool {
	return f == ExportFormatCSV || f == ExportFormatBoth || f == ""
}

// WantsXLSX reports whether an XLSX workbook should be written.
func (f ExportFormat) WantsXLSX() bool {
	return f == ExportFormatXLSX || f == ExportFormatBoth
}

// FileStatus is the outcome of processing one input file in a batch.
type FileStatus string

const (
	FileStatusDone   FileStatus = "done"
	FileStatusFailed FileStatus = "failed"
)
