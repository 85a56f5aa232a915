package domain

// Stage is one step of a process definition. Detail holds the payload for
// kinds listed in StageKinds and is nil for every other kind.
type Stage struct {
	ID        string      `json:"stageid"`
	Name      string      `json:"name"`
	Kind      StageKind   `json:"type"`
	OnSuccess string      `json:"onsuccess,omitempty"`
	Detail    StageDetail `json:"-"`
}

// StageDetail is the kind-specific part of a Stage. The set of
// implementations is closed to this package.
type StageDetail interface {
	stageKind() StageKind
}

// DecisionDetail is the payload of a Decision stage.
type DecisionDetail struct {
	Expression string `json:"expression"`
	OnTrue     string `json:"ontrue"`
	OnFalse    string `json:"onfalse"`
}

// CalculationDetail is the payload of a Calculation stage.
type CalculationDetail struct {
	Expression string `json:"expression"`
	Stage      string `json:"stage"`
}

// ExceptionDetail is the payload of an Exception stage.
type ExceptionDetail struct {
	Localized  string `json:"localized"`
	Type       string `json:"type"`
	Detail     string `json:"detail"`
	UseCurrent string `json:"usecurrent"`
}

// MultipleCalculationDetail is the payload of a MultipleCalculation stage.
type MultipleCalculationDetail struct {
	Calculations []Calculation `json:"calculations"`
}

// Calculation is one step of a MultipleCalculation stage.
type Calculation struct {
	Expression string `json:"expression"`
	Stage      string `json:"stage"`
}

func (DecisionDetail) stageKind() StageKind            { return StageKindDecision }
func (CalculationDetail) stageKind() StageKind         { return StageKindCalculation }
func (ExceptionDetail) stageKind() StageKind           { return StageKindException }
func (MultipleCalculationDetail) stageKind() StageKind { return StageKindMultipleCalculation }

// DetailKind returns the kind a detail belongs to, or "" for nil.
func DetailKind(d StageDetail) StageKind {
	if d == nil {
		return ""
	}
	return d.stageKind()
}

// ProcessDetails is everything extracted from one process document.
type ProcessDetails struct {
	Source    string
	Stages    []Stage
	Subsheets []string
}

// Calendar is one row of the calendar summary.
type Calendar struct {
	FileName    string `json:"file_name"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	WorkingWeek string `json:"working_week"`
}

// Schedule is the summary of one schedule element.
type Schedule struct {
	FileName    string            `json:"file_name"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	StartDate   string            `json:"start_date"`
	EndDate     string            `json:"end_date"`
	Frequency   *Frequency        `json:"frequency,omitempty"`
	Processes   []ScheduleProcess `json:"processes"`
}

// Frequency describes how often a schedule fires.
type Frequency struct {
	Type     string `json:"type"`
	Interval string `json:"interval"`
	Days     string `json:"days"`
	Time     string `json:"time"`
}

// ScheduleProcess is a process launched by a schedule.
type ScheduleProcess struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Parameters []Parameter `json:"parameters"`
}

// Parameter is a named startup parameter of a scheduled process.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SplitResult lists the files written by one split call, in processing
// order. Fallback is set when the document did not parse and spans were
// cut out by pattern scanning instead.
type SplitResult struct {
	Paths    []string
	Fallback bool
}
