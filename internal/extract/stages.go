package extract

import (
	"fmt"

	"bpextract/internal/domain"
)

// Stage record fields.
const (
	FieldOnSuccess        = "onsuccess"
	FieldExpression       = "expression"
	FieldOnTrue           = "ontrue"
	FieldOnFalse          = "onfalse"
	FieldCalculationStage = "calculation_stage"
	FieldExceptionType    = "exception_type"
	FieldExceptionDetail  = "exception_detail"
	FieldLocalized        = "localized"
	FieldUseCurrent       = "usecurrent"
	FieldCalculations     = "calculations"
	FieldStage            = "stage"
)

// StageSpec is the extraction table for process stages.
func StageSpec() Spec {
	return Spec{
		Selector: Selector{
			Element:  "stage",
			IDAttr:   "stageid",
			NameAttr: "name",
			KindAttr: "type",
			Require:  []string{"stageid", "name", "type"},
		},
		Common: FieldSpec{
			Texts: []TextRule{{Element: "onsuccess", Field: FieldOnSuccess}},
		},
		Kinds: map[string]FieldSpec{
			string(domain.StageKindDecision): {
				Attrs: []AttrRule{{Element: "decision", Attr: "expression", Field: FieldExpression}},
				Texts: []TextRule{
					{Element: "ontrue", Field: FieldOnTrue},
					{Element: "onfalse", Field: FieldOnFalse},
				},
			},
			string(domain.StageKindCalculation): {
				Attrs: []AttrRule{
					{Element: "calculation", Attr: "expression", Field: FieldExpression},
					{Element: "calculation", Attr: "stage", Field: FieldCalculationStage},
				},
			},
			string(domain.StageKindException): {
				Attrs: []AttrRule{
					{Element: "exception", Attr: "localized", Field: FieldLocalized},
					{Element: "exception", Attr: "type", Field: FieldExceptionType},
					{Element: "exception", Attr: "detail", Field: FieldExceptionDetail},
					{Element: "exception", Attr: "usecurrent", Field: FieldUseCurrent},
				},
			},
			string(domain.StageKindMultipleCalculation): {
				Lists: []ListRule{{
					Container: "steps",
					Element:   "calculation",
					Field:     FieldCalculations,
					Item: FieldSpec{Attrs: []AttrRule{
						{Attr: "expression", Field: FieldExpression},
						{Attr: "stage", Field: FieldStage},
					}},
				}},
			},
		},
		CrossRef: CrossRef{Attr: "subsheetid"},
	}
}

// ExtractStages returns the stages of a process document and the subsheets
// its elements reference.
func ExtractStages(data []byte) (*domain.ProcessDetails, error) {
	res, err := Extract(data, StageSpec())
	if err != nil {
		return nil, fmt.Errorf("extracting stages: %w", err)
	}

	details := &domain.ProcessDetails{
		Stages:    make([]domain.Stage, 0, len(res.Records)),
		Subsheets: res.References,
	}
	for _, rec := range res.Records {
		details.Stages = append(details.Stages, StageFromRecord(rec))
	}
	return details, nil
}

// StageFromRecord converts a stage record into its typed form.
func StageFromRecord(rec Record) domain.Stage {
	st := domain.Stage{
		ID:        rec.Get(FieldID),
		Name:      rec.Get(FieldName),
		Kind:      domain.StageKind(rec.Kind),
		OnSuccess: rec.Get(FieldOnSuccess),
	}

	switch st.Kind {
	case domain.StageKindDecision:
		st.Detail = domain.DecisionDetail{
			Expression: rec.Get(FieldExpression),
			OnTrue:     rec.Get(FieldOnTrue),
			OnFalse:    rec.Get(FieldOnFalse),
		}
	case domain.StageKindCalculation:
		st.Detail = domain.CalculationDetail{
			Expression: rec.Get(FieldExpression),
			Stage:      rec.Get(FieldCalculationStage),
		}
	case domain.StageKindException:
		st.Detail = domain.ExceptionDetail{
			Localized:  rec.Get(FieldLocalized),
			Type:       rec.Get(FieldExceptionType),
			Detail:     rec.Get(FieldExceptionDetail),
			UseCurrent: rec.Get(FieldUseCurrent),
		}
	case domain.StageKindMultipleCalculation:
		items := rec.List(FieldCalculations)
		calcs := make([]domain.Calculation, 0, len(items))
		for _, item := range items {
			calcs = append(calcs, domain.Calculation{
				Expression: item.Get(FieldExpression),
				Stage:      item.Get(FieldStage),
			})
		}
		st.Detail = domain.MultipleCalculationDetail{Calculations: calcs}
	}
	return st
}
