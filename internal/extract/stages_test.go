package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpextract/internal/domain"
)

const processDoc = `<?xml version="1.0" encoding="utf-8"?>
<process name="Invoice Intake" version="1.0">
  <subsheet subsheetid="sub-b" type="Normal"><name>Load</name></subsheet>
  <subsheet subsheetid="sub-a" type="Normal"><name>Main</name></subsheet>
  <stage stageid="S0" name="Start" type="Start">
    <subsheetid>sub-a</subsheetid>
    <onsuccess>S1</onsuccess>
  </stage>
  <stage stageid="S1" name="Check" type="Decision">
    <decision expression="X>1" />
    <ontrue>S2</ontrue>
    <onfalse>S3</onfalse>
  </stage>
  <stage stageid="S2" name="Add One" type="Calculation">
    <calculation expression="[Count]+1" stage="Count" />
    <onsuccess>S4</onsuccess>
  </stage>
  <stage stageid="S3" name="Raise" type="Exception">
    <exception localized="Yes" type="System Exception" detail="&quot;bad&quot;" usecurrent="no" />
  </stage>
  <stage stageid="S4" name="Batch" type="MultipleCalculation">
    <steps>
      <calculation expression="1" stage="A" />
      <calculation expression="2" stage="B" />
    </steps>
    <onsuccess>S5</onsuccess>
  </stage>
  <stage stageid="S5" name="Log" type="Note" subsheetid="sub-a">
    <narrative>done</narrative>
  </stage>
</process>`

func TestExtractStages_AllKinds(t *testing.T) {
	details, err := ExtractStages([]byte(processDoc))
	require.NoError(t, err)

	want := []domain.Stage{
		{ID: "S0", Name: "Start", Kind: "Start", OnSuccess: "S1"},
		{ID: "S1", Name: "Check", Kind: domain.StageKindDecision,
			Detail: domain.DecisionDetail{Expression: "X>1", OnTrue: "S2", OnFalse: "S3"}},
		{ID: "S2", Name: "Add One", Kind: domain.StageKindCalculation, OnSuccess: "S4",
			Detail: domain.CalculationDetail{Expression: "[Count]+1", Stage: "Count"}},
		{ID: "S3", Name: "Raise", Kind: domain.StageKindException,
			Detail: domain.ExceptionDetail{Localized: "Yes", Type: "System Exception", Detail: `"bad"`, UseCurrent: "no"}},
		{ID: "S4", Name: "Batch", Kind: domain.StageKindMultipleCalculation, OnSuccess: "S5",
			Detail: domain.MultipleCalculationDetail{Calculations: []domain.Calculation{
				{Expression: "1", Stage: "A"},
				{Expression: "2", Stage: "B"},
			}}},
		{ID: "S5", Name: "Log", Kind: "Note"},
	}
	if diff := cmp.Diff(want, details.Stages); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"sub-a", "sub-b"}, details.Subsheets)
}

func TestExtract_DecisionExample(t *testing.T) {
	doc := `<process><stage stageid="S1" name="Check" type="Decision">` +
		`<decision expression="X&gt;1"/><ontrue>S2</ontrue><onfalse>S3</onfalse></stage></process>`

	res, err := Extract([]byte(doc), StageSpec())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	want := map[string]string{
		FieldID:         "S1",
		FieldName:       "Check",
		FieldKind:       "Decision",
		FieldExpression: "X>1",
		FieldOnTrue:     "S2",
		FieldOnFalse:    "S3",
	}
	assert.Equal(t, want, res.Records[0].Fields)
	assert.False(t, res.Records[0].Has(FieldOnSuccess))
	assert.Equal(t, "", res.Records[0].Get(FieldOnSuccess))
}

func TestExtract_RecordCountAndOrder(t *testing.T) {
	doc := `<process>
	  <stage stageid="c" name="third?" type="Note"/>
	  <subsheet><stage stageid="a" name="nested" type="Note"/></subsheet>
	  <stage stageid="b" name="last" type="Note"/>
	</process>`

	res, err := Extract([]byte(doc), StageSpec())
	require.NoError(t, err)

	var ids []string
	for _, r := range res.Records {
		ids = append(ids, r.Get(FieldID))
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestExtract_SelectorRequiresIdentityAttributes(t *testing.T) {
	doc := `<process><stage stageid="a" name="no type"/><stage stageid="b" name="ok" type="Note"/></process>`

	res, err := Extract([]byte(doc), StageSpec())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "b", res.Records[0].Get(FieldID))
}

func TestExtract_UnknownKindHasCommonFieldsOnly(t *testing.T) {
	doc := `<process><stage stageid="x" name="Wait" type="WaitStart">` +
		`<decision expression="ignored"/><onsuccess>y</onsuccess></stage></process>`

	res, err := Extract([]byte(doc), StageSpec())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	assert.Equal(t, map[string]string{
		FieldID: "x", FieldName: "Wait", FieldKind: "WaitStart", FieldOnSuccess: "y",
	}, res.Records[0].Fields)
	assert.Empty(t, res.Records[0].Lists)

	st := StageFromRecord(res.Records[0])
	assert.Nil(t, st.Detail)
}

func TestExtract_MissingKindAttributesAreAbsent(t *testing.T) {
	doc := `<process>
	  <stage stageid="e" name="Throw" type="Exception"><exception type="Business Exception"/></stage>
	  <stage stageid="d" name="Decide" type="Decision"/>
	  <stage stageid="m" name="Multi" type="MultipleCalculation"/>
	</process>`

	details, err := ExtractStages([]byte(doc))
	require.NoError(t, err)
	require.Len(t, details.Stages, 3)

	assert.Equal(t, domain.ExceptionDetail{Type: "Business Exception"}, details.Stages[0].Detail)
	assert.Equal(t, domain.DecisionDetail{}, details.Stages[1].Detail)
	assert.Equal(t, domain.MultipleCalculationDetail{Calculations: []domain.Calculation{}}, details.Stages[2].Detail)
}

func TestExtract_CrossReferencesFromAnyElement(t *testing.T) {
	doc := `<process>
	  <subsheet subsheetid="z"/>
	  <stage stageid="1" name="a" type="SubSheet" subsheetid="y"/>
	  <view><link subsheetid="y"/><link subsheetid=""/></view>
	</process>`

	res, err := Extract([]byte(doc), StageSpec())
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "z"}, res.References)
}

func TestExtract_CrossReferenceElementFilter(t *testing.T) {
	spec := StageSpec()
	spec.CrossRef.Element = "stage"
	doc := `<process><subsheet subsheetid="z"/><stage stageid="1" name="a" type="T" subsheetid="y"/></process>`

	res, err := Extract([]byte(doc), spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, res.References)
}

func TestExtract_DecodesEscapedMarkup(t *testing.T) {
	doc := `<bpr:release xmlns:bpr="http://www.blueprism.co.uk/product/release"><bpr:contents>` +
		`&lt;process&gt;&lt;stage stageid="S1" name="Check" type="Decision"&gt;` +
		`&lt;decision expression="[A] &amp;lt; 2" /&gt;&lt;ontrue&gt;S2&lt;/ontrue&gt;&lt;/stage&gt;&lt;/process&gt;` +
		`</bpr:contents></bpr:release>`

	details, err := ExtractStages([]byte(doc))
	require.NoError(t, err)
	require.Len(t, details.Stages, 1)
	assert.Equal(t, domain.DecisionDetail{Expression: "[A] < 2", OnTrue: "S2"}, details.Stages[0].Detail)
}

func TestExtract_EscapedMarkupKeepsSurroundingEntities(t *testing.T) {
	doc := `<bpr:release xmlns:bpr="http://www.blueprism.co.uk/product/release">` +
		`<bpr:name>Sales &amp; Ops</bpr:name><bpr:contents>` +
		`&lt;process name="Sales &amp;amp; Ops"&gt;&lt;subsheet subsheetid="M"/&gt;` +
		`&lt;stage stageid="S1" name="Start" type="Start" subsheetid="M"/&gt;&lt;/process&gt;` +
		`</bpr:contents></bpr:release>`

	details, err := ExtractStages([]byte(doc))
	require.NoError(t, err)
	require.Len(t, details.Stages, 1)
	assert.Equal(t, "S1", details.Stages[0].ID)
	assert.Equal(t, []string{"M"}, details.Subsheets)
}

func TestExtract_EscapedFragmentThatDoesNotParse(t *testing.T) {
	doc := `<release><contents>&lt;stage stageid="1" name="a" type="Note"&gt;</contents></release>`

	_, err := ExtractStages([]byte(doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrParseFailure)
}

func TestExtract_MalformedIsParseFailure(t *testing.T) {
	_, err := ExtractStages([]byte(`<process><stage stageid="1" name="a" type="Note">`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrParseFailure)
}

func TestExtract_NoMatches(t *testing.T) {
	res, err := Extract([]byte(`<process/>`), StageSpec())
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.NotNil(t, res.References)
}

func TestStageFromRecord_CoversEveryPayloadKind(t *testing.T) {
	for _, kind := range domain.StageKinds {
		st := StageFromRecord(Record{Kind: string(kind), Fields: map[string]string{}, Lists: map[string][]Record{}})
		require.NotNil(t, st.Detail, "kind %s has no payload conversion", kind)
		assert.Equal(t, kind, domain.DetailKind(st.Detail))
	}
}
