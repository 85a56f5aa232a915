package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpextract/internal/domain"
)

func TestStageInsert(t *testing.T) {
	docID := uuid.New()
	stages := []domain.Stage{
		{ID: "S0", Name: "Start", Kind: "Start", OnSuccess: "S1"},
		{ID: "S1", Name: "Check", Kind: domain.StageKindDecision,
			Detail: domain.DecisionDetail{Expression: "X>1", OnTrue: "S2", OnFalse: "S3"}},
	}

	query, args, err := stageInsert(docID, stages)
	require.NoError(t, err)

	assert.Equal(t,
		`INSERT INTO process_stages (document_id, position, stage_id, name, kind, on_success, detail) VALUES `+
			`($1, $2, $3, $4, $5, $6, $7), ($8, $9, $10, $11, $12, $13, $14)`,
		query)
	require.Len(t, args, 14)
	assert.Equal(t, []interface{}{docID, 1, "S0", "Start", "Start", "S1", nil}, args[:7])
	assert.Equal(t, `{"expression":"X>1","ontrue":"S2","onfalse":"S3"}`, args[13])
}

func TestSubsheetInsert(t *testing.T) {
	docID := uuid.New()

	query, args := subsheetInsert(docID, []string{"a", "b"})

	assert.Equal(t,
		`INSERT INTO process_subsheets (document_id, position, subsheet_id) VALUES ($1, $2, $3), ($4, $5, $6)`,
		query)
	assert.Equal(t, []interface{}{docID, 1, "a", docID, 2, "b"}, args)
}
