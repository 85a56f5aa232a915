package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bpextract/internal/domain"
	"bpextract/internal/port"
)

const stageColumns = 7

type catalogRepo struct {
	db *sqlx.DB
}

// NewCatalogRepo creates a new PostgreSQL-backed CatalogRepository.
func NewCatalogRepo(db *sqlx.DB) port.CatalogRepository {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) SaveProcess(ctx context.Context, runID uuid.UUID, details *domain.ProcessDetails) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalogRepo.SaveProcess: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	documentID := uuid.New()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO process_documents (id, run_id, source, stage_count, subsheet_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		documentID, runID, details.Source, len(details.Stages), len(details.Subsheets), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("catalogRepo.SaveProcess: insert document: %w", err)
	}

	if len(details.Stages) > 0 {
		query, args, berr := stageInsert(documentID, details.Stages)
		if berr != nil {
			return fmt.Errorf("catalogRepo.SaveProcess: %w", berr)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("catalogRepo.SaveProcess: insert stages: %w", err)
		}
	}

	if len(details.Subsheets) > 0 {
		query, args := subsheetInsert(documentID, details.Subsheets)
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("catalogRepo.SaveProcess: insert subsheets: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("catalogRepo.SaveProcess: commit: %w", err)
	}
	return nil
}

// stageInsert builds one multi-row INSERT for the stages of a document.
// The kind-specific payload goes into a JSONB column, NULL for kinds
// without one.
func stageInsert(documentID uuid.UUID, stages []domain.Stage) (string, []interface{}, error) {
	valueStrings := make([]string, 0, len(stages))
	valueArgs := make([]interface{}, 0, len(stages)*stageColumns)

	for i := range stages {
		st := &stages[i]
		var detail interface{}
		if st.Detail != nil {
			raw, err := json.Marshal(st.Detail)
			if err != nil {
				return "", nil, fmt.Errorf("encode detail of stage %s: %w", st.ID, err)
			}
			detail = string(raw)
		}

		base := i * stageColumns
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs, documentID, i+1, st.ID, st.Name, string(st.Kind), st.OnSuccess, detail)
	}

	query := fmt.Sprintf(
		`INSERT INTO process_stages (document_id, position, stage_id, name, kind, on_success, detail) VALUES %s`,
		strings.Join(valueStrings, ", "))
	return query, valueArgs, nil
}

func subsheetInsert(documentID uuid.UUID, ids []string) (string, []interface{}) {
	valueStrings := make([]string, 0, len(ids))
	valueArgs := make([]interface{}, 0, len(ids)*3)

	for i, id := range ids {
		base := i * 3
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d)", base+1, base+2, base+3))
		valueArgs = append(valueArgs, documentID, i+1, id)
	}

	query := fmt.Sprintf(
		`INSERT INTO process_subsheets (document_id, position, subsheet_id) VALUES %s`,
		strings.Join(valueStrings, ", "))
	return query, valueArgs
}
