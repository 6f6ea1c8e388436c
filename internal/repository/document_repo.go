package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"adaptt/internal/model"
)

type DocumentRepository struct {
	db *pgxpool.Pool
}

func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Replace swaps a project's document rows for the given set. Delete then
// insert, not merge: a document type absent from this sync is unpublished
// now, whatever earlier cycles saw.
func (r *DocumentRepository) Replace(ctx context.Context, projectID string, docs []model.Document) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM project_documents WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}

	query := `
        INSERT INTO project_documents (project_id, doc_type, is_published, critical_weight)
        VALUES ($1, $2, $3, $4)
    `
	for _, d := range docs {
		if _, err := r.db.Exec(ctx, query, projectID, d.DocType, d.Published, d.Weight); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", d.DocType, err)
		}
	}
	return nil
}

// ListByProject returns a project's document rows.
func (r *DocumentRepository) ListByProject(ctx context.Context, projectID string) ([]model.Document, error) {
	query := `
        SELECT project_id, doc_type, is_published, critical_weight
        FROM project_documents
        WHERE project_id = $1
        ORDER BY doc_id
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ProjectID, &d.DocType, &d.Published, &d.Weight); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
