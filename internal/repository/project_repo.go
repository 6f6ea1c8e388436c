package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adaptt/internal/model"
	"adaptt/internal/score"
)

type ProjectRepository struct {
	db *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Get returns the stored snapshot, or ErrNotFound for unseen projects.
func (r *ProjectRepository) Get(ctx context.Context, projectID string) (*model.Project, error) {
	query := `
        SELECT project_id, project_name, status, data_raw, last_sync, is_processed,
               transparency_score, alert_color, simple_message
        FROM projects
        WHERE project_id = $1
    `
	var p model.Project
	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&p.ID,
		&p.Name,
		&p.Status,
		&p.Payload,
		&p.LastSync,
		&p.Processed,
		&p.Score,
		&p.AlertColor,
		&p.AlertMessage,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes the latest snapshot for a project id. Last write wins on
// name, status and payload; the score columns are left untouched so a new
// sync does not erase a previously computed score.
func (r *ProjectRepository) Upsert(ctx context.Context, projectID, name, status string, payload json.RawMessage) error {
	query := `
        INSERT INTO projects (project_id, project_name, status, data_raw, last_sync)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (project_id) DO UPDATE
        SET project_name = EXCLUDED.project_name,
            status = EXCLUDED.status,
            data_raw = EXCLUDED.data_raw,
            last_sync = EXCLUDED.last_sync
    `
	_, err := r.db.Exec(ctx, query, projectID, name, status, payload)
	return err
}

// ListUnprocessed returns every project whose score has never been computed.
func (r *ProjectRepository) ListUnprocessed(ctx context.Context) ([]model.Project, error) {
	query := `
        SELECT project_id, data_raw
        FROM projects
        WHERE is_processed = FALSE
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Payload); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateScore persists a computed score and flips the processed flag.
func (r *ProjectRepository) UpdateScore(ctx context.Context, projectID string, res score.Result) error {
	query := `
        UPDATE projects
        SET transparency_score = $1,
            alert_color = $2,
            simple_message = $3,
            is_processed = TRUE
        WHERE project_id = $4
    `
	_, err := r.db.Exec(ctx, query, res.Score, res.Color, res.Message, projectID)
	return err
}

// List returns the summary view served by the project listing endpoint.
func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	query := `
        SELECT project_id, project_name, status, last_sync, is_processed,
               transparency_score, alert_color, simple_message
        FROM projects
        ORDER BY project_name
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Status,
			&p.LastSync,
			&p.Processed,
			&p.Score,
			&p.AlertColor,
			&p.AlertMessage,
		)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
