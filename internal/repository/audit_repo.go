package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"adaptt/internal/model"
)

type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append logs a detected event and fills in its id and detection time.
// The table is append-only; nothing ever updates a row except MarkNotified.
func (r *AuditRepository) Append(ctx context.Context, ev *model.AuditEvent) error {
	query := `
        INSERT INTO project_audit (project_id, event_type, old_date, new_date)
        VALUES ($1, $2, $3, $4)
        RETURNING audit_id, detected_at
    `
	return r.db.QueryRow(ctx, query, ev.ProjectID, ev.EventType, ev.OldDate, ev.NewDate).
		Scan(&ev.ID, &ev.DetectedAt)
}

// HasExpiredEvent reports whether an expiration for this exact deadline was
// already logged, notified or not.
func (r *AuditRepository) HasExpiredEvent(ctx context.Context, projectID, newDate string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM project_audit
            WHERE project_id = $1 AND event_type = $2 AND new_date = $3
        )
    `
	var found bool
	err := r.db.QueryRow(ctx, query, projectID, model.EventDeadlineExpired, newDate).Scan(&found)
	return found, err
}

// ListPending returns un-notified events joined with the project name,
// oldest detection first so earlier changes are delivered first.
func (r *AuditRepository) ListPending(ctx context.Context) ([]model.PendingEvent, error) {
	query := `
        SELECT a.audit_id, a.project_id, a.event_type, a.old_date, a.new_date,
               a.detected_at, a.notified, p.project_name
        FROM project_audit a
        JOIN projects p ON a.project_id = p.project_id
        WHERE a.notified = FALSE
        ORDER BY a.detected_at ASC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.PendingEvent
	for rows.Next() {
		var ev model.PendingEvent
		err := rows.Scan(
			&ev.ID,
			&ev.ProjectID,
			&ev.EventType,
			&ev.OldDate,
			&ev.NewDate,
			&ev.DetectedAt,
			&ev.Notified,
			&ev.ProjectName,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// MarkNotified flips the notified flag. The flag is never reset.
func (r *AuditRepository) MarkNotified(ctx context.Context, auditID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE project_audit SET notified = TRUE WHERE audit_id = $1`, auditID)
	return err
}
