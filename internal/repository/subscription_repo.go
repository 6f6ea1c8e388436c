package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"adaptt/internal/model"
)

type SubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create subscribes a user to a project. The (user_id, project_id) unique
// constraint resolves concurrent attempts; duplicates surface as
// ErrAlreadySubscribed.
func (r *SubscriptionRepository) Create(ctx context.Context, userID int, projectID, channel string) (int64, error) {
	query := `
        INSERT INTO subscriptions (user_id, project_id, notification_channel)
        VALUES ($1, $2, $3)
        RETURNING subscription_id
    `
	var id int64
	err := r.db.QueryRow(ctx, query, userID, projectID, channel).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrAlreadySubscribed
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Delete removes a subscription; ErrNotFound when none existed.
func (r *SubscriptionRepository) Delete(ctx context.Context, userID int, projectID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM subscriptions WHERE user_id = $1 AND project_id = $2`,
		userID, projectID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns a user's subscriptions joined with project details.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int) ([]model.UserSubscription, error) {
	query := `
        SELECT s.subscription_id, s.user_id, s.project_id, s.notification_channel,
               s.notification_enabled, s.subscribed_at,
               p.project_name, p.status, p.transparency_score, p.alert_color
        FROM subscriptions s
        JOIN projects p ON s.project_id = p.project_id
        WHERE s.user_id = $1
        ORDER BY s.subscribed_at
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []model.UserSubscription{}
	for rows.Next() {
		var s model.UserSubscription
		err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.ProjectID,
			&s.Channel,
			&s.Enabled,
			&s.SubscribedAt,
			&s.ProjectName,
			&s.Status,
			&s.Score,
			&s.AlertColor,
		)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ListEnabledSubscribers resolves the delivery list for a project: enabled
// subscriptions joined with the subscriber's contact details.
func (r *SubscriptionRepository) ListEnabledSubscribers(ctx context.Context, projectID string) ([]model.Subscriber, error) {
	query := `
        SELECT s.user_id, u.name, u.phone_number, s.notification_channel
        FROM subscriptions s
        JOIN users u ON s.user_id = u.user_id
        WHERE s.project_id = $1 AND s.notification_enabled = TRUE
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscribers []model.Subscriber
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.UserID, &s.Name, &s.Phone, &s.Channel); err != nil {
			return nil, err
		}
		subscribers = append(subscribers, s)
	}
	return subscribers, rows.Err()
}
