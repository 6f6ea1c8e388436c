package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitSchema creates the tables the registry monitor persists to. Statements
// are idempotent so every binary can run this at startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		project_id TEXT PRIMARY KEY,
		project_name TEXT,
		status TEXT,
		data_raw JSONB,
		last_sync TIMESTAMPTZ,
		is_processed BOOLEAN NOT NULL DEFAULT FALSE,
		transparency_score INTEGER,
		alert_color TEXT,
		simple_message TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS project_documents (
		doc_id BIGSERIAL PRIMARY KEY,
		project_id TEXT REFERENCES projects (project_id),
		doc_type TEXT,
		is_published BOOLEAN NOT NULL DEFAULT FALSE,
		critical_weight DOUBLE PRECISION NOT NULL DEFAULT 0.0
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		name TEXT,
		region TEXT,
		country TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		phone_number TEXT UNIQUE NOT NULL,
		region_id TEXT NOT NULL REFERENCES locations (id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		subscription_id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (user_id),
		project_id TEXT NOT NULL REFERENCES projects (project_id),
		subscribed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		notification_channel TEXT NOT NULL DEFAULT 'sms'
			CHECK (notification_channel IN ('sms', 'wpp')),
		UNIQUE (user_id, project_id)
	)`,
	`CREATE TABLE IF NOT EXISTS project_audit (
		audit_id BIGSERIAL PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects (project_id),
		event_type TEXT NOT NULL,
		old_date TEXT,
		new_date TEXT NOT NULL,
		detected_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		notified BOOLEAN NOT NULL DEFAULT FALSE
	)`,
}

func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
