package mq

import "time"

// Routing keys on the adaptt.events exchange. Audit events use the event
// type as suffix: project.audit.deadline_changed etc.
const (
	RoutingProjectAuditPrefix = "project.audit."
	RoutingProjectScored      = "project.scored"
	RoutingNotificationSent   = "notification.sent"
	RoutingNotificationFailed = "notification.failed"
)

type AuditEventPayload struct {
	AuditID    int64     `json:"audit_id"`
	ProjectID  string    `json:"project_id"`
	EventType  string    `json:"event_type"`
	OldDate    *string   `json:"old_date,omitempty"`
	NewDate    string    `json:"new_date"`
	DetectedAt time.Time `json:"detected_at"`
}

type ProjectScoredPayload struct {
	ProjectID string `json:"project_id"`
	Score     int    `json:"score"`
	Color     string `json:"color"`
}

type NotificationSentPayload struct {
	AuditID   int64     `json:"audit_id"`
	UserID    int       `json:"user_id"`
	Channel   string    `json:"channel"`
	MessageID string    `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
}

type NotificationFailedPayload struct {
	AuditID int64  `json:"audit_id"`
	UserID  int    `json:"user_id"`
	Channel string `json:"channel"`
	Error   string `json:"error"`
}
