package model

import "time"

const (
	EventDeadlineChanged  = "deadline_changed"
	EventDeadlineExtended = "deadline_extended"
	EventDeadlineExpired  = "deadline_expired"
)

// AuditEvent is an append-only record of a detected schedule change.
// Notified is monotonic: it flips false to true once and is never reset.
// Dates are kept as the raw strings the registry published.
type AuditEvent struct {
	ID         int64
	ProjectID  string
	EventType  string
	OldDate    *string
	NewDate    string
	DetectedAt time.Time
	Notified   bool
}

// PendingEvent is an un-notified audit event joined with its project name,
// as drained by the dispatcher.
type PendingEvent struct {
	AuditEvent
	ProjectName string
}
