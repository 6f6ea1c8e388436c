// Package detector compares consecutive project snapshots and emits audit
// events for schedule changes. It never marks events notified; that belongs
// to the dispatcher.
package detector

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"adaptt/internal/model"
)

// AuditStore answers whether an expiration for a given deadline was already
// recorded, so re-running the detector does not duplicate expired events.
type AuditStore interface {
	HasExpiredEvent(ctx context.Context, projectID, newDate string) (bool, error)
}

type Detector struct {
	audit  AuditStore
	logger *zap.Logger
	now    func() time.Time
}

func New(audit AuditStore, logger *zap.Logger) *Detector {
	return &Detector{
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// Detect compares the implementation-period end dates of the previous and
// newly fetched payloads. oldPayload may be nil for first-seen projects.
// Unparseable dates are logged and skip only the affected check.
func (d *Detector) Detect(ctx context.Context, projectID string, oldPayload, newPayload json.RawMessage) ([]model.AuditEvent, error) {
	newEnd := implementationEnd(newPayload)
	oldEnd := implementationEnd(oldPayload)

	var events []model.AuditEvent

	if oldEnd != "" && newEnd != "" && oldEnd != newEnd {
		oldDate, errOld := parseDate(oldEnd)
		newDate, errNew := parseDate(newEnd)
		if errOld != nil || errNew != nil {
			d.logger.Error("Failed to parse deadline dates",
				zap.String("project_id", projectID),
				zap.String("old_date", oldEnd),
				zap.String("new_date", newEnd),
				zap.NamedError("old_err", errOld),
				zap.NamedError("new_err", errNew),
			)
		} else {
			eventType := model.EventDeadlineChanged
			if newDate.After(oldDate) {
				eventType = model.EventDeadlineExtended
			}
			prev := oldEnd
			events = append(events, model.AuditEvent{
				ProjectID: projectID,
				EventType: eventType,
				OldDate:   &prev,
				NewDate:   newEnd,
			})
		}
	}

	if newEnd != "" {
		endDate, err := parseDate(newEnd)
		switch {
		case err != nil:
			d.logger.Error("Failed to parse deadline for expiration check",
				zap.String("project_id", projectID),
				zap.String("new_date", newEnd),
				zap.Error(err),
			)
		case endDate.Before(d.now()):
			logged, err := d.audit.HasExpiredEvent(ctx, projectID, newEnd)
			if err != nil {
				return events, err
			}
			if !logged {
				events = append(events, model.AuditEvent{
					ProjectID: projectID,
					EventType: model.EventDeadlineExpired,
					NewDate:   newEnd,
				})
			}
		}
	}

	return events, nil
}

// implementationEnd digs implementationPeriod.endDate out of a payload,
// returning "" when any level is absent or malformed.
func implementationEnd(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}
	var doc struct {
		ImplementationPeriod struct {
			EndDate string `json:"endDate"`
		} `json:"implementationPeriod"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return ""
	}
	return doc.ImplementationPeriod.EndDate
}

// parseDate accepts RFC 3339 timestamps with either a "Z" or an explicit
// offset suffix, and bare dates.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
