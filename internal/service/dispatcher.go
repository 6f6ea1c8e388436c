package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"adaptt/internal/messaging"
	"adaptt/internal/metrics"
	"adaptt/internal/model"
	"adaptt/internal/mq"
)

type AuditQueue interface {
	ListPending(ctx context.Context) ([]model.PendingEvent, error)
	MarkNotified(ctx context.Context, auditID int64) error
}

type SubscriberStore interface {
	ListEnabledSubscribers(ctx context.Context, projectID string) ([]model.Subscriber, error)
}

// DedupGuard suppresses re-sending the same message when a crashed cycle is
// replayed. Best effort: delivery stays at-least-once either way.
type DedupGuard interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
}

// Dispatcher drains un-notified audit events on a fixed interval and fans
// each one out to the project's subscribers. After a delivery pass the event
// is marked notified regardless of per-subscriber failures; a failed send is
// logged and dropped, never queued for retry. When the subscribers cannot be
// resolved at all no delivery was attempted, so the event stays pending and
// is picked up again next cycle.
type Dispatcher struct {
	audit      AuditQueue
	subs       SubscriberStore
	gateway    messaging.Gateway
	deduper    DedupGuard
	publisher  EventPublisher
	logger     *zap.Logger
	interval   time.Duration
	contentSID string

	cancel context.CancelFunc
	done   chan struct{}
}

func NewDispatcher(
	audit AuditQueue,
	subs SubscriberStore,
	gateway messaging.Gateway,
	deduper DedupGuard,
	publisher EventPublisher,
	interval time.Duration,
	whatsAppContentSID string,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		audit:      audit,
		subs:       subs,
		gateway:    gateway,
		deduper:    deduper,
		publisher:  publisher,
		logger:     logger,
		interval:   interval,
		contentSID: whatsAppContentSID,
	}
}

// Start launches the poll loop in a goroutine. Cancellation is checked only
// between cycles; in-flight sends always finish.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})

	go d.run(ctx)
	d.logger.Info("Notification dispatcher started", zap.Duration("interval", d.interval))
}

// Stop requests the loop to exit and waits up to timeout for the current
// cycle to finish.
func (d *Dispatcher) Stop(timeout time.Duration) {
	if d.cancel == nil {
		return
	}
	d.cancel()

	select {
	case <-d.done:
		d.logger.Info("Notification dispatcher stopped")
	case <-time.After(timeout):
		d.logger.Warn("Notification dispatcher did not stop within timeout",
			zap.Duration("timeout", timeout))
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// first pass immediately on startup
	d.cycle()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.cycle()
		}
	}
}

// cycle deliberately runs on a background context so that a shutdown request
// never interrupts sends already underway.
func (d *Dispatcher) cycle() {
	start := time.Now()
	if err := d.RunOnce(context.Background()); err != nil {
		d.logger.Error("Dispatch cycle failed", zap.Error(err))
	}
	metrics.ObserveDispatchCycle(time.Since(start))
}

// RunOnce processes all currently pending audit events. Exported so tests
// and operators can drive a single cycle without the timer.
func (d *Dispatcher) RunOnce(ctx context.Context) error {
	pending, err := d.audit.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending events: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	d.logger.Info("Processing pending notifications", zap.Int("count", len(pending)))

	for _, ev := range pending {
		if err := d.notifySubscribers(ctx, ev); err != nil {
			// no delivery was attempted; leave the event pending so the
			// next cycle retries it
			d.logger.Error("Failed to resolve subscribers",
				zap.Int64("audit_id", ev.ID),
				zap.String("project_id", ev.ProjectID),
				zap.Error(err),
			)
			continue
		}

		if err := d.audit.MarkNotified(ctx, ev.ID); err != nil {
			d.logger.Error("Failed to mark audit event notified",
				zap.Int64("audit_id", ev.ID), zap.Error(err))
		}
	}

	return nil
}

// notifySubscribers attempts delivery to every enabled subscriber. An error
// means the subscribers could not be resolved at all; send failures are
// handled per recipient and never returned.
func (d *Dispatcher) notifySubscribers(ctx context.Context, ev model.PendingEvent) error {
	subscribers, err := d.subs.ListEnabledSubscribers(ctx, ev.ProjectID)
	if err != nil {
		return err
	}
	if len(subscribers) == 0 {
		d.logger.Info("No subscribers for project", zap.String("project_id", ev.ProjectID))
		return nil
	}

	message := formatAlertMessage(ev)

	for _, sub := range subscribers {
		if d.deduper != nil {
			key := fmt.Sprintf("%d:%s", ev.ID, sub.Phone)
			if !d.deduper.AcquireOnce(ctx, "notify", key) {
				metrics.Notifications.WithLabelValues(sub.Channel, "deduped").Inc()
				continue
			}
		}

		var sid string
		switch sub.Channel {
		case model.ChannelWhatsApp:
			sid, err = d.gateway.SendWhatsApp(ctx, message, sub.Phone, d.contentSID, whatsAppVariables(ev))
		default:
			sid, err = d.gateway.SendSMS(ctx, message, sub.Phone)
		}

		if err != nil {
			metrics.Notifications.WithLabelValues(sub.Channel, "failed").Inc()
			d.logger.Error("Failed to send alert",
				zap.Int64("audit_id", ev.ID),
				zap.String("channel", sub.Channel),
				zap.String("phone", sub.Phone),
				zap.Error(err),
			)
			d.publishResult(mq.RoutingNotificationFailed, mq.NotificationFailedPayload{
				AuditID: ev.ID,
				UserID:  sub.UserID,
				Channel: sub.Channel,
				Error:   err.Error(),
			})
			continue
		}

		metrics.Notifications.WithLabelValues(sub.Channel, "sent").Inc()
		d.logger.Info("Alert sent",
			zap.Int64("audit_id", ev.ID),
			zap.String("project_id", ev.ProjectID),
			zap.String("channel", sub.Channel),
			zap.String("phone", sub.Phone),
		)
		d.publishResult(mq.RoutingNotificationSent, mq.NotificationSentPayload{
			AuditID:   ev.ID,
			UserID:    sub.UserID,
			Channel:   sub.Channel,
			MessageID: sid,
			SentAt:    time.Now(),
		})
	}

	return nil
}

func (d *Dispatcher) publishResult(routingKey string, payload any) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(routingKey, payload); err != nil {
		d.logger.Error("Failed to publish notification event", zap.Error(err))
	}
}

func formatAlertMessage(ev model.PendingEvent) string {
	switch ev.EventType {
	case model.EventDeadlineExpired:
		return fmt.Sprintf("ALERTA ADAPTT: O prazo do projeto '%s' expirou em %s. Verifique o status.",
			ev.ProjectName, ev.NewDate)
	case model.EventDeadlineExtended:
		oldDate := ""
		if ev.OldDate != nil {
			oldDate = *ev.OldDate
		}
		return fmt.Sprintf("ATUALIZAÇÃO ADAPTT: O prazo do projeto '%s' foi estendido de %s para %s.",
			ev.ProjectName, oldDate, ev.NewDate)
	default:
		return fmt.Sprintf("ALERTA ADAPTT: Mudança de prazo no projeto '%s'. Novo prazo: %s.",
			ev.ProjectName, ev.NewDate)
	}
}

// whatsAppVariables fills the slots of the pre-approved template:
// {"1"} the date, {"2"} the project name.
func whatsAppVariables(ev model.PendingEvent) map[string]string {
	date := ev.NewDate
	if idx := strings.Index(date, "T"); idx > 0 {
		date = date[:idx]
	}
	return map[string]string{
		"1": date,
		"2": ev.ProjectName,
	}
}
