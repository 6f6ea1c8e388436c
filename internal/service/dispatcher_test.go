package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"adaptt/internal/model"
)

type memAuditQueue struct {
	pending  []model.PendingEvent
	notified map[int64]bool
	listErr  error
}

func newMemAuditQueue(events ...model.PendingEvent) *memAuditQueue {
	return &memAuditQueue{pending: events, notified: make(map[int64]bool)}
}

func (q *memAuditQueue) ListPending(context.Context) ([]model.PendingEvent, error) {
	if q.listErr != nil {
		return nil, q.listErr
	}
	var out []model.PendingEvent
	for _, ev := range q.pending {
		if !q.notified[ev.ID] {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (q *memAuditQueue) MarkNotified(_ context.Context, auditID int64) error {
	q.notified[auditID] = true
	return nil
}

type memSubscriberStore struct {
	byProject map[string][]model.Subscriber
	listErr   error
}

func (s *memSubscriberStore) ListEnabledSubscribers(_ context.Context, projectID string) ([]model.Subscriber, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.byProject[projectID], nil
}

type sentMessage struct {
	channel    string
	message    string
	to         string
	contentSID string
	variables  map[string]string
}

type fakeGateway struct {
	sent    []sentMessage
	sendErr error
}

func (g *fakeGateway) SendSMS(_ context.Context, message, to string) (string, error) {
	if g.sendErr != nil {
		return "", g.sendErr
	}
	g.sent = append(g.sent, sentMessage{channel: "sms", message: message, to: to})
	return fmt.Sprintf("SM%d", len(g.sent)), nil
}

func (g *fakeGateway) SendWhatsApp(_ context.Context, message, to, contentSID string, variables map[string]string) (string, error) {
	if g.sendErr != nil {
		return "", g.sendErr
	}
	g.sent = append(g.sent, sentMessage{
		channel: "wpp", message: message, to: to, contentSID: contentSID, variables: variables,
	})
	return fmt.Sprintf("WA%d", len(g.sent)), nil
}

type fakePublisher struct {
	published []string
}

func (p *fakePublisher) Publish(routingKey string, _ any) error {
	p.published = append(p.published, routingKey)
	return nil
}

func strPtr(s string) *string { return &s }

func pendingEvent(id int64, eventType string) model.PendingEvent {
	return model.PendingEvent{
		AuditEvent: model.AuditEvent{
			ID:         id,
			ProjectID:  "p1",
			EventType:  eventType,
			OldDate:    strPtr("2026-01-01T00:00:00Z"),
			NewDate:    "2026-06-01T00:00:00Z",
			DetectedAt: time.Now(),
		},
		ProjectName: "Estrada N1",
	}
}

func newTestDispatcher(q *memAuditQueue, subs *memSubscriberStore, gw *fakeGateway, pub *fakePublisher) *Dispatcher {
	return NewDispatcher(q, subs, gw, nil, pub, 30*time.Second, "HXtemplate", zap.NewNop())
}

func TestRunOnceSendsAndMarksNotified(t *testing.T) {
	q := newMemAuditQueue(pendingEvent(1, model.EventDeadlineExtended))
	subs := &memSubscriberStore{byProject: map[string][]model.Subscriber{
		"p1": {
			{UserID: 1, Name: "Ana", Phone: "+258841234567", Channel: model.ChannelSMS},
			{UserID: 2, Name: "Celso", Phone: "+258861234567", Channel: model.ChannelWhatsApp},
		},
	}}
	gw := &fakeGateway{}
	pub := &fakePublisher{}

	d := newTestDispatcher(q, subs, gw, pub)
	require.NoError(t, d.RunOnce(context.Background()))

	require.Len(t, gw.sent, 2)
	assert.Equal(t, "sms", gw.sent[0].channel)
	assert.Contains(t, gw.sent[0].message, "foi estendido de 2026-01-01T00:00:00Z para 2026-06-01T00:00:00Z")

	assert.Equal(t, "wpp", gw.sent[1].channel)
	assert.Equal(t, "HXtemplate", gw.sent[1].contentSID)
	assert.Equal(t, map[string]string{"1": "2026-06-01", "2": "Estrada N1"}, gw.sent[1].variables)

	assert.True(t, q.notified[1])
	assert.Equal(t, []string{"notification.sent", "notification.sent"}, pub.published)
}

func TestRunOnceMarksNotifiedWhenAllSendsFail(t *testing.T) {
	q := newMemAuditQueue(pendingEvent(7, model.EventDeadlineChanged))
	subs := &memSubscriberStore{byProject: map[string][]model.Subscriber{
		"p1": {
			{UserID: 1, Phone: "+258841234567", Channel: model.ChannelSMS},
			{UserID: 2, Phone: "+258861234567", Channel: model.ChannelSMS},
		},
	}}
	gw := &fakeGateway{sendErr: errors.New("carrier unavailable")}
	pub := &fakePublisher{}

	d := newTestDispatcher(q, subs, gw, pub)
	require.NoError(t, d.RunOnce(context.Background()))

	assert.Empty(t, gw.sent)
	assert.True(t, q.notified[7], "event must be marked notified despite delivery failures")
	assert.Equal(t, []string{"notification.failed", "notification.failed"}, pub.published)
}

func TestRunOnceNoSubscribers(t *testing.T) {
	q := newMemAuditQueue(pendingEvent(3, model.EventDeadlineExpired))
	subs := &memSubscriberStore{byProject: map[string][]model.Subscriber{}}
	gw := &fakeGateway{}

	d := newTestDispatcher(q, subs, gw, &fakePublisher{})
	require.NoError(t, d.RunOnce(context.Background()))

	assert.Empty(t, gw.sent, "no subscribers means zero sends")
	assert.True(t, q.notified[3], "event is still marked notified")
}

func TestRunOnceOldestFirstAndIdempotent(t *testing.T) {
	first := pendingEvent(1, model.EventDeadlineChanged)
	second := pendingEvent(2, model.EventDeadlineExpired)
	q := newMemAuditQueue(first, second)
	subs := &memSubscriberStore{byProject: map[string][]model.Subscriber{
		"p1": {{UserID: 1, Phone: "+258841234567", Channel: model.ChannelSMS}},
	}}
	gw := &fakeGateway{}

	d := newTestDispatcher(q, subs, gw, &fakePublisher{})
	require.NoError(t, d.RunOnce(context.Background()))
	require.Len(t, gw.sent, 2)
	assert.Contains(t, gw.sent[0].message, "Mudança de prazo")
	assert.Contains(t, gw.sent[1].message, "expirou em")

	// second cycle finds nothing pending
	require.NoError(t, d.RunOnce(context.Background()))
	assert.Len(t, gw.sent, 2)
}

func TestRunOnceKeepsEventPendingWhenSubscriberLookupFails(t *testing.T) {
	q := newMemAuditQueue(pendingEvent(9, model.EventDeadlineChanged))
	subs := &memSubscriberStore{
		byProject: map[string][]model.Subscriber{
			"p1": {{UserID: 1, Phone: "+258841234567", Channel: model.ChannelSMS}},
		},
		listErr: errors.New("db down"),
	}
	gw := &fakeGateway{}

	d := newTestDispatcher(q, subs, gw, &fakePublisher{})
	require.NoError(t, d.RunOnce(context.Background()))

	assert.Empty(t, gw.sent)
	assert.False(t, q.notified[9], "event must stay pending when no delivery was attempted")

	// lookup recovers: the next cycle delivers and consumes the event
	subs.listErr = nil
	require.NoError(t, d.RunOnce(context.Background()))
	assert.Len(t, gw.sent, 1)
	assert.True(t, q.notified[9])
}

func TestRunOnceListError(t *testing.T) {
	q := newMemAuditQueue()
	q.listErr = errors.New("db down")

	d := newTestDispatcher(q, &memSubscriberStore{}, &fakeGateway{}, &fakePublisher{})
	assert.Error(t, d.RunOnce(context.Background()))
}

type fakeDeduper struct {
	seen map[string]bool
}

func (f *fakeDeduper) AcquireOnce(_ context.Context, scope, key string) bool {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	k := scope + ":" + key
	if f.seen[k] {
		return false
	}
	f.seen[k] = true
	return true
}

func TestDedupGuardSuppressesRepeatSends(t *testing.T) {
	ev := pendingEvent(5, model.EventDeadlineExpired)
	subs := &memSubscriberStore{byProject: map[string][]model.Subscriber{
		"p1": {{UserID: 1, Phone: "+258841234567", Channel: model.ChannelSMS}},
	}}
	gw := &fakeGateway{}
	dedup := &fakeDeduper{}

	// simulate a replayed cycle: same event drained twice
	q := newMemAuditQueue(ev)
	d := NewDispatcher(q, subs, gw, dedup, &fakePublisher{}, 30*time.Second, "", zap.NewNop())
	require.NoError(t, d.RunOnce(context.Background()))

	q.notified[5] = false // pretend the mark was lost in a crash
	require.NoError(t, d.RunOnce(context.Background()))

	assert.Len(t, gw.sent, 1, "duplicate delivery suppressed by the dedup guard")
	assert.True(t, q.notified[5])
}

func TestStartStopBoundedWait(t *testing.T) {
	q := newMemAuditQueue()
	d := NewDispatcher(q, &memSubscriberStore{}, &fakeGateway{}, nil, &fakePublisher{},
		10*time.Millisecond, "", zap.NewNop())

	d.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	d.Stop(time.Second)

	select {
	case <-d.done:
	default:
		t.Fatal("dispatcher loop still running after Stop")
	}
}
