package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"adaptt/internal/detector"
	"adaptt/internal/model"
	"adaptt/internal/repository"
	"adaptt/internal/score"
	"adaptt/internal/source"
)

type memProjectStore struct {
	rows    map[string]*model.Project
	upserts int
}

func newMemProjectStore() *memProjectStore {
	return &memProjectStore{rows: make(map[string]*model.Project)}
}

func (s *memProjectStore) Get(_ context.Context, projectID string) (*model.Project, error) {
	p, ok := s.rows[projectID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memProjectStore) Upsert(_ context.Context, projectID, name, status string, payload json.RawMessage) error {
	s.upserts++
	if existing, ok := s.rows[projectID]; ok {
		existing.Name = name
		existing.Status = status
		existing.Payload = payload
		return nil
	}
	s.rows[projectID] = &model.Project{ID: projectID, Name: name, Status: status, Payload: payload}
	return nil
}

func (s *memProjectStore) ListUnprocessed(context.Context) ([]model.Project, error) {
	var out []model.Project
	for _, p := range s.rows {
		if !p.Processed {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *memProjectStore) UpdateScore(_ context.Context, projectID string, res score.Result) error {
	p, ok := s.rows[projectID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Score = &res.Score
	p.AlertColor = &res.Color
	p.AlertMessage = &res.Message
	p.Processed = true
	return nil
}

type memDocumentStore struct {
	byProject map[string][]model.Document
}

func newMemDocumentStore() *memDocumentStore {
	return &memDocumentStore{byProject: make(map[string][]model.Document)}
}

func (s *memDocumentStore) Replace(_ context.Context, projectID string, docs []model.Document) error {
	s.byProject[projectID] = docs
	return nil
}

type memLocationStore struct {
	rows map[string]model.Location
}

func newMemLocationStore() *memLocationStore {
	return &memLocationStore{rows: make(map[string]model.Location)}
}

func (s *memLocationStore) Upsert(_ context.Context, loc model.Location) error {
	s.rows[loc.ID] = loc
	return nil
}

type memAuditLog struct {
	events []model.AuditEvent
}

func (l *memAuditLog) Append(_ context.Context, ev *model.AuditEvent) error {
	ev.ID = int64(len(l.events) + 1)
	l.events = append(l.events, *ev)
	return nil
}

func (l *memAuditLog) HasExpiredEvent(_ context.Context, projectID, newDate string) (bool, error) {
	for _, ev := range l.events {
		if ev.ProjectID == projectID && ev.EventType == model.EventDeadlineExpired && ev.NewDate == newDate {
			return true, nil
		}
	}
	return false, nil
}

type fakeSource struct {
	projects  []json.RawMessage
	locations []source.Location
}

func (s *fakeSource) FetchProjects(context.Context) []json.RawMessage { return s.projects }
func (s *fakeSource) FetchLocations(context.Context) []source.Location {
	return s.locations
}

type syncHarness struct {
	svc       *SyncService
	src       *fakeSource
	projects  *memProjectStore
	documents *memDocumentStore
	locations *memLocationStore
	audit     *memAuditLog
	publisher *fakePublisher
}

func newSyncHarness(src *fakeSource) *syncHarness {
	h := &syncHarness{
		src:       src,
		projects:  newMemProjectStore(),
		documents: newMemDocumentStore(),
		locations: newMemLocationStore(),
		audit:     &memAuditLog{},
		publisher: &fakePublisher{},
	}
	logger := zap.NewNop()
	det := detector.New(h.audit, logger)
	h.svc = NewSyncService(h.src, h.projects, h.documents, h.locations, h.audit, det, h.publisher, logger)
	return h
}

func projectPayload(id, endDate string, docTypes ...string) json.RawMessage {
	docs := ""
	for i, t := range docTypes {
		if i > 0 {
			docs += ","
		}
		docs += fmt.Sprintf(`{"type": %q, "url": "https://registry/%s.pdf"}`, t, t)
	}
	period := ""
	if endDate != "" {
		period = fmt.Sprintf(`, "implementationPeriod": {"endDate": %q}`, endDate)
	}
	return json.RawMessage(fmt.Sprintf(
		`{"id": %q, "title": "Projeto %s", "status": "Implementation", "documents": [%s]%s}`,
		id, id, docs, period,
	))
}

func TestRunFullSync(t *testing.T) {
	h := newSyncHarness(&fakeSource{
		projects: []json.RawMessage{
			projectPayload("p1", "2099-01-01T00:00:00Z", "signedContract", "feasibilityStudy", "progressReport", "completionReport"),
			projectPayload("p2", "", "progressReport"),
		},
		locations: []source.Location{
			{ID: "maputo-city", Name: "Maputo City", Region: "South", Country: "Mozambique"},
		},
	})

	require.NoError(t, h.svc.RunFullSync(context.Background()))

	require.Len(t, h.projects.rows, 2)
	assert.Equal(t, "Projeto p1", h.projects.rows["p1"].Name)
	assert.Contains(t, h.locations.rows, "maputo-city")

	// scores computed for everything and processed flags flipped
	p1 := h.projects.rows["p1"]
	require.NotNil(t, p1.Score)
	assert.Equal(t, 10, *p1.Score)
	assert.Equal(t, score.ColorGreen, *p1.AlertColor)
	assert.True(t, p1.Processed)

	p2 := h.projects.rows["p2"]
	require.NotNil(t, p2.Score)
	assert.Equal(t, 2, *p2.Score)
	assert.Equal(t, score.ColorRed, *p2.AlertColor)

	// document rows carry the catalog weight and published flag
	require.Len(t, h.documents.byProject["p1"], 4)
	assert.Equal(t, 0.35, h.documents.byProject["p1"][0].Weight)
	assert.True(t, h.documents.byProject["p1"][0].Published)

	assert.Contains(t, h.publisher.published, "project.scored")
}

func TestRunFullSyncIdempotent(t *testing.T) {
	src := &fakeSource{
		projects: []json.RawMessage{
			projectPayload("p1", "2099-01-01T00:00:00Z", "signedContract"),
		},
	}
	h := newSyncHarness(src)

	require.NoError(t, h.svc.RunFullSync(context.Background()))
	require.NoError(t, h.svc.RunFullSync(context.Background()))

	assert.Len(t, h.projects.rows, 1, "one snapshot row per project id")
	assert.Len(t, h.documents.byProject["p1"], 1, "document rows replaced, not duplicated")
	assert.Empty(t, h.audit.events, "unchanged payload yields no audit events")
}

func TestRunFullSyncPreservesScoreAcrossResync(t *testing.T) {
	src := &fakeSource{
		projects: []json.RawMessage{projectPayload("p1", "", "signedContract")},
	}
	h := newSyncHarness(src)

	require.NoError(t, h.svc.RunFullSync(context.Background()))
	scoreBefore := *h.projects.rows["p1"].Score

	require.NoError(t, h.svc.RunFullSync(context.Background()))
	require.NotNil(t, h.projects.rows["p1"].Score)
	assert.Equal(t, scoreBefore, *h.projects.rows["p1"].Score)
	assert.True(t, h.projects.rows["p1"].Processed, "already-processed projects are not rescored")
}

func TestRunFullSyncSkipsProjectWithoutID(t *testing.T) {
	h := newSyncHarness(&fakeSource{
		projects: []json.RawMessage{
			json.RawMessage(`{"title": "sem id", "status": "Planned"}`),
			projectPayload("p2", "", "progressReport"),
		},
	})

	require.NoError(t, h.svc.RunFullSync(context.Background()))
	assert.Len(t, h.projects.rows, 1)
	assert.Contains(t, h.projects.rows, "p2")
}

func TestRunFullSyncEmptyFetchIsNotFatal(t *testing.T) {
	h := newSyncHarness(&fakeSource{})

	require.NoError(t, h.svc.RunFullSync(context.Background()))
	assert.Empty(t, h.projects.rows)
}

func TestRunFullSyncDetectsDeadlineChanges(t *testing.T) {
	src := &fakeSource{
		projects: []json.RawMessage{projectPayload("p1", "2099-01-01T00:00:00Z", "signedContract")},
	}
	h := newSyncHarness(src)
	require.NoError(t, h.svc.RunFullSync(context.Background()))
	require.Empty(t, h.audit.events)

	// registry extends the deadline between cycles
	src.projects = []json.RawMessage{projectPayload("p1", "2099-06-01T00:00:00Z", "signedContract")}
	require.NoError(t, h.svc.RunFullSync(context.Background()))

	require.Len(t, h.audit.events, 1)
	ev := h.audit.events[0]
	assert.Equal(t, model.EventDeadlineExtended, ev.EventType)
	require.NotNil(t, ev.OldDate)
	assert.Equal(t, "2099-01-01T00:00:00Z", *ev.OldDate)
	assert.Equal(t, "2099-06-01T00:00:00Z", ev.NewDate)
	assert.Contains(t, h.publisher.published, "project.audit.deadline_extended")
}

func TestRunFullSyncExpiredLoggedOnce(t *testing.T) {
	src := &fakeSource{
		projects: []json.RawMessage{projectPayload("p1", "2020-01-01T00:00:00Z", "signedContract")},
	}
	h := newSyncHarness(src)

	require.NoError(t, h.svc.RunFullSync(context.Background()))
	require.NoError(t, h.svc.RunFullSync(context.Background()))

	expired := 0
	for _, ev := range h.audit.events {
		if ev.EventType == model.EventDeadlineExpired {
			expired++
		}
	}
	assert.Equal(t, 1, expired, "consecutive cycles log a given expiration once")
}
