package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"adaptt/internal/metrics"
	"adaptt/internal/model"
	"adaptt/internal/mq"
	"adaptt/internal/repository"
	"adaptt/internal/score"
	"adaptt/internal/source"
)

// Store contracts the sync cycle depends on. Satisfied by the pgx
// repositories; tests substitute in-memory implementations.
type ProjectStore interface {
	Get(ctx context.Context, projectID string) (*model.Project, error)
	Upsert(ctx context.Context, projectID, name, status string, payload json.RawMessage) error
	ListUnprocessed(ctx context.Context) ([]model.Project, error)
	UpdateScore(ctx context.Context, projectID string, res score.Result) error
}

type DocumentStore interface {
	Replace(ctx context.Context, projectID string, docs []model.Document) error
}

type LocationStore interface {
	Upsert(ctx context.Context, loc model.Location) error
}

type AuditLog interface {
	Append(ctx context.Context, ev *model.AuditEvent) error
}

type ChangeDetector interface {
	Detect(ctx context.Context, projectID string, oldPayload, newPayload json.RawMessage) ([]model.AuditEvent, error)
}

type Source interface {
	FetchProjects(ctx context.Context) []json.RawMessage
	FetchLocations(ctx context.Context) []source.Location
}

type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// SyncService drives one full synchronization cycle against the registry.
// The cycle is sequential and not transactional end-to-end; every step is
// individually idempotent so an interrupted cycle is safe to re-run.
type SyncService struct {
	src       Source
	projects  ProjectStore
	documents DocumentStore
	locations LocationStore
	audit     AuditLog
	detector  ChangeDetector
	publisher EventPublisher
	logger    *zap.Logger
}

func NewSyncService(
	src Source,
	projects ProjectStore,
	documents DocumentStore,
	locations LocationStore,
	audit AuditLog,
	detector ChangeDetector,
	publisher EventPublisher,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		src:       src,
		projects:  projects,
		documents: documents,
		locations: locations,
		audit:     audit,
		detector:  detector,
		publisher: publisher,
		logger:    logger,
	}
}

// RunFullSync fetches locations and projects, upserts every snapshot,
// replaces document rows, runs change detection against the pre-overwrite
// snapshot, then scores every still-unprocessed project.
func (s *SyncService) RunFullSync(ctx context.Context) error {
	s.logger.Info("Starting full synchronization...")

	locations := s.src.FetchLocations(ctx)
	for _, loc := range locations {
		if err := s.locations.Upsert(ctx, model.Location(loc)); err != nil {
			s.logger.Error("Failed to upsert location", zap.String("location_id", loc.ID), zap.Error(err))
		}
	}
	s.logger.Info("Locations synced", zap.Int("count", len(locations)))

	projects := s.src.FetchProjects(ctx)
	s.logger.Info("Projects fetched", zap.Int("count", len(projects)))

	for _, payload := range projects {
		if err := s.syncProject(ctx, payload); err != nil {
			s.logger.Error("Failed to sync project", zap.Error(err))
			metrics.SyncCycles.WithLabelValues("failed").Inc()
			return err
		}
	}

	if err := s.scoreUnprocessed(ctx); err != nil {
		metrics.SyncCycles.WithLabelValues("failed").Inc()
		return err
	}

	metrics.SyncCycles.WithLabelValues("success").Inc()
	s.logger.Info("Full synchronization completed")
	return nil
}

func (s *SyncService) syncProject(ctx context.Context, payload json.RawMessage) error {
	var meta struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &meta); err != nil {
		s.logger.Warn("Skipping malformed project payload", zap.Error(err))
		return nil
	}
	if meta.ID == "" {
		s.logger.Warn("Project found without ID. Skipping.")
		return nil
	}

	// OC4IDS uses 'title'; fall back to 'name' for older payloads
	name := meta.Title
	if name == "" {
		name = meta.Name
	}
	if name == "" {
		name = "Unknown"
	}
	status := meta.Status
	if status == "" {
		status = "Unknown"
	}

	// snapshot fetched before overwrite is "old" for change detection
	previous, err := s.projects.Get(ctx, meta.ID)
	if err != nil {
		previous = nil
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Failed to load previous snapshot",
				zap.String("project_id", meta.ID), zap.Error(err))
		}
	}

	if err := s.projects.Upsert(ctx, meta.ID, name, status, payload); err != nil {
		return err
	}
	metrics.ProjectsSynced.Inc()

	docs := score.ExtractDocuments(payload)
	records := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		records = append(records, model.Document{
			ProjectID: meta.ID,
			DocType:   d.Type,
			Published: d.URL != "",
			Weight:    score.Weight(d.Type),
		})
	}
	if err := s.documents.Replace(ctx, meta.ID, records); err != nil {
		return err
	}

	var oldPayload json.RawMessage
	if previous != nil {
		oldPayload = previous.Payload
	}
	events, err := s.detector.Detect(ctx, meta.ID, oldPayload, payload)
	if err != nil {
		s.logger.Error("Change detection failed", zap.String("project_id", meta.ID), zap.Error(err))
		return nil // detection failure does not abort the cycle
	}

	for i := range events {
		ev := &events[i]
		if err := s.audit.Append(ctx, ev); err != nil {
			s.logger.Error("Failed to log audit event",
				zap.String("project_id", meta.ID),
				zap.String("event_type", ev.EventType),
				zap.Error(err),
			)
			continue
		}
		metrics.AuditEventsDetected.WithLabelValues(ev.EventType).Inc()
		s.logger.Info("Logged audit event",
			zap.Int64("audit_id", ev.ID),
			zap.String("project_id", ev.ProjectID),
			zap.String("event_type", ev.EventType),
		)

		if pubErr := s.publisher.Publish(mq.RoutingProjectAuditPrefix+ev.EventType, mq.AuditEventPayload{
			AuditID:    ev.ID,
			ProjectID:  ev.ProjectID,
			EventType:  ev.EventType,
			OldDate:    ev.OldDate,
			NewDate:    ev.NewDate,
			DetectedAt: ev.DetectedAt,
		}); pubErr != nil {
			s.logger.Error("Failed to publish audit event", zap.Int64("audit_id", ev.ID), zap.Error(pubErr))
		}
	}

	return nil
}

// scoreUnprocessed computes the transparency score for every project that
// has never been scored and persists the result.
func (s *SyncService) scoreUnprocessed(ctx context.Context) error {
	unprocessed, err := s.projects.ListUnprocessed(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("Scoring unprocessed projects", zap.Int("count", len(unprocessed)))

	for _, p := range unprocessed {
		res := score.EvaluatePayload(p.Payload)
		if err := s.projects.UpdateScore(ctx, p.ID, res); err != nil {
			s.logger.Error("Failed to persist score", zap.String("project_id", p.ID), zap.Error(err))
			continue
		}
		metrics.ScoresComputed.WithLabelValues(res.Color).Inc()
		s.logger.Info("Transparency score computed",
			zap.String("project_id", p.ID),
			zap.Int("score", res.Score),
			zap.String("color", res.Color),
		)

		if pubErr := s.publisher.Publish(mq.RoutingProjectScored, mq.ProjectScoredPayload{
			ProjectID: p.ID,
			Score:     res.Score,
			Color:     res.Color,
		}); pubErr != nil {
			s.logger.Error("Failed to publish score event", zap.String("project_id", p.ID), zap.Error(pubErr))
		}
	}

	return nil
}
