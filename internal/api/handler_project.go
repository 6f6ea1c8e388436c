package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"adaptt/internal/model"
	"adaptt/internal/repository"
)

type ProjectHandler struct {
	projectRepo  *repository.ProjectRepository
	documentRepo *repository.DocumentRepository
	locationRepo *repository.LocationRepository
}

func NewProjectHandler(
	projectRepo *repository.ProjectRepository,
	documentRepo *repository.DocumentRepository,
	locationRepo *repository.LocationRepository,
) *ProjectHandler {
	return &ProjectHandler{
		projectRepo:  projectRepo,
		documentRepo: documentRepo,
		locationRepo: locationRepo,
	}
}

type projectSummary struct {
	ProjectID    string  `json:"project_id"`
	Name         string  `json:"project_name"`
	Status       string  `json:"status"`
	LastSync     string  `json:"last_sync"`
	Score        *int    `json:"transparency_score"`
	AlertColor   *string `json:"alert_color"`
	AlertMessage *string `json:"simple_message,omitempty"`
}

func summarize(p model.Project) projectSummary {
	return projectSummary{
		ProjectID:    p.ID,
		Name:         p.Name,
		Status:       p.Status,
		LastSync:     p.LastSync.Format("2006-01-02T15:04:05Z07:00"),
		Score:        p.Score,
		AlertColor:   p.AlertColor,
		AlertMessage: p.AlertMessage,
	}
}

// ListProjects handles GET /api/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch projects"})
		return
	}

	out := make([]projectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, summarize(p))
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

// GetProject handles GET /api/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	p, err := h.projectRepo.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": summarize(*p),
		"data":    p.Payload,
	})
}

// ListProjectDocuments handles GET /api/projects/:id/documents
func (h *ProjectHandler) ListProjectDocuments(c *gin.Context) {
	docs, err := h.documentRepo.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch documents"})
		return
	}

	type docView struct {
		DocType   string  `json:"doc_type"`
		Published bool    `json:"is_published"`
		Weight    float64 `json:"critical_weight"`
	}
	out := make([]docView, 0, len(docs))
	for _, d := range docs {
		out = append(out, docView{DocType: d.DocType, Published: d.Published, Weight: d.Weight})
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

// ListLocations handles GET /api/locations
func (h *ProjectHandler) ListLocations(c *gin.Context) {
	locations, err := h.locationRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch locations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}
