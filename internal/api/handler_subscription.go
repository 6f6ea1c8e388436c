package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"adaptt/internal/model"
	"adaptt/internal/repository"
)

type SubscriptionHandler struct {
	subscriptionRepo *repository.SubscriptionRepository
}

func NewSubscriptionHandler(subscriptionRepo *repository.SubscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionRepo: subscriptionRepo}
}

// Create handles POST /api/subscriptions
func (h *SubscriptionHandler) Create(c *gin.Context) {
	var req struct {
		UserID    int    `json:"user_id" binding:"required"`
		ProjectID string `json:"project_id" binding:"required"`
		Channel   string `json:"notification_channel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if req.Channel == "" {
		req.Channel = model.ChannelSMS
	}
	if req.Channel != model.ChannelSMS && req.Channel != model.ChannelWhatsApp {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Canal de notificação inválido. Use 'sms' ou 'wpp'."})
		return
	}

	id, err := h.subscriptionRepo.Create(c.Request.Context(), req.UserID, req.ProjectID, req.Channel)
	if errors.Is(err, repository.ErrAlreadySubscribed) {
		c.JSON(http.StatusConflict, gin.H{"error": "Já está subscrito a este projeto."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create subscription"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"subscription_id": id,
		"message":         "Subscrição realizada com sucesso.",
	})
}

// Delete handles DELETE /api/subscriptions
func (h *SubscriptionHandler) Delete(c *gin.Context) {
	var req struct {
		UserID    int    `json:"user_id" binding:"required"`
		ProjectID string `json:"project_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.subscriptionRepo.Delete(c.Request.Context(), req.UserID, req.ProjectID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscrição não encontrada."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscrição cancelada com sucesso."})
}

// ListByUser handles GET /api/subscriptions/user/:user_id
func (h *SubscriptionHandler) ListByUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	subs, err := h.subscriptionRepo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subscriptions"})
		return
	}

	type subView struct {
		SubscriptionID int64   `json:"subscription_id"`
		ProjectID      string  `json:"project_id"`
		ProjectName    string  `json:"project_name"`
		Status         string  `json:"status"`
		Channel        string  `json:"notification_channel"`
		Enabled        bool    `json:"notification_enabled"`
		Score          *int    `json:"transparency_score"`
		AlertColor     *string `json:"alert_color"`
	}
	out := make([]subView, 0, len(subs))
	for _, s := range subs {
		out = append(out, subView{
			SubscriptionID: s.ID,
			ProjectID:      s.ProjectID,
			ProjectName:    s.ProjectName,
			Status:         s.Status,
			Channel:        s.Channel,
			Enabled:        s.Enabled,
			Score:          s.Score,
			AlertColor:     s.AlertColor,
		})
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": out})
}
