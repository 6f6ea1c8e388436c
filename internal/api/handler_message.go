package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adaptt/internal/messaging"
	"adaptt/internal/util"
)

type MessageHandler struct {
	gateway messaging.Gateway
}

func NewMessageHandler(gateway messaging.Gateway) *MessageHandler {
	return &MessageHandler{gateway: gateway}
}

// SendBulk handles POST /api/messages/send-bulk. Individual failures are
// reported per recipient; the batch itself always succeeds.
func (h *MessageHandler) SendBulk(c *gin.Context) {
	var req struct {
		Message string   `json:"message" binding:"required"`
		Phones  []string `json:"phone_numbers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	for _, phone := range req.Phones {
		if !util.ValidPhoneNumber(phone) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number: " + phone})
			return
		}
	}

	phones := make([]string, 0, len(req.Phones))
	for _, phone := range req.Phones {
		phones = append(phones, util.NormalizePhoneNumber(phone))
	}

	result := messaging.SendBulkSMS(c.Request.Context(), h.gateway, req.Message, phones)
	c.JSON(http.StatusOK, result)
}
