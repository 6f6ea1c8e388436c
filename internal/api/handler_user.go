package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"adaptt/internal/repository"
	"adaptt/internal/util"
)

type UserHandler struct {
	userRepo     *repository.UserRepository
	locationRepo *repository.LocationRepository
}

func NewUserHandler(userRepo *repository.UserRepository, locationRepo *repository.LocationRepository) *UserHandler {
	return &UserHandler{
		userRepo:     userRepo,
		locationRepo: locationRepo,
	}
}

// Register handles POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Phone    string `json:"phone_number" binding:"required"`
		RegionID string `json:"region_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if !util.ValidPhoneNumber(req.Phone) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Número de telefone inválido. Use o formato moçambicano (+258 XX XXX XXXX ou 8X/9X XXXXXXX).",
		})
		return
	}

	exists, err := h.locationRepo.Exists(c.Request.Context(), req.RegionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate region"})
		return
	}
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Região não existe na base de dados."})
		return
	}

	phone := util.NormalizePhoneNumber(req.Phone)
	userID, err := h.userRepo.Create(c.Request.Context(), req.Name, phone, req.RegionID)
	if errors.Is(err, repository.ErrPhoneTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "Este número de telefone já está registado."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id": userID,
		"message": "Utilizador registado com sucesso.",
	})
}
