package settings

import (
	"errors"
	"net/http"

	"mindwell/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

type UpdateCommissionRequest struct {
	CommissionPercent int `json:"commission_percent" binding:"min=0,max=100"`
}

// GetSettings godoc
// @Summary      Platform settings
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Settings
// @Router       /admin/settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.repo.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateCommission godoc
// @Summary      Update platform commission percent
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      UpdateCommissionRequest  true  "New commission"
// @Success      200   {object}  Settings
// @Failure      400   {object}  gin.H
// @Router       /admin/settings/commission [put]
func (h *Handler) UpdateCommission(c *gin.Context) {
	adminID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req UpdateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "commission_percent must be between 0 and 100"})
		return
	}

	s, err := h.repo.UpdateCommission(c.Request.Context(), req.CommissionPercent, adminID)
	if err != nil {
		if errors.Is(err, ErrInvalidPercent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, s)
}
