package demominutes

import (
	"net/http"
	"strconv"

	"mindwell/internal/api"
	"mindwell/internal/auth"
	"mindwell/internal/logger"
	"mindwell/internal/user"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo     Repository
	userRepo user.Repository
}

func NewHandler(repo Repository, userRepo user.Repository) *Handler {
	return &Handler{repo: repo, userRepo: userRepo}
}

// GetRemaining godoc
// @Summary      Remaining free demo minutes
// @Description  Returns how many free minutes the caller still has with the given psychologist.
// @Tags         demo-minutes
// @Security     BearerAuth
// @Produce      json
// @Param        psychologistID path int true "Psychologist ID"
// @Success      200 {object} demominutes.RemainingResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /psychologists/{psychologistID}/demo-minutes [get]
func (h *Handler) GetRemaining(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	psychologistID, err := strconv.Atoi(c.Param("psychologistID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid psychologist ID"})
		return
	}

	psychologist, err := h.userRepo.FindByID(c.Request.Context(), psychologistID)
	if err != nil || psychologist.Role != auth.RolePsychologist {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Psychologist not found"})
		return
	}

	remaining, err := h.repo.Remaining(c.Request.Context(), userID, psychologistID, psychologist.DemoMinutes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch demo minutes"})
		return
	}

	c.JSON(http.StatusOK, RemainingResponse{
		PsychologistID:   psychologistID,
		AllowanceMinutes: psychologist.DemoMinutes,
		RemainingMinutes: remaining,
	})
}

// ResetUsage godoc
// @Summary      Reset a patient's demo minutes
// @Description  Restores the full free allowance a patient has with one psychologist.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body demominutes.ResetRequest true "Pair to reset"
// @Success      200 {object} api.MessageResponse
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/demo-minutes/reset [post]
func (h *Handler) ResetUsage(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.repo.Reset(c.Request.Context(), req.PatientID, req.PsychologistID); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to reset demo minutes"})
		return
	}

	logger.Info("demo minutes reset", "patient_id", req.PatientID, "psychologist_id", req.PsychologistID)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Demo minutes reset"})
}
