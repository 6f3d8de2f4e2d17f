package pricing

import (
	"errors"
	"net/http"
	"strconv"

	"mindwell/internal/api"
	"mindwell/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// @Summary      Publish a service option
// @Description  Psychologist-only: create a bookable offering with a fixed price and duration
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body pricing.CreateOptionRequest true "Option payload"
// @Success      201 {object} pricing.ServiceOption
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /psychologist/options [post]
func (h *Handler) CreateOption(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req CreateOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	opt, err := h.repo.Create(c.Request.Context(), userID, req.Title, req.Description, req.PriceCents, req.DurationMinutes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create service option"})
		return
	}

	c.JSON(http.StatusCreated, opt)
}

// @Summary      List a psychologist's service options
// @Tags         pricing
// @Produce      json
// @Security     BearerAuth
// @Param        psychologistID path int true "Psychologist ID"
// @Success      200 {array} pricing.ServiceOption
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /psychologists/{psychologistID}/options [get]
func (h *Handler) ListOptions(c *gin.Context) {
	psychologistID, err := strconv.Atoi(c.Param("psychologistID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid psychologist ID"})
		return
	}

	// owners see inactive options too
	userID, _ := auth.GetUserID(c)
	onlyActive := userID != psychologistID

	opts, err := h.repo.ListByPsychologist(c.Request.Context(), psychologistID, onlyActive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch service options"})
		return
	}

	c.JSON(http.StatusOK, opts)
}

// @Summary      Deactivate a service option
// @Tags         pricing
// @Produce      json
// @Security     BearerAuth
// @Param        optionID path int true "Option ID"
// @Success      200 {object} api.MessageResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /psychologist/options/{optionID} [delete]
func (h *Handler) DeactivateOption(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	optionID, err := strconv.Atoi(c.Param("optionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid option ID"})
		return
	}

	err = h.repo.Deactivate(c.Request.Context(), optionID, userID)
	if errors.Is(err, ErrOptionNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Service option not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to deactivate service option"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Service option deactivated"})
}
