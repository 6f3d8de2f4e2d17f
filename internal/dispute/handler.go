package dispute

import (
	"errors"
	"net/http"
	"strconv"

	"mindwell/internal/api"
	"mindwell/internal/auth"
	"mindwell/internal/session"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrDisputeNotFound), errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotParticipant):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrSessionNotCompleted), errors.Is(err, ErrAlreadyDisputed), errors.Is(err, ErrAlreadyResolved):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}

// CreateDispute godoc
// @Summary      Open a dispute
// @Description  Opens a complaint against a completed session the caller took part in.
// @Tags         disputes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body dispute.CreateDisputeRequest true "Dispute payload"
// @Success      201 {object} dispute.Dispute
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /disputes [post]
func (h *Handler) CreateDispute(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	d, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "Failed to open dispute")
		return
	}

	c.JSON(http.StatusCreated, d)
}

// ListMyDisputes godoc
// @Summary      List the caller's disputes
// @Tags         disputes
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} dispute.Dispute
// @Failure      401 {object} api.ErrorResponse
// @Router       /disputes [get]
func (h *Handler) ListMyDisputes(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	disputes, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch disputes"})
		return
	}

	c.JSON(http.StatusOK, disputes)
}

// ListDisputes godoc
// @Summary      List disputes
// @Description  Admin-only: all disputes, optionally filtered by status.
// @Tags         admin,disputes
// @Security     BearerAuth
// @Produce      json
// @Param        status query string false "Filter by status"
// @Success      200 {array} dispute.Dispute
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /admin/disputes [get]
func (h *Handler) ListDisputes(c *gin.Context) {
	disputes, err := h.service.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch disputes"})
		return
	}

	c.JSON(http.StatusOK, disputes)
}

// ResolveDispute godoc
// @Summary      Resolve a dispute
// @Description  Admin-only: dismisses the dispute or refunds the disputed amount to the patient.
// @Tags         admin,disputes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        disputeID path int true "Dispute ID"
// @Param        request body dispute.ResolveDisputeRequest true "Resolution"
// @Success      200 {object} dispute.Dispute
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/disputes/{disputeID}/resolve [post]
func (h *Handler) ResolveDispute(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)

	disputeID, err := strconv.Atoi(c.Param("disputeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid dispute ID"})
		return
	}

	var req ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	d, err := h.service.Resolve(c.Request.Context(), adminID, disputeID, req)
	if err != nil {
		respondError(c, err, "Failed to resolve dispute")
		return
	}

	c.JSON(http.StatusOK, d)
}
