package topup

import (
	"errors"
	"net/http"
	"strconv"

	"mindwell/internal/api"
	"mindwell/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// InitiateTopup godoc
// @Summary      Start a wallet top-up
// @Description  Creates a pending topup and returns the signed form to post to the payment gateway.
// @Tags         wallet
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body topup.InitiateRequest true "Topup amount"
// @Success      201 {object} topup.InitiateResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /wallet/topups [post]
func (h *Handler) InitiateTopup(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.service.Initiate(c.Request.Context(), userID, req.AmountCents)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to initiate topup"})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// VerifyTopup godoc
// @Summary      Verify a gateway callback
// @Description  Validates the signed callback payload and credits the wallet exactly once. Replays of an already-processed callback return the same success.
// @Tags         wallet
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body topup.VerifyRequest true "Base64 callback data"
// @Success      200 {object} topup.Topup
// @Failure      400 {object} api.ErrorResponse
// @Failure      402 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /wallet/topups/verify [post]
func (h *Handler) VerifyTopup(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	t, err := h.service.Verify(c.Request.Context(), req.Data)
	if err != nil {
		switch {
		case errors.Is(err, ErrBadCallback):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrSignatureMismatch), errors.Is(err, ErrAmountMismatch):
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrTopupNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrPaymentFailed):
			c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to verify topup"})
		}
		return
	}

	c.JSON(http.StatusOK, t)
}

// ListTopups godoc
// @Summary      List the caller's top-ups
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200 {array} topup.Topup
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /wallet/topups [get]
func (h *Handler) ListTopups(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	topups, err := h.service.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch topups"})
		return
	}

	c.JSON(http.StatusOK, topups)
}
