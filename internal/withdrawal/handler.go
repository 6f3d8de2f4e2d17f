package withdrawal

import (
	"errors"
	"net/http"
	"strconv"

	"mindwell/internal/api"
	"mindwell/internal/auth"
	"mindwell/internal/wallet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func withdrawalIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("withdrawalID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid withdrawal ID"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrWithdrawalNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotReviewable), errors.Is(err, ErrNotPayable):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, wallet.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}

// CreateWithdrawal godoc
// @Summary      Request a withdrawal
// @Description  Creates a pending payout request. Funds stay in the wallet until an admin approves.
// @Tags         withdrawals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body withdrawal.CreateWithdrawalRequest true "Withdrawal payload"
// @Success      201 {object} withdrawal.Withdrawal
// @Failure      400 {object} api.ErrorResponse
// @Failure      402 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /psychologist/withdrawals [post]
func (h *Handler) CreateWithdrawal(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	w, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "Failed to create withdrawal request")
		return
	}

	c.JSON(http.StatusCreated, w)
}

// ListMyWithdrawals godoc
// @Summary      List the caller's withdrawal requests
// @Tags         withdrawals
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} withdrawal.Withdrawal
// @Failure      401 {object} api.ErrorResponse
// @Router       /psychologist/withdrawals [get]
func (h *Handler) ListMyWithdrawals(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	withdrawals, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch withdrawals"})
		return
	}

	c.JSON(http.StatusOK, withdrawals)
}

// ListWithdrawals godoc
// @Summary      List withdrawal requests
// @Description  Admin-only: all requests, optionally filtered by status.
// @Tags         admin,withdrawals
// @Security     BearerAuth
// @Produce      json
// @Param        status query string false "Filter by status"
// @Success      200 {array} withdrawal.Withdrawal
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /admin/withdrawals [get]
func (h *Handler) ListWithdrawals(c *gin.Context) {
	withdrawals, err := h.service.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch withdrawals"})
		return
	}

	c.JSON(http.StatusOK, withdrawals)
}

// ApproveWithdrawal godoc
// @Summary      Approve a withdrawal request
// @Description  Admin-only: debits the wallet and marks the request approved for payout.
// @Tags         admin,withdrawals
// @Security     BearerAuth
// @Produce      json
// @Param        withdrawalID path int true "Withdrawal ID"
// @Success      200 {object} withdrawal.Withdrawal
// @Failure      402 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/withdrawals/{withdrawalID}/approve [post]
func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)
	withdrawalID, ok := withdrawalIDParam(c)
	if !ok {
		return
	}

	w, err := h.service.Approve(c.Request.Context(), adminID, withdrawalID)
	if err != nil {
		respondError(c, err, "Failed to approve withdrawal")
		return
	}

	c.JSON(http.StatusOK, w)
}

// RejectWithdrawal godoc
// @Summary      Reject a withdrawal request
// @Tags         admin,withdrawals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        withdrawalID path int true "Withdrawal ID"
// @Param        request body withdrawal.RejectWithdrawalRequest true "Rejection reason"
// @Success      200 {object} withdrawal.Withdrawal
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/withdrawals/{withdrawalID}/reject [post]
func (h *Handler) RejectWithdrawal(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)
	withdrawalID, ok := withdrawalIDParam(c)
	if !ok {
		return
	}

	var req RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	w, err := h.service.Reject(c.Request.Context(), adminID, withdrawalID, req.Reason)
	if err != nil {
		respondError(c, err, "Failed to reject withdrawal")
		return
	}

	c.JSON(http.StatusOK, w)
}

// CompleteWithdrawalPayment godoc
// @Summary      Confirm an external payout
// @Description  Admin-only: records the payment proof and completes the pending ledger row.
// @Tags         admin,withdrawals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        withdrawalID path int true "Withdrawal ID"
// @Param        request body withdrawal.CompletePaymentRequest true "Payment proof"
// @Success      200 {object} withdrawal.Withdrawal
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/withdrawals/{withdrawalID}/complete [post]
func (h *Handler) CompleteWithdrawalPayment(c *gin.Context) {
	withdrawalID, ok := withdrawalIDParam(c)
	if !ok {
		return
	}

	var req CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	w, err := h.service.CompletePayment(c.Request.Context(), withdrawalID, req.PaymentProof)
	if err != nil {
		respondError(c, err, "Failed to complete withdrawal payment")
		return
	}

	c.JSON(http.StatusOK, w)
}
