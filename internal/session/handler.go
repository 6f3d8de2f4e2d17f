package session

import (
	"errors"
	"net/http"
	"strconv"

	"mindwell/internal/api"
	"mindwell/internal/auth"
	"mindwell/internal/pricing"
	"mindwell/internal/wallet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func sessionIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid session ID"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrPsychologistNotFound), errors.Is(err, pricing.ErrOptionNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotAllowed):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrSessionFull), errors.Is(err, ErrAlreadyJoined), errors.Is(err, ErrNotGroupSession):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidSchedule):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, wallet.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}

// RequestSession godoc
// @Summary      Request a session
// @Description  Creates a pending session request and places an escrow hold on the patient's wallet.
// @Tags         sessions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body session.RequestSessionRequest true "Session request"
// @Success      201 {object} session.RequestSessionResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      402 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /sessions [post]
func (h *Handler) RequestSession(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req RequestSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	sess, hold, err := h.service.Request(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "Failed to request session")
		return
	}

	c.JSON(http.StatusCreated, RequestSessionResponse{Session: sess, HoldCents: hold})
}

// AcceptSession godoc
// @Summary      Accept a session request
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID path int true "Session ID"
// @Success      200 {object} api.MessageResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /psychologist/sessions/{sessionID}/accept [post]
func (h *Handler) AcceptSession(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Accept(c.Request.Context(), userID, sessionID); err != nil {
		respondError(c, err, "Failed to accept session")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Session accepted"})
}

// RejectSession godoc
// @Summary      Reject a session request
// @Description  Declines a pending request and releases the patient's escrow hold.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID path int true "Session ID"
// @Success      200 {object} api.MessageResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /psychologist/sessions/{sessionID}/reject [post]
func (h *Handler) RejectSession(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Reject(c.Request.Context(), userID, sessionID); err != nil {
		respondError(c, err, "Failed to reject session")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Session rejected"})
}

// CancelSession godoc
// @Summary      Cancel a session
// @Description  Cancels a pending or scheduled session and releases all escrow holds.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID path int true "Session ID"
// @Success      200 {object} api.MessageResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /sessions/{sessionID}/cancel [post]
func (h *Handler) CancelSession(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), userID, sessionID); err != nil {
		respondError(c, err, "Failed to cancel session")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Session cancelled"})
}

// StartSession godoc
// @Summary      Start a session
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID path int true "Session ID"
// @Success      200 {object} api.MessageResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /psychologist/sessions/{sessionID}/start [post]
func (h *Handler) StartSession(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Start(c.Request.Context(), userID, sessionID); err != nil {
		respondError(c, err, "Failed to start session")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Session started"})
}

// CompleteSession godoc
// @Summary      Complete a session
// @Description  Ends a live session and settles every participant: demo minutes first, then the wallet charge and commission split.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID path int true "Session ID"
// @Success      200 {object} session.CompleteSessionResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /psychologist/sessions/{sessionID}/complete [post]
func (h *Handler) CompleteSession(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	resp, err := h.service.Complete(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err, "Failed to complete session")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ResettleSession godoc
// @Summary      Retry settlement for a completed session
// @Description  Settles any participants whose settlement failed at completion time, converting their stuck escrow holds.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID path int true "Session ID"
// @Success      200 {object} session.CompleteSessionResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/sessions/{sessionID}/settle [post]
func (h *Handler) ResettleSession(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	resp, err := h.service.Resettle(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err, "Failed to settle session")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateGroupSession godoc
// @Summary      Publish a group session
// @Tags         sessions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body session.CreateGroupRequest true "Group session payload"
// @Success      201 {object} session.Session
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /psychologist/group-sessions [post]
func (h *Handler) CreateGroupSession(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	sess, err := h.service.CreateGroup(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "Failed to create group session")
		return
	}

	c.JSON(http.StatusCreated, sess)
}

// JoinGroupSession godoc
// @Summary      Join a group session
// @Description  Adds the patient to a scheduled group session and places an escrow hold.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID path int true "Session ID"
// @Success      200 {object} session.RequestSessionResponse
// @Failure      402 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /sessions/{sessionID}/join [post]
func (h *Handler) JoinGroupSession(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	sess, hold, err := h.service.JoinGroup(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err, "Failed to join session")
		return
	}

	c.JSON(http.StatusOK, RequestSessionResponse{Session: sess, HoldCents: hold})
}

// GetSession godoc
// @Summary      Get a session with participants
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID path int true "Session ID"
// @Success      200 {object} session.SessionDetail
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /sessions/{sessionID} [get]
func (h *Handler) GetSession(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	detail, err := h.service.Get(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err, "Failed to fetch session")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ListSessions godoc
// @Summary      List the caller's sessions
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} session.Session
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /sessions [get]
func (h *Handler) ListSessions(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	role, _ := auth.GetUserRole(c)

	var (
		sessions []Session
		err      error
	)
	if role == auth.RolePsychologist {
		sessions, err = h.service.ListForPsychologist(c.Request.Context(), userID)
	} else {
		sessions, err = h.service.ListForPatient(c.Request.Context(), userID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}
