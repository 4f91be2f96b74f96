package handler

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/telemed-assistant/errors"
	"github.com/johnquangdev/telemed-assistant/internal/adapter/dto/videocall"
	"github.com/johnquangdev/telemed-assistant/internal/adapter/presenter"
	videocallUsecase "github.com/johnquangdev/telemed-assistant/internal/usecase/videocall"
)

// VideoCall handles video call request HTTP requests
type VideoCall struct {
	service videocallUsecase.Service
	logger  *zap.Logger
}

// NewVideoCallHandler creates a new video call handler
func NewVideoCallHandler(service videocallUsecase.Service, logger *zap.Logger) *VideoCall {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoCall{
		service: service,
		logger:  logger,
	}
}

// SubmitRequest handles POST /video-call-request
// @Summary      Submit a video call request
// @Description  Creates a pending request; a room name is generated when none is given
// @Tags         VideoCall
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      videocall.SubmitRequest  true  "Video call request"
// @Success      200      {object}  videocall.SubmitResponse
// @Failure      400      {object}  videocall.ErrorResponse  "Invalid request or validation failed"
// @Failure      500      {object}  videocall.ErrorResponse  "Failed to process video call request"
// @Router       /video-call-request [post]
func (h *VideoCall) SubmitRequest(c echo.Context) error {
	var req videocall.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return handleError(h.logger, c, errors.ErrInvalidPayload(), "")
	}

	if err := c.Validate(&req); err != nil {
		return handleError(h.logger, c, errors.ErrRequestValidation(err), "")
	}

	created, err := h.service.Submit(c.Request().Context(), videocallUsecase.SubmitInput{
		Caller: presenter.ToParticipantEntity(&videocall.ParticipantInfo{
			ID:    req.CallerID,
			Name:  req.CallerName,
			Email: req.CallerEmail,
		}),
		CalleeID: req.CalleeID,
		RoomName: req.RoomName,
	})
	if err != nil {
		return handleError(h.logger, c, err, "Failed to process video call request")
	}

	return handleSuccess(h.logger, c, http.StatusOK, &videocall.SubmitResponse{
		Success:   true,
		RequestID: created.ID,
		RoomName:  created.RoomName,
		Message:   "Video call request sent to doctor",
	})
}

// GetStatus handles GET /video-call-status/:id
// @Summary      Get request status
// @Description  Caller-side poll for the request status; carries join credentials once accepted
// @Tags         VideoCall
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  videocall.StatusResponse
// @Failure      404  {object}  videocall.ErrorResponse  "Request not found"
// @Failure      500  {object}  videocall.ErrorResponse  "Failed to check request status"
// @Router       /video-call-status/{id} [get]
func (h *VideoCall) GetStatus(c echo.Context) error {
	out, err := h.service.GetStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleError(h.logger, c, err, "Failed to check request status")
	}

	return handleSuccess(h.logger, c, http.StatusOK, presenter.ToStatusResponse(out))
}

// ListPending handles GET /pending-requests
// @Summary      List pending requests
// @Description  Callee-side poll. Returns every pending request unless callee filtering is enabled; never fails with a 5xx
// @Tags         VideoCall
// @Produce      json
// @Security     BearerAuth
// @Param        calleeId  query     string  false  "Callee ID"
// @Success      200       {object}  videocall.PendingRequestsResponse
// @Failure      400       {object}  videocall.ErrorResponse  "Invalid query"
// @Router       /pending-requests [get]
func (h *VideoCall) ListPending(c echo.Context) error {
	var req videocall.ListPendingRequest
	if err := c.Bind(&req); err != nil {
		return handleError(h.logger, c, errors.ErrInvalidPayload(), "")
	}
	if err := c.Validate(&req); err != nil {
		return handleError(h.logger, c, errors.ErrRequestValidation(err), "")
	}

	var calleeID *string
	if req.CalleeID != "" {
		calleeID = &req.CalleeID
	}

	reqs, err := h.service.ListPending(c.Request().Context(), calleeID)
	if err != nil {
		// pollers treat success=false as a cue to use their offline copy
		h.logger.Error("http.response.error",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.JSON(http.StatusOK, &videocall.PendingRequestsResponse{
			Success:  false,
			Requests: []*videocall.CallRequestResponse{},
			Error:    "Failed to get pending requests",
		})
	}

	return handleSuccess(h.logger, c, http.StatusOK, &videocall.PendingRequestsResponse{
		Success:  true,
		Requests: presenter.ToCallRequestListResponse(reqs),
	})
}

// AcceptRequest handles POST /accept-request/:id
// @Summary      Accept a request
// @Description  Callee accepts a pending request; returns the room and the caller's identity
// @Tags         VideoCall
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Request ID"
// @Param        request  body      videocall.AcceptRequest  true  "Callee info"
// @Success      200      {object}  videocall.AcceptResponse
// @Failure      400      {object}  videocall.ErrorResponse  "Invalid request or validation failed"
// @Failure      404      {object}  videocall.ErrorResponse  "Request not found"
// @Failure      409      {object}  videocall.ErrorResponse  "Request already accepted or declined"
// @Failure      500      {object}  videocall.ErrorResponse  "Failed to accept video call"
// @Router       /accept-request/{id} [post]
func (h *VideoCall) AcceptRequest(c echo.Context) error {
	var req videocall.AcceptRequest
	if err := c.Bind(&req); err != nil {
		return handleError(h.logger, c, errors.ErrInvalidPayload(), "")
	}
	if err := c.Validate(&req); err != nil {
		return handleError(h.logger, c, errors.ErrRequestValidation(err), "")
	}

	out, err := h.service.Accept(c.Request().Context(), c.Param("id"), presenter.ToParticipantEntity(req.CalleeInfo))
	if err != nil {
		return handleError(h.logger, c, err, "Failed to accept video call")
	}

	return handleSuccess(h.logger, c, http.StatusOK, presenter.ToAcceptResponse(out))
}

// DeclineRequest handles POST /decline-request/:id
// @Summary      Decline a request
// @Tags         VideoCall
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  videocall.DeclineResponse
// @Failure      404  {object}  videocall.ErrorResponse  "Request not found"
// @Failure      409  {object}  videocall.ErrorResponse  "Request already accepted or declined"
// @Failure      500  {object}  videocall.ErrorResponse  "Failed to decline video call"
// @Router       /decline-request/{id} [post]
func (h *VideoCall) DeclineRequest(c echo.Context) error {
	if err := h.service.Decline(c.Request().Context(), c.Param("id")); err != nil {
		return handleError(h.logger, c, err, "Failed to decline video call")
	}

	return handleSuccess(h.logger, c, http.StatusOK, &videocall.DeclineResponse{Success: true})
}

// CleanupOldRequests handles POST /cleanup-old-requests
// @Summary      Purge old requests
// @Description  Removes every request created more than maxAge milliseconds ago, whatever its status (default 24h)
// @Tags         VideoCall
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      videocall.CleanupRequest  false  "Max age in milliseconds"
// @Success      200      {object}  videocall.CleanupResponse
// @Failure      400      {object}  videocall.ErrorResponse  "Invalid max age"
// @Failure      500      {object}  videocall.ErrorResponse  "Failed to cleanup old requests"
// @Router       /cleanup-old-requests [post]
func (h *VideoCall) CleanupOldRequests(c echo.Context) error {
	var req videocall.CleanupRequest
	if err := c.Bind(&req); err != nil {
		return handleError(h.logger, c, errors.ErrInvalidPayload(), "")
	}
	if err := c.Validate(&req); err != nil {
		return handleError(h.logger, c, errors.ErrRequestValidation(err), "")
	}

	maxAge := videocallUsecase.DefaultCleanupMaxAge
	if req.MaxAge != nil {
		maxAge = maxAgeFromMillis(*req.MaxAge)
	}

	removed, err := h.service.Cleanup(c.Request().Context(), maxAge)
	if err != nil {
		return handleError(h.logger, c, errors.ErrCleanupFailed(err), "")
	}

	return handleSuccess(h.logger, c, http.StatusOK, &videocall.CleanupResponse{
		Success:      true,
		RemovedCount: removed,
	})
}

// maxAgeFromMillis converts a wire max age, saturating instead of overflowing.
// A saturated age predates every stored request, so the purge removes nothing.
func maxAgeFromMillis(ms int64) time.Duration {
	if ms >= math.MaxInt64/int64(time.Millisecond) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}
