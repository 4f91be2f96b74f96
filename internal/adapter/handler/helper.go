package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/telemed-assistant/errors"
	"github.com/johnquangdev/telemed-assistant/internal/adapter/dto/videocall"
	usecaseErrors "github.com/johnquangdev/telemed-assistant/internal/usecase/errors"
)

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// handleSuccess writes a success body and logs the response
func handleSuccess(logger *zap.Logger, c echo.Context, status int, body interface{}) error {
	if logger != nil {
		logger.Debug("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}
	return c.JSON(status, body)
}

// handleError maps err to an AppError, logs it and writes
// {success:false, error, code}. Unknown errors become a 500 with fallback
// as the fixed public message.
func handleError(logger *zap.Logger, c echo.Context, err error, fallback string) error {
	appErr := toAppError(err, c.Param("id"), fallback)

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.String("app_code", appErr.Code.String()),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	body := videocall.ErrorResponse{
		Success: false,
		Error:   appErr.Message,
		Code:    appErr.Code.String(),
	}
	if appErr.HTTPCode < http.StatusInternalServerError {
		body.Details = appErr.Details
	}

	return c.JSON(appErr.HTTPCode, body)
}

func toAppError(err error, requestID, fallback string) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stdErrors.Is(err, usecaseErrors.ErrRequestNotFound):
		return errors.ErrRequestNotFound(requestID)
	case stdErrors.Is(err, usecaseErrors.ErrRequestAlreadyResolved):
		return errors.ErrRequestAlreadyResolved(requestID, "")
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput),
		stdErrors.Is(err, usecaseErrors.ErrInvalidMaxAge),
		stdErrors.Is(err, usecaseErrors.ErrInvalidStatus):
		return errors.ErrRequestValidation(err)
	}

	internal := errors.ErrInternal(err)
	if fallback != "" {
		internal = internal.WithMessage(fallback)
	}
	return internal
}
