package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/gurkanbulca/clarity/internal/idempotency"
	"github.com/gurkanbulca/clarity/internal/models"
)

type errorResponse struct {
	Error        string `json:"error"`
	ConflictWith string `json:"conflictWith,omitempty"`
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) (int, errorResponse) {
	var (
		httpErr  *echo.HTTPError
		conflict *models.ConflictError
	)
	switch {
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, errorResponse{Error: msg}
	case models.IsValidation(err):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "task not found"}
	case errors.As(err, &conflict):
		return http.StatusConflict, errorResponse{Error: "task " + conflict.Error(), ConflictWith: conflict.Blocking.Title}
	case errors.Is(err, idempotency.ErrInProgress):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorResponse{Error: "request timed out"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
}

func errorHandler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, body := statusFor(err)
		if code >= http.StatusInternalServerError {
			logger.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.WithError(err).Warn("write error response")
		}
	}
}
