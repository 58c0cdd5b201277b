package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/gurkanbulca/clarity/internal/middleware"
	"github.com/gurkanbulca/clarity/pkg/auth"
)

const ownerKey = "owner_id"

// Authenticate validates the bearer token and stores the owner on both the
// echo context and the request context.
func Authenticate(tokens *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := auth.ExtractTokenFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed bearer token")
			}
			claims, err := tokens.ValidateAccessToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			ownerID, err := claims.OwnerID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ownerKey, ownerID)
			c.SetRequest(c.Request().WithContext(middleware.WithOwnerID(c.Request().Context(), ownerID)))
			return next(c)
		}
	}
}

func ownerID(c echo.Context) uuid.UUID {
	id, _ := c.Get(ownerKey).(uuid.UUID)
	return id
}

// RequestLogger logs one line per request with logrus.
func RequestLogger(logger logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler write the status before it is logged.
				c.Error(err)
			}

			fields := logrus.Fields{
				"method":      c.Request().Method,
				"path":        c.Path(),
				"status":      c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
				"ip_address":  c.RealIP(),
			}
			if id := ownerID(c); id != uuid.Nil {
				fields["user_id"] = id
			}
			entry := logger.WithFields(fields)
			switch {
			case c.Response().Status >= http.StatusInternalServerError:
				entry.WithError(err).Error("request failed")
			case err != nil:
				entry.WithError(err).Warn("request rejected")
			default:
				entry.Info("request completed")
			}
			return nil
		}
	}
}
