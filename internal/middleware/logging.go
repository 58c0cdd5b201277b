// internal/middleware/logging.go
package middleware

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs one line per unary call. It runs after auth so
// the owner is known.
func LoggingInterceptor(logger logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		// Call the handler and time it
		start := time.Now()
		resp, err := handler(ctx, req)

		// Request fields
		client := GetClientInfoFromContext(ctx)
		entry := logger.WithFields(logrus.Fields{
			"method":      info.FullMethod,
			"status":      status.Code(err).String(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip_address":  client.IPAddress,
		})
		if client.OwnerID != "" {
			entry = entry.WithField("user_id", client.OwnerID)
		}
		// Failures are warnings; the handler already mapped them to a status
		if err != nil {
			entry.WithError(err).Warn("request failed")
		} else {
			entry.Info("request completed")
		}
		return resp, err
	}
}
