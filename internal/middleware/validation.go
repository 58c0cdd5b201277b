// internal/middleware/validation.go
package middleware

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	schedulerv1 "github.com/gurkanbulca/clarity/api/scheduler/v1"
)

// ValidationConfig holds validation configuration
type ValidationConfig struct {
	MaxCommandLength     int
	MaxTitleLength       int
	MaxDescriptionLength int
}

// DefaultValidationConfig returns the limits the services enforce
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxCommandLength:     2000,
		MaxTitleLength:       200,
		MaxDescriptionLength: 5000,
	}
}

// ValidationInterceptor rejects malformed scheduler payloads before they
// reach a handler.
type ValidationInterceptor struct {
	config *ValidationConfig
}

// NewValidationInterceptor creates a validation interceptor; nil uses the defaults
func NewValidationInterceptor(config *ValidationConfig) *ValidationInterceptor {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &ValidationInterceptor{
		config: config,
	}
}

// Unary returns a unary server interceptor for request validation
func (v *ValidationInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		// Only scheduler payloads are Structs; health checks pass through
		if s, ok := req.(*structpb.Struct); ok {
			if err := v.validateRequest(s, info.FullMethod); err != nil {
				return nil, err
			}
		}
		return handler(ctx, req)
	}
}

// validateRequest collects every problem with req so the caller sees them at once
func (v *ValidationInterceptor) validateRequest(req *structpb.Struct, method string) error {
	var errs []string

	switch method {
	case schedulerv1.SchedulerService_ProcessCommand_FullMethodName:
		command := strings.TrimSpace(stringField(req, "command"))
		if command == "" {
			errs = append(errs, "command is required")
		} else if utf8.RuneCountInString(command) > v.config.MaxCommandLength {
			errs = append(errs, fmt.Sprintf("command too long (max %d characters)", v.config.MaxCommandLength))
		}
	case schedulerv1.SchedulerService_CreateTask_FullMethodName:
		if strings.TrimSpace(stringField(req, "title")) == "" {
			errs = append(errs, "title is required")
		}
		errs = append(errs, v.validateText(req)...)
	case schedulerv1.SchedulerService_UpdateTask_FullMethodName:
		if err := validateID(req); err != "" {
			errs = append(errs, err)
		}
		errs = append(errs, v.validateText(req)...)
	case schedulerv1.SchedulerService_DeleteTask_FullMethodName:
		if err := validateID(req); err != "" {
			errs = append(errs, err)
		}
	case schedulerv1.SchedulerService_ListTasks_FullMethodName:
		if stringField(req, "start") == "" || stringField(req, "end") == "" {
			errs = append(errs, "start and end are required")
		}
	}

	if len(errs) > 0 {
		return status.Error(codes.InvalidArgument, strings.Join(errs, "; "))
	}
	return nil
}

// validateText checks title and description lengths in characters
func (v *ValidationInterceptor) validateText(req *structpb.Struct) []string {
	var errs []string
	if utf8.RuneCountInString(stringField(req, "title")) > v.config.MaxTitleLength {
		errs = append(errs, fmt.Sprintf("title too long (max %d characters)", v.config.MaxTitleLength))
	}
	if utf8.RuneCountInString(stringField(req, "description")) > v.config.MaxDescriptionLength {
		errs = append(errs, fmt.Sprintf("description too long (max %d characters)", v.config.MaxDescriptionLength))
	}
	return errs
}

// validateID returns a message, or "" when the id is a UUID
func validateID(req *structpb.Struct) string {
	id := stringField(req, "id")
	if id == "" {
		return "id is required"
	}
	if _, err := uuid.Parse(id); err != nil {
		return "id must be a valid UUID"
	}
	return ""
}

// stringField reads a string field; missing and non-string fields read as ""
func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}
