// internal/service/scheduler_server.go
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	schedulerv1 "github.com/gurkanbulca/clarity/api/scheduler/v1"
	"github.com/gurkanbulca/clarity/internal/middleware"
	"github.com/gurkanbulca/clarity/internal/models"
	"github.com/gurkanbulca/clarity/internal/scheduler"
)

// CommandHandler runs natural-language commands.
type CommandHandler interface {
	HandleCommand(ctx context.Context, ownerID uuid.UUID, cmd scheduler.Command) (*scheduler.CommandResult, error)
}

// SchedulerServer implements schedulerv1.SchedulerServiceServer.
type SchedulerServer struct {
	commands CommandHandler
	tasks    *TaskService
	logger   *logrus.Logger
}

var _ schedulerv1.SchedulerServiceServer = (*SchedulerServer)(nil)

func NewSchedulerServer(commands CommandHandler, tasks *TaskService, logger *logrus.Logger) *SchedulerServer {
	return &SchedulerServer{
		commands: commands,
		tasks:    tasks,
		logger:   logger,
	}
}

func (s *SchedulerServer) ProcessCommand(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var in schedulerv1.CommandRequest
	if err := schedulerv1.Decode(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.commands.HandleCommand(ctx, ownerID, scheduler.Command{
		Text:      in.Command,
		LocalTime: in.LocalTime,
	})
	if err != nil {
		return nil, s.toStatus(err)
	}
	return encode(result)
}

func (s *SchedulerServer) ListTasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var in schedulerv1.ListTasksRequest
	if err := schedulerv1.Decode(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	tasks, err := s.tasks.ListTasks(ctx, ownerID, in.Start, in.End, in.IncludeUnscheduled)
	if err != nil {
		return nil, s.toStatus(err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return encode(schedulerv1.ListTasksResponse{Tasks: tasks})
}

func (s *SchedulerServer) CreateTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var in schedulerv1.CreateTaskRequest
	if err := schedulerv1.Decode(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	input, err := TaskInputFromRequest(in)
	if err != nil {
		return nil, s.toStatus(err)
	}

	task, err := s.tasks.CreateTask(ctx, ownerID, input)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return encode(task)
}

func (s *SchedulerServer) UpdateTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var in schedulerv1.UpdateTaskRequest
	if err := schedulerv1.Decode(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	patch, err := TaskPatchFromRequest(in)
	if err != nil {
		return nil, s.toStatus(err)
	}

	task, err := s.tasks.UpdateTask(ctx, ownerID, in.ID, patch)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return encode(task)
}

func (s *SchedulerServer) DeleteTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var in schedulerv1.DeleteTaskRequest
	if err := schedulerv1.Decode(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.tasks.DeleteTask(ctx, ownerID, in.ID); err != nil {
		return nil, s.toStatus(err)
	}
	return encode(schedulerv1.DeleteTaskResponse{Deleted: true})
}

func (s *SchedulerServer) GetProfile(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.tasks.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return encode(profile)
}

func (s *SchedulerServer) UpdateProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var in schedulerv1.UpdateProfileRequest
	if err := schedulerv1.Decode(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	update, err := ProfileUpdateFromRequest(in)
	if err != nil {
		return nil, s.toStatus(err)
	}

	profile, err := s.tasks.UpdateProfile(ctx, ownerID, update)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return encode(profile)
}

// toStatus maps domain errors onto gRPC codes. Unknown errors are logged
// and hidden behind Internal.
func (s *SchedulerServer) toStatus(err error) error {
	var conflict *models.ConflictError
	switch {
	case models.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, models.ErrNotFound):
		return status.Error(codes.NotFound, "task not found")
	case errors.As(err, &conflict):
		return status.Errorf(codes.FailedPrecondition, "task %s", conflict.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		s.logger.WithError(err).Error("request failed")
		return status.Error(codes.Internal, "internal error")
	}
}

func ownerFromContext(ctx context.Context) (uuid.UUID, error) {
	ownerID, ok := middleware.OwnerIDFromContext(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "user not authenticated")
	}
	return ownerID, nil
}

func encode(v any) (*structpb.Struct, error) {
	out, err := schedulerv1.Encode(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
