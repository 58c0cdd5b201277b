// Package schedulerv1 defines the scheduler.v1.SchedulerService gRPC contract.
// Messages are google.protobuf.Struct values carrying the JSON shapes in
// types.go.
package schedulerv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "scheduler.v1.SchedulerService"

const (
	SchedulerService_ProcessCommand_FullMethodName = "/scheduler.v1.SchedulerService/ProcessCommand"
	SchedulerService_ListTasks_FullMethodName      = "/scheduler.v1.SchedulerService/ListTasks"
	SchedulerService_CreateTask_FullMethodName     = "/scheduler.v1.SchedulerService/CreateTask"
	SchedulerService_UpdateTask_FullMethodName     = "/scheduler.v1.SchedulerService/UpdateTask"
	SchedulerService_DeleteTask_FullMethodName     = "/scheduler.v1.SchedulerService/DeleteTask"
	SchedulerService_GetProfile_FullMethodName     = "/scheduler.v1.SchedulerService/GetProfile"
	SchedulerService_UpdateProfile_FullMethodName  = "/scheduler.v1.SchedulerService/UpdateProfile"
)

// SchedulerServiceServer is the server API for SchedulerService.
type SchedulerServiceServer interface {
	ProcessCommand(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTasks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProfile(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterSchedulerServiceServer(s grpc.ServiceRegistrar, srv SchedulerServiceServer) {
	s.RegisterService(&SchedulerService_ServiceDesc, srv)
}

// unaryHandler adapts one server method to grpc.MethodHandler.
func unaryHandler[Req any, PReq interface{ *Req }](fullMethod string, call func(SchedulerServiceServer, context.Context, PReq) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SchedulerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SchedulerServiceServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// SchedulerService_ServiceDesc is the grpc.ServiceDesc for SchedulerService.
var SchedulerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ProcessCommand",
			Handler:    unaryHandler[structpb.Struct](SchedulerService_ProcessCommand_FullMethodName, SchedulerServiceServer.ProcessCommand),
		},
		{
			MethodName: "ListTasks",
			Handler:    unaryHandler[structpb.Struct](SchedulerService_ListTasks_FullMethodName, SchedulerServiceServer.ListTasks),
		},
		{
			MethodName: "CreateTask",
			Handler:    unaryHandler[structpb.Struct](SchedulerService_CreateTask_FullMethodName, SchedulerServiceServer.CreateTask),
		},
		{
			MethodName: "UpdateTask",
			Handler:    unaryHandler[structpb.Struct](SchedulerService_UpdateTask_FullMethodName, SchedulerServiceServer.UpdateTask),
		},
		{
			MethodName: "DeleteTask",
			Handler:    unaryHandler[structpb.Struct](SchedulerService_DeleteTask_FullMethodName, SchedulerServiceServer.DeleteTask),
		},
		{
			MethodName: "GetProfile",
			Handler:    unaryHandler[emptypb.Empty](SchedulerService_GetProfile_FullMethodName, SchedulerServiceServer.GetProfile),
		},
		{
			MethodName: "UpdateProfile",
			Handler:    unaryHandler[structpb.Struct](SchedulerService_UpdateProfile_FullMethodName, SchedulerServiceServer.UpdateProfile),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scheduler/v1/scheduler.proto",
}

// SchedulerServiceClient is the client API for SchedulerService.
type SchedulerServiceClient interface {
	ProcessCommand(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListTasks(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CreateTask(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	UpdateTask(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	DeleteTask(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetProfile(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	UpdateProfile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type schedulerServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSchedulerServiceClient(cc grpc.ClientConnInterface) SchedulerServiceClient {
	return &schedulerServiceClient{cc}
}

func (c *schedulerServiceClient) invoke(ctx context.Context, method string, in any, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerServiceClient) ProcessCommand(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SchedulerService_ProcessCommand_FullMethodName, in, opts)
}

func (c *schedulerServiceClient) ListTasks(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SchedulerService_ListTasks_FullMethodName, in, opts)
}

func (c *schedulerServiceClient) CreateTask(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SchedulerService_CreateTask_FullMethodName, in, opts)
}

func (c *schedulerServiceClient) UpdateTask(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SchedulerService_UpdateTask_FullMethodName, in, opts)
}

func (c *schedulerServiceClient) DeleteTask(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SchedulerService_DeleteTask_FullMethodName, in, opts)
}

func (c *schedulerServiceClient) GetProfile(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SchedulerService_GetProfile_FullMethodName, in, opts)
}

func (c *schedulerServiceClient) UpdateProfile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SchedulerService_UpdateProfile_FullMethodName, in, opts)
}
