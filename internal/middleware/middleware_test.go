package middleware

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	schedulerv1 "github.com/gurkanbulca/clarity/api/scheduler/v1"
	"github.com/gurkanbulca/clarity/pkg/auth"
)

func echoOwner(ctx context.Context, _ interface{}) (interface{}, error) {
	id, ok := OwnerIDFromContext(ctx)
	if !ok {
		return nil, nil
	}
	return id, nil
}

func TestAuthInterceptor(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour, "clarity")
	interceptor := NewAuthInterceptor(tm).Unary()
	owner := uuid.New()
	token, _, err := tm.GenerateAccessToken(owner)
	require.NoError(t, err)

	info := &grpc.UnaryServerInfo{FullMethod: schedulerv1.SchedulerService_ListTasks_FullMethodName}

	t.Run("valid token puts the owner in context", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
		got, err := interceptor(ctx, nil, info, echoOwner)
		require.NoError(t, err)
		assert.Equal(t, owner, got)
	})

	t.Run("missing metadata", func(t *testing.T) {
		_, err := interceptor(context.Background(), nil, info, echoOwner)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("bad token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer x.y.z"))
		_, err := interceptor(ctx, nil, info, echoOwner)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("health check is public", func(t *testing.T) {
		public := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
		got, err := interceptor(context.Background(), nil, public, echoOwner)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestValidationInterceptor(t *testing.T) {
	interceptor := NewValidationInterceptor(nil).Unary()
	pass := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }

	call := func(method string, fields map[string]interface{}) error {
		req, err := structpb.NewStruct(fields)
		require.NoError(t, err)
		_, err = interceptor(context.Background(), req, &grpc.UnaryServerInfo{FullMethod: method}, pass)
		return err
	}

	tests := []struct {
		name   string
		method string
		fields map[string]interface{}
		valid  bool
	}{
		{"command ok", schedulerv1.SchedulerService_ProcessCommand_FullMethodName, map[string]interface{}{"command": "gym at 6"}, true},
		{"blank command", schedulerv1.SchedulerService_ProcessCommand_FullMethodName, map[string]interface{}{"command": "  "}, false},
		{"long command", schedulerv1.SchedulerService_ProcessCommand_FullMethodName, map[string]interface{}{"command": strings.Repeat("a", 2001)}, false},
		{"create ok", schedulerv1.SchedulerService_CreateTask_FullMethodName, map[string]interface{}{"title": "Gym"}, true},
		{"create without title", schedulerv1.SchedulerService_CreateTask_FullMethodName, map[string]interface{}{"duration": 30}, false},
		{"long description", schedulerv1.SchedulerService_CreateTask_FullMethodName, map[string]interface{}{"title": "x", "description": strings.Repeat("d", 5001)}, false},
		{"update bad id", schedulerv1.SchedulerService_UpdateTask_FullMethodName, map[string]interface{}{"id": "nope"}, false},
		{"delete ok", schedulerv1.SchedulerService_DeleteTask_FullMethodName, map[string]interface{}{"id": uuid.NewString()}, true},
		{"list without range", schedulerv1.SchedulerService_ListTasks_FullMethodName, map[string]interface{}{"start": "2026-03-02T00:00:00Z"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := call(tt.method, tt.fields)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, codes.InvalidArgument, status.Code(err))
			}
		})
	}
}

func TestGetClientInfoFromContext(t *testing.T) {
	owner := uuid.New()
	ctx := context.WithValue(WithOwnerID(context.Background(), owner), ContextKeyIPAddress, "10.0.0.1")
	info := GetClientInfoFromContext(ctx)
	assert.Equal(t, owner.String(), info.OwnerID)
	assert.Equal(t, "10.0.0.1", info.IPAddress)

	_, ok := OwnerIDFromContext(context.Background())
	assert.False(t, ok)
}
