package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gurkanbulca/clarity/internal/interpreter"
)

func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) string {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value.AsString()
		}
	}
	return ""
}

func TestInterpretIsTraced(t *testing.T) {
	recorder := withSpanRecorder(t)
	ctx := context.Background()
	owner := uuid.New()

	o := newTestOrchestrator(t, seeded(t, owner), returning(interpreter.Query{}, "ok"))
	_, err := o.HandleCommand(ctx, owner, Command{Text: "what's next?"})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "scheduler.interpret", spans[0].Name())
	assert.Equal(t, owner.String(), spanAttr(spans[0], "user_id"))
	assert.Equal(t, "QUERY", spanAttr(spans[0], "intent"))
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestInterpretFailureMarksSpan(t *testing.T) {
	recorder := withSpanRecorder(t)
	ctx := context.Background()
	owner := uuid.New()

	failing := interpretFunc(func(context.Context, string, interpreter.UserContext) (interpreter.Result, error) {
		return interpreter.Result{}, errors.New("boom")
	})
	o := newTestOrchestrator(t, seeded(t, owner), failing)
	_, err := o.HandleCommand(ctx, owner, Command{Text: "add gym"})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.NotEmpty(t, spans[0].Events())
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}
