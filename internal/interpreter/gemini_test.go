package interpreter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/gurkanbulca/clarity/internal/models"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGemini(context.Background(), GeminiConfig{
		APIKey:   "test-key",
		Model:    "gemini-test",
		Endpoint: srv.URL,
		Options:  []option.ClientOption{option.WithHTTPClient(srv.Client())},
	}, logrus.New())
	require.NoError(t, err)
	return g
}

func candidate(text string) string {
	out, _ := sonic.MarshalString(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return out
}

func TestGeminiInterpret(t *testing.T) {
	var gotPath string
	var gotBody generateRequest
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, candidate("```json\n{\"intent\":\"CONFIRM_TASK\",\"responseMessage\":\"Great\"}\n```"))
	})

	uc := NewUserContext(models.DefaultProfile([16]byte{1}), time.Now())
	res, err := g.Interpret(context.Background(), "yes", uc)
	require.NoError(t, err)
	assert.Equal(t, ConfirmTask{}, res.Intent)
	assert.Equal(t, "Great", res.Message)

	assert.Equal(t, "/models/gemini-test:generateContent", gotPath)
	require.Len(t, gotBody.Contents, 1)
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, `COMMAND: "yes"`)
	assert.Equal(t, "application/json", gotBody.GenerationConfig.ResponseMimeType)
}

func TestGeminiFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		stage   Stage
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error": {"code": 503, "message": "overloaded"}}`, http.StatusServiceUnavailable)
			},
			stage: StageResponse,
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"candidates": []}`)
			},
			stage: StageResponse,
		},
		{
			name: "blocked prompt",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"promptFeedback": {"blockReason": "SAFETY"}}`)
			},
			stage: StageResponse,
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `<html>`)
			},
			stage: StageDecode,
		},
		{
			name: "invalid intent",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, candidate(`{"intent": "ADD_TASK"}`))
			},
			stage: StageValidate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGemini(t, tt.handler)
			_, err := g.Interpret(context.Background(), "anything", UserContext{Timezone: "UTC"})
			require.Error(t, err)
			var f *Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, tt.stage, f.Stage)
		})
	}
}

func TestGeminiTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := g.Interpret(ctx, "slow", UserContext{Timezone: "UTC"})
	require.Error(t, err)
	assert.True(t, IsFailure(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{}, logrus.New())
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Unavailable{}.Interpret(context.Background(), "hi", UserContext{})
	assert.True(t, IsFailure(err))
}
