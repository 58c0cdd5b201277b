package interpreter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"
)

const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/"

type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	// Options are appended after the API key and endpoint.
	Options []option.ClientOption
}

// Gemini interprets commands with the Gemini generateContent API.
type Gemini struct {
	client   *http.Client
	endpoint string
	model    string
	logger   logrus.FieldLogger
}

func NewGemini(ctx context.Context, cfg GeminiConfig, logger logrus.FieldLogger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrUnavailable
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	opts := append([]option.ClientOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithEndpoint(endpoint),
	}, cfg.Options...)

	client, _, err := htransport.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Gemini{
		client:   client,
		endpoint: endpoint,
		model:    model,
		logger:   logger,
	}, nil
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Interpret sends the command with the user's context and validates the
// answer. Every error returned is a *Failure.
func (g *Gemini) Interpret(ctx context.Context, command string, uc UserContext) (Result, error) {
	text, err := g.generate(ctx, BuildPrompt(command, uc))
	if err != nil {
		return Result{}, err
	}

	g.logger.WithField("model", g.model).Debugf("model answered: %s", text)
	return Parse(text, uc.Location())
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	body, err := sonic.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      0.2,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return "", fail(StageRequest, err)
	}

	url := fmt.Sprintf("%smodels/%s:generateContent", g.endpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fail(StageRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return "", fail(StageRequest, err)
	}
	defer res.Body.Close()

	if err := googleapi.CheckResponse(res); err != nil {
		return "", fail(StageResponse, err)
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fail(StageResponse, err)
	}

	var out generateResponse
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return "", fail(StageDecode, err)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", failf(StageResponse, "prompt blocked: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return "", fail(StageResponse, errors.New("no candidates"))
	}

	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}
