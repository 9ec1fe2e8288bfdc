// Package gemini implements the engine.Engine interface on top of the
// official Google Generative AI SDK.
//
// The genai client needs a context at construction time, so it is created
// per call rather than in the factory.
package gemini

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/viper"
	"google.golang.org/api/option"

	"github.com/whatthepatch/wtp/internal/engine"
)

func init() {
	engine.Register("gemini-api", NewEngine)
}

const (
	engineName   = "gemini-api"
	defaultModel = "gemini-1.5-pro"
)

// Engine implements engine.Engine for the Gemini API.
type Engine struct {
	apiKey string
	model  string
	maxTok int32

	// clientOpts lets tests point the SDK at a local server.
	clientOpts []option.ClientOption
}

// NewEngine is the factory function registered with the engine registry.
func NewEngine(v *viper.Viper) (engine.Engine, error) {
	model := v.GetString("model")
	if model == "" {
		model = defaultModel
	}
	maxTok := v.GetInt32("max_tokens")
	if maxTok == 0 {
		maxTok = 4096
	}

	return &Engine{
		apiKey: v.GetString("api_key"),
		model:  model,
		maxTok: maxTok,
	}, nil
}

// WithClientOptions appends extra SDK options. Used in tests.
func (e *Engine) WithClientOptions(opts ...option.ClientOption) *Engine {
	e.clientOpts = append(e.clientOpts, opts...)
	return e
}

func (e *Engine) Info() engine.Info {
	return engine.Info{
		Name:         engineName,
		DisplayName:  "Gemini API",
		Description:  "Google Generative AI SDK (Gemini 1.5 Pro / Flash)",
		DefaultModel: defaultModel,
	}
}

// ValidateConfig checks that the API key is present. No network I/O.
func (e *Engine) ValidateConfig() error {
	if e.apiKey == "" {
		return &engine.Error{
			Code:    engine.ErrCodeInvalidConfig,
			Engine:  engineName,
			Message: "api_key is not set (engines.gemini-api.api_key)",
		}
	}
	return nil
}

// TestConnection sends a one-token generation request.
func (e *Engine) TestConnection(ctx context.Context) error {
	_, err := e.generate(ctx, "Hi", 1)
	return err
}

// GenerateReview builds the prompt and asks Gemini for the full review.
func (e *Engine) GenerateReview(ctx context.Context, req engine.ReviewRequest) (string, error) {
	return e.generate(ctx, engine.BuildPrompt(req), e.maxTok)
}

func (e *Engine) generate(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	if err := e.ValidateConfig(); err != nil {
		return "", err
	}

	opts := append([]option.ClientOption{option.WithAPIKey(e.apiKey)}, e.clientOpts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", &engine.Error{
			Code:    engine.ErrCodeUnavailable,
			Engine:  engineName,
			Message: "failed to create Gemini client",
			Cause:   err,
		}
	}
	defer func() { _ = client.Close() }()

	model := client.GenerativeModel(e.model)
	model.SetMaxOutputTokens(maxTokens)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		// The SDK surfaces googleapi errors as flat strings.
		return "", engine.ClassifyMessage(engineName, err.Error())
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", &engine.Error{
			Code:    engine.ErrCodeContentFilter,
			Engine:  engineName,
			Message: "prompt blocked: " + resp.PromptFeedback.BlockReason.String(),
		}
	}

	text := extractText(resp)
	if text == "" {
		return "", &engine.Error{
			Code:    engine.ErrCodeUnknown,
			Engine:  engineName,
			Message: "response contained no text content",
		}
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}
