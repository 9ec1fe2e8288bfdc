// Package claude implements the engine.Engine interface for the Anthropic
// Messages API.
//
// Anthropic's API differs from OpenAI's in several key ways:
//   - Authentication uses the "x-api-key" header, not Bearer tokens.
//   - An "anthropic-version" header is required on every call.
//   - The response body uses "content" as an array of typed blocks.
//   - max_tokens is required (not optional).
package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"

	"github.com/whatthepatch/wtp/internal/engine"
)

func init() {
	engine.Register("claude-api", NewEngine)
}

const (
	engineName       = "claude-api"
	anthropicVersion = "2023-06-01"
	defaultModel     = "claude-sonnet-4-20250514"
)

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model     string       `json:"model"`
	Messages  []apiMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiResponse struct {
	Content    []apiContentBlock `json:"content"`
	StopReason string            `json:"stop_reason"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Engine implements engine.Engine for the Anthropic Messages API.
type Engine struct {
	client  *resty.Client
	apiKey  string
	baseURL string
	model   string
	maxTok  int
}

// NewEngine is the factory function registered with the engine registry.
func NewEngine(v *viper.Viper) (engine.Engine, error) {
	apiKey := v.GetString("api_key")
	baseURL := v.GetString("base_url")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	model := v.GetString("model")
	if model == "" {
		model = defaultModel
	}
	maxTok := v.GetInt("max_tokens")
	if maxTok == 0 {
		maxTok = 4096
	}
	timeout := v.GetDuration("timeout")
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("anthropic-version", anthropicVersion)

	return &Engine{
		client:  client,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		maxTok:  maxTok,
	}, nil
}

// WithBaseURL overrides the API host. Used in tests.
func (e *Engine) WithBaseURL(baseURL string) *Engine {
	e.baseURL = strings.TrimRight(baseURL, "/")
	return e
}

func (e *Engine) Info() engine.Info {
	return engine.Info{
		Name:         engineName,
		DisplayName:  "Claude API",
		Description:  "Anthropic Messages API (Claude Opus, Sonnet, Haiku)",
		DefaultModel: defaultModel,
	}
}

// ValidateConfig checks that the API key is present. No network I/O.
func (e *Engine) ValidateConfig() error {
	if e.apiKey == "" {
		return &engine.Error{
			Code:    engine.ErrCodeInvalidConfig,
			Engine:  engineName,
			Message: "api_key is not set (engines.claude-api.api_key)",
		}
	}
	return nil
}

// TestConnection sends a one-token generation request.
func (e *Engine) TestConnection(ctx context.Context) error {
	if err := e.ValidateConfig(); err != nil {
		return err
	}
	_, err := e.complete(ctx, "Hi", 1)
	return err
}

// GenerateReview builds the prompt and asks Claude for the full review.
func (e *Engine) GenerateReview(ctx context.Context, req engine.ReviewRequest) (string, error) {
	if err := e.ValidateConfig(); err != nil {
		return "", err
	}
	return e.complete(ctx, engine.BuildPrompt(req), e.maxTok)
}

func (e *Engine) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body := apiRequest{
		Model:     e.model,
		Messages:  []apiMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", e.apiKey).
		SetBody(body).
		Post(e.baseURL + "/v1/messages")
	if err != nil {
		return "", wrapTransportErr(err)
	}

	if resp.StatusCode() != http.StatusOK {
		var apiErr apiError
		_ = json.Unmarshal(resp.Body(), &apiErr)
		return "", engine.ClassifyStatus(engineName, resp.StatusCode(), apiErr.Error.Message)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		return "", &engine.Error{
			Code:    engine.ErrCodeUnknown,
			Engine:  engineName,
			Message: "failed to decode response",
			Cause:   err,
		}
	}

	var sb strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &engine.Error{
			Code:    engine.ErrCodeUnknown,
			Engine:  engineName,
			Message: "response contained no text content (stop_reason: " + apiResp.StopReason + ")",
		}
	}
	return sb.String(), nil
}

func wrapTransportErr(err error) error {
	code := engine.ErrCodeUnavailable
	if strings.Contains(err.Error(), "context deadline exceeded") ||
		strings.Contains(err.Error(), "Client.Timeout") {
		code = engine.ErrCodeTimeout
	}
	return &engine.Error{
		Code:    code,
		Engine:  engineName,
		Message: "HTTP request failed",
		Cause:   err,
	}
}
