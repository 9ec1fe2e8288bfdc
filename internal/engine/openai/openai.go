// Package openai implements the engine.Engine interface for the OpenAI
// Chat Completions API.
package openai

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
	engine.Register("openai-api", NewEngine)
}

const (
	engineName   = "openai-api"
	defaultModel = "gpt-4o"
)

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model               string       `json:"model"`
	Messages            []apiMessage `json:"messages"`
	MaxCompletionTokens int          `json:"max_completion_tokens,omitempty"`
}

type apiResponse struct {
	Choices []struct {
		Message      apiMessage `json:"message"`
		FinishReason string     `json:"finish_reason"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Engine implements engine.Engine for OpenAI's Chat Completions API.
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
		baseURL = "https://api.openai.com/v1"
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
		SetHeader("Content-Type", "application/json")

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
		DisplayName:  "OpenAI API",
		Description:  "OpenAI Chat Completions API (GPT-4o, GPT-4.1, o-series)",
		DefaultModel: defaultModel,
	}
}

// ValidateConfig checks that the API key is present. No network I/O.
func (e *Engine) ValidateConfig() error {
	if e.apiKey == "" {
		return &engine.Error{
			Code:    engine.ErrCodeInvalidConfig,
			Engine:  engineName,
			Message: "api_key is not set (engines.openai-api.api_key)",
		}
	}
	return nil
}

// TestConnection lists models as a cheap reachability and credential check.
func (e *Engine) TestConnection(ctx context.Context) error {
	if err := e.ValidateConfig(); err != nil {
		return err
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetAuthToken(e.apiKey).
		Get(e.baseURL + "/models")
	if err != nil {
		return wrapTransportErr(err)
	}
	if resp.StatusCode() != http.StatusOK {
		var apiErr apiError
		_ = json.Unmarshal(resp.Body(), &apiErr)
		return engine.ClassifyStatus(engineName, resp.StatusCode(), apiErr.Error.Message)
	}
	return nil
}

// GenerateReview builds the prompt and requests a chat completion.
func (e *Engine) GenerateReview(ctx context.Context, req engine.ReviewRequest) (string, error) {
	if err := e.ValidateConfig(); err != nil {
		return "", err
	}

	body := apiRequest{
		Model:               e.model,
		Messages:            []apiMessage{{Role: "user", Content: engine.BuildPrompt(req)}},
		MaxCompletionTokens: e.maxTok,
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetAuthToken(e.apiKey).
		SetBody(body).
		Post(e.baseURL + "/chat/completions")
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
	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == "" {
		return "", &engine.Error{
			Code:    engine.ErrCodeUnknown,
			Engine:  engineName,
			Message: "response contained no choices",
		}
	}
	return apiResp.Choices[0].Message.Content, nil
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
