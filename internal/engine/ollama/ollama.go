// Package ollama implements the engine.Engine interface for a local Ollama
// server.
//
// Local models have hard context windows and fail late and confusingly when
// the prompt does not fit, so the engine estimates the prompt's token count
// up front (len/4 heuristic) and refuses requests that cannot fit in the
// model's window with room left for the response.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"

	"github.com/whatthepatch/wtp/internal/engine"
)

func init() {
	engine.Register("ollama", NewEngine)
}

const (
	engineName   = "ollama"
	defaultModel = "llama3.1"

	// responseHeadroom is reserved out of the context window for the
	// generated review.
	responseHeadroom = 2048

	// defaultContextLimit applies to models missing from contextLimits.
	defaultContextLimit = 8192
)

// contextLimits maps model-name prefixes to context-window sizes in tokens.
// Matched by longest prefix so "llama3.1" wins over "llama3".
var contextLimits = map[string]int{
	"llama3.1":       131072,
	"llama3.2":       131072,
	"llama3":         8192,
	"llama2":         4096,
	"codellama":      16384,
	"mistral":        32768,
	"mixtral":        32768,
	"qwen2.5-coder":  32768,
	"qwen2.5":        32768,
	"deepseek-coder": 16384,
	"deepseek-r1":    131072,
	"gemma2":         8192,
	"phi3":           131072,
	"codegemma":      8192,
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

type apiError struct {
	Error string `json:"error"`
}

// Engine implements engine.Engine for a local Ollama server.
type Engine struct {
	client  *resty.Client
	baseURL string
	model   string
}

// NewEngine is the factory function registered with the engine registry.
func NewEngine(v *viper.Viper) (engine.Engine, error) {
	baseURL := v.GetString("base_url")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := v.GetString("model")
	if model == "" {
		model = defaultModel
	}
	timeout := v.GetDuration("timeout")
	if timeout == 0 {
		// Local generation on CPU can be slow.
		timeout = 10 * time.Minute
	}

	return &Engine{
		client:  resty.New().SetTimeout(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}, nil
}

// WithBaseURL overrides the server address. Used in tests.
func (e *Engine) WithBaseURL(baseURL string) *Engine {
	e.baseURL = strings.TrimRight(baseURL, "/")
	return e
}

func (e *Engine) Info() engine.Info {
	return engine.Info{
		Name:         engineName,
		DisplayName:  "Ollama",
		Description:  "Local Ollama server (llama3, mistral, qwen2.5-coder, etc.)",
		DefaultModel: defaultModel,
	}
}

// ValidateConfig checks the static configuration. No network I/O.
func (e *Engine) ValidateConfig() error {
	if e.model == "" {
		return &engine.Error{
			Code:    engine.ErrCodeInvalidConfig,
			Engine:  engineName,
			Message: "model is not set (engines.ollama.model)",
		}
	}
	return nil
}

// TestConnection pings the server's model listing and verifies the
// configured model is installed.
func (e *Engine) TestConnection(ctx context.Context) error {
	if err := e.ValidateConfig(); err != nil {
		return err
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetResult(&tags).
		Get(e.baseURL + "/api/tags")
	if err != nil {
		return &engine.Error{
			Code:    engine.ErrCodeUnavailable,
			Engine:  engineName,
			Message: "Ollama server is not reachable at " + e.baseURL,
			Cause:   err,
		}
	}
	if resp.StatusCode() != http.StatusOK {
		return engine.ClassifyStatus(engineName, resp.StatusCode(), "")
	}

	for _, m := range tags.Models {
		if m.Name == e.model || strings.TrimSuffix(m.Name, ":latest") == e.model {
			return nil
		}
	}
	return &engine.Error{
		Code:    engine.ErrCodeModelNotFound,
		Engine:  engineName,
		Message: fmt.Sprintf("model %q is not installed (try: ollama pull %s)", e.model, e.model),
	}
}

// GenerateReview checks the prompt fits the model's context window, then
// requests a blocking (non-streaming) chat completion.
func (e *Engine) GenerateReview(ctx context.Context, req engine.ReviewRequest) (string, error) {
	if err := e.ValidateConfig(); err != nil {
		return "", err
	}

	prompt := engine.BuildPrompt(req)

	estimated := EstimateTokens(prompt)
	limit := ContextLimit(e.model)
	if estimated > limit-responseHeadroom {
		return "", &engine.Error{
			Code:   engine.ErrCodeContextLength,
			Engine: engineName,
			Message: fmt.Sprintf(
				"prompt is ~%d tokens but %s fits only %d (%d minus %d response headroom); try a model with a larger context window",
				estimated, e.model, limit-responseHeadroom, limit, responseHeadroom),
		}
	}

	body := chatRequest{
		Model:    e.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(e.baseURL + "/api/chat")
	if err != nil {
		code := engine.ErrCodeUnavailable
		if strings.Contains(err.Error(), "context deadline exceeded") ||
			strings.Contains(err.Error(), "Client.Timeout") {
			code = engine.ErrCodeTimeout
		}
		return "", &engine.Error{
			Code:    code,
			Engine:  engineName,
			Message: "request to Ollama failed",
			Cause:   err,
		}
	}

	if resp.StatusCode() != http.StatusOK {
		var apiErr apiError
		_ = json.Unmarshal(resp.Body(), &apiErr)
		if apiErr.Error != "" {
			return "", engine.ClassifyMessage(engineName, apiErr.Error)
		}
		return "", engine.ClassifyStatus(engineName, resp.StatusCode(), "")
	}

	var chatResp chatResponse
	if err := json.Unmarshal(resp.Body(), &chatResp); err != nil {
		return "", &engine.Error{
			Code:    engine.ErrCodeUnknown,
			Engine:  engineName,
			Message: "failed to decode response",
			Cause:   err,
		}
	}
	if chatResp.Message.Content == "" {
		return "", &engine.Error{
			Code:    engine.ErrCodeUnknown,
			Engine:  engineName,
			Message: "response contained no content",
		}
	}
	return chatResp.Message.Content, nil
}

// EstimateTokens approximates the token count of a prompt. Four bytes per
// token is a rough average for English prose mixed with code.
func EstimateTokens(s string) int {
	return len(s) / 4
}

// ContextLimit returns the context-window size for a model name, matching
// the longest known prefix. The tag suffix (":7b" etc.) is ignored.
func ContextLimit(model string) int {
	name := model
	if i := strings.Index(name, ":"); i >= 0 {
		name = name[:i]
	}

	best, bestLen := defaultContextLimit, 0
	for prefix, limit := range contextLimits {
		if strings.HasPrefix(name, prefix) && len(prefix) > bestLen {
			best, bestLen = limit, len(prefix)
		}
	}
	return best
}
