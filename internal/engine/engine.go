// Package engine defines the core types and interfaces for multi-engine AI
// review generation. It abstracts away the differences between review
// backends (Anthropic, OpenAI, Gemini, Ollama, and their CLI tools) behind a
// unified interface, enabling the tool to switch engines without changing
// application logic.
//
// Design principles:
//   - Idiomatic Go: context propagation, error values
//   - go-resty/v2 as the HTTP transport layer
//   - spf13/viper for configuration management
//   - Normalized error codes across engines
//   - Registry/factory pattern for engine discovery
package engine

import "context"

// Info describes a registered engine for introspection and user-facing
// help text.
type Info struct {
	// Name is the canonical short name used in configuration
	// (e.g. "claude-api").
	Name string

	// DisplayName is the human-readable name (e.g. "Claude API").
	DisplayName string

	// Description is a one-line summary for help text.
	Description string

	// DefaultModel is the model used when the user does not specify one.
	// Empty for CLI engines that delegate model selection to the tool.
	DefaultModel string

	// CLI is true for engines that shell out to a locally installed tool
	// instead of calling a vendor API.
	CLI bool
}

// ReviewRequest carries everything an engine needs to produce a review:
// the pull request's metadata and diff, the assembled external context,
// and the prompt template to render them into.
type ReviewRequest struct {
	TicketID        string
	Title           string
	URL             string
	Author          string
	SourceBranch    string
	TargetBranch    string
	Description     string
	Diff            string
	ExternalContext string

	// Template is the prompt template with {placeholder} tokens. See
	// BuildPrompt for the recognized set.
	Template string
}

// Engine is the central abstraction. Every review backend implements this
// interface so that the rest of the application can work with any engine
// interchangeably.
type Engine interface {
	// Info returns static metadata about this engine.
	Info() Info

	// ValidateConfig checks that the engine is correctly configured
	// (API key present, tool name set, etc.) without doing any I/O.
	ValidateConfig() error

	// TestConnection performs one minimal real interaction with the
	// backend (a tiny generation, a version probe, or a server ping) and
	// returns a classified error on failure. Used by "wtp status".
	TestConnection(ctx context.Context) error

	// GenerateReview builds the prompt from req and returns the backend's
	// review text. The context controls cancellation and timeouts.
	GenerateReview(ctx context.Context, req ReviewRequest) (string, error)
}
