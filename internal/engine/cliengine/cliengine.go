// Package cliengine implements the engine.Engine interface for locally
// installed AI coding tools (claude, codex, gemini).
//
// Instead of inlining the whole diff on the command line, the runner writes
// the pull request's artifacts to a temporary directory and hands the tool a
// short instruction prompt pointing at them. The directory is removed on
// every exit path.
package cliengine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/whatthepatch/wtp/internal/engine"
)

func init() {
	engine.Register("claude-cli", factory(Spec{
		Name:        "claude-cli",
		DisplayName: "Claude CLI",
		Description: "Locally installed claude tool in print mode",
		Command:     "claude",
		Args:        []string{"-p"},
	}))
	engine.Register("openai-codex-cli", factory(Spec{
		Name:        "openai-codex-cli",
		DisplayName: "Codex CLI",
		Description: "Locally installed codex tool in exec mode",
		Command:     "codex",
		Args:        []string{"exec"},
	}))
	engine.Register("gemini-cli", factory(Spec{
		Name:        "gemini-cli",
		DisplayName: "Gemini CLI",
		Description: "Locally installed gemini tool in prompt mode",
		Command:     "gemini",
		Args:        []string{"-p"},
	}))
}

// Artifact filenames written into the temp dir for the tool to read.
const (
	diffFile     = "diff.patch"
	metadataFile = "pr-metadata.txt"
	templateFile = "review-template.md"
)

// Spec describes one CLI tool: its registry name and the default command
// line, both overridable from configuration.
type Spec struct {
	Name        string
	DisplayName string
	Description string
	Command     string
	Args        []string
}

// Engine implements engine.Engine by shelling out to a local tool.
type Engine struct {
	spec    Spec
	command string
	args    []string
	timeout time.Duration

	// lookPath is swapped in tests.
	lookPath func(string) (string, error)
}

func factory(spec Spec) engine.Factory {
	return func(v *viper.Viper) (engine.Engine, error) {
		return NewEngine(spec, v), nil
	}
}

// NewEngine builds a CLI engine from its spec and the scoped configuration.
func NewEngine(spec Spec, v *viper.Viper) *Engine {
	command := v.GetString("command")
	if command == "" {
		command = spec.Command
	}
	args := v.GetStringSlice("args")
	if len(args) == 0 {
		args = spec.Args
	}
	timeout := v.GetDuration("timeout")
	if timeout == 0 {
		timeout = 10 * time.Minute
	}

	return &Engine{
		spec:     spec,
		command:  command,
		args:     args,
		timeout:  timeout,
		lookPath: exec.LookPath,
	}
}

func (e *Engine) Info() engine.Info {
	return engine.Info{
		Name:        e.spec.Name,
		DisplayName: e.spec.DisplayName,
		Description: e.spec.Description,
		CLI:         true,
	}
}

// ValidateConfig checks that the tool is installed and on PATH.
func (e *Engine) ValidateConfig() error {
	if e.command == "" {
		return &engine.Error{
			Code:    engine.ErrCodeInvalidConfig,
			Engine:  e.spec.Name,
			Message: "command is not set (engines." + e.spec.Name + ".command)",
		}
	}
	if _, err := e.lookPath(e.command); err != nil {
		return &engine.Error{
			Code:    engine.ErrCodeInvalidConfig,
			Engine:  e.spec.Name,
			Message: fmt.Sprintf("%q not found on PATH", e.command),
			Cause:   err,
		}
	}
	return nil
}

// TestConnection runs the tool with --version.
func (e *Engine) TestConnection(ctx context.Context) error {
	if err := e.ValidateConfig(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.command, "--version")
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return e.classifyRunError(ctx, err, stderr.String())
	}
	return nil
}

// GenerateReview writes the PR artifacts to a temp dir, invokes the tool
// with an instruction prompt, and returns its stdout.
func (e *Engine) GenerateReview(ctx context.Context, req engine.ReviewRequest) (string, error) {
	if err := e.ValidateConfig(); err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp("", "wtp-review-*")
	if err != nil {
		return "", &engine.Error{
			Code:    engine.ErrCodeUnknown,
			Engine:  e.spec.Name,
			Message: "failed to create working directory",
			Cause:   err,
		}
	}
	defer func() { _ = os.RemoveAll(dir) }()

	if err := e.writeArtifacts(dir, req); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(
		"You are reviewing a pull request. Read the metadata in %s, the diff in %s, "+
			"and produce a review following the instructions in %s. "+
			"Output only the review in Markdown.",
		filepath.Join(dir, metadataFile),
		filepath.Join(dir, diffFile),
		filepath.Join(dir, templateFile))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.command, append(append([]string{}, e.args...), prompt)...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", e.classifyRunError(ctx, err, stderr.String())
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", &engine.Error{
			Code:    engine.ErrCodeUnknown,
			Engine:  e.spec.Name,
			Message: e.command + " produced no output",
		}
	}
	return out, nil
}

func (e *Engine) writeArtifacts(dir string, req engine.ReviewRequest) error {
	metadata := fmt.Sprintf(
		"Ticket: %s\nTitle: %s\nURL: %s\nAuthor: %s\nSource branch: %s\nTarget branch: %s\n\nDescription:\n%s\n",
		req.TicketID, req.Title, req.URL, req.Author,
		req.SourceBranch, req.TargetBranch, req.Description)

	template := engine.BuildPrompt(engine.ReviewRequest{
		TicketID:        req.TicketID,
		Title:           req.Title,
		URL:             req.URL,
		Author:          req.Author,
		SourceBranch:    req.SourceBranch,
		TargetBranch:    req.TargetBranch,
		Description:     req.Description,
		Diff:            "(see " + diffFile + " in this directory)",
		ExternalContext: req.ExternalContext,
		Template:        req.Template,
	})

	files := map[string]string{
		diffFile:     req.Diff,
		metadataFile: metadata,
		templateFile: template,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return &engine.Error{
				Code:    engine.ErrCodeUnknown,
				Engine:  e.spec.Name,
				Message: "failed to write " + name,
				Cause:   err,
			}
		}
	}
	return nil
}

func (e *Engine) classifyRunError(ctx context.Context, err error, stderr string) error {
	if ctx.Err() == context.DeadlineExceeded {
		return &engine.Error{
			Code:    engine.ErrCodeTimeout,
			Engine:  e.spec.Name,
			Message: e.command + " timed out",
			Cause:   err,
		}
	}
	if stderr != "" {
		return engine.ClassifyMessage(e.spec.Name, stderr)
	}
	return &engine.Error{
		Code:    engine.ErrCodeUnknown,
		Engine:  e.spec.Name,
		Message: e.command + " failed",
		Cause:   err,
	}
}
