// Package config loads and persists the tool's configuration from
// ~/.whatthepatch/config.yaml via viper. A missing file is not an error;
// every setting has a default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	// DirName is the configuration directory under the user's home.
	DirName = ".whatthepatch"

	// FileName is the YAML configuration file inside DirName.
	FileName = "config.yaml"

	// URLCacheDirName is the URL fetch cache directory inside DirName.
	URLCacheDirName = "url_cache"

	DefaultEngine          = "claude-api"
	DefaultOutputFormat    = "md"
	DefaultOutputDir       = "reviews"
	DefaultFilenamePattern = "{repo}-pr{pr_number}-{ticket_id}"
	DefaultTicketPattern   = `([A-Z][A-Z0-9]+-\d+)`
	DefaultTicketFallback  = "NO-TICKET"
)

// DefaultPromptTemplate is the review prompt used when the user has not
// configured one. Placeholders are substituted by the engine layer.
const DefaultPromptTemplate = `You are an experienced software engineer reviewing a pull request.

## Pull Request
- Ticket: {ticket_id}
- Title: {pr_title}
- URL: {pr_url}
- Author: {pr_author}
- Branch: {source_branch} -> {target_branch}

## Description
{pr_description}

## External Context
{external_context}

## Diff
` + "```diff\n{diff}\n```" + `

Review the changes above. Point out bugs, risky edge cases, security issues,
and unclear naming. Be specific: reference files and lines from the diff.
Finish with a short summary and a verdict (approve / request changes).
Respond in Markdown.`

// Tokens holds VCS credentials. All optional; public repositories work
// without them.
type Tokens struct {
	GitHub               string
	BitbucketUsername    string
	BitbucketAppPassword string
}

// Output controls where and how reviews are written.
type Output struct {
	Directory       string
	Format          string
	FilenamePattern string
	AutoOpen        bool
}

// Ticket controls ticket-ID extraction from branch names.
type Ticket struct {
	Pattern  string
	Fallback string
}

// Config is the fully resolved configuration.
type Config struct {
	v    *viper.Viper
	Path string

	Engine         string
	Tokens         Tokens
	Output         Output
	Ticket         Ticket
	PromptTemplate string
	CacheDir       string
}

// Load reads the configuration from path, or from the default location when
// path is empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("config: failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, DirName, FileName)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("engine", DefaultEngine)
	v.SetDefault("output.directory", DefaultOutputDir)
	v.SetDefault("output.format", DefaultOutputFormat)
	v.SetDefault("output.filename_pattern", DefaultFilenamePattern)
	v.SetDefault("output.auto_open", false)
	v.SetDefault("ticket.pattern", DefaultTicketPattern)
	v.SetDefault("ticket.fallback", DefaultTicketFallback)
	v.SetDefault("prompt_template", DefaultPromptTemplate)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	cfg := &Config{
		v:      v,
		Path:   path,
		Engine: v.GetString("engine"),
		Tokens: Tokens{
			GitHub:               v.GetString("tokens.github"),
			BitbucketUsername:    v.GetString("tokens.bitbucket_username"),
			BitbucketAppPassword: v.GetString("tokens.bitbucket_app_password"),
		},
		Output: Output{
			Directory:       v.GetString("output.directory"),
			Format:          strings.ToLower(v.GetString("output.format")),
			FilenamePattern: v.GetString("output.filename_pattern"),
			AutoOpen:        v.GetBool("output.auto_open"),
		},
		Ticket: Ticket{
			Pattern:  v.GetString("ticket.pattern"),
			Fallback: v.GetString("ticket.fallback"),
		},
		PromptTemplate: v.GetString("prompt_template"),
		CacheDir:       filepath.Join(filepath.Dir(path), URLCacheDirName),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Output.Format {
	case "md", "txt", "html":
	default:
		return fmt.Errorf("config: unsupported output.format %q (want md, txt or html)", c.Output.Format)
	}
	if _, err := regexp.Compile(c.Ticket.Pattern); err != nil {
		return fmt.Errorf("config: invalid ticket.pattern: %w", err)
	}
	return nil
}

// EngineConfig returns the viper subtree for the named engine. The result
// is nil when the engine has no configuration block; the engine registry
// treats nil as an empty config.
func (c *Config) EngineConfig(name string) *viper.Viper {
	return c.v.Sub("engines." + name)
}

// SetEngine persists a new active engine back to the config file.
func (c *Config) SetEngine(name string) error {
	c.v.Set("engine", name)
	c.Engine = name
	return c.write()
}

// SetModel persists a model choice for the named engine.
func (c *Config) SetModel(engineName, model string) error {
	c.v.Set("engines."+engineName+".model", model)
	return c.write()
}

func (c *Config) write() error {
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return fmt.Errorf("config: failed to create config directory: %w", err)
	}
	if err := c.v.WriteConfigAs(c.Path); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", c.Path, err)
	}
	return nil
}
