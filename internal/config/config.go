// Package config holds mdlive's configuration: its structure, defaults,
// validation, and loading from TOML or YAML files with environment
// overrides.
package config

import (
	"errors"
	"slices"

	"github.com/dshills/mdlive/internal/commands"
	"github.com/dshills/mdlive/internal/extension"
	"github.com/dshills/mdlive/internal/logging"
)

// Default configuration values.
const (
	DefaultLogLevel    = "info"
	DefaultLangPrefix  = "language-"
	DefaultClassPrefix = "hljs-"
	DefaultCacheSize   = 512
)

// Config is the complete configuration.
type Config struct {
	Log       LogConfig       `toml:"log" yaml:"log"`
	Markdown  MarkdownConfig  `toml:"markdown" yaml:"markdown"`
	Highlight HighlightConfig `toml:"highlight" yaml:"highlight"`
	Commands  CommandsConfig  `toml:"commands" yaml:"commands"`

	// Strict makes diff invariant violations panic.
	Strict bool `toml:"strict" yaml:"strict"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// MarkdownConfig configures the renderer.
type MarkdownConfig struct {
	// HTML passes raw HTML through verbatim.
	HTML bool `toml:"html" yaml:"html"`

	// Breaks renders soft line breaks as <br>.
	Breaks bool `toml:"breaks" yaml:"breaks"`

	// LangPrefix is the class prefix of code blocks that are not
	// highlighted.
	LangPrefix string `toml:"lang_prefix" yaml:"lang_prefix"`

	// Extensions lists the active extensions in registration order.
	Extensions []string `toml:"extensions" yaml:"extensions"`

	// Options holds per-extension options, keyed by extension name.
	Options map[string]map[string]any `toml:"options" yaml:"options"`
}

// HighlightConfig configures code highlighting.
type HighlightConfig struct {
	// ClassPrefix is prepended to token classes.
	ClassPrefix string `toml:"class_prefix" yaml:"class_prefix"`

	// Aliases maps fence tags to lexer names.
	Aliases map[string]string `toml:"aliases" yaml:"aliases"`

	// Disabled lists fence tags that are never highlighted.
	Disabled []string `toml:"disabled" yaml:"disabled"`

	// CacheSize bounds the highlight cache. Zero disables it.
	CacheSize int `toml:"cache_size" yaml:"cache_size"`
}

// CommandsConfig configures the command table.
type CommandsConfig struct {
	// Platform selects binding variants: mac, win or linux.
	Platform string `toml:"platform" yaml:"platform"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: DefaultLogLevel},
		Markdown: MarkdownConfig{
			HTML:       true,
			Breaks:     true,
			LangPrefix: DefaultLangPrefix,
			Extensions: slices.Clone(extension.DefaultOrder),
		},
		Highlight: HighlightConfig{
			ClassPrefix: DefaultClassPrefix,
			CacheSize:   DefaultCacheSize,
		},
		Commands: CommandsConfig{
			Platform: commands.CurrentPlatform().String(),
		},
	}
}

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error

	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, invalid("log.level", c.Log.Level, "must be one of debug, info, warn, error"))
	}

	known := extension.BuiltinNames()
	seen := make(map[string]bool, len(c.Markdown.Extensions))
	for _, name := range c.Markdown.Extensions {
		switch {
		case !slices.Contains(known, name):
			errs = append(errs, invalid("markdown.extensions", name, "unknown extension"))
		case seen[name]:
			errs = append(errs, invalid("markdown.extensions", name, "listed twice"))
		}
		seen[name] = true
	}
	for name := range c.Markdown.Options {
		if !seen[name] {
			errs = append(errs, invalid("markdown.options", name, "options for an inactive extension"))
		}
	}

	if c.Highlight.CacheSize < 0 {
		errs = append(errs, invalid("highlight.cache_size", c.Highlight.CacheSize, "must not be negative"))
	}

	if _, err := commands.ParsePlatform(c.Commands.Platform); err != nil {
		errs = append(errs, invalid("commands.platform", c.Commands.Platform, "must be one of mac, win, linux"))
	}

	return errors.Join(errs...)
}

// Platform returns the configured command platform, falling back to the
// current one when unset or unknown.
func (c *Config) Platform() commands.Platform {
	p, err := commands.ParsePlatform(c.Commands.Platform)
	if err != nil {
		return commands.CurrentPlatform()
	}
	return p
}
