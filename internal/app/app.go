// Package app assembles the rendering stack from configuration.
//
// Components are created in dependency order: configuration, logger,
// extension registry, highlighter, renderer and command table. Documents
// and watchers are created on demand from the assembled stack.
package app

import (
	"io"

	"github.com/dshills/mdlive/internal/commands"
	"github.com/dshills/mdlive/internal/config"
	"github.com/dshills/mdlive/internal/document"
	"github.com/dshills/mdlive/internal/extension"
	"github.com/dshills/mdlive/internal/highlight"
	"github.com/dshills/mdlive/internal/logging"
	"github.com/dshills/mdlive/internal/markdown"
	"github.com/dshills/mdlive/internal/watch"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to a .toml, .yaml or .yml file. Empty uses
	// the defaults.
	ConfigPath string

	// LogLevel overrides log.level from the configuration when set.
	LogLevel string

	// LogOutput receives log output. Defaults to os.Stderr.
	LogOutput io.Writer

	// FS reads the configuration file. Defaults to the OS file system.
	FS config.FileSystem

	// Env looks up environment overrides. Defaults to os.LookupEnv.
	Env func(string) (string, bool)
}

// App holds the assembled rendering stack. It is safe for concurrent use
// once New returns.
type App struct {
	opts Options

	cfg         config.Config
	log         *logging.Logger
	registry    *extension.Registry
	highlighter *highlight.Highlighter
	memo        *highlight.Memo
	renderer    *markdown.Renderer
	commands    *commands.Table

	initOrder []string
}

// New loads configuration and builds every component. The returned error
// is an *InitError naming the failing component.
func New(opts Options) (*App, error) {
	a := &App{opts: opts}
	if err := newBootstrapper(a).bootstrap(); err != nil {
		return nil, err
	}
	a.log.Debug("initialized %v", a.initOrder)
	return a, nil
}

// Config returns the effective configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *App) Logger() *logging.Logger {
	return a.log
}

// Registry returns the frozen extension registry.
func (a *App) Registry() *extension.Registry {
	return a.registry
}

// Renderer returns the Markdown renderer.
func (a *App) Renderer() *markdown.Renderer {
	return a.renderer
}

// Commands returns the command table.
func (a *App) Commands() *commands.Table {
	return a.commands
}

// Platform returns the configured command platform.
func (a *App) Platform() commands.Platform {
	return a.cfg.Platform()
}

// Components lists the initialized components in initialization order.
func (a *App) Components() []string {
	out := make([]string, len(a.initOrder))
	copy(out, a.initOrder)
	return out
}

// HighlightStats reports the highlight cache, if one is configured.
func (a *App) HighlightStats() (highlight.MemoStats, bool) {
	if a.memo == nil {
		return highlight.MemoStats{}, false
	}
	return a.memo.Stats(), true
}

// NewDocument creates a document rendering through the application's
// renderer. The configured strict mode and logger are applied before opts.
func (a *App) NewDocument(opts ...document.Option) (*document.Document, error) {
	base := []document.Option{
		document.WithLogger(a.log),
		document.WithStrict(a.cfg.Strict),
	}
	return document.New(a.renderer, append(base, opts...)...)
}

// Watch creates a watcher that feeds the file at path into doc.
func (a *App) Watch(path string, doc *document.Document, opts ...watch.Option) (*watch.Watcher, error) {
	base := []watch.Option{watch.WithLogger(a.log)}
	return watch.New(path, doc, append(base, opts...)...)
}
