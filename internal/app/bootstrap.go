package app

import (
	"fmt"

	"github.com/dshills/mdlive/internal/commands"
	"github.com/dshills/mdlive/internal/config"
	"github.com/dshills/mdlive/internal/extension"
	"github.com/dshills/mdlive/internal/highlight"
	"github.com/dshills/mdlive/internal/logging"
	"github.com/dshills/mdlive/internal/markdown"
)

// bootstrapper initializes components in dependency order.
type bootstrapper struct {
	app  *App
	opts Options
}

func newBootstrapper(a *App) *bootstrapper {
	return &bootstrapper{app: a, opts: a.opts}
}

func (b *bootstrapper) bootstrap() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"config", b.initConfig},
		{"logger", b.initLogger},
		{"extensions", b.initExtensions},
		{"highlighter", b.initHighlighter},
		{"renderer", b.initRenderer},
		{"commands", b.initCommands},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return &InitError{Component: step.name, Err: err}
		}
		b.app.initOrder = append(b.app.initOrder, step.name)
	}
	return nil
}

func (b *bootstrapper) initConfig() error {
	fsys := b.opts.FS
	if fsys == nil {
		fsys = config.OSFS{}
	}
	loader := config.NewLoaderWithFS(fsys)
	if b.opts.Env != nil {
		loader.WithEnv(b.opts.Env)
	}
	cfg, err := loader.Load(b.opts.ConfigPath)
	if err != nil {
		return err
	}
	if b.opts.LogLevel != "" {
		if !logging.ValidLevel(b.opts.LogLevel) {
			return fmt.Errorf("%w: log level %q", config.ErrInvalid, b.opts.LogLevel)
		}
		cfg.Log.Level = b.opts.LogLevel
	}
	b.app.cfg = cfg
	return nil
}

func (b *bootstrapper) initLogger() error {
	b.app.log = logging.New(logging.Config{
		Level:  logging.ParseLevel(b.app.cfg.Log.Level),
		Output: b.opts.LogOutput,
		Prefix: "mdlive",
	})
	return nil
}

func (b *bootstrapper) initExtensions() error {
	md := b.app.cfg.Markdown
	registry, err := extension.Load(md.Extensions, md.Options)
	if err != nil {
		return err
	}
	b.app.registry = registry
	b.app.log.Debug("extensions: %v", registry.Names())
	return nil
}

func (b *bootstrapper) initHighlighter() error {
	hc := b.app.cfg.Highlight
	b.app.highlighter = highlight.New(
		highlight.NewRegistry(hc.Aliases, hc.Disabled),
		highlight.Options{ClassPrefix: hc.ClassPrefix, Logger: b.app.log},
	)
	if hc.CacheSize > 0 {
		b.app.memo = highlight.NewMemo(b.app.highlighter, hc.CacheSize)
	}
	return nil
}

func (b *bootstrapper) initRenderer() error {
	md := b.app.cfg.Markdown
	var src highlight.Source = b.app.highlighter
	if b.app.memo != nil {
		src = b.app.memo
	}
	r, err := markdown.New(markdown.Options{
		HTML:       md.HTML,
		Breaks:     md.Breaks,
		LangPrefix: md.LangPrefix,
	}, b.app.registry, src, b.app.log)
	if err != nil {
		return err
	}
	b.app.renderer = r
	return nil
}

func (b *bootstrapper) initCommands() error {
	t, err := commands.NewTable(commands.DefaultBindings())
	if err != nil {
		return err
	}
	b.app.commands = t
	return nil
}
