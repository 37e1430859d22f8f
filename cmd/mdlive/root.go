package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/mdlive/internal/app"
)

// globalOptions holds the flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "mdlive",
		Short: "mdlive renders Markdown and keeps the output live",
		Long: `mdlive renders Markdown to HTML with syntax-highlighted code blocks.

In watch mode the output is patched in place on every save, touching only
the parts of the document that changed.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a .toml or .yaml configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(
		newRenderCmd(opts),
		newWatchCmd(opts),
		newKeysCmd(opts),
		newToolbarCmd(opts),
	)
	return cmd
}

// load assembles the application, logging to the command's error stream.
func (o *globalOptions) load(cmd *cobra.Command) (*app.App, error) {
	return app.New(app.Options{
		ConfigPath: o.configPath,
		LogLevel:   o.logLevel,
		LogOutput:  cmd.ErrOrStderr(),
	})
}
