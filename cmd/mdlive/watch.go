package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/mdlive/internal/document"
	"github.com/dshills/mdlive/internal/watch"
)

func newWatchCmd(g *globalOptions) *cobra.Command {
	var (
		delay     time.Duration
		printHTML bool
	)
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-render a Markdown file whenever it changes",
		Long: `Watch renders a Markdown file, then patches the output on every save and
logs what each patch changed. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			log := a.Logger().WithComponent("cli")
			out := cmd.OutOrStdout()

			var doc *document.Document
			doc, err = a.NewDocument(document.WithRenderHook(func(c document.Cycle) {
				log.WithFields(map[string]any{
					"cycle":     c.Number,
					"full":      c.Full,
					"recovered": c.Recovered,
				}).Info("%s in %s", c.Stats, c.Duration.Round(time.Microsecond))
				if printHTML {
					if html, err := doc.HTML(); err == nil {
						fmt.Fprintln(out, html)
					}
				}
			}))
			if err != nil {
				return err
			}

			src, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}
			if err := doc.Render(src); err != nil {
				return err
			}

			w, err := a.Watch(args[0], doc, watch.WithDelay(delay))
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			stats := w.Stats()
			log.Info("stopped after %d cycles, %d file events", doc.Cycles(), stats.Events)
			return nil
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", watch.DefaultDelay, "quiet period after a change before re-rendering")
	cmd.Flags().BoolVar(&printHTML, "print", false, "print the HTML after every cycle")
	return cmd
}
