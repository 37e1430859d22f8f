package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newRenderCmd(g *globalOptions) *cobra.Command {
	var program bool
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a Markdown file to HTML",
		Long: `Render reads a Markdown file, or standard input when the file is "-",
and writes the rendered HTML to standard output.

Examples:
  mdlive render README.md
  mdlive render --program notes.md
  cat notes.md | mdlive render -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			src, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if program {
				_, err = io.WriteString(out, a.Renderer().Render(src).String())
				return err
			}

			doc, err := a.NewDocument()
			if err != nil {
				return err
			}
			if err := doc.Render(src); err != nil {
				return err
			}
			html, err := doc.HTML()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, html)
			return err
		},
	}
	cmd.Flags().BoolVar(&program, "program", false, "print the render instructions instead of HTML")
	return cmd
}

func readSource(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
