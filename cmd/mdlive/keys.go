package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dshills/mdlive/internal/commands"
)

func newKeysCmd(g *globalOptions) *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List the editor keyboard shortcuts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			p := a.Platform()
			if platform != "" {
				if p, err = commands.ParsePlatform(platform); err != nil {
					return err
				}
			}

			rows := [][]string{{"ACTION", "KEYS"}}
			for _, b := range a.Commands().Bindings() {
				rows = append(rows, []string{b.Action, b.For(p)})
			}
			return writeTable(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "platform variant: mac, win or linux (default from config)")
	return cmd
}

func newToolbarCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toolbar",
		Short: "List the editor toolbar buttons and their tooltips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			rows := [][]string{{"ACTION", "CLASS", "TOOLTIP"}}
			for _, item := range a.Commands().Toolbar() {
				if item.Kind == commands.ItemSeparator {
					rows = append(rows, []string{"|", "", ""})
					continue
				}
				rows = append(rows, []string{item.Action, item.ClassName, item.Tooltip})
			}
			return writeTable(cmd.OutOrStdout(), rows)
		},
	}
}

// writeTable prints rows as left-aligned columns sized by display width.
func writeTable(w io.Writer, rows [][]string) error {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}
