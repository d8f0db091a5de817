package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file path; stdout when empty
	format   string // dot, svg or png; inferred from output when empty
	open     bool   // draw unconnected ports as stubs
	maxLabel int    // node label truncation
	noCache  bool   // bypass the diagram cache
}

// renderCommand creates the render command for generating node-link
// diagrams of a stored graph or a store file.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:               "render <name|file>",
		Short:             "Render a graph as a Graphviz diagram (DOT, SVG or PNG)",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(opts.format, opts.output)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			prog := newProgress(loggerFromContext(ctx))
			st, err := c.readStore(ctx, args[0])
			if err != nil {
				return err
			}

			diagrams := c.newCache(opts.noCache)
			defer diagrams.Close()

			ropts := render.Options{ShowOpenPorts: opts.open, MaxLabel: opts.maxLabel}
			out, hit, err := render.Diagram(ctx, diagrams, st, ropts, format)
			if err != nil {
				return err
			}
			prog.done("rendered", "format", format, "bytes", len(out), "cached", hit)

			if opts.output == "" {
				_, err := cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(opts.output, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", opts.output, err)
			}
			printSuccess("Rendered %s", StyleHighlight.Render(args[0]))
			printFile(opts.output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: dot, svg, png (default from --output extension, else dot)")
	cmd.Flags().BoolVar(&opts.open, "open", false, "show unconnected output ports")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "always render, ignoring cached diagrams")
	cmd.Flags().IntVar(&opts.maxLabel, "max-label", render.DefaultMaxLabel, "truncate node labels to this many characters")

	return cmd
}

// resolveFormat picks the output format from the flag or the output file's
// extension.
func resolveFormat(format, output string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
		if format == "" || format == "gv" {
			format = render.FormatDOT
		}
	}
	switch format {
	case render.FormatDOT, render.FormatSVG, render.FormatPNG:
		return format, nil
	default:
		return "", apperr.New(apperr.ErrCodeInvalidInput, "unsupported format %q (want dot, svg or png)", format)
	}
}
