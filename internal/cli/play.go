package cli

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
)

// playCommand walks a stored graph interactively, or along a fixed list of
// choices with --script.
func (c *CLI) playCommand() *cobra.Command {
	var choices []int

	cmd := &cobra.Command{
		Use:   "play <name|file>",
		Short: "Play a dialogue graph in the terminal",
		Long: `Play walks the dialogue from its start node. Without flags it opens an
interactive view. With --script it applies the given option indices in order,
printing each node's text and options, which is useful for testing a graph.`,
		Example: `  dialoguegraph play tavern
  dialoguegraph play tavern --script 0,1`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.readStore(ctx, args[0])
			if err != nil {
				return err
			}

			walker := dialogue.NewWalker(st,
				dialogue.WithLogger(loggerFromContext(ctx)),
				dialogue.WithContext(ctx))
			if _, err := walker.Begin(); err != nil {
				return err
			}

			if cmd.Flags().Changed("script") {
				return playScript(cmd.OutOrStdout(), walker, choices)
			}

			p := tea.NewProgram(NewPlayModel(args[0], walker), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().IntSliceVar(&choices, "script", nil, "comma-separated option indices to apply non-interactively")
	return cmd
}

// playScript applies choices in order and prints a transcript. It stops at
// the first rejected choice.
func playScript(w io.Writer, walker *dialogue.Walker, choices []int) error {
	printState(w, walker.Current())
	for _, choice := range choices {
		fmt.Fprintf(w, "> %d\n", choice)
		st, err := walker.SelectOption(choice)
		if err != nil {
			return err
		}
		printState(w, st)
	}
	return nil
}

func printState(w io.Writer, st dialogue.State) {
	if st.Ended {
		fmt.Fprintln(w, "(end)")
		return
	}
	fmt.Fprintf(w, "[%s] %s\n", shortID(st.Node.ID), st.Text())
	for i, opt := range st.Options() {
		fmt.Fprintf(w, "  %d) %s\n", i, opt)
	}
}
