package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dialoguegraph/pkg/editor"
	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// Every command in this file follows the same cycle: load the stored graph
// into the editor, apply one authoring operation, save and overwrite.

// =============================================================================
// node
// =============================================================================

func (c *CLI) nodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Add, remove, move or edit nodes",
	}
	cmd.AddCommand(c.nodeAddCommand())
	cmd.AddCommand(c.nodeRmCommand())
	cmd.AddCommand(c.nodeMoveCommand())
	cmd.AddCommand(c.nodeTextCommand())
	return cmd
}

func (c *CLI) nodeAddCommand() *cobra.Command {
	var (
		text string
		x, y float64
	)
	cmd := &cobra.Command{
		Use:               "add <graph>",
		Short:             "Add a node with one default output port",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			err := c.editGraph(cmd.Context(), args[0], func(g *editor.Graph) error {
				pos := store.Position{X: x, Y: y}
				if text != "" {
					id = g.CreateDialogueNode(pos, text)
				} else {
					id = g.CreateNode(pos)
				}
				return nil
			})
			if err != nil {
				return err
			}
			printSuccess("Added node %s", StyleHighlight.Render(id))
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "dialogue text")
	cmd.Flags().Float64Var(&x, "x", 0, "editor x position")
	cmd.Flags().Float64Var(&y, "y", 0, "editor y position")
	return cmd
}

func (c *CLI) nodeRmCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <graph> <node>",
		Short:             "Remove a node and every edge touching it",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editNode(cmd, args[0], args[1], "Removed", func(g *editor.Graph, id string) error {
				return g.RemoveNode(id)
			})
		},
	}
}

func (c *CLI) nodeMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "move <graph> <node> <x> <y>",
		Short:             "Set a node's editor position",
		Args:              cobra.ExactArgs(4),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseFloat("x", args[2])
			if err != nil {
				return err
			}
			y, err := parseFloat("y", args[3])
			if err != nil {
				return err
			}
			return c.editNode(cmd, args[0], args[1], "Moved", func(g *editor.Graph, id string) error {
				return g.MoveNode(id, store.Position{X: x, Y: y})
			})
		},
	}
}

func (c *CLI) nodeTextCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "text <graph> <node> <text>",
		Short:             "Set a node's dialogue text",
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editNode(cmd, args[0], args[1], "Updated", func(g *editor.Graph, id string) error {
				return g.SetDialogue(id, args[2])
			})
		},
	}
}

// editNode resolves ref inside the named graph and applies fn to it.
func (c *CLI) editNode(cmd *cobra.Command, graph, ref, verb string, fn func(*editor.Graph, string) error) error {
	var id string
	err := c.editGraph(cmd.Context(), graph, func(g *editor.Graph) error {
		var err error
		if id, err = resolveNode(g, ref); err != nil {
			return err
		}
		return fn(g, id)
	})
	if err != nil {
		return err
	}
	printSuccess("%s node %s", verb, StyleHighlight.Render(shortID(id)))
	return nil
}

// =============================================================================
// port
// =============================================================================

func (c *CLI) portCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "port",
		Short: "Add, remove or rename output ports",
	}
	cmd.AddCommand(c.portAddCommand())
	cmd.AddCommand(c.portRmCommand())
	cmd.AddCommand(c.portRenameCommand())
	return cmd
}

func (c *CLI) portAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "add <graph> <node> [label]",
		Short:             "Append an output port (player option) to a node",
		Args:              cobra.RangeArgs(2, 3),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			label := ""
			if len(args) == 3 {
				label = args[2]
			}
			var index int
			err := c.editNode(cmd, args[0], args[1], "Updated", func(g *editor.Graph, id string) error {
				var err error
				index, err = g.AddOutputPort(id, label)
				return err
			})
			if err != nil {
				return err
			}
			printDetail("port %d", index)
			return nil
		},
	}
}

func (c *CLI) portRmCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <graph> <node> <index>",
		Short:             "Remove an output port; later ports shift down",
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			return c.editNode(cmd, args[0], args[1], "Updated", func(g *editor.Graph, id string) error {
				return g.RemoveOutputPort(id, index)
			})
		},
	}
}

func (c *CLI) portRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rename <graph> <node> <index> <label>",
		Short:             "Change an output port's label",
		Args:              cobra.ExactArgs(4),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			return c.editNode(cmd, args[0], args[1], "Updated", func(g *editor.Graph, id string) error {
				return g.RenameOutputPort(id, index, args[3])
			})
		},
	}
}

// =============================================================================
// connect / disconnect
// =============================================================================

func (c *CLI) connectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <graph> <node> <port> <target>",
		Short: "Point an output port at another node",
		Long: `Connect binds output port <port> of <node> to <target>. A port holds a single
edge, so connecting an already bound port rewires it.`,
		Args:              cobra.ExactArgs(4),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			var src, dst string
			err = c.editGraph(cmd.Context(), args[0], func(g *editor.Graph) error {
				var err error
				if src, err = resolveNode(g, args[1]); err != nil {
					return err
				}
				if dst, err = resolveNode(g, args[3]); err != nil {
					return err
				}
				return g.Connect(src, index, dst)
			})
			if err != nil {
				return err
			}
			printSuccess("Connected %s:%d %s %s", shortID(src), index, iconArrow, shortID(dst))
			return nil
		},
	}
}

func (c *CLI) disconnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "disconnect <graph> <node> <port>",
		Short:             "Clear an output port's edge",
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			return c.editNode(cmd, args[0], args[1], "Updated", func(g *editor.Graph, id string) error {
				return g.Disconnect(id, index)
			})
		},
	}
}

// =============================================================================
// Argument parsing
// =============================================================================

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, apperr.New(apperr.ErrCodeInvalidPortIndex, "port index must be a non-negative integer, got %q", s)
	}
	return i, nil
}

func parseFloat(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperr.New(apperr.ErrCodeInvalidInput, "%s must be a number, got %q", name, s)
	}
	return f, nil
}
