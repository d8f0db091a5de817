package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dialoguegraph/pkg/assets"
	"github.com/matzehuels/dialoguegraph/pkg/editor"
	"github.com/matzehuels/dialoguegraph/pkg/script"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

// =============================================================================
// new / import
// =============================================================================

func (c *CLI) newCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create an empty graph containing only the start node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g := editor.New(c.editorOptions(ctx)...)
			if err := c.create(ctx, args[0], g, force); err != nil {
				return err
			}
			printSuccess("Created %s", StyleHighlight.Render(args[0]))
			printNextStep("Add a node", appName+" node add "+args[0]+" --text \"Hello\"")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing graph")
	return cmd
}

func (c *CLI) importCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "import <script.toml> <name>",
		Short: "Build a graph from a TOML dialogue script",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(loggerFromContext(ctx))

			sc, err := script.ParseFile(args[0])
			if err != nil {
				return err
			}
			g, err := sc.Build(c.editorOptions(ctx)...)
			if err != nil {
				return fmt.Errorf("build %s: %w", args[0], err)
			}
			if err := c.create(ctx, args[1], g, force); err != nil {
				return err
			}
			prog.done("imported", "script", args[0], "name", args[1])

			printSuccess("Imported %s", StyleHighlight.Render(args[1]))
			printStats(g.NodeCount(), g.EdgeCount(), openPorts(g.Save()))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing graph")
	return cmd
}

// create saves g under name, refusing to replace an existing asset unless
// force is set.
func (c *CLI) create(ctx context.Context, name string, g *editor.Graph, force bool) error {
	return c.withRepo(ctx, func(repo assets.Repository) error {
		if !force {
			_, err := repo.Get(ctx, name)
			switch {
			case err == nil:
				return fmt.Errorf("graph %q already exists (use --force to overwrite)", name)
			case !errors.Is(err, assets.ErrNotFound):
				return err
			}
		}
		return repo.Put(ctx, name, g.Save())
	})
}

// =============================================================================
// export
// =============================================================================

func (c *CLI) exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "export <name> [file]",
		Short:             "Write a graph's store JSON to a file or stdout",
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withRepo(ctx, func(repo assets.Repository) error {
				st, err := repo.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if len(args) == 1 {
					return store.Write(st, cmd.OutOrStdout())
				}
				if err := store.WriteFile(st, args[1]); err != nil {
					return err
				}
				printSuccess("Exported %s", StyleHighlight.Render(args[0]))
				printFile(args[1])
				return nil
			})
		},
	}
}

// =============================================================================
// list / rm
// =============================================================================

func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored graphs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withRepo(ctx, func(repo assets.Repository) error {
				names, err := repo.List(ctx)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
}

func (c *CLI) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <name>",
		Short:             "Delete a stored graph",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withRepo(ctx, func(repo assets.Repository) error {
				if err := repo.Delete(ctx, args[0]); err != nil {
					return err
				}
				printSuccess("Deleted %s", args[0])
				return nil
			})
		},
	}
}

// =============================================================================
// show
// =============================================================================

func (c *CLI) showCommand() *cobra.Command {
	var fullIDs bool
	cmd := &cobra.Command{
		Use:               "show <name>",
		Short:             "Print a graph's nodes and ports as a table",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withRepo(ctx, func(repo assets.Repository) error {
				st, err := repo.Get(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), StyleTitle.Render(args[0]))
				fmt.Fprintln(cmd.OutOrStdout(), nodeTable(st, fullIDs))
				printStats(st.Len(), len(st.Edges()), openPorts(st))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&fullIDs, "full-ids", false, "print node ids unabbreviated")
	return cmd
}

// nodeTable renders one row per node: id, text and its numbered ports.
func nodeTable(st *store.Store, fullIDs bool) string {
	id := shortID
	if fullIDs {
		id = func(s string) string { return s }
	}

	rows := make([][]string, 0, st.Len())
	for _, n := range st.Nodes {
		ports := make([]string, len(n.OutputPorts))
		for i, p := range n.OutputPorts {
			target := "·"
			if p.Connected() {
				target = id(p.ConnectedID)
			}
			ports[i] = fmt.Sprintf("%d %s %s %s", i, p.Name, iconArrow, target)
		}
		rows = append(rows, []string{id(n.ID), n.Text(), strings.Join(ports, "\n")})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Text", "Ports").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case col == 0 && st.Nodes[row].IsStart():
				return cell.Foreground(colorCyan).Bold(true)
			case col == 0:
				return cell.Foreground(colorCyan)
			case col == 2:
				return cell.Foreground(colorGray)
			}
			return cell
		})
	return t.Render()
}

// openPorts counts output ports that lead nowhere.
func openPorts(st *store.Store) int {
	count := 0
	for _, n := range st.Nodes {
		for _, p := range n.OutputPorts {
			if !p.Connected() {
				count++
			}
		}
	}
	return count
}

// unreachableNodes returns the ids, in stored order, of nodes no path from
// the start node leads to.
func unreachableNodes(st *store.Store) []string {
	seen := map[string]bool{store.StartNodeID: true}
	queue := []string{store.StartNodeID}
	for len(queue) > 0 {
		n, ok := st.Lookup(queue[0])
		queue = queue[1:]
		if !ok {
			continue
		}
		for _, p := range n.OutputPorts {
			if p.Connected() && !seen[p.ConnectedID] {
				seen[p.ConnectedID] = true
				queue = append(queue, p.ConnectedID)
			}
		}
	}
	var ids []string
	for _, n := range st.Nodes {
		if !seen[n.ID] {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// =============================================================================
// validate
// =============================================================================

func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <name|file>",
		Short: "Check a stored graph or a store JSON file for integrity errors",
		Long: `Validate reports every duplicate id, missing or duplicate start node and
dangling reference in a Graph Store, then confirms the store loads into the editor.

The argument is treated as a file path when such a file exists, otherwise as
the name of a stored graph.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeGraphNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.readStore(ctx, args[0])
			if err != nil {
				return err
			}

			if err := st.Validate(); err != nil {
				problems := unjoin(err)
				for _, p := range problems {
					printError("%v", p)
				}
				return fmt.Errorf("%s: %d problem(s) found", args[0], len(problems))
			}
			if _, err := editor.Load(st, c.editorOptions(ctx)...); err != nil {
				printError("%v", err)
				return fmt.Errorf("%s: does not load", args[0])
			}

			printSuccess("%s is valid", args[0])
			printStats(st.Len(), len(st.Edges()), openPorts(st))
			if unreachable := unreachableNodes(st); len(unreachable) > 0 {
				printWarning("%d node(s) cannot be reached from the start node", len(unreachable))
				for _, id := range unreachable {
					printDetail("%s", id)
				}
			}
			return nil
		},
	}
}

// readStore reads arg as a store file if it exists on disk, otherwise from
// the repository.
func (c *CLI) readStore(ctx context.Context, arg string) (*store.Store, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return store.ReadFile(arg)
	}
	var st *store.Store
	err := c.withRepo(ctx, func(repo assets.Repository) error {
		var err error
		st, err = repo.Get(ctx, arg)
		return err
	})
	return st, err
}

// unjoin flattens an errors.Join result.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
