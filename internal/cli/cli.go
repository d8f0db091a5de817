// Package cli implements the dialoguegraph command-line interface.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dialoguegraph/pkg/assets"
	"github.com/matzehuels/dialoguegraph/pkg/buildinfo"
	"github.com/matzehuels/dialoguegraph/pkg/config"
	"github.com/matzehuels/dialoguegraph/pkg/editor"
	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display and completion scripts.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Dialoguegraph authors and plays branching dialogue graphs",
		Long:         `Dialoguegraph is a CLI tool for authoring branching dialogue as node graphs, storing them as flat Graph Store assets, and playing them back.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/dialoguegraph/config.toml)")

	// Assets
	root.AddCommand(c.newCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.rmCommand())

	// Editing
	root.AddCommand(c.nodeCommand())
	root.AddCommand(c.portCommand())
	root.AddCommand(c.connectCommand())
	root.AddCommand(c.disconnectCommand())

	// Output and playback
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.playCommand())
	root.AddCommand(c.serveCommand())

	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Repository Access
// =============================================================================

// loadConfig reads the configuration selected by --config.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// openRepo opens the asset repository named by the configuration.
// Remote backends show a spinner while connecting.
func (c *CLI) openRepo(ctx context.Context) (assets.Repository, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("opening repository", "backend", cfg.Storage.Backend)

	switch cfg.Storage.Backend {
	case config.BackendRedis, config.BackendMongo:
		spinner := newSpinner(ctx, "Connecting to "+cfg.Storage.Backend+"...")
		spinner.Start()
		repo, err := assets.Open(ctx, cfg.Storage)
		spinner.Stop()
		return repo, err
	default:
		return assets.Open(ctx, cfg.Storage)
	}
}

// withRepo runs fn against an open repository and closes it afterwards.
func (c *CLI) withRepo(ctx context.Context, fn func(assets.Repository) error) error {
	repo, err := c.openRepo(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()
	return fn(repo)
}

// editorOptions returns the options every command loads graphs with.
func (c *CLI) editorOptions(ctx context.Context) []editor.Option {
	return []editor.Option{
		editor.WithLogger(loggerFromContext(ctx)),
		editor.WithContext(ctx),
	}
}

// editGraph loads the named asset into an editable graph, applies fn and
// writes the saved result back. Nothing is written when fn fails.
func (c *CLI) editGraph(ctx context.Context, name string, fn func(*editor.Graph) error) error {
	return c.withRepo(ctx, func(repo assets.Repository) error {
		st, err := repo.Get(ctx, name)
		if err != nil {
			return err
		}
		g, err := editor.Load(st, c.editorOptions(ctx)...)
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}
		return repo.Put(ctx, name, g.Save())
	})
}

// =============================================================================
// Node References
// =============================================================================

// resolveNode maps a user-supplied reference to a node id. Exact ids win;
// otherwise the reference must be an unambiguous id prefix.
func resolveNode(g *editor.Graph, ref string) (string, error) {
	if _, ok := g.Node(ref); ok {
		return ref, nil
	}
	var matches []string
	for _, n := range g.Nodes() {
		if ref != "" && strings.HasPrefix(n.ID, ref) {
			matches = append(matches, n.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", apperr.New(apperr.ErrCodeNodeNotFound, "no node matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", apperr.New(apperr.ErrCodeInvalidInput, "node reference %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// shortID abbreviates generated ids for display.
func shortID(id string) string {
	if len(id) > 8 && strings.Count(id, "-") == 4 {
		return id[:8]
	}
	return id
}
