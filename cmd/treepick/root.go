package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/treepick/pkg/config"
	"github.com/vanderheijden86/treepick/pkg/debug"
	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/metrics"
	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/selection"
)

// App carries the shared flags and the resolved configuration.
type App struct {
	ConfigPath    string
	Mode          string
	SelectionMode string
	Cascade       bool
	ExpandAll     bool
	Select        []string
	Highlight     []string
	Stats         bool
	Debug         bool

	cfg config.Config
}

// NewRootCmd builds the treepick command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "treepick",
		Short:        "Pick nodes from a tree with cascading selection",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Pick interactively, print the chosen ids
  treepick pick catalog.json

  # Cascading picks, written as a JSON document
  treepick pick --cascade --out picked.json catalog.yaml

  # Headless: apply toggles and print the result
  treepick resolve --cascade --toggle A --toggle B1 catalog.json

  # Render a snapshot
  treepick export --format svg --output tree.svg catalog.db#nodes
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if app.Debug {
			debug.SetEnabled(true)
		}
		if app.Stats {
			metrics.SetEnabled(true)
		}
		return app.loadConfig(cmd)
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if !app.Stats {
			return nil
		}
		return metrics.WriteReport(cmd.ErrOrStderr())
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&app.ConfigPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/treepick/config.yaml)")
	flags.StringVar(&app.Mode, "mode", "", "Interaction mode (edit|view)")
	flags.StringVar(&app.SelectionMode, "selection-mode", "", "Selection mode (multiple|single|none)")
	flags.BoolVar(&app.Cascade, "cascade", false, "Selecting a node selects its whole branch")
	flags.BoolVar(&app.ExpandAll, "expand-all", false, "Start with every branch expanded")
	flags.StringSliceVar(&app.Select, "select", nil, "Initially selected ids")
	flags.StringSliceVar(&app.Highlight, "highlight", nil, "Ids to highlight")
	flags.BoolVar(&app.Stats, "stats", false, "Print timing stats as JSON to stderr")
	flags.BoolVar(&app.Debug, "debug", false, "Enable debug logging to stderr")

	cmd.AddCommand(newPickCmd(app))
	cmd.AddCommand(newResolveCmd(app))
	cmd.AddCommand(newRowsCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig resolves settings with precedence flags > env > file > defaults.
func (a *App) loadConfig(cmd *cobra.Command) error {
	var (
		cfg config.Config
		err error
	)
	if a.ConfigPath != "" {
		cfg, err = config.LoadFrom(a.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Tree.Mode = a.Mode
	}
	if flags.Changed("selection-mode") {
		cfg.Tree.SelectionMode = a.SelectionMode
	}
	if flags.Changed("cascade") {
		cfg.Tree.Cascade = a.Cascade
	}
	if flags.Changed("expand-all") {
		cfg.Tree.DefaultExpandAll = a.ExpandAll
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	debug.Dump("config", cfg)
	return nil
}

// sources returns the positional sources, or the configured ones.
func (a *App) sources(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(a.cfg.Sources) > 0 {
		return a.cfg.Sources, nil
	}
	return nil, errors.New("no sources: pass files, databases or URLs, or set sources in the config file")
}

func (a *App) loadForest(cmd *cobra.Command, args []string) (*model.Forest, []string, error) {
	sources, err := a.sources(args)
	if err != nil {
		return nil, nil, err
	}
	forest, err := loader.LoadAll(cmd.Context(), sources)
	if err != nil {
		return nil, nil, err
	}
	return forest, sources, nil
}

// newEngine builds an engine from the resolved config and the shared
// --select / --highlight flags.
func (a *App) newEngine(forest *model.Forest, ownership selection.Ownership, opts ...selection.Option) (*selection.Engine, error) {
	cfg, err := a.cfg.SelectionConfig()
	if err != nil {
		return nil, err
	}
	cfg.Ownership = ownership
	if len(a.Select) > 0 {
		opts = append(opts, selection.WithSelectedIDs(a.Select...))
	}
	if len(a.Highlight) > 0 {
		opts = append(opts, selection.WithHighlightIDs(a.Highlight...))
	}
	return selection.New(cfg, forest, opts...), nil
}

func printIDs(w io.Writer, ids []string) {
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
}

func isTerminal(f *os.File) bool {
	return isTerminalFd(int(f.Fd()))
}
