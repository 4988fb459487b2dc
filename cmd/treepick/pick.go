package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/treepick/internal/datasource"
	"github.com/vanderheijden86/treepick/pkg/debug"
	"github.com/vanderheijden86/treepick/pkg/export"
	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/selection"
	"github.com/vanderheijden86/treepick/pkg/ui"
	"github.com/vanderheijden86/treepick/pkg/watcher"
)

// isTerminalFd is swapped out in tests.
var isTerminalFd = term.IsTerminal

var errAborted = errors.New("selection aborted")

type pickOptions struct {
	JSON       bool
	Out        string
	Watch      bool
	Controlled bool
	Title      string
}

func newPickCmd(app *App) *cobra.Command {
	opts := pickOptions{}

	cmd := &cobra.Command{
		Use:   "pick [sources...]",
		Short: "Select nodes interactively",
		Long: `Opens the tree picker. On exit (q or esc) the resolved selection is
printed one id per line, or as a JSON document with --json. ctrl+c aborts
without output. When stdout is not a terminal the visible rows are printed
instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			forest, sources, err := app.loadForest(cmd, args)
			if err != nil {
				return err
			}
			ownership := selection.Uncontrolled
			if opts.Controlled {
				ownership = selection.Controlled
			}
			engine, err := app.newEngine(forest, ownership)
			if err != nil {
				return err
			}

			if !isTerminal(os.Stdout) {
				debug.Log("pick: stdout is not a terminal, printing rows")
				fmt.Fprint(cmd.OutOrStdout(), ui.RenderPlain(engine, app.cfg.UI.EmptyState))
				return nil
			}

			m := ui.NewModel(engine, ui.Options{
				Title:       opts.Title,
				EmptyState:  app.cfg.UI.EmptyState,
				ShowSummary: app.cfg.UI.ShowSummary,
			})
			var watchPaths []string
			if opts.Watch {
				watchPaths = watchableSources(sources)
			}
			final, err := runTUIProgram(cmd.Context(), m, sources, watchPaths)
			if err != nil {
				return err
			}
			if final.Aborted() {
				return errAborted
			}
			return writePickResult(cmd, app, final.Engine(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the selection as a JSON document")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Also write the JSON selection document to FILE")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Reload when a source file changes")
	cmd.Flags().BoolVar(&opts.Controlled, "controlled", false, "Hold the selection outside the engine and feed it back on every change")
	cmd.Flags().StringVar(&opts.Title, "title", "", "Picker title")
	return cmd
}

func writePickResult(cmd *cobra.Command, app *App, e *selection.Engine, opts pickOptions) error {
	out := cmd.OutOrStdout()
	if opts.JSON {
		data, err := export.SelectionJSON(e)
		if err != nil {
			return err
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	} else {
		printIDs(out, e.Selected())
	}

	if opts.Out == "" {
		return nil
	}
	if app.cfg.UI.ConfirmOutput {
		ok, err := confirmWrite(opts.Out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "Skipped writing %s\n", opts.Out)
			return nil
		}
	}
	if err := export.WriteSelectionJSON(e, opts.Out); err != nil {
		return err
	}
	debug.Log("pick: wrote %s", opts.Out)
	return nil
}

// confirmWrite asks before writing the selection document. Without a
// terminal on stdin the form runs in accessible mode.
func confirmWrite(path string) (bool, error) {
	write := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Write selection to %s?", path)).
				Value(&write).
				Affirmative("Write").
				Negative("Skip"),
		),
	).WithTheme(huh.ThemeDracula())
	if !isTerminalFd(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}
	if err := form.Run(); err != nil {
		return false, err
	}
	return write, nil
}

// watchableSources returns the local file paths among sources.
func watchableSources(sources []string) []string {
	var paths []string
	for _, s := range sources {
		src, err := datasource.Parse(s)
		if err != nil || !src.IsFile() {
			continue
		}
		paths = append(paths, src.Path)
	}
	return paths
}

// startReloader watches paths and sends a ForestReloadedMsg with all
// sources reloaded after every change.
func startReloader(ctx context.Context, p *tea.Program, sources, paths []string) (stop func(), err error) {
	group, err := watcher.NewGroup(paths, func(path string) {
		forest, err := loader.LoadAll(ctx, sources)
		p.Send(ui.ForestReloadedMsg{Forest: forest, Source: path, Err: err})
	})
	if err != nil {
		return nil, err
	}
	if err := group.Start(); err != nil {
		return nil, err
	}
	debug.Log("pick: watching %d files", group.Len())
	return group.Stop, nil
}

func runTUIProgram(ctx context.Context, m ui.Model, sources, watchPaths []string) (ui.Model, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	if len(watchPaths) > 0 {
		stop, err := startReloader(ctx, p, sources, watchPaths)
		if err != nil {
			return m, err
		}
		defer stop()
	}

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set TREEPICK_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TREEPICK_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
			return m, errAborted
		}
		return m, err
	}
	fm, ok := final.(ui.Model)
	if !ok {
		return m, fmt.Errorf("unexpected model type %T", final)
	}
	return fm, nil
}
