package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/treepick/pkg/debug"
	"github.com/vanderheijden86/treepick/pkg/export"
	"github.com/vanderheijden86/treepick/pkg/selection"
	"github.com/vanderheijden86/treepick/pkg/ui"
	"github.com/vanderheijden86/treepick/pkg/version"
)

func newResolveCmd(app *App) *cobra.Command {
	var (
		toggles []string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [sources...]",
		Short: "Apply selection toggles headlessly and print the result",
		Long: `Starts from --select, applies each --toggle in order with the configured
selection rules and prints the resolved selection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			forest, _, err := app.loadForest(cmd, args)
			if err != nil {
				return err
			}
			engine, err := app.newEngine(forest, selection.Uncontrolled)
			if err != nil {
				return err
			}
			for _, id := range toggles {
				if !engine.Index().Has(id) {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: unknown id %q ignored\n", id)
					continue
				}
				if _, changed := engine.ToggleSelection(id); !changed {
					debug.Log("resolve: toggle %s had no effect", id)
				}
			}
			if asJSON {
				data, err := export.SelectionJSON(engine)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			printIDs(cmd.OutOrStdout(), engine.Selected())
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&toggles, "toggle", nil, "Node id to toggle (repeatable, applied in order)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the selection as a JSON document")
	return cmd
}

func newRowsCmd(app *App) *cobra.Command {
	depth := -1

	cmd := &cobra.Command{
		Use:   "rows [sources...]",
		Short: "Print the visible rows as an ASCII tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			forest, _, err := app.loadForest(cmd, args)
			if err != nil {
				return err
			}
			engine, err := app.newEngine(forest, selection.Uncontrolled)
			if err != nil {
				return err
			}
			if depth >= 0 {
				engine.ExpandToDepth(depth)
				// Selected nodes stay visible
				for _, id := range engine.Selected() {
					engine.Reveal(id)
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderPlain(engine, app.cfg.UI.EmptyState))
			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", -1, "Expand exactly the branches shallower than N (overrides --expand-all)")
	return cmd
}

// Export formats.
const (
	formatMarkdown = "md"
	formatJSON     = "json"
	formatSVG      = "svg"
	formatPNG      = "png"
	formatSQLite   = "sqlite"
)

func newExportCmd(app *App) *cobra.Command {
	var (
		format string
		output string
		title  string
	)

	cmd := &cobra.Command{
		Use:   "export [sources...]",
		Short: "Export the tree and selection as markdown, JSON, SVG, PNG or SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			forest, _, err := app.loadForest(cmd, args)
			if err != nil {
				return err
			}
			engine, err := app.newEngine(forest, selection.Uncontrolled)
			if err != nil {
				return err
			}
			return runExport(cmd.OutOrStdout(), engine, strings.ToLower(format), output, title)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatMarkdown, "Output format (md|json|svg|png|sqlite)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (required for png and sqlite; default stdout)")
	cmd.Flags().StringVar(&title, "title", "", "Document title")
	return cmd
}

func runExport(stdout io.Writer, e *selection.Engine, format, output, title string) error {
	switch format {
	case formatPNG, formatSQLite:
		if output == "" {
			return fmt.Errorf("--output is required for %s", format)
		}
	case formatMarkdown, formatJSON, formatSVG:
	default:
		return fmt.Errorf("unknown format %q (want md, json, svg, png or sqlite)", format)
	}

	switch format {
	case formatPNG, formatSVG:
		if output != "" {
			return export.SaveSnapshot(export.SnapshotOptions{
				Path:   output,
				Format: format,
				Title:  title,
				Engine: e,
			})
		}
		return export.WriteSVG(stdout, e, title)
	case formatSQLite:
		return export.SaveSQLite(e, output)
	case formatJSON:
		if output != "" {
			return export.WriteSelectionJSON(e, output)
		}
		data, err := export.SelectionJSON(e)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	default:
		doc := export.SelectionSummary(e, title) + "\n" + export.Markdown(e, "")
		if output == "" {
			_, err := io.WriteString(stdout, doc)
			return err
		}
		if err := os.WriteFile(output, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
		return nil
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "treepick %s\n", version.Version)
			return nil
		},
	}
}
