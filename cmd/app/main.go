package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notepad/internal"
	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/view"
	pkgconfig "github.com/starford/notepad/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(cmd.Root().String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.Root().String("root"); root != "" {
		cfg.Notepad.Root = root
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

// withApp opens the workspace for an interactive command. Cancelled prompts
// end the command quietly.
func withApp(fn func(ctx context.Context, cmd *cli.Command, app *internal.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))

		ed := &editor{out: os.Stdout}
		app, err := internal.Open(ctx,
			internal.WithConfig(cfg),
			internal.WithLogger(logger),
			internal.WithOpener(ed),
			internal.WithPrompter(newLinePrompter(os.Stdin, os.Stderr)),
			internal.WithReporter(&streamReporter{w: os.Stderr}),
		)
		if err != nil {
			return err
		}
		defer app.Close()
		ed.store = app.Store

		err = fn(ctx, cmd, app)
		if errors.Is(err, apperr.ErrCancelled) {
			return nil
		}
		return err
	}
}

func newNote(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	return app.Service.NewNote(ctx, cmd.Args().First())
}

func renameNote(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	label := cmd.Args().First()
	if label == "" {
		return cli.Exit("usage: notepad rename <label> [new-label]", 2)
	}
	return app.Service.RenameNote(ctx, label, cmd.Args().Get(1))
}

func deleteNote(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	label := cmd.Args().First()
	if label == "" {
		return cli.Exit("usage: notepad delete <label>", 2)
	}
	return app.Service.DeleteNote(ctx, label)
}

func openNote(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	label := cmd.Args().First()
	if label == "" {
		return cli.Exit("usage: notepad open <label>", 2)
	}
	return app.Service.OpenNote(ctx, label)
}

func listNotes(_ context.Context, cmd *cli.Command, app *internal.App) error {
	if cmd.Bool("orphans") {
		labels, err := app.Store.Orphans()
		if err != nil {
			return err
		}
		for _, l := range labels {
			fmt.Fprintln(os.Stdout, l)
		}
		return nil
	}
	items, err := app.Service.Tree(cmd.String("match"))
	if err != nil {
		return err
	}
	printTree(os.Stdout, items, 0)
	return nil
}

func searchNotes(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	q := strings.Join(cmd.Args().Slice(), " ")
	if q == "" {
		return cli.Exit("usage: notepad search <query>", 2)
	}
	results, err := app.Service.Search(ctx, q, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%s\t%s\n", r.Label, oneLine(r.Snippet))
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "notepad",
		Usage:   "Labelled text notes stored as files, with a persisted note list",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Root storage directory (overrides notepad.root)",
				Sources: cli.EnvVars("NOTEPAD_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live refresh events",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve note tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:      "new",
				Usage:     "Create a note and open it",
				ArgsUsage: "[label]",
				Action:    withApp(newNote),
			},
			{
				Name:      "rename",
				Usage:     "Rename a note and move its file",
				ArgsUsage: "<label> [new-label]",
				Action:    withApp(renameNote),
			},
			{
				Name:      "delete",
				Usage:     "Delete a note and its file",
				ArgsUsage: "<label>",
				Action:    withApp(deleteNote),
			},
			{
				Name:      "open",
				Usage:     "Open a note in $EDITOR, or print its path",
				ArgsUsage: "<label>",
				Action:    withApp(openNote),
			},
			{
				Name:  "list",
				Usage: "Show the note tree",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "match", Aliases: []string{"m"}, Usage: "Glob over labels"},
					&cli.BoolFlag{Name: "orphans", Usage: "List note files no note owns (adopt one with: new <label>)"},
				},
				Action: withApp(listNotes),
			},
			{
				Name:      "search",
				Usage:     "Full-text search over note text",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum results"},
				},
				Action: withApp(searchNotes),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func printTree(w *os.File, items []view.TreeItem, depth int) {
	for _, it := range items {
		line := strings.Repeat("  ", depth) + it.Label
		if it.Description != "" {
			line += "  (" + it.Description + ")"
		}
		if len(it.Tags) > 0 {
			line += "  #" + strings.Join(it.Tags, " #")
		}
		if it.State == "unresolved" {
			line += "  [missing file]"
		}
		fmt.Fprintln(w, line)
		printTree(w, it.Children, depth+1)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
