package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/linkreg"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/storage"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	return cfg, nil
}

// buildService wires storage, index and link registry for the one-shot
// subcommands that run without the HTTP server.
func buildService(ctx context.Context, cfg *internal.Config) (*noteservice.Service, error) {
	store, err := storage.NewFS(cfg.Wiki.NoteDir())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	idx := index.New(store)
	if _, err := idx.RebuildFull(ctx); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	reg := linkreg.New(cfg.Wiki.LinkFile())
	return noteservice.NewService(store, idx, reg), nil
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

func newNote(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}

	id, err := svc.CreateNote(ctx, cmd.Bool("metadata"))
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func removeNote(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: ansuz rm <id>")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}

	return svc.DeleteNote(ctx, id)
}

func formatStdin(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	_, err = os.Stdout.WriteString(svc.FormatText(ctx, string(data)))
	return err
}

func regenerateLinks(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}

	return svc.RegenerateLinks(ctx)
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}

	return mcpserver.New(svc).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "ansuz",
		Usage:  "Cross-reference server for interlinked Typst notes with live indexing and status propagation",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server and file watcher (default)",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "new",
				Usage:  "Create a new note and print its id",
				Action: newNote,
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "metadata",
						Usage: "Include the metadata comment block",
					},
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete a note by id",
				ArgsUsage: "<id>",
				Action:    removeNote,
				Flags:     []cli.Flag{configFlag},
			},
			{
				Name:   "fmt",
				Usage:  "Format note text from stdin to stdout",
				Action: formatStdin,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "links",
				Usage:  "Regenerate the link registry from the notes on disk",
				Action: regenerateLinks,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the Model Context Protocol interface on stdio",
				Action: serveMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
