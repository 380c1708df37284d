package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/vibelab/backend/internal/config"
	"github.com/vibelab/backend/internal/db"
	"github.com/vibelab/backend/internal/handlers"
	"github.com/vibelab/backend/internal/httpserver"
	"github.com/vibelab/backend/internal/logging"
)

// Run bootstraps the VibeLab backend command line.
func Run(ctx context.Context, args []string) error {
	return newCommand(os.Stdout).Run(ctx, args)
}

func newCommand(out io.Writer) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a TOML configuration file",
		Sources: cli.EnvVars("VIBELAB_CONFIG_FILE"),
	}

	return &cli.Command{
		Name:   "vibelab",
		Usage:  "Playlist sharing backend",
		Writer: out,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:      "migrate",
				Usage:     "Apply or inspect database migrations",
				ArgsUsage: "[up|status|down]",
				Action:    migrate,
			},
			{
				Name:      "seed",
				Usage:     "Load a seed file into the database",
				ArgsUsage: "<name>",
				Action:    seed,
			},
		},
	}
}

func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := httpserver.New(cfg.AppPort, handlers.NewRouter(deps), logger)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	command := "up"
	if cmd.Args().Present() {
		command = cmd.Args().First()
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	return runMigrations(ctx, pool, cmd.Root().Writer, cfg.MigrationDir, command)
}

func seed(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Args().Present() {
		return errors.New("expected seed name (e.g. dev)")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	return runSeed(ctx, pool, cmd.Root().Writer, cfg.SeedDir, cmd.Args().First())
}
