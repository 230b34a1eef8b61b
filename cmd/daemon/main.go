// Command kansyncd is the host process: it owns the board database and
// applies mutations sent by kansync sessions over a Unix socket.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/kansync/internal/config"
	"github.com/thenoetrevino/kansync/internal/daemon"
	"github.com/thenoetrevino/kansync/internal/database"
	"github.com/thenoetrevino/kansync/internal/logging"
)

type daemonFlags struct {
	configPath string
	ephemeral  bool
	logStderr  bool
}

func main() {
	// Set up signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancel()

	if err := newCommand().ExecuteContext(ctx); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var flags daemonFlags

	cmd := &cobra.Command{
		Use:           "kansyncd",
		Short:         "kansync host process",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/kansync/config.yaml)")
	cmd.Flags().BoolVar(&flags.ephemeral, "ephemeral", false, "Keep the board in memory only")
	cmd.Flags().BoolVar(&flags.logStderr, "log-stderr", false, "Log to stderr instead of the log file")
	return cmd
}

func run(ctx context.Context, flags daemonFlags) error {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	closer, err := setupLogging(cfg, flags.logStderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	db, err := openDatabase(ctx, cfg, flags.ephemeral)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}()

	repo := database.NewBoardRepo(db, slog.Default())
	seeded, err := repo.SeedIfEmpty(ctx, cfg.Seed)
	if err != nil {
		return fmt.Errorf("failed to seed board: %w", err)
	}
	if seeded {
		slog.Info("seeded empty board", "columns", len(cfg.Seed.Columns))
	}

	opts := daemon.DefaultOptions()
	opts.PingInterval = cfg.Daemon.PingInterval
	opts.StaleAfter = cfg.Daemon.StaleAfter

	server, err := daemon.NewServer(cfg.SocketPath, repo, opts)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	if cfg.Daemon.StatusAddr != "" {
		go func() {
			if err := server.ServeStatus(ctx, cfg.Daemon.StatusAddr); err != nil {
				slog.Error("status endpoint stopped", "error", err)
			}
		}()
	}

	slog.Info("kansync daemon starting", "socket_path", cfg.SocketPath, "pid", os.Getpid(), "ephemeral", flags.ephemeral)

	// Start the daemon (blocks until shutdown)
	if err := server.Start(ctx); err != nil {
		return err
	}

	slog.Info("kansync daemon shutting down gracefully")
	return nil
}

func setupLogging(cfg *config.Config, toStderr bool) (io.Closer, error) {
	if !toStderr {
		return logging.Init(cfg.LogPath, cfg.LogLevel)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.Setup(os.Stderr, level)
	return io.NopCloser(nil), nil
}

func openDatabase(ctx context.Context, cfg *config.Config, ephemeral bool) (*sql.DB, error) {
	if ephemeral {
		db, err := database.OpenMemory(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open in-memory database: %w", err)
		}
		return db, nil
	}

	db, err := database.InitDB(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}
