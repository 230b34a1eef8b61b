// Package launcher starts the terminal board: logging, initial board,
// optional host connection, then the bubbletea program.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/thenoetrevino/kansync/internal/app"
	"github.com/thenoetrevino/kansync/internal/client"
	"github.com/thenoetrevino/kansync/internal/config"
	"github.com/thenoetrevino/kansync/internal/logging"
	"github.com/thenoetrevino/kansync/internal/tui"
)

// connectTimeout bounds the first dial; the client redials lazily afterwards
const connectTimeout = 2 * time.Second

// ErrNotTerminal is returned when stdout is not a terminal
var ErrNotTerminal = errors.New("kansync needs an interactive terminal (try `kansync show`)")

// Options controls how Launch runs
type Options struct {
	// Offline skips the host connection entirely
	Offline bool
}

// Launch starts the TUI application and blocks until it exits
func Launch(ctx context.Context, cfg *config.Config, opts Options) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return ErrNotTerminal
	}

	// Initialize logging to file before anything else
	logFile, err := logging.Init(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing log file: %v\n", err)
		}
	}()

	board, source := app.InitialBoard(ctx, cfg.DatabasePath, cfg.Seed)
	slog.Info("board loaded", "source", source, "columns", len(board.Columns), "cards", board.CardCount())

	appOpts := []app.Option{
		app.WithLogger(slog.Default()),
		app.WithIDStrategy(cfg.IDStrategy),
	}
	if !opts.Offline {
		if c := connect(ctx, cfg); c != nil {
			appOpts = append(appOpts, app.WithPublisher(c))
		}
	}

	application, err := app.New(board, appOpts...)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Error("error closing transport", "error", err)
		}
	}()

	p := tea.NewProgram(tui.New(application, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// connect builds the host client. A failed first dial is logged and the
// client is still returned: it redials when the next mutation is sent.
func connect(ctx context.Context, cfg *config.Config) *client.Client {
	c, err := client.NewClient(cfg.SocketPath, ClientOptions(cfg.Client))
	if err != nil {
		slog.Warn("failed to create host client", "error", err)
		slog.Info("continuing offline")
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := c.Connect(dialCtx); err != nil {
		var te *client.TransportError
		if errors.As(err, &te) {
			slog.Warn("failed to connect to host", "message", te.Message, "hint", te.Hint)
		} else {
			slog.Warn("failed to connect to host", "error", err)
		}
		slog.Info("will retry on the next change")
	}
	return c
}

// ClientOptions maps configured client settings onto transport options
func ClientOptions(cc config.ClientConfig) client.Options {
	return client.Options{
		QueueSize:    cc.QueueSize,
		AckTimeout:   cc.AckTimeout,
		WriteTimeout: cc.WriteTimeout,
		DialRetries:  cc.DialRetries,
		BaseDelay:    cc.BaseDelay,
	}
}
