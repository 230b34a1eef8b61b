// Package app wires the board store, id generator, translator and transport
// into one container the UI drives.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/thenoetrevino/kansync/internal/board"
	"github.com/thenoetrevino/kansync/internal/client"
	"github.com/thenoetrevino/kansync/internal/database"
	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/translator"
)

// App holds the board state and the path mutations take to the host.
type App struct {
	Store      *board.Store
	Translator *translator.Translator

	// nil when running offline
	publisher client.Publisher
	logger    *slog.Logger
}

// New builds the container around seed. Without WithPublisher the app runs
// offline: mutations apply locally and nothing is sent.
func New(seed models.Board, opts ...Option) (*App, error) {
	cfg := appConfig{idStrategy: board.StrategyMonotonic}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	store, err := board.NewStore(seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed board: %w", err)
	}

	ids, err := board.NewIDGenerator(cfg.idStrategy, store.MaxCardID())
	if err != nil {
		return nil, err
	}

	var sender translator.Sender
	if cfg.publisher != nil {
		sender = cfg.publisher
	}

	return &App{
		Store:      store,
		Translator: translator.New(store, ids, sender, cfg.logger),
		publisher:  cfg.publisher,
		logger:     cfg.logger,
	}, nil
}

// Dispatch runs one UI event through the translator
func (a *App) Dispatch(ev translator.Event) (translator.Result, error) {
	return a.Translator.Dispatch(ev)
}

// Online reports whether mutations are forwarded to a host
func (a *App) Online() bool {
	return a.publisher != nil
}

// Outcomes returns the transport's outcome channel, or nil when offline
func (a *App) Outcomes() <-chan client.Outcome {
	if a.publisher == nil {
		return nil
	}
	return a.publisher.Outcomes()
}

// InFlight returns the number of requests awaiting the host
func (a *App) InFlight() int {
	if a.publisher == nil {
		return 0
	}
	return a.publisher.InFlight()
}

// Close flushes and closes the transport
func (a *App) Close() error {
	if a.publisher == nil {
		return nil
	}
	return a.publisher.Close()
}

// Board sources reported by InitialBoard
const (
	SourceDatabase = "database"
	SourceSeed     = "seed"
)

// InitialBoard returns the host's stored board when dbPath exists and holds
// at least one column, otherwise seed. Read errors fall back to seed and are
// logged.
func InitialBoard(ctx context.Context, dbPath string, seed models.Board) (models.Board, string) {
	if dbPath == "" {
		return seed, SourceSeed
	}
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		return seed, SourceSeed
	}

	db, err := database.InitDB(ctx, dbPath)
	if err != nil {
		slog.Warn("could not open host database, using seed", "path", dbPath, "error", err)
		return seed, SourceSeed
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing db", "error", err)
		}
	}()

	b, err := database.NewBoardRepo(db, nil).LoadBoard(ctx)
	if err != nil {
		slog.Warn("could not read host board, using seed", "path", dbPath, "error", err)
		return seed, SourceSeed
	}
	if len(b.Columns) == 0 {
		return seed, SourceSeed
	}
	return b, SourceDatabase
}
