package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/thenoetrevino/kansync/internal/database"
	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/types"
)

// ErrNoStoredBoard is returned when the host database does not exist yet
var ErrNoStoredBoard = errors.New("no stored board")

// ShowCmd returns the show subcommand
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the board the host has stored",
		Long: `Print the board as stored by the host database.

Examples:
  # Human-readable board
  kansync show

  # JSON output for scripts
  kansync show --json

  # Card ids in one column
  kansync show --column=1 --quiet
`,
		Args: cobra.NoArgs,
		RunE: runShow,
	}

	cmd.Flags().Int("column", -1, "Only show this column id")
	addOutputFlags(cmd)
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := formatterFor(cmd)

	cfg, err := ConfigFromContext(ctx)
	if err != nil {
		return formatter.Fail(ExitFailure, "INITIALIZATION_ERROR", err, "")
	}

	board, err := LoadStoredBoard(ctx, cfg.DatabasePath)
	if errors.Is(err, ErrNoStoredBoard) {
		return formatter.Fail(ExitNotFound, "NO_BOARD", err, "Start the host once with: kansyncd")
	}
	if err != nil {
		return formatter.Fail(ExitFailure, "DATABASE_ERROR", err, "")
	}

	columnID, _ := cmd.Flags().GetInt("column")
	if columnID >= 0 {
		col, ok := board.Column(types.ColumnID(columnID))
		if !ok {
			return formatter.Fail(ExitNotFound, "COLUMN_NOT_FOUND", fmt.Errorf("column %d not found", columnID), "")
		}
		board = models.Board{Columns: []models.Column{col}}
	}

	styles := newPrintStyles(cfg.ColorScheme)
	return formatter.Success(board, quietCardIDs(board), func(w io.Writer) error {
		_, err := fmt.Fprintln(w, renderBoard(board, styles))
		return err
	})
}

// LoadStoredBoard opens the host database read path and loads its board
func LoadStoredBoard(ctx context.Context, path string) (models.Board, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return models.Board{}, fmt.Errorf("%w at %s", ErrNoStoredBoard, path)
	}

	db, err := database.InitDB(ctx, path)
	if err != nil {
		return models.Board{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Error closing database", "error", err)
		}
	}()

	return database.NewBoardRepo(db, nil).LoadBoard(ctx)
}

func quietCardIDs(b models.Board) string {
	var ids []string
	for _, col := range b.Columns {
		for _, card := range col.Cards {
			ids = append(ids, strconv.FormatInt(int64(card.ID), 10))
		}
	}
	return strings.Join(ids, "\n")
}

func renderBoard(b models.Board, s printStyles) string {
	if len(b.Columns) == 0 {
		return s.Subtle.Render("The board has no columns.")
	}

	cols := make([]string, 0, len(b.Columns))
	for _, col := range b.Columns {
		lines := []string{
			s.Title.Render(col.Title) + " " + s.Subtle.Render(fmt.Sprintf("#%d (%d)", col.ID, len(col.Cards))),
		}
		if len(col.Cards) == 0 {
			lines = append(lines, s.Subtle.Render("empty"))
		}
		for _, card := range col.Cards {
			lines = append(lines, s.Card.Render(fmt.Sprintf("%d  %s", card.ID, card.Title)))
		}
		cols = append(cols, s.Column.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}
