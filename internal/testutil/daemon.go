// Package testutil provides shared helpers for tests that need a running
// host or a stored board.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thenoetrevino/kansync/internal/daemon"
	"github.com/thenoetrevino/kansync/internal/database"
	"github.com/thenoetrevino/kansync/internal/models"
)

// GetTestSocketPath generates a unique temporary socket path for testing.
// The socket is guaranteed to not exist and will be cleaned up by test cleanup.
func GetTestSocketPath(t *testing.T) string {
	t.Helper()

	// Unix socket paths are length limited, so keep the file name short
	socketPath := filepath.Join(t.TempDir(), "k.sock")

	t.Cleanup(func() {
		if _, err := os.Stat(socketPath); err == nil {
			_ = os.Remove(socketPath)
		}
	})

	return socketPath
}

// SetupTestDaemon starts a host on a temporary socket backed by an
// in-memory database seeded with seed. Cleanup is automatic via t.Cleanup().
func SetupTestDaemon(t *testing.T, seed models.Board, opts daemon.Options) (*daemon.Server, string, *database.BoardRepo) {
	t.Helper()

	db, err := database.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	repo := database.NewBoardRepo(db, nil)
	if _, err := repo.SeedIfEmpty(context.Background(), seed); err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	socketPath := GetTestSocketPath(t)
	server, err := daemon.NewServer(socketPath, repo, opts)
	if err != nil {
		t.Fatalf("Failed to create test daemon: %v", err)
	}

	// Register cleanup FIRST, before starting server
	t.Cleanup(func() {
		if err := server.Shutdown(); err != nil {
			t.Logf("Warning: daemon shutdown error during cleanup: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Logf("Warning: database close error during cleanup: %v", err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		if err := server.Start(ctx); err != nil {
			t.Logf("Server error: %v", err)
		}
	}()

	return server, socketPath, repo
}

// SeedDatabaseFile creates a migrated database file holding seed and
// returns its path. The file is closed before returning.
func SeedDatabaseFile(t *testing.T, seed models.Board) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "board.db")
	db, err := database.InitDB(context.Background(), path)
	if err != nil {
		t.Fatalf("Failed to init database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: database close error: %v", err)
		}
	}()

	if _, err := database.NewBoardRepo(db, nil).SeedIfEmpty(context.Background(), seed); err != nil {
		t.Fatalf("Failed to seed database: %v", err)
	}
	return path
}

// WaitFor polls cond until it holds or timeout expires
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
