package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thenoetrevino/kansync/internal/client"
	"github.com/thenoetrevino/kansync/internal/models"
	"github.com/thenoetrevino/kansync/internal/protocol"
	"github.com/thenoetrevino/kansync/internal/testutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestRun_EphemeralServesAndStops(t *testing.T) {
	t.Setenv("KANSYNC_SOCKET", "")
	socketPath := testutil.GetTestSocketPath(t)
	cfgPath := writeConfig(t, "socket_path: "+socketPath+"\nlog_level: warn\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, daemonFlags{configPath: cfgPath, ephemeral: true, logStderr: true})
	}()

	if !testutil.WaitFor(t, 2*time.Second, func() bool {
		_, err := os.Stat(socketPath)
		return err == nil
	}) {
		cancel()
		t.Fatal("Timeout waiting for daemon socket")
	}

	c, err := client.NewClient(socketPath, client.Options{AckTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	dialCtx, dialCancel := context.WithTimeout(context.Background(), time.Second)
	defer dialCancel()
	if err := c.Connect(dialCtx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// the default seed has a card with id 0 in column 0
	if _, err := c.Send(protocol.NewRemoveCard(0, models.Position{ColumnID: 0, Index: 0})); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	select {
	case out := <-c.Outcomes():
		if out.State != client.Acknowledged {
			t.Errorf("Expected acknowledged remove, got %s (%v)", out.State, out.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for outcome")
	}
	_ = c.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout waiting for daemon to stop")
	}

	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Error("Expected socket to be removed on shutdown")
	}
}

func TestRun_BadConfig(t *testing.T) {
	cfgPath := writeConfig(t, "socket_path: [broken")

	err := run(context.Background(), daemonFlags{configPath: cfgPath, logStderr: true})
	if err == nil {
		t.Fatal("Expected config error")
	}
}
