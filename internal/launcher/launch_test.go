package launcher

import (
	"testing"
	"time"

	"github.com/thenoetrevino/kansync/internal/config"
)

func TestClientOptions(t *testing.T) {
	cc := config.ClientConfig{
		QueueSize:    16,
		AckTimeout:   time.Second,
		WriteTimeout: 2 * time.Second,
		DialRetries:  4,
		BaseDelay:    50 * time.Millisecond,
	}

	opts := ClientOptions(cc)
	if opts.QueueSize != 16 || opts.DialRetries != 4 {
		t.Errorf("Expected queue 16 and retries 4, got %d and %d", opts.QueueSize, opts.DialRetries)
	}
	if opts.AckTimeout != time.Second || opts.WriteTimeout != 2*time.Second || opts.BaseDelay != 50*time.Millisecond {
		t.Errorf("Expected durations to carry over, got %+v", opts)
	}
}

func TestConnect_NoHostStillReturnsClient(t *testing.T) {
	cfg := config.Default()
	cfg.SocketPath = t.TempDir() + "/missing.sock"
	cfg.Client.DialRetries = 1

	c := connect(t.Context(), cfg)
	if c == nil {
		t.Fatal("Expected a client that redials lazily")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
