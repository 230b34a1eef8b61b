package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/kansync/internal/daemon"
)

const statusTimeout = 3 * time.Second

// StatusCmd returns the status subcommand
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query the host's status endpoint",
		Long: `Query the host's HTTP status endpoint (daemon.status_addr).

Examples:
  kansync status
  kansync status --addr=127.0.0.1:7420 --json
`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}

	cmd.Flags().String("addr", "", "Status address (defaults to daemon.status_addr)")
	addOutputFlags(cmd)
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := formatterFor(cmd)

	cfg, err := ConfigFromContext(ctx)
	if err != nil {
		return formatter.Fail(ExitFailure, "INITIALIZATION_ERROR", err, "")
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Daemon.StatusAddr
	}
	if addr == "" {
		return formatter.Fail(ExitUsage, "NO_STATUS_ADDR", fmt.Errorf("status endpoint is not configured"),
			"Set daemon.status_addr in the config file or pass --addr")
	}

	snap, err := FetchMetrics(ctx, "http://"+addr)
	if err != nil {
		return formatter.Fail(ExitUnavailable, "HOST_UNAVAILABLE", err, "Is kansyncd running?")
	}

	styles := newPrintStyles(cfg.ColorScheme)
	return formatter.Success(snap, styles.OK.Render("ok"), func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s up %s\n  clients:  %d\n  requests: %d received, %d acked, %d rejected\n  stale:    %d dropped\n",
			styles.OK.Render("host"), snap.Uptime, snap.ConnectedClients,
			snap.RequestsReceived, snap.RequestsAcked, snap.RequestsRejected, snap.StaleDropped)
		return err
	})
}

// FetchMetrics reads the host's /metrics document from baseURL
func FetchMetrics(ctx context.Context, baseURL string) (daemon.MetricsSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/metrics", nil)
	if err != nil {
		return daemon.MetricsSnapshot{}, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return daemon.MetricsSnapshot{}, fmt.Errorf("failed to reach host: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return daemon.MetricsSnapshot{}, fmt.Errorf("host returned %s", resp.Status)
	}

	var snap daemon.MetricsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return daemon.MetricsSnapshot{}, fmt.Errorf("failed to decode metrics: %w", err)
	}
	return snap, nil
}
