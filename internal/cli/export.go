package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/kansync/internal/config"
	"github.com/thenoetrevino/kansync/internal/snapshot"
)

// newSnapshotAPI builds the S3 client; tests swap it for a fake
var newSnapshotAPI = func(ctx context.Context, cfg config.S3Config) (snapshot.PutObjectAPI, error) {
	return snapshot.NewS3Client(ctx, cfg)
}

// exportResult is the JSON payload of a successful export
type exportResult struct {
	Location string `json:"location"`
	Bytes    int    `json:"bytes"`
	Columns  int    `json:"columns"`
	Cards    int    `json:"cards"`
}

// ExportCmd returns the export subcommand
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Upload the stored board to S3-compatible storage",
		Long: `Upload the host's stored board as a JSON document.

Flags override the snapshot.s3 section of the config file.

Examples:
  # Export using configured bucket
  kansync export

  # Export to a local MinIO
  kansync export --bucket=boards --endpoint=http://localhost:9000 --path-style
`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().String("bucket", "", "Bucket name")
	cmd.Flags().String("key", "", "Object key")
	cmd.Flags().String("endpoint", "", "Custom endpoint URL (MinIO, localstack)")
	cmd.Flags().Bool("path-style", false, "Use path-style addressing")
	addOutputFlags(cmd)
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := formatterFor(cmd)

	cfg, err := ConfigFromContext(ctx)
	if err != nil {
		return formatter.Fail(ExitFailure, "INITIALIZATION_ERROR", err, "")
	}

	s3cfg := cfg.Snapshot.S3
	if v, _ := cmd.Flags().GetString("bucket"); v != "" {
		s3cfg.Bucket = v
	}
	if v, _ := cmd.Flags().GetString("key"); v != "" {
		s3cfg.Key = v
	}
	if v, _ := cmd.Flags().GetString("endpoint"); v != "" {
		s3cfg.Endpoint = v
	}
	if cmd.Flags().Changed("path-style") {
		s3cfg.UsePathStyle, _ = cmd.Flags().GetBool("path-style")
	}

	if s3cfg.Bucket == "" {
		return formatter.Fail(ExitUsage, "NO_BUCKET", snapshot.ErrNoBucket,
			"Pass --bucket or set snapshot.s3.bucket in the config file")
	}

	board, err := LoadStoredBoard(ctx, cfg.DatabasePath)
	if errors.Is(err, ErrNoStoredBoard) {
		return formatter.Fail(ExitNotFound, "NO_BOARD", err, "Start the host once with: kansyncd")
	}
	if err != nil {
		return formatter.Fail(ExitFailure, "DATABASE_ERROR", err, "")
	}

	api, err := newSnapshotAPI(ctx, s3cfg)
	if err != nil {
		return formatter.Fail(ExitUsage, "STORAGE_CONFIG", err, "")
	}

	exporter := snapshot.NewExporter(api, s3cfg.Bucket, s3cfg.Key)
	n, err := exporter.Export(ctx, board)
	switch {
	case errors.Is(err, snapshot.ErrBucketNotFound):
		return formatter.Fail(ExitNotFound, "BUCKET_NOT_FOUND", err, "Create the bucket first")
	case err != nil:
		return formatter.Fail(ExitUnavailable, "EXPORT_FAILED", err, "")
	}

	result := exportResult{
		Location: exporter.Location(),
		Bytes:    n,
		Columns:  len(board.Columns),
		Cards:    board.CardCount(),
	}
	return formatter.Success(result, result.Location, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Exported %d cards in %d columns to %s (%d bytes)\n",
			result.Cards, result.Columns, result.Location, result.Bytes)
		return err
	})
}
