// Package cmd wires the kansync command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/kansync/internal/cli"
	"github.com/thenoetrevino/kansync/internal/config"
	"github.com/thenoetrevino/kansync/internal/launcher"
)

// NewRootCmd builds the kansync command tree
func NewRootCmd() *cobra.Command {
	var (
		configPath string
		offline    bool
	)

	rootCmd := &cobra.Command{
		Use:   "kansync",
		Short: "kansync - a terminal kanban board synced to a host process",
		Long: `kansync is a terminal kanban board. Every change is applied locally
and forwarded to the kansyncd host, which stores the board in sqlite.

Run without a subcommand to open the board.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cmd.SetContext(cli.WithConfig(cmd.Context(), cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.ConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return launcher.Launch(cmd.Context(), cfg, launcher.Options{Offline: offline})
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/kansync/config.yaml)")
	rootCmd.Flags().BoolVar(&offline, "offline", false, "Do not connect to the host")

	rootCmd.AddCommand(cli.ShowCmd())
	rootCmd.AddCommand(cli.ExportCmd())
	rootCmd.AddCommand(cli.StatusCmd())

	return rootCmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := NewRootCmd().ExecuteContext(ctx)
	var exit *cli.ExitError
	if err != nil && !errors.As(err, &exit) {
		// ExitErrors were already reported by the command's formatter
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	if err == nil {
		return cli.ExitSuccess
	}
	var exit *cli.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return cli.ExitFailure
}
