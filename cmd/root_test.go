package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/thenoetrevino/kansync/internal/cli"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"show", "export", "status"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCmd_ConfigFlagReachesSubcommands(t *testing.T) {
	t.Setenv("KANSYNC_DB", "")
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "missing.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database_path: "+dbPath+"\n"), 0o644))

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"--config", cfgPath, "show"})

	err := root.Execute()

	require.Error(t, err)
	assert.Contains(t, errOut.String(), dbPath)
}

func TestRootCmd_BadConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("columns: [unclosed"), 0o644))

	root := NewRootCmd()
	root.SetArgs([]string{"--config", cfgPath, "show"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestExitCode(t *testing.T) {
	notFound := &cli.ExitError{Code: cli.ExitNotFound, Kind: "NO_BOARD", Err: errors.New("missing")}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, cli.ExitSuccess},
		{"plain error", errors.New("boom"), cli.ExitFailure},
		{"exit error", notFound, cli.ExitNotFound},
		{"wrapped exit error", fmt.Errorf("show: %w", notFound), cli.ExitNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRootCmd_MissingBoardExitsNotFound(t *testing.T) {
	t.Setenv("KANSYNC_DB", "")
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database_path: "+filepath.Join(dir, "none.db")+"\n"), 0o644))

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "show"})

	assert.Equal(t, cli.ExitNotFound, exitCode(root.Execute()))
}
