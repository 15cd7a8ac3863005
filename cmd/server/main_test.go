package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateCommandCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "matchup.db")
	cfgPath := filepath.Join(dir, "config.yaml")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--config", cfgPath, "--db", dbPath, "--log-level", "off"})
	require.NoError(t, cmd.Execute())

	require.FileExists(t, dbPath)
	require.FileExists(t, cfgPath)

	// Running again is a no-op.
	cmd = newRootCmd()
	cmd.SetArgs([]string{"migrate", "--config", cfgPath, "--db", dbPath, "--log-level", "off"})
	require.NoError(t, cmd.Execute())
}
