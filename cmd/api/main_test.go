package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/trials-api/internal/config"
	"github.com/jwalitptl/trials-api/internal/repository/postgres"
)

func TestMigrateReset_RequiresForce(t *testing.T) {
	loaded := false
	cmd := migrateCmd(func() (*config.Config, error) {
		loaded = true
		return nil, assert.AnError
	})
	cmd.SetArgs([]string{"reset"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.ErrorIs(t, err, errResetNeedsForce)
	assert.False(t, loaded, "reset must not touch the database without --force")
}

func TestMigrateReset_ForceLoadsConfig(t *testing.T) {
	cmd := migrateCmd(func() (*config.Config, error) { return nil, assert.AnError })
	cmd.SetArgs([]string{"reset", "--force"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.ErrorIs(t, cmd.Execute(), assert.AnError)
}

func TestPrintStatus(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printStatus(&buf, []postgres.MigrationStatus{
		{Version: 1, Name: "init", Applied: true, AppliedAt: &at},
		{Version: 2, Name: "indexes"},
	})

	out := buf.String()
	assert.Contains(t, out, "VERSION")
	assert.Regexp(t, `1\s+init\s+applied\s+2024-05-01 12:00:00`, out)
	assert.Regexp(t, `2\s+indexes\s+pending`, out)
}

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestLoader_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DB_NAME=trials_from_dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DB_NAME") })

	configPath := ""
	cfg, err := newLoader(&configPath, &envFile)()
	require.NoError(t, err)
	assert.Equal(t, "trials_from_dotenv", cfg.Database.Name)
}

func TestLoader_MissingEnvFileIsIgnored(t *testing.T) {
	configPath := ""
	envFile := filepath.Join(t.TempDir(), "absent.env")

	cfg, err := newLoader(&configPath, &envFile)()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}
