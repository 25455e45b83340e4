package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(FileEnv, "")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "matches.json", cfg.Matches)
	assert.Equal(t, "snapshots.db", filepath.Base(cfg.DB))
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "clanmetrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nmatches: export.json.zst\ndb: file.db\n"), 0o644))

	t.Setenv(FileEnv, path)
	t.Setenv(EnvPrefix+"DB", "env.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "export.json.zst", cfg.Matches)
	assert.Equal(t, "env.db", cfg.DB, "environment beats the file")
	assert.Equal(t, "registry.json", cfg.Registry)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(FileEnv, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CLANMETRICS_ROLES=roles.json\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv(EnvPrefix + "ROLES") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "roles.json", cfg.Roles)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(FileEnv, "/does/not/exist.yaml")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.Validate())

	cfg.LogLevel = "chatty"
	assert.Error(t, cfg.Validate())

	cfg = New()
	cfg.DB = ""
	assert.Error(t, cfg.Validate())
}
