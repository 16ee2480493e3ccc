package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"CONFIG", "BACKEND", "DB", "LOG_FILE", "LOG_LEVEL", "RESET_ON_CORRUPT"} {
		t.Setenv(EnvPrefix+"_"+key, "")
	}
	return home
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyConfig, "", "")
	fs.String(KeyBackend, "sqlite", "")
	fs.String(KeyDB, "", "")
	fs.String(KeyLogFile, "", "")
	fs.String(KeyLogLevel, "info", "")
	fs.Bool(KeyResetOnCorrupt, false, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, filepath.Join(home, ".planningtree", "planningtree.db"), cfg.DBPath)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.ResetOnCorrupt)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_YAMLBackendDefaultPath(t *testing.T) {
	home := isolate(t)
	t.Setenv("PLANTREE_BACKEND", "yaml")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, BackendYAML, cfg.Backend)
	assert.Equal(t, filepath.Join(home, ".planningtree", "plans.yaml"), cfg.DBPath)
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: /from/file.db\nlog-level: debug\n"), 0o644))
	t.Setenv("PLANTREE_CONFIG", path)
	t.Setenv("PLANTREE_DB", "/from/env.db")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/env.db", cfg.DBPath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoad_FileInDataDir(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".planningtree")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "planningtree.yaml"), []byte("reset-on-corrupt: true\n"), 0o644))

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.True(t, cfg.ResetOnCorrupt)
}

func TestLoad_FlagsWin(t *testing.T) {
	isolate(t)
	t.Setenv("PLANTREE_DB", "/from/env.db")
	t.Setenv("PLANTREE_LOG_LEVEL", "error")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--db", "/from/flag.db", "--reset-on-corrupt"}))
	l := NewLoader()
	require.NoError(t, l.BindFlags(fs))

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/flag.db", cfg.DBPath)
	assert.True(t, cfg.ResetOnCorrupt)
	assert.Equal(t, slog.LevelError, cfg.LogLevel, "unset flags fall through to env")
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"PLANTREE_BACKEND": "postgres"}},
		{"unknown log level", map[string]string{"PLANTREE_LOG_LEVEL": "chatty"}},
		{"missing explicit config", map[string]string{"PLANTREE_CONFIG": "/nonexistent/planningtree.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewLoader().Load()
			assert.Error(t, err)
		})
	}
}
