package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/planningtree/internal/config"
	"github.com/alexanderramin/planningtree/internal/domain"
	"github.com/alexanderramin/planningtree/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRuntime(t *testing.T, cfg config.Config) *Runtime {
	t.Helper()
	rt, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestOpen_PersistsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	backends := []struct {
		backend config.Backend
		file    string
	}{
		{config.BackendSQLite, "plans.db"},
		{config.BackendYAML, "plans.yaml"},
	}

	for _, b := range backends {
		t.Run(string(b.backend), func(t *testing.T) {
			cfg := config.Config{Backend: b.backend, DBPath: filepath.Join(dir, b.file), LogLevel: slog.LevelInfo}
			ctx := context.Background()

			first, err := Open(ctx, cfg)
			require.NoError(t, err)
			assert.Equal(t, service.StateReady, first.Store.State())
			p, err := first.Store.CreatePlan(ctx, "Trip")
			require.NoError(t, err)
			_, err = first.Store.AddChildNode(ctx, p.RootNodeID, "Flights")
			require.NoError(t, err)
			require.NoError(t, first.Close())

			second := openRuntime(t, cfg)
			plans := second.Store.ListPlans(ctx)
			require.Len(t, plans, 1)
			assert.Equal(t, p.ID, plans[0].ID)
			assert.Len(t, second.Store.NodeIDs(ctx), 2)
		})
	}
}

func TestOpen_WritesOperationLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "plans.log")
	cfg := config.Config{
		Backend:  config.BackendYAML,
		DBPath:   filepath.Join(dir, "plans.yaml"),
		LogFile:  logPath,
		LogLevel: slog.LevelInfo,
	}

	rt := openRuntime(t, cfg)
	_, err := rt.Store.CreatePlan(context.Background(), "Trip")
	require.NoError(t, err)
	_, err = rt.Store.CreatePlan(context.Background(), " ")
	require.Error(t, err)
	require.NoError(t, rt.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	log := string(data)
	assert.Contains(t, log, "use_case=load")
	assert.Contains(t, log, "use_case=create-plan")
	assert.Contains(t, log, "level=WARN")
}

func TestOpen_CorruptDataFailsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: [oops"), 0o644))
	cfg := config.Config{Backend: config.BackendYAML, DBPath: path}

	rt := openRuntime(t, cfg)
	assert.Equal(t, service.StateFailed, rt.Store.State())
	assert.ErrorIs(t, rt.Store.LoadErr(), domain.ErrStorage)

	_, err := rt.Store.CreatePlan(context.Background(), "Trip")
	assert.ErrorIs(t, err, domain.ErrNotReady)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "version: [oops", string(data), "failed store leaves the file alone")
}

func TestOpen_ResetOnCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: [oops"), 0o644))
	cfg := config.Config{Backend: config.BackendYAML, DBPath: path, ResetOnCorrupt: true}

	rt := openRuntime(t, cfg)
	assert.Equal(t, service.StateReady, rt.Store.State())
	assert.Error(t, rt.Store.LoadErr())
	assert.Empty(t, rt.Store.ListPlans(context.Background()))

	_, err := rt.Store.CreatePlan(context.Background(), "Trip")
	require.NoError(t, err)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.Config{Backend: "csv", DBPath: "x"})
	assert.ErrorContains(t, err, "unknown backend")
}

func TestClose_Idempotent(t *testing.T) {
	cfg := config.Config{Backend: config.BackendSQLite, DBPath: filepath.Join(t.TempDir(), "p.db")}
	rt, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, rt.Close())
	require.NoError(t, rt.Close())
}
