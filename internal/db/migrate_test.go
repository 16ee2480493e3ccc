package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestMigrate_CreatesTablesAndIndexes(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"plans", "plan_nodes"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
	for _, idx := range []string{"idx_plan_nodes_plan", "idx_plan_nodes_parent", "idx_plans_root"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpenDB_FileUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plans.db")
	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestMigrate_NodeCascadeFromPlanAndParent(t *testing.T) {
	db := openTestDB(t)
	now := "2026-01-01T00:00:00Z"

	_, err := db.Exec(`INSERT INTO plans (id, name, root_node_id, created_at) VALUES ('p1', 'Trip', 'n1', ?)`, now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO plan_nodes (id, plan_id, parent_id, title, created_at, updated_at) VALUES
		('n1', 'p1', NULL, 'Trip', ?, ?),
		('n2', 'p1', 'n1', 'Flights', ?, ?),
		('n3', 'p1', 'n2', 'Outbound', ?, ?)`, now, now, now, now, now, now)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM plan_nodes WHERE id = 'n2'`)
	require.NoError(t, err)
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM plan_nodes`).Scan(&count))
	assert.Equal(t, 1, count, "deleting a node cascades to its descendants")

	_, err = db.Exec(`DELETE FROM plans WHERE id = 'p1'`)
	require.NoError(t, err)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM plan_nodes`).Scan(&count))
	assert.Zero(t, count, "deleting a plan cascades to its nodes")
}

func TestMigrate_RejectsEmptyTitles(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO plans (id, name, root_node_id, created_at) VALUES ('p1', '', 'n1', 'x')`)
	assert.Error(t, err)
}
