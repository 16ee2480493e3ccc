package db

import (
	"database/sql"
	"fmt"
)

// Migrate applies the schema. Every statement is idempotent, so it runs on
// each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// plans.root_node_id is not a foreign key: plan and root rows reference each
// other, and the plan row is written first. Root integrity is checked when
// the forest is rebuilt on load.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS plans (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL CHECK(name != ''),
		root_node_id TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS plan_nodes (
		id             TEXT PRIMARY KEY,
		plan_id        TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		parent_id      TEXT REFERENCES plan_nodes(id) ON DELETE CASCADE,
		title          TEXT NOT NULL CHECK(title != ''),
		is_highlighted INTEGER NOT NULL DEFAULT 0 CHECK(is_highlighted IN (0, 1)),
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_plan_nodes_plan ON plan_nodes(plan_id)`,
	`CREATE INDEX IF NOT EXISTS idx_plan_nodes_parent ON plan_nodes(parent_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_root ON plans(root_node_id)`,
}
