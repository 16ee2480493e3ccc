package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/planningtree/internal/db"
	"github.com/alexanderramin/planningtree/internal/domain"
)

// planNodeColumns is the canonical SELECT column list for plan_nodes.
const planNodeColumns = `id, plan_id, parent_id, title, is_highlighted, created_at, updated_at`

// SQLitePlanNodeRepo implements PlanNodeRepo on a database handle or
// transaction.
type SQLitePlanNodeRepo struct {
	db db.DBTX
}

// NewSQLitePlanNodeRepo creates a new SQLitePlanNodeRepo.
func NewSQLitePlanNodeRepo(db db.DBTX) *SQLitePlanNodeRepo {
	return &SQLitePlanNodeRepo{db: db}
}

// Create inserts one node. The parent row must already exist.
func (r *SQLitePlanNodeRepo) Create(ctx context.Context, n domain.NodeRecord) error {
	query := `INSERT INTO plan_nodes (` + planNodeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.PlanID,
		nullableString(n.ParentID),
		n.Title,
		boolToInt(n.IsHighlighted),
		formatTime(n.CreatedAt),
		formatTime(n.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting plan node %s: %w", n.ID, err)
	}
	return nil
}

func (r *SQLitePlanNodeRepo) GetByID(ctx context.Context, id string) (domain.NodeRecord, error) {
	query := `SELECT ` + planNodeColumns + ` FROM plan_nodes WHERE id = ?`
	n, err := scanNode(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NodeRecord{}, fmt.Errorf("plan node %s: %w", id, ErrNotFound)
	}
	return n, err
}

func (r *SQLitePlanNodeRepo) List(ctx context.Context) ([]domain.NodeRecord, error) {
	query := `SELECT ` + planNodeColumns + ` FROM plan_nodes ORDER BY plan_id, created_at, id`
	return r.query(ctx, "listing plan nodes", query)
}

// ListChildren returns the direct children of parentID ordered by title.
func (r *SQLitePlanNodeRepo) ListChildren(ctx context.Context, parentID string) ([]domain.NodeRecord, error) {
	query := `SELECT ` + planNodeColumns + ` FROM plan_nodes WHERE parent_id = ? ORDER BY title, id`
	return r.query(ctx, "listing child nodes", query, parentID)
}

func (r *SQLitePlanNodeRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM plan_nodes`); err != nil {
		return fmt.Errorf("deleting plan nodes: %w", err)
	}
	return nil
}

func (r *SQLitePlanNodeRepo) query(ctx context.Context, op, query string, args ...any) ([]domain.NodeRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var nodes []domain.NodeRecord
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return nodes, nil
}

func scanNode(s scanner) (domain.NodeRecord, error) {
	var (
		n           domain.NodeRecord
		parentID    sql.NullString
		highlighted int
		createdAt   string
		updatedAt   string
	)
	err := s.Scan(&n.ID, &n.PlanID, &parentID, &n.Title, &highlighted, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return n, err
		}
		return n, fmt.Errorf("scanning plan node: %w", err)
	}
	n.ParentID = stringPtr(parentID)
	n.IsHighlighted = intToBool(highlighted)
	if n.CreatedAt, err = parseTime("plan_nodes.created_at", createdAt); err != nil {
		return n, err
	}
	if n.UpdatedAt, err = parseTime("plan_nodes.updated_at", updatedAt); err != nil {
		return n, err
	}
	return n, nil
}
