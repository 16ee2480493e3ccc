package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/planningtree/internal/db"
	"github.com/alexanderramin/planningtree/internal/domain"
)

const planColumns = `id, name, root_node_id, created_at`

// SQLitePlanRepo implements PlanRepo on a database handle or transaction.
type SQLitePlanRepo struct {
	db db.DBTX
}

// NewSQLitePlanRepo creates a new SQLitePlanRepo.
func NewSQLitePlanRepo(db db.DBTX) *SQLitePlanRepo {
	return &SQLitePlanRepo{db: db}
}

func (r *SQLitePlanRepo) Create(ctx context.Context, p domain.PlanRecord) error {
	query := `INSERT INTO plans (` + planColumns + `) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.RootNodeID,
		formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting plan %s: %w", p.ID, err)
	}
	return nil
}

func (r *SQLitePlanRepo) GetByID(ctx context.Context, id string) (domain.PlanRecord, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = ?`
	p, err := scanPlan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlanRecord{}, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (r *SQLitePlanRepo) List(ctx context.Context) ([]domain.PlanRecord, error) {
	query := `SELECT ` + planColumns + ` FROM plans ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.PlanRecord
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	return plans, nil
}

// DeleteAll removes every plan. Node rows go with them through the cascade.
func (r *SQLitePlanRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM plans`); err != nil {
		return fmt.Errorf("deleting plans: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (domain.PlanRecord, error) {
	var (
		p         domain.PlanRecord
		createdAt string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.RootNodeID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scanning plan: %w", err)
	}
	var err error
	if p.CreatedAt, err = parseTime("plans.created_at", createdAt); err != nil {
		return p, err
	}
	return p, nil
}
