package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/planningtree/internal/db"
	"github.com/alexanderramin/planningtree/internal/domain"
)

// SQLiteStorage persists whole plan snapshots in SQLite.
type SQLiteStorage struct {
	db  *sql.DB
	uow db.UnitOfWork
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage creates a Storage on database. Writes run through uow.
func NewSQLiteStorage(database *sql.DB, uow db.UnitOfWork) *SQLiteStorage {
	return &SQLiteStorage{db: database, uow: uow}
}

func (s *SQLiteStorage) ReadAll(ctx context.Context) (domain.Records, error) {
	plans, err := NewSQLitePlanRepo(s.db).List(ctx)
	if err != nil {
		return domain.Records{}, err
	}
	nodes, err := NewSQLitePlanNodeRepo(s.db).List(ctx)
	if err != nil {
		return domain.Records{}, err
	}
	return domain.Records{Plans: plans, Nodes: nodes}, nil
}

// WriteAll replaces the stored state with recs in one transaction. Nodes
// must be listed parent-first so every parent row exists before its
// children reference it.
func (s *SQLiteStorage) WriteAll(ctx context.Context, recs domain.Records) error {
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		plans := NewSQLitePlanRepo(tx)
		nodes := NewSQLitePlanNodeRepo(tx)

		if err := nodes.DeleteAll(ctx); err != nil {
			return err
		}
		if err := plans.DeleteAll(ctx); err != nil {
			return err
		}
		for _, p := range recs.Plans {
			if err := plans.Create(ctx, p); err != nil {
				return err
			}
		}
		for _, n := range recs.Nodes {
			if err := nodes.Create(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing plan snapshot: %w", err)
	}
	return nil
}
