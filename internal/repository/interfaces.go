package repository

import (
	"context"

	"github.com/alexanderramin/planningtree/internal/domain"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = domain.ErrNotFound

// Storage is the durable backing for the plan store. ReadAll returns the
// complete stored state; WriteAll replaces it atomically, leaving the
// previous state intact when it fails.
type Storage interface {
	ReadAll(ctx context.Context) (domain.Records, error)
	WriteAll(ctx context.Context, recs domain.Records) error
}

type PlanRepo interface {
	Create(ctx context.Context, p domain.PlanRecord) error
	GetByID(ctx context.Context, id string) (domain.PlanRecord, error)
	List(ctx context.Context) ([]domain.PlanRecord, error)
	DeleteAll(ctx context.Context) error
}

type PlanNodeRepo interface {
	Create(ctx context.Context, n domain.NodeRecord) error
	GetByID(ctx context.Context, id string) (domain.NodeRecord, error)
	List(ctx context.Context) ([]domain.NodeRecord, error)
	ListChildren(ctx context.Context, parentID string) ([]domain.NodeRecord, error)
	DeleteAll(ctx context.Context) error
}
