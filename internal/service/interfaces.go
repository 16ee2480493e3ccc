package service

import (
	"context"
	"iter"

	"github.com/alexanderramin/planningtree/internal/domain"
	"github.com/alexanderramin/planningtree/internal/outline"
)

// LoadState tracks the one-time load of a PlanStore.
type LoadState int

const (
	StateUninitialized LoadState = iota
	StateLoading
	StateReady
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PlanStore owns the plan forest and keeps it in step with storage. Every
// mutation is committed with a full snapshot write; when the write fails the
// in-memory forest is left exactly as it was.
type PlanStore interface {
	Load(ctx context.Context) error
	State() LoadState
	LoadErr() error

	ListPlans(ctx context.Context) []domain.Plan
	GetPlan(ctx context.Context, id string) (domain.Plan, error)
	GetNode(ctx context.Context, id string) (domain.PlanNode, error)
	NodeIDs(ctx context.Context) []string

	CreatePlan(ctx context.Context, name string) (domain.Plan, error)
	DeletePlan(ctx context.Context, planID string) error
	AddChildNode(ctx context.Context, parentID, title string) (domain.PlanNode, error)
	RenameNode(ctx context.Context, id, title string) (domain.PlanNode, error)
	ToggleHighlight(ctx context.Context, id string) (domain.PlanNode, error)
	DeleteNode(ctx context.Context, id string) (int, error)

	OrderedChildren(ctx context.Context, id string) (iter.Seq[domain.PlanNode], error)
	Depth(ctx context.Context, id string) (int, error)
	Ancestors(ctx context.Context, id string) ([]domain.PlanNode, error)
	Walk(ctx context.Context, id string, fn func(n domain.PlanNode, depth int) bool) error

	ImportPlan(ctx context.Context, p outline.Plan) (domain.Plan, error)
	ExportPlan(ctx context.Context, planID string) (outline.Plan, error)
}
