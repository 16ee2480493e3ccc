package domain

import "time"

// PlanRecord is the persisted form of a plan.
type PlanRecord struct {
	ID         string
	Name       string
	RootNodeID string
	CreatedAt  time.Time
}

// NodeRecord is the persisted form of a plan node. ParentID is nil for roots.
type NodeRecord struct {
	ID            string
	PlanID        string
	ParentID      *string
	Title         string
	IsHighlighted bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Records is the complete durable state exchanged with a storage backend.
// Records built from a forest list every parent before its children;
// records read back from storage carry no ordering guarantee.
type Records struct {
	Plans []PlanRecord
	Nodes []NodeRecord
}

// IsEmpty reports whether no plans or nodes are present.
func (r Records) IsEmpty() bool {
	return len(r.Plans) == 0 && len(r.Nodes) == 0
}
