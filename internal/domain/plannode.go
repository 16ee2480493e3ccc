package domain

import "time"

// PlanNode is a read-only snapshot of one node in a plan tree. Mutations go
// through the plan store; changing a snapshot has no effect on stored state.
type PlanNode struct {
	ID            string
	PlanID        string
	ParentID      *string // nil only for a plan's root node
	Title         string
	IsHighlighted bool
	ChildCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsRoot reports whether the node is the root of its plan.
func (n PlanNode) IsRoot() bool {
	return n.ParentID == nil
}

// DisplayID returns the first 8 characters of the node ID.
func (n PlanNode) DisplayID() string {
	return shortID(n.ID)
}
