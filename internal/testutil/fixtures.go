package testutil

import (
	"time"

	"github.com/alexanderramin/planningtree/internal/domain"
	"github.com/google/uuid"
)

// FixedTime is the timestamp used by record fixtures.
var FixedTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// NodeOption customizes a node record fixture.
type NodeOption func(*domain.NodeRecord)

func WithHighlight() NodeOption {
	return func(n *domain.NodeRecord) {
		n.IsHighlighted = true
	}
}

func WithNodeID(id string) NodeOption {
	return func(n *domain.NodeRecord) {
		n.ID = id
	}
}

// NewTestPlan returns a plan record together with its root node record.
func NewTestPlan(name string) (domain.PlanRecord, domain.NodeRecord) {
	root := domain.NodeRecord{
		ID:        uuid.New().String(),
		Title:     name,
		CreatedAt: FixedTime,
		UpdatedAt: FixedTime,
	}
	p := domain.PlanRecord{
		ID:         uuid.New().String(),
		Name:       name,
		RootNodeID: root.ID,
		CreatedAt:  FixedTime,
	}
	root.PlanID = p.ID
	return p, root
}

// NewTestNode returns a node record attached to parent.
func NewTestNode(parent domain.NodeRecord, title string, opts ...NodeOption) domain.NodeRecord {
	parentID := parent.ID
	n := domain.NodeRecord{
		ID:        uuid.New().String(),
		PlanID:    parent.PlanID,
		ParentID:  &parentID,
		Title:     title,
		CreatedAt: FixedTime,
		UpdatedAt: FixedTime,
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// TripRecords builds the sample "Trip" plan: Trip > {Flights > Outbound, Hotel}
// with Hotel highlighted. Nodes are listed parent-first.
func TripRecords() domain.Records {
	p, root := NewTestPlan("Trip")
	flights := NewTestNode(root, "Flights")
	outbound := NewTestNode(flights, "Outbound")
	hotel := NewTestNode(root, "Hotel", WithHighlight())
	return domain.Records{
		Plans: []domain.PlanRecord{p},
		Nodes: []domain.NodeRecord{root, flights, outbound, hotel},
	}
}
