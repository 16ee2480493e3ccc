package tree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/planningtree/internal/domain"
)

// Records flattens the forest for storage. Plans are ordered by name; nodes
// are grouped by plan in the same order and listed parent-first.
func (f *Forest) Records() domain.Records {
	plans := f.Plans()
	recs := domain.Records{
		Plans: make([]domain.PlanRecord, 0, len(plans)),
		Nodes: make([]domain.NodeRecord, 0, len(f.nodes)),
	}
	for _, p := range plans {
		recs.Plans = append(recs.Plans, domain.PlanRecord{
			ID:         p.ID,
			Name:       p.Name,
			RootNodeID: p.RootNodeID,
			CreatedAt:  p.CreatedAt,
		})
		// Walk only fails on a missing root or a revisit, neither of which a
		// forest built through its own operations can contain.
		_ = f.Walk(p.RootNodeID, func(n domain.PlanNode, _ int) bool {
			recs.Nodes = append(recs.Nodes, domain.NodeRecord{
				ID:            n.ID,
				PlanID:        n.PlanID,
				ParentID:      n.ParentID,
				Title:         n.Title,
				IsHighlighted: n.IsHighlighted,
				CreatedAt:     n.CreatedAt,
				UpdatedAt:     n.UpdatedAt,
			})
			return true
		})
	}
	return recs
}

// FromRecords rebuilds a forest from stored records. It rejects data that
// would break any tree invariant: duplicate ids, empty names or titles,
// dangling parent or plan references, roots with parents, parentless
// non-roots, cross-plan edges, and cycles. Violations wrap ErrInvariant.
func FromRecords(recs domain.Records, opts ...Option) (*Forest, error) {
	f := New(opts...)

	for _, pr := range recs.Plans {
		if pr.ID == "" {
			return nil, corrupt("plan with empty id")
		}
		if _, dup := f.plans[pr.ID]; dup {
			return nil, corrupt("duplicate plan id %s", pr.ID)
		}
		if isBlank(pr.Name) {
			return nil, corrupt("plan %s has an empty name", pr.ID)
		}
		f.plans[pr.ID] = &plan{id: pr.ID, name: pr.Name, rootID: pr.RootNodeID, createdAt: pr.CreatedAt}
	}

	for _, nr := range recs.Nodes {
		if nr.ID == "" {
			return nil, corrupt("node with empty id")
		}
		if _, dup := f.nodes[nr.ID]; dup {
			return nil, corrupt("duplicate node id %s", nr.ID)
		}
		if isBlank(nr.Title) {
			return nil, corrupt("node %s has an empty title", nr.ID)
		}
		if _, ok := f.plans[nr.PlanID]; !ok {
			return nil, corrupt("node %s references missing plan %s", nr.ID, nr.PlanID)
		}
		n := &node{
			id:          nr.ID,
			planID:      nr.PlanID,
			title:       nr.Title,
			highlighted: nr.IsHighlighted,
			children:    make(map[string]struct{}),
			createdAt:   nr.CreatedAt,
			updatedAt:   nr.UpdatedAt,
		}
		if nr.ParentID != nil {
			if *nr.ParentID == "" {
				return nil, corrupt("node %s has an empty parent id", nr.ID)
			}
			n.parentID = *nr.ParentID
		}
		f.nodes[nr.ID] = n
	}

	for _, n := range f.nodes {
		if n.parentID == "" {
			if f.plans[n.planID].rootID != n.id {
				return nil, corrupt("node %s has no parent but is not the root of plan %s", n.id, n.planID)
			}
			continue
		}
		parent, ok := f.nodes[n.parentID]
		if !ok {
			return nil, corrupt("node %s references missing parent %s", n.id, n.parentID)
		}
		if parent.planID != n.planID {
			return nil, corrupt("node %s and its parent %s belong to different plans", n.id, parent.id)
		}
		parent.children[n.id] = struct{}{}
	}

	reached := 0
	for _, p := range f.plans {
		root, ok := f.nodes[p.rootID]
		if !ok {
			return nil, corrupt("plan %s references missing root node %s", p.id, p.rootID)
		}
		if root.parentID != "" {
			return nil, corrupt("root node %s of plan %s has a parent", root.id, p.id)
		}
		if root.planID != p.id {
			return nil, corrupt("root node %s belongs to plan %s, not %s", root.id, root.planID, p.id)
		}
		reached += len(f.subtreeIDs(root))
	}
	// Every non-root has exactly one parent and only roots lack one, so any
	// node not reachable from a root sits on a cycle.
	if reached != len(f.nodes) {
		return nil, corrupt("%d nodes are unreachable from any plan root (parent cycle)", len(f.nodes)-reached)
	}

	return f, nil
}

// SortedNodeIDs returns every node id in the forest in lexical order.
func (f *Forest) SortedNodeIDs() []string {
	ids := make([]string, 0, len(f.nodes))
	for id := range f.nodes {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, strings.Compare)
	return ids
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("corrupt plan data: "+format+": %w", append(args, domain.ErrInvariant)...)
}
