// Package tree holds the in-memory plan forest: an arena of nodes keyed by
// id, with parent and children stored as id relationships. It performs no
// I/O; the plan store owns a Forest and commits its Records.
package tree

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/alexanderramin/planningtree/internal/domain"
	"github.com/google/uuid"
)

type node struct {
	id          string
	planID      string
	parentID    string // "" for a root
	title       string
	highlighted bool
	children    map[string]struct{}
	createdAt   time.Time
	updatedAt   time.Time
}

type plan struct {
	id        string
	name      string
	rootID    string
	createdAt time.Time
}

// Forest is the arena of all plans and nodes. It is not safe for concurrent
// use; the plan store serializes access.
type Forest struct {
	plans map[string]*plan
	nodes map[string]*node
	newID func() string
	now   func() time.Time
}

// Option configures a Forest.
type Option func(*Forest)

// WithIDGenerator overrides the id source (uuid v4 by default).
func WithIDGenerator(fn func() string) Option {
	return func(f *Forest) {
		f.newID = fn
	}
}

// WithClock overrides the time source used for created/updated stamps.
func WithClock(fn func() time.Time) Option {
	return func(f *Forest) {
		f.now = fn
	}
}

// New returns an empty Forest.
func New(opts ...Option) *Forest {
	f := &Forest{
		plans: make(map[string]*plan),
		nodes: make(map[string]*node),
		newID: func() string { return uuid.New().String() },
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Len returns the number of nodes in the arena.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// CreatePlan creates a plan together with its root node, whose title is name.
func (f *Forest) CreatePlan(name string) (domain.Plan, error) {
	if isBlank(name) {
		return domain.Plan{}, fmt.Errorf("plan name is required: %w", domain.ErrValidation)
	}
	planID, err := f.allocID(func(id string) bool { _, ok := f.plans[id]; return ok })
	if err != nil {
		return domain.Plan{}, err
	}
	rootID, err := f.allocID(f.hasNode)
	if err != nil {
		return domain.Plan{}, err
	}

	now := f.now()
	f.nodes[rootID] = &node{
		id:        rootID,
		planID:    planID,
		title:     name,
		children:  make(map[string]struct{}),
		createdAt: now,
		updatedAt: now,
	}
	p := &plan{id: planID, name: name, rootID: rootID, createdAt: now}
	f.plans[planID] = p
	return p.snapshot(), nil
}

// AddChild creates a node titled title and attaches it under parentID.
func (f *Forest) AddChild(parentID, title string) (domain.PlanNode, error) {
	if isBlank(title) {
		return domain.PlanNode{}, fmt.Errorf("node title is required: %w", domain.ErrValidation)
	}
	parent, err := f.node(parentID)
	if err != nil {
		return domain.PlanNode{}, err
	}
	id, err := f.allocID(f.hasNode)
	if err != nil {
		return domain.PlanNode{}, err
	}

	now := f.now()
	child := &node{
		id:        id,
		planID:    parent.planID,
		parentID:  parent.id,
		title:     title,
		children:  make(map[string]struct{}),
		createdAt: now,
		updatedAt: now,
	}
	f.nodes[id] = child
	parent.children[id] = struct{}{}
	return child.snapshot(), nil
}

// RenameNode sets the title of a node.
func (f *Forest) RenameNode(id, title string) (domain.PlanNode, error) {
	if isBlank(title) {
		return domain.PlanNode{}, fmt.Errorf("node title is required: %w", domain.ErrValidation)
	}
	n, err := f.node(id)
	if err != nil {
		return domain.PlanNode{}, err
	}
	n.title = title
	n.updatedAt = f.now()
	return n.snapshot(), nil
}

// ToggleHighlight flips the highlight flag of a node.
func (f *Forest) ToggleHighlight(id string) (domain.PlanNode, error) {
	n, err := f.node(id)
	if err != nil {
		return domain.PlanNode{}, err
	}
	n.highlighted = !n.highlighted
	n.updatedAt = f.now()
	return n.snapshot(), nil
}

// RemoveNode detaches a non-root node from its parent and destroys it along
// with every descendant. It returns the destroyed ids in pre-order.
func (f *Forest) RemoveNode(id string) ([]string, error) {
	n, err := f.node(id)
	if err != nil {
		return nil, err
	}
	if n.parentID == "" {
		return nil, fmt.Errorf("node %s is the root of its plan; delete the plan instead: %w", id, domain.ErrInvariant)
	}
	parent, err := f.node(n.parentID)
	if err != nil {
		return nil, fmt.Errorf("node %s has dangling parent %s: %w", id, n.parentID, domain.ErrInvariant)
	}

	removed := f.subtreeIDs(n)
	delete(parent.children, n.id)
	for _, rid := range removed {
		delete(f.nodes, rid)
	}
	return removed, nil
}

// RemovePlan removes a plan and its entire node tree.
func (f *Forest) RemovePlan(planID string) error {
	p, ok := f.plans[planID]
	if !ok {
		return fmt.Errorf("plan %s: %w", planID, domain.ErrNotFound)
	}
	if root, ok := f.nodes[p.rootID]; ok {
		for _, rid := range f.subtreeIDs(root) {
			delete(f.nodes, rid)
		}
	}
	delete(f.plans, planID)
	return nil
}

// Plan returns a snapshot of the plan with the given id.
func (f *Forest) Plan(id string) (domain.Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return domain.Plan{}, fmt.Errorf("plan %s: %w", id, domain.ErrNotFound)
	}
	return p.snapshot(), nil
}

// Node returns a snapshot of the node with the given id.
func (f *Forest) Node(id string) (domain.PlanNode, error) {
	n, err := f.node(id)
	if err != nil {
		return domain.PlanNode{}, err
	}
	return n.snapshot(), nil
}

// Plans returns all plans ordered by name, then id.
func (f *Forest) Plans() []domain.Plan {
	out := make([]domain.Plan, 0, len(f.plans))
	for _, p := range f.plans {
		out = append(out, p.snapshot())
	}
	slices.SortFunc(out, func(a, b domain.Plan) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// OrderedChildren returns the children of id in display order: ascending by
// title using byte-wise comparison, equal titles ordered by id. The sequence
// reads the forest each time it is ranged over, so it always reflects the
// current children.
func (f *Forest) OrderedChildren(id string) (iter.Seq[domain.PlanNode], error) {
	if _, err := f.node(id); err != nil {
		return nil, err
	}
	return func(yield func(domain.PlanNode) bool) {
		n, ok := f.nodes[id]
		if !ok {
			return
		}
		for _, c := range f.sortedChildren(n) {
			if !yield(c.snapshot()) {
				return
			}
		}
	}, nil
}

// Depth returns the number of parent hops from id to its plan's root.
// A parent chain longer than the arena means a cycle and is reported as
// ErrInvariant.
func (f *Forest) Depth(id string) (int, error) {
	n, err := f.node(id)
	if err != nil {
		return 0, err
	}
	depth := 0
	for n.parentID != "" {
		depth++
		if depth > len(f.nodes) {
			return 0, fmt.Errorf("cycle in parent chain of node %s: %w", id, domain.ErrInvariant)
		}
		parent, ok := f.nodes[n.parentID]
		if !ok {
			return 0, fmt.Errorf("node %s has dangling parent %s: %w", n.id, n.parentID, domain.ErrInvariant)
		}
		n = parent
	}
	return depth, nil
}

// Ancestors returns the parent chain of id, nearest parent first and the
// plan's root last. A root has no ancestors.
func (f *Forest) Ancestors(id string) ([]domain.PlanNode, error) {
	n, err := f.node(id)
	if err != nil {
		return nil, err
	}
	var chain []domain.PlanNode
	for n.parentID != "" {
		if len(chain) >= len(f.nodes) {
			return nil, fmt.Errorf("cycle in parent chain of node %s: %w", id, domain.ErrInvariant)
		}
		parent, ok := f.nodes[n.parentID]
		if !ok {
			return nil, fmt.Errorf("node %s has dangling parent %s: %w", n.id, n.parentID, domain.ErrInvariant)
		}
		chain = append(chain, parent.snapshot())
		n = parent
	}
	return chain, nil
}

// Walk visits id and its descendants in pre-order, children in display
// order. depth is relative to id. Returning false from fn stops the walk.
func (f *Forest) Walk(id string, fn func(n domain.PlanNode, depth int) bool) error {
	start, err := f.node(id)
	if err != nil {
		return err
	}
	type frame struct {
		n     *node
		depth int
	}
	stack := []frame{{n: start}}
	visited := make(map[string]bool, len(f.nodes))
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[top.n.id] {
			return fmt.Errorf("node %s reached twice during walk: %w", top.n.id, domain.ErrInvariant)
		}
		visited[top.n.id] = true
		if !fn(top.n.snapshot(), top.depth) {
			return nil
		}
		children := f.sortedChildren(top.n)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n: children[i], depth: top.depth + 1})
		}
	}
	return nil
}

// Clone returns a deep copy sharing no mutable state with f.
func (f *Forest) Clone() *Forest {
	c := &Forest{
		plans: make(map[string]*plan, len(f.plans)),
		nodes: make(map[string]*node, len(f.nodes)),
		newID: f.newID,
		now:   f.now,
	}
	for id, p := range f.plans {
		cp := *p
		c.plans[id] = &cp
	}
	for id, n := range f.nodes {
		cn := *n
		cn.children = make(map[string]struct{}, len(n.children))
		for cid := range n.children {
			cn.children[cid] = struct{}{}
		}
		c.nodes[id] = &cn
	}
	return c
}

func (f *Forest) node(id string) (*node, error) {
	n, ok := f.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	return n, nil
}

func (f *Forest) hasNode(id string) bool {
	_, ok := f.nodes[id]
	return ok
}

func (f *Forest) allocID(taken func(string) bool) (string, error) {
	id := f.newID()
	if id == "" || taken(id) {
		return "", fmt.Errorf("id generator returned unusable id %q: %w", id, domain.ErrInvariant)
	}
	return id, nil
}

// subtreeIDs returns n and all of its descendants in pre-order.
func (f *Forest) subtreeIDs(n *node) []string {
	var ids []string
	stack := []*node{n}
	seen := make(map[string]bool)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur.id] {
			continue
		}
		seen[cur.id] = true
		ids = append(ids, cur.id)
		for cid := range cur.children {
			if c, ok := f.nodes[cid]; ok {
				stack = append(stack, c)
			}
		}
	}
	return ids
}

func (f *Forest) sortedChildren(n *node) []*node {
	out := make([]*node, 0, len(n.children))
	for cid := range n.children {
		if c, ok := f.nodes[cid]; ok {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, compareNodes)
	return out
}

func compareNodes(a, b *node) int {
	if c := strings.Compare(a.title, b.title); c != 0 {
		return c
	}
	return strings.Compare(a.id, b.id)
}

func (n *node) snapshot() domain.PlanNode {
	s := domain.PlanNode{
		ID:            n.id,
		PlanID:        n.planID,
		Title:         n.title,
		IsHighlighted: n.highlighted,
		ChildCount:    len(n.children),
		CreatedAt:     n.createdAt,
		UpdatedAt:     n.updatedAt,
	}
	if n.parentID != "" {
		parentID := n.parentID
		s.ParentID = &parentID
	}
	return s
}

func (p *plan) snapshot() domain.Plan {
	return domain.Plan{
		ID:         p.id,
		Name:       p.name,
		RootNodeID: p.rootID,
		CreatedAt:  p.createdAt,
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
