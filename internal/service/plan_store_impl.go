package service

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/alexanderramin/planningtree/internal/domain"
	"github.com/alexanderramin/planningtree/internal/outline"
	"github.com/alexanderramin/planningtree/internal/repository"
	"github.com/alexanderramin/planningtree/internal/tree"
)

type planStore struct {
	storage  repository.Storage
	observer UseCaseObserver
	treeOpts []tree.Option
	reset    bool

	mu      sync.Mutex
	state   LoadState
	loadErr error
	forest  *tree.Forest
}

// Option configures a PlanStore.
type Option func(*planStore)

// WithObserver reports every load, mutation, import and export to the first
// non-nil observer.
func WithObserver(observers ...UseCaseObserver) Option {
	return func(s *planStore) {
		s.observer = useCaseObserverOrNoop(observers)
	}
}

// WithResetOnFailedLoad makes a failed Load leave the store Ready and empty,
// so the next commit overwrites the unreadable data. Load still returns the
// error.
func WithResetOnFailedLoad() Option {
	return func(s *planStore) {
		s.reset = true
	}
}

// WithTreeOptions passes id and clock overrides to every forest the store
// builds.
func WithTreeOptions(opts ...tree.Option) Option {
	return func(s *planStore) {
		s.treeOpts = append(s.treeOpts, opts...)
	}
}

// NewPlanStore returns an unloaded store backed by storage. Call Load before
// mutating it.
func NewPlanStore(storage repository.Storage, opts ...Option) PlanStore {
	s := &planStore{
		storage:  storage,
		observer: NoopUseCaseObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.forest = tree.New(s.treeOpts...)
	return s
}

func (s *planStore) Load(ctx context.Context) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() { s.observe(ctx, "load", startedAt, fields, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		return fmt.Errorf("plan store already loaded (state %s): %w", s.state, domain.ErrInvariant)
	}
	s.state = StateLoading

	var forest *tree.Forest
	recs, err := s.storage.ReadAll(ctx)
	if err == nil {
		forest, err = tree.FromRecords(recs, s.treeOpts...)
	}
	if err != nil {
		err = fmt.Errorf("loading plans: %w: %w", domain.ErrStorage, err)
		s.loadErr = err
		s.forest = tree.New(s.treeOpts...)
		s.state = StateFailed
		if s.reset {
			s.state = StateReady
			fields["reset"] = true
		}
		return err
	}

	s.forest = forest
	s.state = StateReady
	fields["plans"] = len(recs.Plans)
	fields["nodes"] = forest.Len()
	return nil
}

func (s *planStore) State() LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *planStore) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

func (s *planStore) ListPlans(_ context.Context) []domain.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest.Plans()
}

func (s *planStore) GetPlan(_ context.Context, id string) (domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest.Plan(id)
}

func (s *planStore) GetNode(_ context.Context, id string) (domain.PlanNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest.Node(id)
}

func (s *planStore) NodeIDs(_ context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest.SortedNodeIDs()
}

func (s *planStore) CreatePlan(ctx context.Context, name string) (p domain.Plan, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"name": name}
	defer func() { s.observe(ctx, "create-plan", startedAt, fields, err) }()

	err = s.commit(ctx, func(f *tree.Forest) error {
		p, err = f.CreatePlan(name)
		return err
	})
	if err != nil {
		return domain.Plan{}, err
	}
	fields["plan_id"] = p.ID
	return p, nil
}

func (s *planStore) DeletePlan(ctx context.Context, planID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"plan_id": planID}
	defer func() { s.observe(ctx, "delete-plan", startedAt, fields, err) }()

	return s.commit(ctx, func(f *tree.Forest) error {
		return f.RemovePlan(planID)
	})
}

func (s *planStore) AddChildNode(ctx context.Context, parentID, title string) (n domain.PlanNode, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"parent_id": parentID}
	defer func() { s.observe(ctx, "add-node", startedAt, fields, err) }()

	err = s.commit(ctx, func(f *tree.Forest) error {
		n, err = f.AddChild(parentID, title)
		return err
	})
	if err != nil {
		return domain.PlanNode{}, err
	}
	fields["node_id"] = n.ID
	return n, nil
}

func (s *planStore) RenameNode(ctx context.Context, id, title string) (n domain.PlanNode, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": id}
	defer func() { s.observe(ctx, "rename-node", startedAt, fields, err) }()

	err = s.commit(ctx, func(f *tree.Forest) error {
		n, err = f.RenameNode(id, title)
		return err
	})
	if err != nil {
		return domain.PlanNode{}, err
	}
	return n, nil
}

func (s *planStore) ToggleHighlight(ctx context.Context, id string) (n domain.PlanNode, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": id}
	defer func() { s.observe(ctx, "toggle-highlight", startedAt, fields, err) }()

	err = s.commit(ctx, func(f *tree.Forest) error {
		n, err = f.ToggleHighlight(id)
		return err
	})
	if err != nil {
		return domain.PlanNode{}, err
	}
	fields["highlighted"] = n.IsHighlighted
	return n, nil
}

// DeleteNode removes id and its whole subtree and reports how many nodes
// went with it. Roots cannot be deleted this way; delete the plan instead.
func (s *planStore) DeleteNode(ctx context.Context, id string) (removed int, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"node_id": id}
	defer func() { s.observe(ctx, "delete-node", startedAt, fields, err) }()

	err = s.commit(ctx, func(f *tree.Forest) error {
		ids, err := f.RemoveNode(id)
		removed = len(ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	fields["removed"] = removed
	return removed, nil
}

// OrderedChildren returns a sequence over the children of id as they were
// when the call was made.
func (s *planStore) OrderedChildren(_ context.Context, id string) (iter.Seq[domain.PlanNode], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, err := s.forest.OrderedChildren(id)
	if err != nil {
		return nil, err
	}
	return slices.Values(slices.Collect(seq)), nil
}

func (s *planStore) Depth(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest.Depth(id)
}

func (s *planStore) Ancestors(_ context.Context, id string) ([]domain.PlanNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest.Ancestors(id)
}

// Walk visits id and its descendants in display order. fn runs after the
// store lock is released, so it may call back into the store.
func (s *planStore) Walk(_ context.Context, id string, fn func(n domain.PlanNode, depth int) bool) error {
	type visit struct {
		node  domain.PlanNode
		depth int
	}
	var visits []visit

	s.mu.Lock()
	err := s.forest.Walk(id, func(n domain.PlanNode, depth int) bool {
		visits = append(visits, visit{node: n, depth: depth})
		return true
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	for _, v := range visits {
		if !fn(v.node, v.depth) {
			return nil
		}
	}
	return nil
}

// ImportPlan creates a whole plan from an outline in a single commit.
func (s *planStore) ImportPlan(ctx context.Context, o outline.Plan) (p domain.Plan, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"name": o.Name, "node_count": o.Root.Count()}
	defer func() { s.observe(ctx, "import-plan", startedAt, fields, err) }()

	if err = outline.Validate(o); err != nil {
		return domain.Plan{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	err = s.commit(ctx, func(f *tree.Forest) error {
		p, err = f.CreatePlan(o.Name)
		if err != nil {
			return err
		}
		if o.Root.Title != o.Name {
			if _, err := f.RenameNode(p.RootNodeID, o.Root.Title); err != nil {
				return err
			}
		}
		return importChildren(f, p.RootNodeID, o.Root)
	})
	if err != nil {
		return domain.Plan{}, err
	}
	fields["plan_id"] = p.ID
	return p, nil
}

func importChildren(f *tree.Forest, nodeID string, o outline.Node) error {
	if o.Highlighted {
		if _, err := f.ToggleHighlight(nodeID); err != nil {
			return err
		}
	}
	for _, c := range o.Children {
		child, err := f.AddChild(nodeID, c.Title)
		if err != nil {
			return err
		}
		if err := importChildren(f, child.ID, c); err != nil {
			return err
		}
	}
	return nil
}

// ExportPlan returns the plan as an outline with children in display order.
func (s *planStore) ExportPlan(ctx context.Context, planID string) (o outline.Plan, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"plan_id": planID}
	defer func() { s.observe(ctx, "export-plan", startedAt, fields, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.forest.Plan(planID)
	if err != nil {
		return outline.Plan{}, err
	}
	root, err := s.forest.Node(p.RootNodeID)
	if err != nil {
		return outline.Plan{}, err
	}
	o = outline.Plan{Name: p.Name}
	if o.Root, err = exportNode(s.forest, root); err != nil {
		return outline.Plan{}, err
	}
	fields["node_count"] = o.Root.Count()
	return o, nil
}

func exportNode(f *tree.Forest, n domain.PlanNode) (outline.Node, error) {
	out := outline.Node{Title: n.Title, Highlighted: n.IsHighlighted}
	children, err := f.OrderedChildren(n.ID)
	if err != nil {
		return outline.Node{}, err
	}
	for c := range children {
		oc, err := exportNode(f, c)
		if err != nil {
			return outline.Node{}, err
		}
		out.Children = append(out.Children, oc)
	}
	return out, nil
}

// commit applies fn to a copy of the forest, writes the copy's snapshot and
// adopts it only once the write succeeds. Errors from fn are returned as is.
func (s *planStore) commit(ctx context.Context, fn func(f *tree.Forest) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return fmt.Errorf("plan store is %s: %w", s.state, domain.ErrNotReady)
	}

	next := s.forest.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.storage.WriteAll(ctx, next.Records()); err != nil {
		return fmt.Errorf("saving plans: %w: %w", domain.ErrStorage, err)
	}
	s.forest = next
	return nil
}

func (s *planStore) observe(ctx context.Context, name string, startedAt time.Time, fields map[string]any, err error) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}
