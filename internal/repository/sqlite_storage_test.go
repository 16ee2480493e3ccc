package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/planningtree/internal/domain"
	"github.com/alexanderramin/planningtree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	database := testutil.NewTestDB(t)
	return NewSQLiteStorage(database, testutil.NewTestUoW(database))
}

func TestSQLiteStorage_ReadAllEmpty(t *testing.T) {
	s := newTestStorage(t)

	recs, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.True(t, recs.IsEmpty())
}

func TestSQLiteStorage_WriteThenRead(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	want := testutil.TripRecords()

	require.NoError(t, s.WriteAll(ctx, want))

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Plans, got.Plans)
	assert.ElementsMatch(t, want.Nodes, got.Nodes)
}

func TestSQLiteStorage_WriteAllReplacesPreviousSnapshot(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.WriteAll(ctx, testutil.TripRecords()))

	p, root := testutil.NewTestPlan("Garden")
	next := domain.Records{Plans: []domain.PlanRecord{p}, Nodes: []domain.NodeRecord{root}}
	require.NoError(t, s.WriteAll(ctx, next))

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.Plans, got.Plans)
	assert.Equal(t, next.Nodes, got.Nodes)

	require.NoError(t, s.WriteAll(ctx, domain.Records{}))
	got, err = s.ReadAll(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestSQLiteStorage_FailedWriteRollsBack(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	before := testutil.TripRecords()
	require.NoError(t, NewSQLiteStorage(database, testutil.NewTestUoW(database)).WriteAll(ctx, before))

	injected := errors.New("disk full")
	// 2 deletes, 1 plan insert, then the first node insert fails.
	uow := &testutil.FailOnNthExecUoW{DB: database, FailOn: 4, Err: injected}
	s := NewSQLiteStorage(database, uow)

	p, root := testutil.NewTestPlan("Garden")
	err := s.WriteAll(ctx, domain.Records{Plans: []domain.PlanRecord{p}, Nodes: []domain.NodeRecord{root}})
	require.ErrorIs(t, err, injected)
	assert.Equal(t, 4, uow.Execs())

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Plans, got.Plans)
	assert.ElementsMatch(t, before.Nodes, got.Nodes)
}

func TestSQLiteStorage_ChildBeforeParentFails(t *testing.T) {
	s := newTestStorage(t)
	recs := testutil.TripRecords()
	recs.Nodes[0], recs.Nodes[2] = recs.Nodes[2], recs.Nodes[0]

	assert.Error(t, s.WriteAll(context.Background(), recs))

	got, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}
