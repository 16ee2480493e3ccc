package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/planningtree/internal/domain"
	"github.com/alexanderramin/planningtree/internal/repository"
	"github.com/alexanderramin/planningtree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanStore_SQLitePersistsAcrossLoads(t *testing.T) {
	database := testutil.NewTestDB(t)
	storage := repository.NewSQLiteStorage(database, testutil.NewTestUoW(database))
	ctx := context.Background()

	store := NewPlanStore(storage)
	require.NoError(t, store.Load(ctx))
	trip, err := store.CreatePlan(ctx, "Trip")
	require.NoError(t, err)
	flights, err := store.AddChildNode(ctx, trip.RootNodeID, "Flights")
	require.NoError(t, err)
	_, err = store.AddChildNode(ctx, flights.ID, "Outbound")
	require.NoError(t, err)
	_, err = store.ToggleHighlight(ctx, flights.ID)
	require.NoError(t, err)

	reloaded := NewPlanStore(storage)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, store.ListPlans(ctx), reloaded.ListPlans(ctx))
	assert.Equal(t, store.NodeIDs(ctx), reloaded.NodeIDs(ctx))
	got, err := reloaded.GetNode(ctx, flights.ID)
	require.NoError(t, err)
	assert.True(t, got.IsHighlighted)
	assert.Equal(t, 1, got.ChildCount)
}

func TestPlanStore_SQLiteFailedCommitKeepsDatabaseAndMemory(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	seed := NewPlanStore(repository.NewSQLiteStorage(database, testutil.NewTestUoW(database)))
	require.NoError(t, seed.Load(ctx))
	trip, err := seed.CreatePlan(ctx, "Trip")
	require.NoError(t, err)

	injected := errors.New("disk I/O error")
	// Second Exec of the next commit: after clearing nodes, fail clearing plans.
	uow := &testutil.FailOnNthExecUoW{DB: database, FailOn: 2, Err: injected}
	store := NewPlanStore(repository.NewSQLiteStorage(database, uow))
	require.NoError(t, store.Load(ctx))

	_, err = store.AddChildNode(ctx, trip.RootNodeID, "Hotel")
	require.ErrorIs(t, err, domain.ErrStorage)
	require.ErrorIs(t, err, injected)
	assert.Empty(t, childTitles(t, store, trip.RootNodeID))

	check := NewPlanStore(repository.NewSQLiteStorage(database, testutil.NewTestUoW(database)))
	require.NoError(t, check.Load(ctx))
	assert.Len(t, check.NodeIDs(ctx), 1)
	assert.Equal(t, []domain.Plan{trip}, check.ListPlans(ctx))
}
