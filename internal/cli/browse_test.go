package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alexanderramin/planningtree/internal/domain"
	"github.com/alexanderramin/planningtree/internal/service"
	"github.com/alexanderramin/planningtree/internal/teatest"
	"github.com/alexanderramin/planningtree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func browseDriver(t *testing.T, recs domain.Records, planID string) (*teatest.Driver, service.PlanStore, *testutil.MemoryStorage) {
	t.Helper()
	app, storage := testApp(t, recs)
	d := teatest.New(t, newBrowseModel(context.Background(), app.Store, planID), teatest.WithSize(100, 40))
	return d, app.Store, storage
}

func browseState(t *testing.T, d *teatest.Driver) browseModel {
	t.Helper()
	m, ok := d.Model().(browseModel)
	require.True(t, ok)
	return m
}

func currentTitle(t *testing.T, d *teatest.Driver) string {
	t.Helper()
	row, ok := browseState(t, d).current()
	require.True(t, ok)
	return row.node.Title
}

func TestBrowse_PlanListOpensTree(t *testing.T) {
	d, _, _ := browseDriver(t, testutil.TripRecords(), "")

	d.Contains("PLANS", "Trip", "4 nodes")

	d.Press("enter")
	d.Contains("├─ Flights", "Outbound", "★ Hotel")
	assert.Equal(t, "Trip", currentTitle(t, d))

	d.Press("esc")
	d.Contains("PLANS")
	d.NotContains("Outbound")

	d.Press("esc")
	assert.True(t, d.Quitting())
}

func TestBrowse_EmptyList(t *testing.T) {
	d, _, _ := browseDriver(t, domain.Records{}, "")

	d.Contains("No plans yet")
	d.Press("enter", "d")
	assert.False(t, d.Quitting())
	d.Press("q")
	assert.True(t, d.Quitting())
}

func TestBrowse_CreatePlanFromList(t *testing.T) {
	d, store, _ := browseDriver(t, domain.Records{}, "")

	d.Press("a")
	d.Type("Garden")
	d.Press("enter")

	d.Contains("Created plan Garden", "Garden")
	plans := store.ListPlans(context.Background())
	require.Len(t, plans, 1)
	assert.Equal(t, "Garden", plans[0].Name)
}

func TestBrowse_NavigationAndBreadcrumb(t *testing.T) {
	recs := testutil.TripRecords()
	d, _, _ := browseDriver(t, recs, recs.Plans[0].ID)

	d.Press("down", "down")
	assert.Equal(t, "Outbound", currentTitle(t, d))
	assert.True(t, strings.HasPrefix(d.View(), "Trip › Flights › Outbound"))

	d.Press("left")
	assert.Equal(t, "Flights", currentTitle(t, d), "left on a leaf moves to the parent")

	d.Press("down", "down", "down")
	assert.Equal(t, "Hotel", currentTitle(t, d), "cursor stops at the last row")
	d.Press("k", "k", "k", "k")
	assert.Equal(t, "Trip", currentTitle(t, d), "cursor stops at the first row")
}

func TestBrowse_CollapseAndExpand(t *testing.T) {
	recs := testutil.TripRecords()
	d, _, _ := browseDriver(t, recs, recs.Plans[0].ID)

	d.Press("down", "left")
	d.NotContains("Outbound")
	d.Contains("[ +1 ]")
	assert.Equal(t, "Flights", currentTitle(t, d))

	d.Press("right")
	d.Contains("Outbound")

	d.Press("enter")
	d.NotContains("Outbound")
	d.Press("enter")
	d.Contains("Outbound")
}

func TestBrowse_AddChild(t *testing.T) {
	recs := testutil.TripRecords()
	d, store, storage := browseDriver(t, recs, recs.Plans[0].ID)

	d.Press("down", "a")
	d.Type("Return")
	d.Press("enter")

	d.Contains("Added Return")
	assert.Equal(t, "Return", currentTitle(t, d))
	assert.Equal(t, 1, storage.Writes)

	flights := nodeByTitle(t, recs, "Flights")
	var titles []string
	seq, err := store.OrderedChildren(context.Background(), flights.ID)
	require.NoError(t, err)
	for n := range seq {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"Outbound", "Return"}, titles)
}

func TestBrowse_AddCancelled(t *testing.T) {
	recs := testutil.TripRecords()
	d, _, storage := browseDriver(t, recs, recs.Plans[0].ID)

	d.Press("a")
	d.Type("Nope")
	d.Press("esc")

	assert.Zero(t, storage.Writes)
	assert.False(t, d.Quitting(), "esc leaves the input, not the browser")
	d.NotContains("Nope")
}

func TestBrowse_Rename(t *testing.T) {
	recs := testutil.TripRecords()
	d, store, _ := browseDriver(t, recs, recs.Plans[0].ID)

	d.Press("down", "down", "down")
	require.Equal(t, "Hotel", currentTitle(t, d))

	d.Press("r")
	d.Contains("Hotel")
	d.Press("backspace", "backspace", "backspace", "backspace", "backspace")
	d.Type("Airbnb")
	d.Press("enter")

	// Airbnb sorts before Flights and the cursor follows the node.
	assert.Equal(t, "Airbnb", currentTitle(t, d))
	n, err := store.GetNode(context.Background(), nodeByTitle(t, recs, "Hotel").ID)
	require.NoError(t, err)
	assert.Equal(t, "Airbnb", n.Title)
}

func TestBrowse_RenameBlankShowsError(t *testing.T) {
	recs := testutil.TripRecords()
	d, _, storage := browseDriver(t, recs, recs.Plans[0].ID)

	d.Press("down", "r", "backspace", "backspace", "backspace", "backspace", "backspace", "backspace", "backspace", "enter")

	d.Contains("Error:")
	assert.Zero(t, storage.Writes)
	assert.Equal(t, "Flights", currentTitle(t, d))
}

func TestBrowse_ToggleHighlight(t *testing.T) {
	recs := testutil.TripRecords()
	d, store, _ := browseDriver(t, recs, recs.Plans[0].ID)

	d.Press("down", "space")
	d.Contains("Highlighted Flights", "★ Flights")

	n, err := store.GetNode(context.Background(), nodeByTitle(t, recs, "Flights").ID)
	require.NoError(t, err)
	assert.True(t, n.IsHighlighted)
}

func TestBrowse_DeleteNode(t *testing.T) {
	recs := testutil.TripRecords()
	d, store, _ := browseDriver(t, recs, recs.Plans[0].ID)

	d.Press("down", "d")
	d.Contains(`Delete "Flights"`)
	d.Press("n")
	d.Contains("Kept.", "Flights")

	d.Press("d", "y")
	d.Contains("Deleted Flights (2 nodes)")
	d.NotContains("Outbound")
	assert.Equal(t, "Trip", currentTitle(t, d), "cursor moves to the parent")
	assert.Len(t, store.NodeIDs(context.Background()), 2)
}

func TestBrowse_DeleteRootRefused(t *testing.T) {
	recs := testutil.TripRecords()
	d, _, storage := browseDriver(t, recs, recs.Plans[0].ID)

	d.Press("d")
	d.Contains("the root node goes with its plan")
	d.NotContains("(y/N)")
	assert.Zero(t, storage.Writes)
}

func TestBrowse_DeletePlanFromList(t *testing.T) {
	d, store, _ := browseDriver(t, testutil.TripRecords(), "")

	d.Press("d", "y")
	d.Contains("Deleted plan Trip", "No plans yet")
	assert.Empty(t, store.ListPlans(context.Background()))
}

func TestBrowse_WriteFailureKeepsTree(t *testing.T) {
	recs := testutil.TripRecords()
	d, _, storage := browseDriver(t, recs, recs.Plans[0].ID)
	storage.FailWrites(errors.New("disk full"))

	d.Press("down", "d", "y")
	d.Contains("Error:", "disk full", "Outbound")
	assert.Equal(t, "Flights", currentTitle(t, d))
}

func TestBrowse_ClosedPlanFallsBackToList(t *testing.T) {
	d, _, _ := browseDriver(t, testutil.TripRecords(), "missing")

	d.Contains("PLANS", "Trip")
	assert.Empty(t, browseState(t, d).planID)
}
