package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/planningtree/internal/domain"
	"github.com/alexanderramin/planningtree/internal/testutil"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "plans.yaml"))
}

func TestReadAll_MissingFileIsEmpty(t *testing.T) {
	s := newTestStorage(t)

	recs, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.True(t, recs.IsEmpty())
}

func TestReadAll_EmptyFileIsEmpty(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, os.WriteFile(s.Path(), nil, 0o644))

	recs, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.True(t, recs.IsEmpty())
}

func TestWriteThenRead(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	want := testutil.TripRecords()

	require.NoError(t, s.WriteAll(ctx, want))

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")
}

func TestWriteAll_CreatesParentDirectory(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nested", "dir", "plans.yaml"))

	require.NoError(t, s.WriteAll(context.Background(), testutil.TripRecords()))
	_, err := os.Stat(s.Path())
	assert.NoError(t, err)
}

func TestWriteAll_DocumentShape(t *testing.T) {
	s := newTestStorage(t)
	s.now = func() time.Time { return testutil.FixedTime }
	recs := testutil.TripRecords()

	require.NoError(t, s.WriteAll(context.Background(), recs))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "version: 1")
	assert.Contains(t, text, "updated_at: 2026-03-14T09:30:00Z")
	assert.Contains(t, text, "name: Trip")
	assert.Contains(t, text, "highlighted: true")
}

func TestReadAll_MalformedYAML(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("plans: [unclosed"), 0o644))

	_, err := s.ReadAll(context.Background())
	assert.Error(t, err)
}

func TestReadAll_FutureVersionRejected(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("version: 99\nplans: []\nnodes: []\n"), 0o644))

	_, err := s.ReadAll(context.Background())
	assert.ErrorContains(t, err, "unsupported format version")
}

func TestWriteAll_EmptySnapshot(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.WriteAll(ctx, testutil.TripRecords()))

	require.NoError(t, s.WriteAll(ctx, domain.Records{}))

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestLockHeldElsewhere(t *testing.T) {
	s := newTestStorage(t)

	other := flock.New(s.Path() + ".lock")
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err = s.ReadAll(ctx)
	assert.ErrorIs(t, err, ErrLocked)
}
