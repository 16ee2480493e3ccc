package testutil

import (
	"context"
	"sync"

	"github.com/alexanderramin/planningtree/internal/domain"
)

// MemoryStorage keeps a copy of the last written snapshot in memory. Its
// read and write errors can be switched on to exercise failure paths.
type MemoryStorage struct {
	mu       sync.Mutex
	recs     domain.Records
	ReadErr  error
	WriteErr error
	Reads    int
	Writes   int
}

// NewMemoryStorage returns a storage preloaded with recs.
func NewMemoryStorage(recs domain.Records) *MemoryStorage {
	return &MemoryStorage{recs: copyRecords(recs)}
}

func (s *MemoryStorage) ReadAll(_ context.Context) (domain.Records, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads++
	if s.ReadErr != nil {
		return domain.Records{}, s.ReadErr
	}
	return copyRecords(s.recs), nil
}

func (s *MemoryStorage) WriteAll(_ context.Context, recs domain.Records) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.recs = copyRecords(recs)
	return nil
}

// FailWrites makes every following WriteAll return err. A nil err clears it.
func (s *MemoryStorage) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WriteErr = err
}

// Snapshot returns the last successfully written records.
func (s *MemoryStorage) Snapshot() domain.Records {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRecords(s.recs)
}

func copyRecords(r domain.Records) domain.Records {
	out := domain.Records{
		Plans: append([]domain.PlanRecord(nil), r.Plans...),
		Nodes: make([]domain.NodeRecord, len(r.Nodes)),
	}
	for i, n := range r.Nodes {
		if n.ParentID != nil {
			p := *n.ParentID
			n.ParentID = &p
		}
		out.Nodes[i] = n
	}
	return out
}
