// Package filestore keeps the plan snapshot in a single YAML file guarded by
// an advisory file lock.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/planningtree/internal/domain"
)

// FormatVersion is written to every document.
const FormatVersion = 1

const (
	lockTimeout   = 3 * time.Second
	lockRetryStep = 100 * time.Millisecond
)

// ErrLocked is returned when another process holds the lock past the timeout.
var ErrLocked = errors.New("plan file is locked by another process")

type document struct {
	Version   int       `yaml:"version"`
	UpdatedAt time.Time `yaml:"updated_at"`
	Plans     []planDoc `yaml:"plans"`
	Nodes     []nodeDoc `yaml:"nodes"`
}

type planDoc struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	RootNodeID string    `yaml:"root_node_id"`
	CreatedAt  time.Time `yaml:"created_at"`
}

type nodeDoc struct {
	ID          string    `yaml:"id"`
	PlanID      string    `yaml:"plan_id"`
	ParentID    *string   `yaml:"parent_id,omitempty"`
	Title       string    `yaml:"title"`
	Highlighted bool      `yaml:"highlighted,omitempty"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// Storage reads and writes whole snapshots to a YAML file.
type Storage struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
	now  func() time.Time
}

// New creates a Storage for path. The lock lives next to it in path + ".lock".
func New(path string) *Storage {
	return &Storage{
		path: path,
		lock: flock.New(path + ".lock"),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Path returns the document location.
func (s *Storage) Path() string { return s.path }

func (s *Storage) ReadAll(ctx context.Context) (domain.Records, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return domain.Records{}, err
	}
	defer unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Records{}, nil
	}
	if err != nil {
		return domain.Records{}, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return domain.Records{}, nil
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.Records{}, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	if doc.Version > FormatVersion {
		return domain.Records{}, fmt.Errorf("%s: unsupported format version %d", s.path, doc.Version)
	}
	return doc.records(), nil
}

// WriteAll replaces the file with recs. The document is written to a
// temporary file first and renamed into place, so a failed write leaves the
// previous snapshot intact.
func (s *Storage) WriteAll(ctx context.Context, recs domain.Records) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", s.path, err)
	}

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := yaml.Marshal(newDocument(recs, s.now()))
	if err != nil {
		return fmt.Errorf("encoding plans: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

func (s *Storage) acquire(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(ctx, lockRetryStep)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", s.path, ErrLocked)
		}
		return nil, fmt.Errorf("locking %s: %w", s.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", s.path, ErrLocked)
	}
	return func() { _ = s.lock.Unlock() }, nil
}

func newDocument(recs domain.Records, now time.Time) document {
	doc := document{
		Version:   FormatVersion,
		UpdatedAt: now,
		Plans:     make([]planDoc, 0, len(recs.Plans)),
		Nodes:     make([]nodeDoc, 0, len(recs.Nodes)),
	}
	for _, p := range recs.Plans {
		doc.Plans = append(doc.Plans, planDoc(p))
	}
	for _, n := range recs.Nodes {
		doc.Nodes = append(doc.Nodes, nodeDoc{
			ID:          n.ID,
			PlanID:      n.PlanID,
			ParentID:    n.ParentID,
			Title:       n.Title,
			Highlighted: n.IsHighlighted,
			CreatedAt:   n.CreatedAt,
			UpdatedAt:   n.UpdatedAt,
		})
	}
	return doc
}

func (d document) records() domain.Records {
	var recs domain.Records
	for _, p := range d.Plans {
		p.CreatedAt = p.CreatedAt.UTC()
		recs.Plans = append(recs.Plans, domain.PlanRecord(p))
	}
	for _, n := range d.Nodes {
		recs.Nodes = append(recs.Nodes, domain.NodeRecord{
			ID:            n.ID,
			PlanID:        n.PlanID,
			ParentID:      n.ParentID,
			Title:         n.Title,
			IsHighlighted: n.Highlighted,
			CreatedAt:     n.CreatedAt.UTC(),
			UpdatedAt:     n.UpdatedAt.UTC(),
		})
	}
	return recs
}
