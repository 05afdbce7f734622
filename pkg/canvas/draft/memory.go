package draft

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
)

// MemoryStore is an in-memory draft store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string][]storedVersion // workflowID -> versions, oldest first
	active map[string]int             // workflowID -> activated version
	closed bool
}

// storedVersion holds one saved draft with metadata for ListVersions().
type storedVersion struct {
	data    []byte
	version int
	savedAt time.Time
}

// NewMemoryStore creates a new in-memory draft store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts: make(map[string][]storedVersion),
		active: make(map[string]int),
	}
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context, workflowID string) (graph.Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return graph.New(), ErrStoreClosed
	}

	versions := m.drafts[workflowID]
	if len(versions) == 0 {
		return graph.New(), ErrNotFound
	}

	g, err := graph.Unmarshal(versions[len(versions)-1].data)
	if err != nil {
		return graph.New(), fmt.Errorf("load draft: %w", err)
	}
	return g, nil
}

// SaveDraft implements Store.
func (m *MemoryStore) SaveDraft(ctx context.Context, workflowID string, g graph.Graph) error {
	data, err := graph.Marshal(g)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	versions := m.drafts[workflowID]
	m.drafts[workflowID] = append(versions, storedVersion{
		data:    data,
		version: len(versions) + 1,
		savedAt: time.Now().UTC(),
	})
	return nil
}

// Activate implements Store.
func (m *MemoryStore) Activate(ctx context.Context, workflowID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	versions := m.drafts[workflowID]
	if len(versions) == 0 {
		return ErrNotFound
	}

	if !active {
		delete(m.active, workflowID)
		return nil
	}
	m.active[workflowID] = versions[len(versions)-1].version
	return nil
}

// ListVersions implements Store.
func (m *MemoryStore) ListVersions(ctx context.Context, workflowID string) ([]VersionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	versions := m.drafts[workflowID]
	if len(versions) == 0 {
		return nil, nil
	}

	activeVersion := m.active[workflowID]
	infos := make([]VersionInfo, 0, len(versions))
	for _, v := range versions {
		infos = append(infos, VersionInfo{
			Version: v.version,
			SavedAt: v.savedAt,
			Bytes:   int64(len(v.data)),
			Active:  v.version == activeVersion,
		})
	}
	return infos, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.drafts = nil
	m.active = nil
	return nil
}

// Len returns the total number of stored versions across all workflows.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, versions := range m.drafts {
		count += len(versions)
	}
	return count
}
