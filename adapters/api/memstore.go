package api

import (
	"context"
	"sort"
	"sync"

	"pacbayes/domain/connectivity"
	"pacbayes/domain/core"
	"pacbayes/ports"
)

// MemStore is an in-memory ports.RunRepository for API deployments without a
// database.
type MemStore struct {
	mu   sync.RWMutex
	runs map[core.RunID]*connectivity.RunManifest
}

// NewMemStore creates an empty in-memory run store.
func NewMemStore() *MemStore {
	return &MemStore{runs: make(map[core.RunID]*connectivity.RunManifest)}
}

var _ ports.RunRepository = (*MemStore)(nil)

func (s *MemStore) Save(_ context.Context, manifest *connectivity.RunManifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[manifest.ID] = manifest
	return nil
}

func (s *MemStore) Get(_ context.Context, id core.RunID) (*connectivity.RunManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.runs[id]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	return m, nil
}

func (s *MemStore) List(_ context.Context, limit int) ([]*connectivity.RunManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	manifests := make([]*connectivity.RunManifest, 0, len(s.runs))
	for _, m := range s.runs {
		manifests = append(manifests, m)
	}
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[j].CreatedAt.Before(manifests[i].CreatedAt)
	})

	if limit > 0 && len(manifests) > limit {
		manifests = manifests[:limit]
	}
	return manifests, nil
}
