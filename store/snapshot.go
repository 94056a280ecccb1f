package store

import (
	"log"
	"sync"

	"github.com/mnhrk15/hpb-repeat-analyzer/models"
)

// SnapshotStore holds the single current AnalysisRun. Replace swaps the
// pointer, so readers that already grabbed the previous run keep a consistent
// snapshot; runs and their records are never mutated after publication.
type SnapshotStore struct {
	mu      sync.RWMutex
	current *models.AnalysisRun
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Replace installs run as the current snapshot, superseding (not merging)
// whatever was there before.
func (s *SnapshotStore) Replace(run *models.AnalysisRun) {
	s.mu.Lock()
	prev := s.current
	s.current = run
	s.mu.Unlock()

	if prev != nil && run != nil && prev.RunID != run.RunID {
		log.Printf("Snapshot replaced: run %s superseded by run %s", prev.RunID, run.RunID)
	}
}

// ReplaceIfCurrent installs run only while the current snapshot is still the
// run identified by prevID. A false return means another upload superseded
// prevID in the meantime; the caller must not publish results computed from
// the superseded dataset.
func (s *SnapshotStore) ReplaceIfCurrent(prevID string, run *models.AnalysisRun) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.RunID != prevID {
		return false
	}
	s.current = run
	return true
}

// Current returns the current run, or nil when nothing has been ingested yet.
func (s *SnapshotStore) Current() *models.AnalysisRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
