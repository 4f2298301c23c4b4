// Package memory keeps mirrored snapshots in process. The worker falls back
// to it when no spreadsheet is configured, and tests use it as a fake.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"myduid/internal/export"
	"myduid/internal/sheets"
)

var _ sheets.SnapshotWriter = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	byUser map[string]export.Snapshot
	writes int
	// FailNext makes the next n writes fail, to exercise retry paths.
	failNext int
}

func New() *Store {
	return &Store{byUser: make(map[string]export.Snapshot)}
}

var ErrInjected = errors.New("injected mirror failure")

func (s *Store) WriteSnapshot(_ context.Context, snap export.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return ErrInjected
	}
	s.byUser[snap.UserID] = snap
	s.writes++
	return nil
}

// FailNext makes the next n writes return ErrInjected.
func (s *Store) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// Snapshot returns the last snapshot written for userID.
func (s *Store) Snapshot(userID string) (export.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.byUser[userID]
	return snap, ok
}

// Users lists mirrored user ids in order.
func (s *Store) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.byUser))
	for id := range s.byUser {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Writes counts successful writes.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
