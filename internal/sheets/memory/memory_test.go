package memory

import (
	"context"
	"errors"
	"testing"

	"myduid/internal/export"
)

func TestStore_WriteSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.WriteSnapshot(ctx, export.Snapshot{UserID: "b", Range: "ALL"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.WriteSnapshot(ctx, export.Snapshot{UserID: "a", Range: "7"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.WriteSnapshot(ctx, export.Snapshot{UserID: "a", Range: "ALL"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	snap, ok := s.Snapshot("a")
	if !ok || snap.Range != "ALL" {
		t.Fatalf("expected latest snapshot for a, got %+v", snap)
	}
	if got := s.Users(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Users() = %v", got)
	}
	if s.Writes() != 3 {
		t.Errorf("Writes() = %d, want 3", s.Writes())
	}
}

func TestStore_FailNext(t *testing.T) {
	s := New()
	s.FailNext(1)

	err := s.WriteSnapshot(context.Background(), export.Snapshot{UserID: "a"})
	if !errors.Is(err, ErrInjected) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if err := s.WriteSnapshot(context.Background(), export.Snapshot{UserID: "a"}); err != nil {
		t.Fatalf("second write should succeed: %v", err)
	}
	if s.Writes() != 1 {
		t.Errorf("Writes() = %d, want 1", s.Writes())
	}
}
