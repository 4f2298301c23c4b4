// Package sheets defines where ledger snapshots are mirrored.
package sheets

import (
	"context"

	"myduid/internal/export"
)

// SnapshotWriter replaces the mirrored copy of one user's ledger with snap.
// Implementations must be idempotent: writing the same snapshot twice
// leaves the same result.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, snap export.Snapshot) error
}
