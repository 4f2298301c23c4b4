// Package worker keeps the spreadsheet mirror of every ledger up to date.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"myduid/internal/amqp"
	"myduid/internal/core"
	"myduid/internal/export"
	"myduid/internal/log"
	"myduid/internal/sheets"
)

// Snapshotter builds the export snapshot of one user's ledger.
// *services.ExportService implements it.
type Snapshotter interface {
	Snapshot(ctx context.Context, caller core.Caller, opts export.Options) (export.Snapshot, error)
}

// OwnerLister enumerates users that own ledger data. *storage.Store implements it.
type OwnerLister interface {
	ListLedgerOwners(ctx context.Context) ([]string, error)
}

type MirrorConfig struct {
	// Interval between full resyncs of every ledger owner (default: 5m)
	Interval time.Duration

	// Debounce groups bursts of events for the same user (default: 2s)
	Debounce time.Duration

	// Concurrency bounds parallel snapshot writes (default: 4)
	Concurrency int
}

func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		Interval:    5 * time.Minute,
		Debounce:    2 * time.Second,
		Concurrency: 4,
	}
}

// Mirror rewrites a user's mirrored snapshot after their ledger changes.
// Events only mark users dirty; writes happen after the debounce window,
// and users whose write fails stay dirty until the next attempt.
type Mirror struct {
	snaps  Snapshotter
	owners OwnerLister
	writer sheets.SnapshotWriter
	config MirrorConfig
	logger *log.Logger

	dirtyMu sync.Mutex
	dirty   map[string]struct{}
	kick    chan struct{}

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirror(snaps Snapshotter, owners OwnerLister, writer sheets.SnapshotWriter, config MirrorConfig, logger *log.Logger) *Mirror {
	def := DefaultMirrorConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.Debounce <= 0 {
		config.Debounce = def.Debounce
	}
	if config.Concurrency <= 0 {
		config.Concurrency = def.Concurrency
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	} else {
		logger = logger.WithComponent(log.ComponentWorker)
	}
	return &Mirror{
		snaps:  snaps,
		owners: owners,
		writer: writer,
		config: config,
		logger: logger,
		dirty:  make(map[string]struct{}),
		kick:   make(chan struct{}, 1),
	}
}

// HandleEvent is the AMQP consumer callback. It never blocks on the mirror.
func (m *Mirror) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	if event == nil || event.UserID == "" {
		return errors.New("ledger event without user")
	}
	m.logger.DebugContext(ctx, "Ledger event received",
		log.FieldEventKind, event.Kind,
		log.FieldUserID, event.UserID)
	m.MarkDirty(event.UserID)
	return nil
}

// MarkDirty schedules userID for the next flush.
func (m *Mirror) MarkDirty(userIDs ...string) {
	m.dirtyMu.Lock()
	for _, id := range userIDs {
		m.dirty[id] = struct{}{}
	}
	m.dirtyMu.Unlock()

	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Pending lists users waiting for a write, sorted.
func (m *Mirror) Pending() []string {
	m.dirtyMu.Lock()
	defer m.dirtyMu.Unlock()
	out := make([]string, 0, len(m.dirty))
	for id := range m.dirty {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Mirror) takeDirty() []string {
	m.dirtyMu.Lock()
	defer m.dirtyMu.Unlock()
	out := make([]string, 0, len(m.dirty))
	for id := range m.dirty {
		out = append(out, id)
	}
	m.dirty = make(map[string]struct{})
	sort.Strings(out)
	return out
}

// SyncUser writes the complete ledger of userID to the mirror.
func (m *Mirror) SyncUser(ctx context.Context, userID string) error {
	snap, err := m.snaps.Snapshot(ctx, core.Caller{UserID: userID}, export.DefaultOptions())
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", userID, err)
	}
	if err := m.writer.WriteSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("write snapshot %s: %w", userID, err)
	}
	return nil
}

// Flush writes every dirty user and returns how many succeeded.
func (m *Mirror) Flush(ctx context.Context) (int, error) {
	users := m.takeDirty()
	if len(users) == 0 {
		return 0, nil
	}

	var (
		mu     sync.Mutex
		synced int
		errs   []error
		failed []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.Concurrency)
	for _, id := range users {
		g.Go(func() error {
			err := m.SyncUser(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				failed = append(failed, id)
				return nil
			}
			synced++
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		m.dirtyMu.Lock()
		for _, id := range failed {
			m.dirty[id] = struct{}{}
		}
		m.dirtyMu.Unlock()
		m.logger.WarnContext(ctx, "Mirror flush incomplete",
			"synced", synced,
			"failed", len(failed))
		return synced, errors.Join(errs...)
	}

	m.logger.InfoContext(ctx, "Mirror flush complete", "synced", synced)
	return synced, nil
}

// SyncAll marks every ledger owner dirty and flushes.
func (m *Mirror) SyncAll(ctx context.Context) (int, error) {
	owners, err := m.owners.ListLedgerOwners(ctx)
	if err != nil {
		return 0, fmt.Errorf("list ledger owners: %w", err)
	}
	m.MarkDirty(owners...)
	return m.Flush(ctx)
}

// Start runs an initial full resync and then the event/interval loop.
func (m *Mirror) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	go m.runLoop(ctx)

	m.logger.InfoContext(ctx, "Mirror worker started",
		"interval", m.config.Interval,
		"debounce", m.config.Debounce)
	return nil
}

// Stop waits for the loop to finish or ctx to expire.
func (m *Mirror) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		m.logger.InfoContext(ctx, "Mirror worker stopped gracefully")
	case <-ctx.Done():
		m.logger.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
	return nil
}

func (m *Mirror) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Mirror) runLoop(ctx context.Context) {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	if _, err := m.SyncAll(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Initial mirror resync failed", log.FieldError, err)
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-m.kick:
			if debounce == nil {
				debounce = time.After(m.config.Debounce)
			}
		case <-debounce:
			debounce = nil
			if _, err := m.Flush(ctx); err != nil {
				m.logger.ErrorContext(ctx, "Mirror flush failed", log.FieldError, err)
			}
		case <-ticker.C:
			if _, err := m.SyncAll(ctx); err != nil {
				m.logger.ErrorContext(ctx, "Periodic mirror resync failed", log.FieldError, err)
			}
		}
	}
}
