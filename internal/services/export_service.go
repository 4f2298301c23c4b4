package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"myduid/internal/core"
	"myduid/internal/export"
	"myduid/internal/log"
)

const MsgNoExportSection = "Select transactions, goals or both"

// ExportService gathers the data behind a download or a spreadsheet mirror.
type ExportService struct {
	deps Deps
}

func NewExportService(deps Deps) *ExportService {
	return &ExportService{deps: deps.withDefaults(log.ComponentExport)}
}

// Snapshot collects the caller's requested sections. The range filters
// transactions only; goals are always exported whole.
func (s *ExportService) Snapshot(ctx context.Context, caller core.Caller, opts export.Options) (export.Snapshot, error) {
	if err := requireCaller(caller); err != nil {
		return export.Snapshot{}, err
	}
	now := s.deps.clock()
	snap := export.Snapshot{
		UserID:      caller.UserID,
		GeneratedAt: now,
		Range:       opts.Range.String(),
	}

	g, gctx := errgroup.WithContext(ctx)
	if opts.IncludeTransactions {
		g.Go(func() error {
			txs, err := s.deps.Store.ListTransactions(gctx, caller.UserID, core.ListOptions{Range: opts.Range.Bounds(now)})
			snap.Transactions = txs
			return err
		})
	}
	if opts.IncludeGoals {
		g.Go(func() error {
			goals, err := s.deps.Store.ListGoals(gctx, caller.UserID)
			snap.Goals = goals
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return export.Snapshot{}, s.deps.fail(ctx, "fetch data for export", err)
	}
	return snap, nil
}

// Export renders the caller's snapshot into files.
func (s *ExportService) Export(ctx context.Context, caller core.Caller, opts export.Options) ([]export.File, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if !opts.IncludeTransactions && !opts.IncludeGoals {
		ve := core.NewValidationError()
		ve.Add("sections", MsgNoExportSection)
		return nil, ve
	}
	snap, err := s.Snapshot(ctx, caller, opts)
	if err != nil {
		return nil, err
	}
	files, err := export.Render(snap, opts)
	if err != nil {
		return nil, err
	}
	s.deps.Logger.InfoContext(ctx, "Export rendered",
		log.FieldUserID, caller.UserID,
		"format", string(opts.Format),
		"range", opts.Range.String(),
		"files", len(files))
	return files, nil
}
