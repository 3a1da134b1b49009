package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"eventReplay/internal/canonical"
	"eventReplay/internal/model"
	"eventReplay/internal/storage"
)

// Target tables per phase, used for bulk-mode toggling and the end-of-phase
// row count diagnostics.
var (
	burnBlockTables  = []string{"burnchain_rewards", "reward_slot_holders"}
	attachmentTables = []string{"zonefiles", "subdomains"}
	rawEventTables   = []string{"event_observer_requests"}
	newBlockTables   = []string{
		"blocks", "microblocks", "txs", "principal_txs",
		"stx_events", "ft_events", "nft_events", "contract_logs",
		"smart_contracts", "names", "namespaces",
	}
)

// Config controls one import run. No process-wide state: everything the
// pipeline needs is passed in here.
type Config struct {
	BatchSize int
	// PathFilter restricts the run to the phase handling one event path.
	PathFilter string
}

// Loader replays the preorg file into storage, one transaction per phase.
type Loader struct {
	cfg    Config
	store  storage.Storage
	logger *zap.Logger
}

func New(cfg Config, store storage.Storage, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Loader{cfg: cfg, store: store, logger: logger}
}

type phaseFunc func(ctx context.Context, tx storage.BulkTx, reader *canonical.PreorgReader, tracker *progressTracker) error

type phase struct {
	name   string
	path   string // preorg path filter; empty streams every record
	tables []string
	run    phaseFunc
}

// Run executes the phases in fixed order. Each phase streams its slice of
// the preorg file inside one transaction with bulk mode enabled on its
// target tables; any error rolls the whole phase back, index toggling
// included, and aborts the run.
func (l *Loader) Run(ctx context.Context, preorgPath string, ix *canonical.Index) error {
	if l.store == nil {
		return fmt.Errorf("storage is nil")
	}
	if ix == nil {
		return fmt.Errorf("canonical index is nil")
	}

	phases := []phase{
		{name: "burn_blocks", path: model.PathNewBurnBlock, tables: burnBlockTables, run: l.runBurnBlocks},
		{name: "attachments", path: model.PathAttachments, tables: attachmentTables, run: l.runAttachments},
		{name: "raw_events", path: "", tables: rawEventTables, run: l.runRawEvents},
		{name: "new_blocks", path: model.PathNewBlock, tables: newBlockTables, run: l.runNewBlocks},
	}

	for _, ph := range phases {
		if l.cfg.PathFilter != "" && ph.path != l.cfg.PathFilter {
			l.logger.Info("phase skipped by path filter", zap.String("phase", ph.name))
			continue
		}

		l.logger.Info("phase start", zap.String("phase", ph.name))
		start := time.Now()
		tracker := newProgressTracker(ph.name, ix.TotalLines, l.logger)

		err := l.store.WithTx(ctx, func(tx storage.BulkTx) error {
			if err := tx.BeginBulkPhase(ctx, ph.tables...); err != nil {
				return fmt.Errorf("begin bulk phase: %w", err)
			}

			reader, err := canonical.OpenPreorg(preorgPath, ph.path)
			if err != nil {
				return err
			}
			defer reader.Close()

			if err := ph.run(ctx, tx, reader, tracker); err != nil {
				return err
			}

			if err := tx.EndBulkPhase(ctx, ph.tables...); err != nil {
				return fmt.Errorf("end bulk phase: %w", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("%s phase: %w", ph.name, err)
		}

		l.logPhaseCounts(ctx, ph.name, ph.tables, time.Since(start))
	}

	return nil
}

func (l *Loader) logPhaseCounts(ctx context.Context, name string, tables []string, elapsed time.Duration) {
	for _, table := range tables {
		count, err := l.store.TableRowCount(ctx, table)
		if err != nil {
			l.logger.Warn("table row count", zap.String("table", table), zap.Error(err))
			continue
		}
		l.logger.Info("phase table loaded",
			zap.String("phase", name),
			zap.String("table", table),
			zap.Int64("rows", count),
			zap.Duration("elapsed", elapsed),
		)
	}
}
