package loader

import (
	"context"

	"eventReplay/internal/batch"
	"eventReplay/internal/canonical"
	"eventReplay/internal/model"
	"eventReplay/internal/storage"
)

// runRawEvents stores the audit copy of every canonical observer request.
// No payload decoding: the record is persisted as received.
func (l *Loader) runRawEvents(ctx context.Context, tx storage.BulkTx, reader *canonical.PreorgReader, tracker *progressTracker) error {
	rows := batch.New(l.cfg.BatchSize, tx.InsertRawEvents)

	for {
		rec, ok, err := reader.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		row := model.RawEventRow{
			EventPath:     rec.Path,
			Payload:       string(rec.Payload),
			SourceOrdinal: rec.ReadLineCount,
		}
		if err := rows.Push(ctx, row); err != nil {
			return err
		}
		tracker.observe(rec.ReadLineCount, 1)
	}

	return rows.Flush(ctx)
}
