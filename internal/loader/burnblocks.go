package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"eventReplay/internal/batch"
	"eventReplay/internal/canonical"
	"eventReplay/internal/model"
	"eventReplay/internal/storage"
)

// runBurnBlocks loads burnchain rewards and reward slot holders from
// /new_burn_block records.
func (l *Loader) runBurnBlocks(ctx context.Context, tx storage.BulkTx, reader *canonical.PreorgReader, tracker *progressTracker) error {
	rewards := batch.New(l.cfg.BatchSize, tx.InsertBurnchainRewards)
	slots := batch.New(l.cfg.BatchSize, tx.InsertRewardSlotHolders)

	for {
		rec, ok, err := reader.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		var ev model.NewBurnBlockEvent
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return fmt.Errorf("decode new_burn_block (source line %d): %w", rec.ReadLineCount, err)
		}

		for _, recipient := range ev.RewardRecipients {
			row := model.BurnchainRewardRow{
				BurnBlockHash:   ev.BurnBlockHash,
				BurnBlockHeight: ev.BurnBlockHeight,
				Recipient:       recipient.Recipient,
				RewardAmount:    recipient.Amount,
				BurnAmount:      ev.BurnAmount,
			}
			if err := rewards.Push(ctx, row); err != nil {
				return err
			}
		}

		for i, address := range ev.RewardSlotHolders {
			row := model.RewardSlotHolderRow{
				BurnBlockHash:   ev.BurnBlockHash,
				BurnBlockHeight: ev.BurnBlockHeight,
				Address:         address,
				SlotIndex:       uint32(i),
			}
			if err := slots.Push(ctx, row); err != nil {
				return err
			}
		}

		tracker.observe(rec.ReadLineCount, len(ev.RewardRecipients)+len(ev.RewardSlotHolders))
	}

	if err := rewards.Flush(ctx); err != nil {
		return err
	}
	return slots.Flush(ctx)
}
