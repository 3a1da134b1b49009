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

// runNewBlocks loads blocks, microblocks, transactions, events, contracts,
// BNS records, and the principal link table from /new_block records.
// Transactions and principal links dominate the row volume and go through
// accumulators; the rest is inserted per block.
func (l *Loader) runNewBlocks(ctx context.Context, tx storage.BulkTx, reader *canonical.PreorgReader, tracker *progressTracker) error {
	txRows := batch.New(l.cfg.BatchSize, tx.InsertTxs)
	principalRows := batch.New(l.cfg.BatchSize, tx.InsertPrincipalTxs)

	for {
		rec, ok, err := reader.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		var ev model.NewBlockEvent
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			return fmt.Errorf("decode new_block (source line %d): %w", rec.ReadLineCount, err)
		}

		rows, err := l.loadBlock(ctx, tx, &ev, txRows, principalRows)
		if err != nil {
			return fmt.Errorf("block %s (source line %d): %w", ev.IndexBlockHash, rec.ReadLineCount, err)
		}
		tracker.observe(rec.ReadLineCount, rows)
	}

	if err := txRows.Flush(ctx); err != nil {
		return err
	}
	return principalRows.Flush(ctx)
}

func (l *Loader) loadBlock(
	ctx context.Context,
	tx storage.BulkTx,
	ev *model.NewBlockEvent,
	txRows *batch.Accumulator[model.TxRow],
	principalRows *batch.Accumulator[model.PrincipalTxRow],
) (int, error) {
	rows := 1
	block := model.BlockRow{
		IndexBlockHash:       ev.IndexBlockHash,
		ParentIndexBlockHash: ev.ParentIndexBlockHash,
		BlockHash:            ev.BlockHash,
		ParentBlockHash:      ev.ParentBlockHash,
		BlockHeight:          ev.BlockHeight,
		BurnBlockHash:        ev.BurnBlockHash,
		BurnBlockHeight:      ev.BurnBlockHeight,
		BurnBlockTime:        ev.BurnBlockTime,
		MinerTxID:            ev.MinerTxID,
		TxCount:              len(ev.Transactions),
	}
	if err := tx.InsertBlocks(ctx, []model.BlockRow{block}); err != nil {
		return 0, err
	}

	if len(ev.Microblocks) > 0 {
		microblocks := make([]model.MicroblockRow, 0, len(ev.Microblocks))
		for _, mb := range ev.Microblocks {
			microblocks = append(microblocks, model.MicroblockRow{
				MicroblockHash:       mb.MicroblockHash,
				MicroblockSequence:   mb.MicroblockSequence,
				MicroblockParentHash: mb.MicroblockParentHash,
				IndexBlockHash:       ev.IndexBlockHash,
			})
		}
		if err := tx.InsertMicroblocks(ctx, microblocks); err != nil {
			return 0, err
		}
		rows += len(microblocks)
	}

	eventsByTx := make(map[string][]model.TransactionEvent, len(ev.Transactions))
	for _, txEvent := range ev.Events {
		eventsByTx[txEvent.TxID] = append(eventsByTx[txEvent.TxID], txEvent)
	}

	// The uniqueness constraint on principal_txs is disabled for the phase,
	// so duplicates are caught here instead.
	dedup := newPrincipalSet()

	var smartContracts []model.SmartContractRow
	for _, blockTx := range ev.Transactions {
		row := model.TxRow{
			TxID:           blockTx.TxID,
			TxIndex:        blockTx.TxIndex,
			IndexBlockHash: ev.IndexBlockHash,
			MicroblockHash: blockTx.MicroblockHash,
			MicroblockSeq:  blockTx.MicroblockSeq,
			BlockHeight:    ev.BlockHeight,
			Status:         blockTx.Status,
			Type:           blockTx.Type,
			SenderAddress:  blockTx.SenderAddress,
			SponsorAddress: blockTx.SponsorAddress,
			Fee:            blockTx.Fee,
			Nonce:          blockTx.Nonce,
			RawTx:          blockTx.RawTx,
		}
		if err := txRows.Push(ctx, row); err != nil {
			return 0, err
		}
		rows++

		for _, principal := range txPrincipals(blockTx, eventsByTx[blockTx.TxID]) {
			if principal == "" {
				continue
			}
			if !dedup.add(principal, blockTx.TxID, ev.IndexBlockHash, blockTx.MicroblockHash) {
				continue
			}
			link := model.PrincipalTxRow{
				Principal:      principal,
				TxID:           blockTx.TxID,
				IndexBlockHash: ev.IndexBlockHash,
				MicroblockHash: blockTx.MicroblockHash,
			}
			if err := principalRows.Push(ctx, link); err != nil {
				return 0, err
			}
			rows++
		}

		if blockTx.Type == "smart_contract" && blockTx.SmartContract != nil {
			smartContracts = append(smartContracts, model.SmartContractRow{
				ContractID:     blockTx.SmartContract.ContractID,
				TxID:           blockTx.TxID,
				IndexBlockHash: ev.IndexBlockHash,
				BlockHeight:    ev.BlockHeight,
				SourceCode:     blockTx.SmartContract.SourceCode,
			})
		}
	}

	if err := tx.InsertSmartContracts(ctx, smartContracts); err != nil {
		return 0, err
	}
	rows += len(smartContracts)

	eventRows, err := buildEventRows(ev)
	if err != nil {
		return 0, err
	}
	if err := eventRows.insert(ctx, tx); err != nil {
		return 0, err
	}
	rows += eventRows.count()

	return rows, nil
}

// blockEventRows groups the per-table rows derived from one block's events.
type blockEventRows struct {
	stx          []model.StxEventRow
	ft           []model.FtEventRow
	nft          []model.NftEventRow
	contractLogs []model.ContractLogRow
	names        []model.NameRow
	namespaces   []model.NamespaceRow
}

// buildEventRows decodes each tagged event into its table row. A type tag
// without its matching sub-object is a fatal parse error; dropping canonical
// chain data silently would corrupt the derived state.
func buildEventRows(ev *model.NewBlockEvent) (*blockEventRows, error) {
	out := &blockEventRows{}

	for _, e := range ev.Events {
		switch e.Type {
		case model.EventStxTransfer, model.EventStxMint, model.EventStxBurn:
			data := e.StxTransfer
			if e.Type == model.EventStxMint {
				data = e.StxMint
			} else if e.Type == model.EventStxBurn {
				data = e.StxBurn
			}
			if data == nil {
				return nil, missingPayload(e)
			}
			out.stx = append(out.stx, model.StxEventRow{
				TxID:           e.TxID,
				EventIndex:     e.EventIndex,
				IndexBlockHash: ev.IndexBlockHash,
				EventType:      e.Type,
				Sender:         data.Sender,
				Recipient:      data.Recipient,
				Amount:         data.Amount,
			})

		case model.EventStxLock:
			if e.StxLock == nil {
				return nil, missingPayload(e)
			}
			out.stx = append(out.stx, model.StxEventRow{
				TxID:           e.TxID,
				EventIndex:     e.EventIndex,
				IndexBlockHash: ev.IndexBlockHash,
				EventType:      e.Type,
				Sender:         e.StxLock.LockedAddress,
				Amount:         e.StxLock.LockedAmount,
			})

		case model.EventFtTransfer, model.EventFtMint, model.EventFtBurn:
			data := e.FtTransfer
			if e.Type == model.EventFtMint {
				data = e.FtMint
			} else if e.Type == model.EventFtBurn {
				data = e.FtBurn
			}
			if data == nil {
				return nil, missingPayload(e)
			}
			out.ft = append(out.ft, model.FtEventRow{
				TxID:           e.TxID,
				EventIndex:     e.EventIndex,
				IndexBlockHash: ev.IndexBlockHash,
				EventType:      e.Type,
				AssetID:        data.AssetID,
				Sender:         data.Sender,
				Recipient:      data.Recipient,
				Amount:         data.Amount,
			})

		case model.EventNftTransfer, model.EventNftMint, model.EventNftBurn:
			data := e.NftTransfer
			if e.Type == model.EventNftMint {
				data = e.NftMint
			} else if e.Type == model.EventNftBurn {
				data = e.NftBurn
			}
			if data == nil {
				return nil, missingPayload(e)
			}
			out.nft = append(out.nft, model.NftEventRow{
				TxID:           e.TxID,
				EventIndex:     e.EventIndex,
				IndexBlockHash: ev.IndexBlockHash,
				EventType:      e.Type,
				AssetID:        data.AssetID,
				Sender:         data.Sender,
				Recipient:      data.Recipient,
				Value:          data.Value,
			})

		case model.EventContractLog:
			if e.ContractEvent == nil {
				return nil, missingPayload(e)
			}
			out.contractLogs = append(out.contractLogs, model.ContractLogRow{
				TxID:           e.TxID,
				EventIndex:     e.EventIndex,
				IndexBlockHash: ev.IndexBlockHash,
				ContractID:     e.ContractEvent.ContractID,
				Topic:          e.ContractEvent.Topic,
				RawValue:       e.ContractEvent.RawValue,
			})

		case model.EventName:
			if e.NameEvent == nil {
				return nil, missingPayload(e)
			}
			out.names = append(out.names, model.NameRow{
				Name:           e.NameEvent.Name,
				Namespace:      e.NameEvent.Namespace,
				Address:        e.NameEvent.Address,
				ZonefileHash:   e.NameEvent.ZonefileHash,
				Status:         e.NameEvent.Status,
				TxID:           e.TxID,
				IndexBlockHash: ev.IndexBlockHash,
			})

		case model.EventNamespace:
			if e.NamespaceEvent == nil {
				return nil, missingPayload(e)
			}
			out.namespaces = append(out.namespaces, model.NamespaceRow{
				Namespace:      e.NamespaceEvent.Namespace,
				Address:        e.NamespaceEvent.Address,
				TxID:           e.TxID,
				IndexBlockHash: ev.IndexBlockHash,
			})

		default:
			return nil, fmt.Errorf("event %s index %d: unknown event type %q", e.TxID, e.EventIndex, e.Type)
		}
	}

	return out, nil
}

func missingPayload(e model.TransactionEvent) error {
	return fmt.Errorf("event %s index %d: type %s missing payload", e.TxID, e.EventIndex, e.Type)
}

func (r *blockEventRows) insert(ctx context.Context, tx storage.BulkTx) error {
	if err := tx.InsertStxEvents(ctx, r.stx); err != nil {
		return err
	}
	if err := tx.InsertFtEvents(ctx, r.ft); err != nil {
		return err
	}
	if err := tx.InsertNftEvents(ctx, r.nft); err != nil {
		return err
	}
	if err := tx.InsertContractLogs(ctx, r.contractLogs); err != nil {
		return err
	}
	if err := tx.InsertNames(ctx, r.names); err != nil {
		return err
	}
	return tx.InsertNamespaces(ctx, r.namespaces)
}

func (r *blockEventRows) count() int {
	return len(r.stx) + len(r.ft) + len(r.nft) + len(r.contractLogs) + len(r.names) + len(r.namespaces)
}
