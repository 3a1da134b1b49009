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

// runAttachments loads zonefiles, and subdomains for attachments whose
// metadata names one, from /attachments/new records.
func (l *Loader) runAttachments(ctx context.Context, tx storage.BulkTx, reader *canonical.PreorgReader, tracker *progressTracker) error {
	zonefiles := batch.New(l.cfg.BatchSize, tx.InsertZonefiles)
	subdomains := batch.New(l.cfg.BatchSize, tx.InsertSubdomains)

	for {
		rec, ok, err := reader.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		var attachments []model.Attachment
		if err := json.Unmarshal(rec.Payload, &attachments); err != nil {
			return fmt.Errorf("decode attachments (source line %d): %w", rec.ReadLineCount, err)
		}

		rows := 0
		for _, att := range attachments {
			zonefileHash := att.Metadata.ZonefileHash
			if zonefileHash == "" {
				zonefileHash = att.ContentHash
			}

			zonefile := model.ZonefileRow{
				ZonefileHash:   zonefileHash,
				Zonefile:       att.Content,
				TxID:           att.TxID,
				IndexBlockHash: att.IndexBlockHash,
			}
			if err := zonefiles.Push(ctx, zonefile); err != nil {
				return err
			}
			rows++

			if att.Metadata.Name == "" {
				continue
			}
			subdomain := model.SubdomainRow{
				FullyQualifiedName: att.Metadata.Name + "." + att.Metadata.Namespace,
				Namespace:          att.Metadata.Namespace,
				ZonefileHash:       zonefileHash,
				TxID:               att.TxID,
				IndexBlockHash:     att.IndexBlockHash,
				BlockHeight:        att.BlockHeight,
			}
			if err := subdomains.Push(ctx, subdomain); err != nil {
				return err
			}
			rows++
		}

		tracker.observe(rec.ReadLineCount, rows)
	}

	if err := zonefiles.Flush(ctx); err != nil {
		return err
	}
	return subdomains.Flush(ctx)
}
