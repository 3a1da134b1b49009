package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventReplay/internal/model"
	"eventReplay/internal/storage"
)

// Store provides Postgres persistence for the import pipeline.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// WithTx runs fn inside one transaction, committing on nil and rolling back
// otherwise. Index toggling done by fn is transactional too, so a failed
// phase leaves the schema untouched.
func (s *Store) WithTx(ctx context.Context, fn func(storage.BulkTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&bulkTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// TableRowCount is a diagnostics introspection query.
func (s *Store) TableRowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, table))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

type bulkTx struct {
	tx pgx.Tx
}

// BeginBulkPhase marks the non-primary indexes of the target tables as
// unusable so mass insertion skips index maintenance and uniqueness checks.
func (t *bulkTx) BeginBulkPhase(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		_, err := t.tx.Exec(ctx, `
			UPDATE pg_index SET indisready = false, indisvalid = false
			WHERE indrelid = $1::regclass AND indisprimary = false
		`, table)
		if err != nil {
			return fmt.Errorf("disable indexes on %s: %w", table, err)
		}
	}
	return nil
}

// EndBulkPhase restores the index flags and rebuilds each table's indexes.
func (t *bulkTx) EndBulkPhase(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		_, err := t.tx.Exec(ctx, `
			UPDATE pg_index SET indisready = true, indisvalid = true
			WHERE indrelid = $1::regclass AND indisprimary = false
		`, table)
		if err != nil {
			return fmt.Errorf("enable indexes on %s: %w", table, err)
		}
		if _, err := t.tx.Exec(ctx, fmt.Sprintf(`REINDEX TABLE %s`, table)); err != nil {
			return fmt.Errorf("reindex %s: %w", table, err)
		}
	}
	return nil
}

func (t *bulkTx) sendBatch(ctx context.Context, b *pgx.Batch, n int) error {
	br := t.tx.SendBatch(ctx, b)
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	return br.Close()
}

func (t *bulkTx) InsertBlocks(ctx context.Context, rows []model.BlockRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO blocks (
				index_block_hash, parent_index_block_hash, block_hash, parent_block_hash,
				block_height, burn_block_hash, burn_block_height, burn_block_time,
				miner_txid, tx_count
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
			r.IndexBlockHash, r.ParentIndexBlockHash, r.BlockHash, r.ParentBlockHash,
			int64(r.BlockHeight), r.BurnBlockHash, int64(r.BurnBlockHeight), int64(r.BurnBlockTime),
			r.MinerTxID, r.TxCount,
		)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertMicroblocks(ctx context.Context, rows []model.MicroblockRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO microblocks (microblock_hash, microblock_sequence, microblock_parent_hash, index_block_hash)
			VALUES ($1,$2,$3,$4)
		`, r.MicroblockHash, int32(r.MicroblockSequence), r.MicroblockParentHash, r.IndexBlockHash)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertTxs(ctx context.Context, rows []model.TxRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO txs (
				tx_id, tx_index, index_block_hash, microblock_hash, microblock_sequence,
				block_height, status, type_id, sender_address, sponsor_address,
				fee_rate, nonce, raw_tx
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		`,
			r.TxID, int32(r.TxIndex), r.IndexBlockHash, r.MicroblockHash, int32(r.MicroblockSeq),
			int64(r.BlockHeight), r.Status, r.Type, r.SenderAddress, nullable(r.SponsorAddress),
			r.Fee, int64(r.Nonce), r.RawTx,
		)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertPrincipalTxs(ctx context.Context, rows []model.PrincipalTxRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO principal_txs (principal, tx_id, index_block_hash, microblock_hash)
			VALUES ($1,$2,$3,$4)
		`, r.Principal, r.TxID, r.IndexBlockHash, r.MicroblockHash)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertStxEvents(ctx context.Context, rows []model.StxEventRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO stx_events (tx_id, event_index, index_block_hash, event_type, sender, recipient, amount)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, r.TxID, int32(r.EventIndex), r.IndexBlockHash, r.EventType, nullable(r.Sender), nullable(r.Recipient), r.Amount)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertFtEvents(ctx context.Context, rows []model.FtEventRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO ft_events (tx_id, event_index, index_block_hash, event_type, asset_identifier, sender, recipient, amount)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, r.TxID, int32(r.EventIndex), r.IndexBlockHash, r.EventType, r.AssetID, nullable(r.Sender), nullable(r.Recipient), r.Amount)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertNftEvents(ctx context.Context, rows []model.NftEventRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO nft_events (tx_id, event_index, index_block_hash, event_type, asset_identifier, sender, recipient, value)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, r.TxID, int32(r.EventIndex), r.IndexBlockHash, r.EventType, r.AssetID, nullable(r.Sender), nullable(r.Recipient), r.Value)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertContractLogs(ctx context.Context, rows []model.ContractLogRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO contract_logs (tx_id, event_index, index_block_hash, contract_identifier, topic, raw_value)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, r.TxID, int32(r.EventIndex), r.IndexBlockHash, r.ContractID, r.Topic, r.RawValue)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertSmartContracts(ctx context.Context, rows []model.SmartContractRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO smart_contracts (contract_id, tx_id, index_block_hash, block_height, source_code)
			VALUES ($1,$2,$3,$4,$5)
		`, r.ContractID, r.TxID, r.IndexBlockHash, int64(r.BlockHeight), r.SourceCode)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertNames(ctx context.Context, rows []model.NameRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO names (name, namespace_id, address, zonefile_hash, status, tx_id, index_block_hash)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, r.Name, r.Namespace, r.Address, nullable(r.ZonefileHash), r.Status, r.TxID, r.IndexBlockHash)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertNamespaces(ctx context.Context, rows []model.NamespaceRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO namespaces (namespace_id, address, tx_id, index_block_hash)
			VALUES ($1,$2,$3,$4)
		`, r.Namespace, r.Address, r.TxID, r.IndexBlockHash)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertZonefiles(ctx context.Context, rows []model.ZonefileRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO zonefiles (zonefile_hash, zonefile, tx_id, index_block_hash)
			VALUES ($1,$2,$3,$4)
		`, r.ZonefileHash, r.Zonefile, r.TxID, r.IndexBlockHash)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertSubdomains(ctx context.Context, rows []model.SubdomainRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO subdomains (fully_qualified_subdomain, namespace_id, zonefile_hash, tx_id, index_block_hash, block_height)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, r.FullyQualifiedName, r.Namespace, r.ZonefileHash, r.TxID, r.IndexBlockHash, int64(r.BlockHeight))
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertBurnchainRewards(ctx context.Context, rows []model.BurnchainRewardRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO burnchain_rewards (burn_block_hash, burn_block_height, reward_recipient, reward_amount, burn_amount)
			VALUES ($1,$2,$3,$4,$5)
		`, r.BurnBlockHash, int64(r.BurnBlockHeight), r.Recipient, int64(r.RewardAmount), int64(r.BurnAmount))
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertRewardSlotHolders(ctx context.Context, rows []model.RewardSlotHolderRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO reward_slot_holders (burn_block_hash, burn_block_height, address, slot_index)
			VALUES ($1,$2,$3,$4)
		`, r.BurnBlockHash, int64(r.BurnBlockHeight), r.Address, int32(r.SlotIndex))
	}
	return t.sendBatch(ctx, b, len(rows))
}

func (t *bulkTx) InsertRawEvents(ctx context.Context, rows []model.RawEventRow) error {
	if len(rows) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO event_observer_requests (event_path, payload, source_ordinal)
			VALUES ($1,$2,$3)
		`, r.EventPath, r.Payload, r.SourceOrdinal)
	}
	return t.sendBatch(ctx, b, len(rows))
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
