package storage

import (
	"context"

	"eventReplay/internal/model"
)

// BulkTx is one import phase's transactional surface. BeginBulkPhase and
// EndBulkPhase bracket mass insertion: the implementation may disable and
// restore secondary indexes, or defer constraints, for the named tables. A
// rollback must also undo the bulk-phase toggling.
type BulkTx interface {
	BeginBulkPhase(ctx context.Context, tables ...string) error
	EndBulkPhase(ctx context.Context, tables ...string) error

	InsertBlocks(ctx context.Context, rows []model.BlockRow) error
	InsertMicroblocks(ctx context.Context, rows []model.MicroblockRow) error
	InsertTxs(ctx context.Context, rows []model.TxRow) error
	InsertPrincipalTxs(ctx context.Context, rows []model.PrincipalTxRow) error
	InsertStxEvents(ctx context.Context, rows []model.StxEventRow) error
	InsertFtEvents(ctx context.Context, rows []model.FtEventRow) error
	InsertNftEvents(ctx context.Context, rows []model.NftEventRow) error
	InsertContractLogs(ctx context.Context, rows []model.ContractLogRow) error
	InsertSmartContracts(ctx context.Context, rows []model.SmartContractRow) error
	InsertNames(ctx context.Context, rows []model.NameRow) error
	InsertNamespaces(ctx context.Context, rows []model.NamespaceRow) error
	InsertZonefiles(ctx context.Context, rows []model.ZonefileRow) error
	InsertSubdomains(ctx context.Context, rows []model.SubdomainRow) error
	InsertBurnchainRewards(ctx context.Context, rows []model.BurnchainRewardRow) error
	InsertRewardSlotHolders(ctx context.Context, rows []model.RewardSlotHolderRow) error
	InsertRawEvents(ctx context.Context, rows []model.RawEventRow) error
}

// Storage scopes bulk transactions over the destination database. WithTx
// commits when fn returns nil and rolls back otherwise. TableRowCount is a
// diagnostics hook, not a correctness dependency.
type Storage interface {
	WithTx(ctx context.Context, fn func(BulkTx) error) error
	TableRowCount(ctx context.Context, table string) (int64, error)
	Close()
}
