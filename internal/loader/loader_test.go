package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eventReplay/internal/canonical"
	"eventReplay/internal/model"
	"eventReplay/internal/storage"
)

// fakeTx records every insert so the tests can assert on what the phases
// produced without a database.
type fakeTx struct {
	bulkBegun [][]string
	bulkEnded [][]string

	blocks          []model.BlockRow
	microblocks     []model.MicroblockRow
	txs             []model.TxRow
	principals      []model.PrincipalTxRow
	stxEvents       []model.StxEventRow
	ftEvents        []model.FtEventRow
	nftEvents       []model.NftEventRow
	contractLogs    []model.ContractLogRow
	smartContracts  []model.SmartContractRow
	names           []model.NameRow
	namespaces      []model.NamespaceRow
	zonefiles       []model.ZonefileRow
	subdomains      []model.SubdomainRow
	burnRewards     []model.BurnchainRewardRow
	rewardSlots     []model.RewardSlotHolderRow
	rawEvents       []model.RawEventRow
	rawEventBatches []int
}

func (f *fakeTx) BeginBulkPhase(_ context.Context, tables ...string) error {
	f.bulkBegun = append(f.bulkBegun, tables)
	return nil
}

func (f *fakeTx) EndBulkPhase(_ context.Context, tables ...string) error {
	f.bulkEnded = append(f.bulkEnded, tables)
	return nil
}

func (f *fakeTx) InsertBlocks(_ context.Context, rows []model.BlockRow) error {
	f.blocks = append(f.blocks, rows...)
	return nil
}

func (f *fakeTx) InsertMicroblocks(_ context.Context, rows []model.MicroblockRow) error {
	f.microblocks = append(f.microblocks, rows...)
	return nil
}

func (f *fakeTx) InsertTxs(_ context.Context, rows []model.TxRow) error {
	f.txs = append(f.txs, rows...)
	return nil
}

func (f *fakeTx) InsertPrincipalTxs(_ context.Context, rows []model.PrincipalTxRow) error {
	f.principals = append(f.principals, rows...)
	return nil
}

func (f *fakeTx) InsertStxEvents(_ context.Context, rows []model.StxEventRow) error {
	f.stxEvents = append(f.stxEvents, rows...)
	return nil
}

func (f *fakeTx) InsertFtEvents(_ context.Context, rows []model.FtEventRow) error {
	f.ftEvents = append(f.ftEvents, rows...)
	return nil
}

func (f *fakeTx) InsertNftEvents(_ context.Context, rows []model.NftEventRow) error {
	f.nftEvents = append(f.nftEvents, rows...)
	return nil
}

func (f *fakeTx) InsertContractLogs(_ context.Context, rows []model.ContractLogRow) error {
	f.contractLogs = append(f.contractLogs, rows...)
	return nil
}

func (f *fakeTx) InsertSmartContracts(_ context.Context, rows []model.SmartContractRow) error {
	f.smartContracts = append(f.smartContracts, rows...)
	return nil
}

func (f *fakeTx) InsertNames(_ context.Context, rows []model.NameRow) error {
	f.names = append(f.names, rows...)
	return nil
}

func (f *fakeTx) InsertNamespaces(_ context.Context, rows []model.NamespaceRow) error {
	f.namespaces = append(f.namespaces, rows...)
	return nil
}

func (f *fakeTx) InsertZonefiles(_ context.Context, rows []model.ZonefileRow) error {
	f.zonefiles = append(f.zonefiles, rows...)
	return nil
}

func (f *fakeTx) InsertSubdomains(_ context.Context, rows []model.SubdomainRow) error {
	f.subdomains = append(f.subdomains, rows...)
	return nil
}

func (f *fakeTx) InsertBurnchainRewards(_ context.Context, rows []model.BurnchainRewardRow) error {
	f.burnRewards = append(f.burnRewards, rows...)
	return nil
}

func (f *fakeTx) InsertRewardSlotHolders(_ context.Context, rows []model.RewardSlotHolderRow) error {
	f.rewardSlots = append(f.rewardSlots, rows...)
	return nil
}

func (f *fakeTx) InsertRawEvents(_ context.Context, rows []model.RawEventRow) error {
	f.rawEvents = append(f.rawEvents, rows...)
	f.rawEventBatches = append(f.rawEventBatches, len(rows))
	return nil
}

type fakeStore struct {
	tx       *fakeTx
	txCount  int
	rollback bool
}

func (s *fakeStore) WithTx(_ context.Context, fn func(storage.BulkTx) error) error {
	s.txCount++
	if err := fn(s.tx); err != nil {
		s.rollback = true
		return err
	}
	return nil
}

func (s *fakeStore) TableRowCount(context.Context, string) (int64, error) {
	return 0, nil
}

func (s *fakeStore) Close() {}

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.tsv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func burnLine(id int, hash string, height uint64, recipients string) string {
	payload := fmt.Sprintf(`{"burn_block_hash":%q,"burn_block_height":%d,"burn_amount":9000,"reward_recipients":%s,"reward_slot_holders":["1SLOTADDR"]}`, hash, height, recipients)
	return fmt.Sprintf("%d\t2024-01-01T00:00:00Z\t/new_burn_block\t%s", id, payload)
}

func preparePreorg(t *testing.T, lines ...string) (string, *canonical.Index) {
	t.Helper()
	path := writeLog(t, lines...)
	ix, err := canonical.Scan(path, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	preorgPath, err := canonical.Transform(path, ix, nil)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	return preorgPath, ix
}

func TestRunLoadsOnlyCanonicalBurnBlocks(t *testing.T) {
	// 0xburnOrphan at height 700 is superseded by 0xburnB at the same
	// height; only canonical burn blocks may produce reward rows.
	preorgPath, ix := preparePreorg(t,
		burnLine(1, "0xburnA", 699, `[{"recipient":"1ADDR_A","amt":100}]`),
		burnLine(2, "0xburnOrphan", 700, `[{"recipient":"1ADDR_ORPHAN","amt":100}]`),
		burnLine(3, "0xburnB", 700, `[{"recipient":"1ADDR_B","amt":250}]`),
	)

	store := &fakeStore{tx: &fakeTx{}}
	run := New(Config{BatchSize: 10, PathFilter: model.PathNewBurnBlock}, store, nil)
	if err := run.Run(context.Background(), preorgPath, ix); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(ix.BurnBlockHashes) != 2 {
		t.Fatalf("expected 2 canonical burn blocks, got %d", len(ix.BurnBlockHashes))
	}
	if len(store.tx.burnRewards) != 2 {
		t.Fatalf("expected 2 reward rows, got %+v", store.tx.burnRewards)
	}
	for _, row := range store.tx.burnRewards {
		if row.Recipient == "1ADDR_ORPHAN" {
			t.Fatalf("orphan burn block produced a reward row")
		}
	}
	if len(store.tx.rewardSlots) != 2 {
		t.Fatalf("expected 2 slot holder rows, got %+v", store.tx.rewardSlots)
	}
	if store.txCount != 1 {
		t.Fatalf("path filter should run exactly one phase, got %d", store.txCount)
	}
}

func TestRunNewBlocksPhase(t *testing.T) {
	payload := `{
		"index_block_hash":"0xibh1","parent_index_block_hash":"0x00",
		"block_hash":"0xbh1","parent_block_hash":"0x00","block_height":1,
		"burn_block_hash":"0xburn1","burn_block_height":700,
		"transactions":[
			{"txid":"0xtx1","tx_index":0,"status":"success","sender_address":"SP1","fee":"10","nonce":0,"type":"token_transfer",
			 "token_transfer":{"recipient":"SP2","amount":"100"}},
			{"txid":"0xtx2","tx_index":1,"status":"success","sender_address":"SP1","fee":"20","nonce":1,"type":"smart_contract",
			 "smart_contract":{"contract_id":"SP1.counter","source_code":"(define-data-var n int 0)"}}
		],
		"events":[
			{"txid":"0xtx1","event_index":0,"committed":true,"type":"stx_transfer_event",
			 "stx_transfer_event":{"sender":"SP1","recipient":"SP2","amount":"100"}}
		],
		"microblocks":[{"microblock_hash":"0xmb1","microblock_sequence":0,"microblock_parent_hash":"0x00"}]
	}`
	line := fmt.Sprintf("1\t2024-01-01T00:00:00Z\t/new_block\t%s", strings.ReplaceAll(strings.ReplaceAll(payload, "\n", ""), "\t", ""))

	preorgPath, ix := preparePreorg(t, line)

	store := &fakeStore{tx: &fakeTx{}}
	run := New(Config{BatchSize: 10, PathFilter: model.PathNewBlock}, store, nil)
	if err := run.Run(context.Background(), preorgPath, ix); err != nil {
		t.Fatalf("run: %v", err)
	}

	tx := store.tx
	if len(tx.blocks) != 1 || tx.blocks[0].IndexBlockHash != "0xibh1" || tx.blocks[0].TxCount != 2 {
		t.Fatalf("block rows mismatch: %+v", tx.blocks)
	}
	if len(tx.microblocks) != 1 || tx.microblocks[0].IndexBlockHash != "0xibh1" {
		t.Fatalf("microblock rows mismatch: %+v", tx.microblocks)
	}
	if len(tx.txs) != 2 {
		t.Fatalf("tx rows mismatch: %+v", tx.txs)
	}
	if len(tx.stxEvents) != 1 || tx.stxEvents[0].Recipient != "SP2" {
		t.Fatalf("stx event rows mismatch: %+v", tx.stxEvents)
	}
	if len(tx.smartContracts) != 1 || tx.smartContracts[0].ContractID != "SP1.counter" {
		t.Fatalf("smart contract rows mismatch: %+v", tx.smartContracts)
	}

	// tx1 touches SP1 (sender, stx sender) and SP2 (transfer recipient, stx
	// recipient): two links. tx2 touches SP1 and its deployed contract.
	if len(tx.principals) != 4 {
		t.Fatalf("expected 4 principal links, got %+v", tx.principals)
	}
	seen := make(map[string]int)
	for _, link := range tx.principals {
		seen[link.Principal+"|"+link.TxID]++
	}
	for key, n := range seen {
		if n != 1 {
			t.Fatalf("duplicate principal link %s inserted %d times", key, n)
		}
	}
	if seen["SP1.counter|0xtx2"] != 1 {
		t.Fatalf("deployed contract principal missing: %v", seen)
	}
}

func TestRunRawEventsPhaseBatches(t *testing.T) {
	lines := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		lines = append(lines, fmt.Sprintf("%d\t2024-01-01T00:00:00Z\t/new_mempool_tx\t{\"n\":%d}", i, i))
	}
	preorgPath, ix := preparePreorg(t, lines...)

	store := &fakeStore{tx: &fakeTx{}}
	run := New(Config{BatchSize: 2}, store, nil)
	if err := run.Run(context.Background(), preorgPath, ix); err != nil {
		t.Fatalf("run: %v", err)
	}

	tx := store.tx
	if len(tx.rawEvents) != 5 {
		t.Fatalf("expected 5 raw event rows, got %d", len(tx.rawEvents))
	}
	// ceil(5/2) = 3 insert calls, last one the remainder.
	if len(tx.rawEventBatches) != 3 || tx.rawEventBatches[2] != 1 {
		t.Fatalf("batch sizes mismatch: %v", tx.rawEventBatches)
	}
	for i, row := range tx.rawEvents {
		if row.SourceOrdinal != int64(i+1) {
			t.Fatalf("raw event order broken: %+v", tx.rawEvents)
		}
	}
}

func TestRunAttachmentsPhase(t *testing.T) {
	attachments := `[{"attachment_index":0,"index_block_hash":"0xibh1","block_height":1,"content_hash":"0xc1","content":"0xzonefilebytes","tx_id":"0xtx1","metadata":{"op":"name-update","name":"alice","namespace":"id","zonefile_hash":"0xzf1"}}]`
	blockPayload := `{"index_block_hash":"0xibh1","parent_index_block_hash":"0x00","block_hash":"0xbh1","parent_block_hash":"0x00","block_height":1,"transactions":[],"events":[],"microblocks":[]}`

	preorgPath, ix := preparePreorg(t,
		fmt.Sprintf("1\t2024-01-01T00:00:00Z\t/new_block\t%s", blockPayload),
		fmt.Sprintf("2\t2024-01-01T00:00:00Z\t/attachments/new\t%s", attachments),
	)

	store := &fakeStore{tx: &fakeTx{}}
	run := New(Config{BatchSize: 10, PathFilter: model.PathAttachments}, store, nil)
	if err := run.Run(context.Background(), preorgPath, ix); err != nil {
		t.Fatalf("run: %v", err)
	}

	tx := store.tx
	if len(tx.zonefiles) != 1 || tx.zonefiles[0].ZonefileHash != "0xzf1" {
		t.Fatalf("zonefile rows mismatch: %+v", tx.zonefiles)
	}
	if len(tx.subdomains) != 1 || tx.subdomains[0].FullyQualifiedName != "alice.id" {
		t.Fatalf("subdomain rows mismatch: %+v", tx.subdomains)
	}
}

func TestRunPhasesInFixedOrderWithBulkMode(t *testing.T) {
	preorgPath, ix := preparePreorg(t,
		burnLine(1, "0xburn1", 700, `[]`),
	)

	store := &fakeStore{tx: &fakeTx{}}
	run := New(Config{BatchSize: 10}, store, nil)
	if err := run.Run(context.Background(), preorgPath, ix); err != nil {
		t.Fatalf("run: %v", err)
	}

	if store.txCount != 4 {
		t.Fatalf("expected 4 phase transactions, got %d", store.txCount)
	}
	if len(store.tx.bulkBegun) != 4 || len(store.tx.bulkEnded) != 4 {
		t.Fatalf("bulk mode not bracketed per phase: %d begun, %d ended", len(store.tx.bulkBegun), len(store.tx.bulkEnded))
	}
	if store.tx.bulkBegun[0][0] != "burnchain_rewards" {
		t.Fatalf("burn blocks must run first: %v", store.tx.bulkBegun[0])
	}
	if store.tx.bulkBegun[3][0] != "blocks" {
		t.Fatalf("new blocks must run last: %v", store.tx.bulkBegun[3])
	}
}

func TestRunAbortsPhaseOnMalformedPayload(t *testing.T) {
	preorgPath, ix := preparePreorg(t,
		fmt.Sprintf("1\t2024-01-01T00:00:00Z\t/new_burn_block\t%s", `{"burn_block_hash":"0xburn1","burn_block_height":1}`),
	)

	// Corrupt the preorg payload after the artifacts were produced.
	data, err := os.ReadFile(preorgPath)
	if err != nil {
		t.Fatalf("read preorg: %v", err)
	}
	corrupted := strings.Replace(string(data), `{"burn_block_hash"`, `{{"burn_block_hash"`, 1)
	if err := os.WriteFile(preorgPath, []byte(corrupted), 0o644); err != nil {
		t.Fatalf("corrupt preorg: %v", err)
	}

	store := &fakeStore{tx: &fakeTx{}}
	run := New(Config{BatchSize: 10, PathFilter: model.PathNewBurnBlock}, store, nil)
	if err := run.Run(context.Background(), preorgPath, ix); err == nil {
		t.Fatalf("expected parse error to abort the phase")
	}
	if !store.rollback {
		t.Fatalf("phase transaction was not rolled back")
	}
}
