package model

// Relational rows produced by the bulk-load phases. Each row type maps onto
// one target table and is discarded after insertion.

type BlockRow struct {
	IndexBlockHash       string
	ParentIndexBlockHash string
	BlockHash            string
	ParentBlockHash      string
	BlockHeight          uint64
	BurnBlockHash        string
	BurnBlockHeight      uint64
	BurnBlockTime        uint64
	MinerTxID            string
	TxCount              int
}

type MicroblockRow struct {
	MicroblockHash       string
	MicroblockSequence   uint32
	MicroblockParentHash string
	IndexBlockHash       string
}

type TxRow struct {
	TxID           string
	TxIndex        uint32
	IndexBlockHash string
	MicroblockHash string
	MicroblockSeq  uint32
	BlockHeight    uint64
	Status         string
	Type           string
	SenderAddress  string
	SponsorAddress string
	Fee            string
	Nonce          uint64
	RawTx          string
}

// PrincipalTxRow links an address to a transaction. The tuple is the
// uniqueness key normally enforced by the database.
type PrincipalTxRow struct {
	Principal      string
	TxID           string
	IndexBlockHash string
	MicroblockHash string
}

type StxEventRow struct {
	TxID           string
	EventIndex     uint32
	IndexBlockHash string
	EventType      string
	Sender         string
	Recipient      string
	Amount         string
}

type FtEventRow struct {
	TxID           string
	EventIndex     uint32
	IndexBlockHash string
	EventType      string
	AssetID        string
	Sender         string
	Recipient      string
	Amount         string
}

type NftEventRow struct {
	TxID           string
	EventIndex     uint32
	IndexBlockHash string
	EventType      string
	AssetID        string
	Sender         string
	Recipient      string
	Value          string
}

type ContractLogRow struct {
	TxID           string
	EventIndex     uint32
	IndexBlockHash string
	ContractID     string
	Topic          string
	RawValue       string
}

type SmartContractRow struct {
	ContractID     string
	TxID           string
	IndexBlockHash string
	BlockHeight    uint64
	SourceCode     string
}

type NameRow struct {
	Name           string
	Namespace      string
	Address        string
	ZonefileHash   string
	Status         string
	TxID           string
	IndexBlockHash string
}

type NamespaceRow struct {
	Namespace      string
	Address        string
	TxID           string
	IndexBlockHash string
}

type ZonefileRow struct {
	ZonefileHash   string
	Zonefile       string
	TxID           string
	IndexBlockHash string
}

type SubdomainRow struct {
	FullyQualifiedName string
	Namespace          string
	ZonefileHash       string
	TxID               string
	IndexBlockHash     string
	BlockHeight        uint64
}

type BurnchainRewardRow struct {
	BurnBlockHash   string
	BurnBlockHeight uint64
	Recipient       string
	RewardAmount    uint64
	BurnAmount      uint64
}

type RewardSlotHolderRow struct {
	BurnBlockHash   string
	BurnBlockHeight uint64
	Address         string
	SlotIndex       uint32
}

// RawEventRow is the audit copy of one observer request.
type RawEventRow struct {
	EventPath     string
	Payload       string
	SourceOrdinal int64
}
