package model

// NewBlockEvent is the decoded /new_block payload. One schema per event path;
// a payload that does not match it is a fatal parse error.
type NewBlockEvent struct {
	IndexBlockHash       string `json:"index_block_hash"`
	ParentIndexBlockHash string `json:"parent_index_block_hash"`
	BlockHash            string `json:"block_hash"`
	ParentBlockHash      string `json:"parent_block_hash"`
	BlockHeight          uint64 `json:"block_height"`
	BurnBlockHash        string `json:"burn_block_hash"`
	BurnBlockHeight      uint64 `json:"burn_block_height"`
	BurnBlockTime        uint64 `json:"burn_block_time"`
	MinerTxID            string `json:"miner_txid"`
	ParentMicroblockHash string `json:"parent_microblock"`
	ParentMicroblockSeq  uint32 `json:"parent_microblock_sequence"`

	Transactions []BlockTransaction `json:"transactions"`
	Events       []TransactionEvent `json:"events"`
	Microblocks  []Microblock       `json:"microblocks"`
}

// BlockTransaction is one mined transaction inside a /new_block payload.
// Exactly one of the type sub-objects is set, selected by Type.
type BlockTransaction struct {
	TxID           string `json:"txid"`
	TxIndex        uint32 `json:"tx_index"`
	Status         string `json:"status"`
	RawTx          string `json:"raw_tx"`
	SenderAddress  string `json:"sender_address"`
	SponsorAddress string `json:"sponsor_address,omitempty"`
	Fee            string `json:"fee"`
	Nonce          uint64 `json:"nonce"`
	Type           string `json:"type"`

	TokenTransfer *TokenTransferData `json:"token_transfer,omitempty"`
	ContractCall  *ContractCallData  `json:"contract_call,omitempty"`
	SmartContract *SmartContractData `json:"smart_contract,omitempty"`

	// Empty for anchored transactions.
	MicroblockHash string `json:"microblock_hash,omitempty"`
	MicroblockSeq  uint32 `json:"microblock_sequence,omitempty"`
}

type TokenTransferData struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Memo      string `json:"memo,omitempty"`
}

type ContractCallData struct {
	ContractID   string `json:"contract_id"`
	FunctionName string `json:"function_name"`
}

type SmartContractData struct {
	ContractID string `json:"contract_id"`
	SourceCode string `json:"source_code"`
}

type Microblock struct {
	MicroblockHash       string `json:"microblock_hash"`
	MicroblockSequence   uint32 `json:"microblock_sequence"`
	MicroblockParentHash string `json:"microblock_parent_hash"`
}

// TransactionEvent is a tagged variant: Type selects which sub-object carries
// the decoded payload. Name/namespace events arrive pre-decoded from the
// upstream observer, which owns byte-level Clarity value parsing.
type TransactionEvent struct {
	TxID       string `json:"txid"`
	EventIndex uint32 `json:"event_index"`
	Committed  bool   `json:"committed"`
	Type       string `json:"type"`

	StxTransfer    *StxEventData       `json:"stx_transfer_event,omitempty"`
	StxMint        *StxEventData       `json:"stx_mint_event,omitempty"`
	StxBurn        *StxEventData       `json:"stx_burn_event,omitempty"`
	StxLock        *StxLockEventData   `json:"stx_lock_event,omitempty"`
	FtTransfer     *FtEventData        `json:"ft_transfer_event,omitempty"`
	FtMint         *FtEventData        `json:"ft_mint_event,omitempty"`
	FtBurn         *FtEventData        `json:"ft_burn_event,omitempty"`
	NftTransfer    *NftEventData       `json:"nft_transfer_event,omitempty"`
	NftMint        *NftEventData       `json:"nft_mint_event,omitempty"`
	NftBurn        *NftEventData       `json:"nft_burn_event,omitempty"`
	ContractEvent  *ContractEventData  `json:"contract_event,omitempty"`
	NameEvent      *NameEventData      `json:"name_event,omitempty"`
	NamespaceEvent *NamespaceEventData `json:"namespace_event,omitempty"`
}

// Event type tags used in TransactionEvent.Type.
const (
	EventStxTransfer = "stx_transfer_event"
	EventStxMint     = "stx_mint_event"
	EventStxBurn     = "stx_burn_event"
	EventStxLock     = "stx_lock_event"
	EventFtTransfer  = "ft_transfer_event"
	EventFtMint      = "ft_mint_event"
	EventFtBurn      = "ft_burn_event"
	EventNftTransfer = "nft_transfer_event"
	EventNftMint     = "nft_mint_event"
	EventNftBurn     = "nft_burn_event"
	EventContractLog = "contract_event"
	EventName        = "name_event"
	EventNamespace   = "namespace_event"
)

type StxEventData struct {
	Sender    string `json:"sender,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Amount    string `json:"amount"`
}

type StxLockEventData struct {
	LockedAddress string `json:"locked_address"`
	LockedAmount  string `json:"locked_amount"`
	UnlockHeight  uint64 `json:"unlock_height"`
}

type FtEventData struct {
	AssetID   string `json:"asset_identifier"`
	Sender    string `json:"sender,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Amount    string `json:"amount"`
}

type NftEventData struct {
	AssetID   string `json:"asset_identifier"`
	Sender    string `json:"sender,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Value     string `json:"value"`
}

type ContractEventData struct {
	ContractID string `json:"contract_identifier"`
	Topic      string `json:"topic"`
	RawValue   string `json:"raw_value"`
}

type NameEventData struct {
	Name         string `json:"name"`
	Namespace    string `json:"namespace"`
	Address      string `json:"address"`
	ZonefileHash string `json:"zonefile_hash,omitempty"`
	Status       string `json:"status"`
}

type NamespaceEventData struct {
	Namespace string `json:"namespace"`
	Address   string `json:"address"`
}

// NewBurnBlockEvent is the decoded /new_burn_block payload. Burn blocks carry
// no parent pointer; canonicalization for them is height-based.
type NewBurnBlockEvent struct {
	BurnBlockHash     string            `json:"burn_block_hash"`
	BurnBlockHeight   uint64            `json:"burn_block_height"`
	BurnAmount        uint64            `json:"burn_amount"`
	RewardRecipients  []RewardRecipient `json:"reward_recipients"`
	RewardSlotHolders []string          `json:"reward_slot_holders"`
}

type RewardRecipient struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amt"`
}

// Attachment is one element of the /attachments/new payload array.
type Attachment struct {
	AttachmentIndex uint32             `json:"attachment_index"`
	IndexBlockHash  string             `json:"index_block_hash"`
	BlockHeight     uint64             `json:"block_height"`
	ContentHash     string             `json:"content_hash"`
	Content         string             `json:"content"`
	TxID            string             `json:"tx_id"`
	Metadata        AttachmentMetadata `json:"metadata"`
}

type AttachmentMetadata struct {
	Op           string `json:"op"`
	Name         string `json:"name,omitempty"`
	Namespace    string `json:"namespace,omitempty"`
	ZonefileHash string `json:"zonefile_hash,omitempty"`
}
