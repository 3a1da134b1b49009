package loader

import (
	"eventReplay/internal/model"
)

// principalSet dedups (principal, tx id, index block hash, microblock hash)
// tuples while the table's uniqueness constraint is disabled. One set lives
// for one block's processing and is discarded afterwards.
type principalSet struct {
	seen map[string]struct{}
}

func newPrincipalSet() *principalSet {
	return &principalSet{seen: make(map[string]struct{})}
}

// add reports whether the tuple is new.
func (s *principalSet) add(principal, txID, indexBlockHash, microblockHash string) bool {
	key := principal + "|" + txID + "|" + indexBlockHash + "|" + microblockHash
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// txPrincipals derives every address a transaction touches: sender, sponsor,
// token transfer recipient, contract-call target, deployed contract id, and
// each STX-event sender/recipient for the transaction. Duplicates are fine;
// the principal set dedups.
func txPrincipals(tx model.BlockTransaction, events []model.TransactionEvent) []string {
	principals := []string{tx.SenderAddress}
	if tx.SponsorAddress != "" {
		principals = append(principals, tx.SponsorAddress)
	}
	if tx.TokenTransfer != nil {
		principals = append(principals, tx.TokenTransfer.Recipient)
	}
	if tx.ContractCall != nil {
		principals = append(principals, tx.ContractCall.ContractID)
	}
	if tx.SmartContract != nil {
		principals = append(principals, tx.SmartContract.ContractID)
	}

	for _, ev := range events {
		for _, data := range []*model.StxEventData{ev.StxTransfer, ev.StxMint, ev.StxBurn} {
			if data == nil {
				continue
			}
			if data.Sender != "" {
				principals = append(principals, data.Sender)
			}
			if data.Recipient != "" {
				principals = append(principals, data.Recipient)
			}
		}
	}

	return principals
}
