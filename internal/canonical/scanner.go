package canonical

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"eventReplay/internal/logfile"
	"eventReplay/internal/model"
)

// blockHeader is the minimal slice of a /new_block payload the scanner needs.
type blockHeader struct {
	IndexBlockHash       string `json:"index_block_hash"`
	ParentIndexBlockHash string `json:"parent_index_block_hash"`
	BlockHeight          uint64 `json:"block_height"`
}

type burnBlockHeader struct {
	BurnBlockHash   string `json:"burn_block_hash"`
	BurnBlockHeight uint64 `json:"burn_block_height"`
}

// Scan returns the canonical index for a raw event log, reusing the cached
// .entitydata artifact when present.
func Scan(sourcePath string, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cachePath := CachePath(sourcePath)
	if ix, ok, err := LoadCached(cachePath); err != nil {
		return nil, err
	} else if ok {
		logger.Info("entity data cache hit",
			zap.String("path", cachePath),
			zap.Int("blocks", len(ix.IndexBlockHashes)),
			zap.Int("burn_blocks", len(ix.BurnBlockHashes)),
		)
		return ix, nil
	}

	ix, err := scanFile(sourcePath)
	if err != nil {
		return nil, err
	}
	if err := ix.Save(cachePath); err != nil {
		return nil, err
	}

	logger.Info("entity scan complete",
		zap.Int64("lines", ix.TotalLines),
		zap.Int("blocks", len(ix.IndexBlockHashes)),
		zap.Int("burn_blocks", len(ix.BurnBlockHashes)),
	)
	return ix, nil
}

// scanFile makes the single canonicalization pass. The log is a live append:
// the last block recorded for a chain is its authoritative tip, and anything
// not reachable from that tip is an orphan.
func scanFile(sourcePath string) (*Index, error) {
	reader, err := logfile.Open(sourcePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	parents := make(map[string]string)
	var stacksTip string

	type burnEntry struct {
		hash   string
		height uint64
	}
	var burnChain []burnEntry

	var total int64
	for {
		line, ordinal, ok := reader.Next()
		if !ok {
			break
		}
		total = ordinal

		raw, err := model.ParseRawLine(line, ordinal)
		if err != nil {
			return nil, err
		}

		switch raw.Path {
		case model.PathNewBlock:
			var hdr blockHeader
			if err := json.Unmarshal(raw.Payload, &hdr); err != nil {
				return nil, fmt.Errorf("line %d: decode new_block header: %w", ordinal, err)
			}
			if hdr.IndexBlockHash == "" {
				return nil, fmt.Errorf("line %d: new_block missing index_block_hash", ordinal)
			}
			parents[hdr.IndexBlockHash] = hdr.ParentIndexBlockHash
			stacksTip = hdr.IndexBlockHash

		case model.PathNewBurnBlock:
			var hdr burnBlockHeader
			if err := json.Unmarshal(raw.Payload, &hdr); err != nil {
				return nil, fmt.Errorf("line %d: decode new_burn_block header: %w", ordinal, err)
			}
			if hdr.BurnBlockHash == "" {
				return nil, fmt.Errorf("line %d: new_burn_block missing burn_block_hash", ordinal)
			}
			// A burn block at height H supersedes every recorded burn block
			// at height >= H. The chain stays height-ordered, so popping from
			// the tail is enough.
			for len(burnChain) > 0 && burnChain[len(burnChain)-1].height >= hdr.BurnBlockHeight {
				burnChain = burnChain[:len(burnChain)-1]
			}
			burnChain = append(burnChain, burnEntry{hash: hdr.BurnBlockHash, height: hdr.BurnBlockHeight})
		}
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}

	burnHashes := make([]string, 0, len(burnChain))
	for _, entry := range burnChain {
		burnHashes = append(burnHashes, entry.hash)
	}

	ix := &Index{
		IndexBlockHashes: walkParents(stacksTip, parents),
		BurnBlockHashes:  burnHashes,
		TotalLines:       total,
	}
	ix.buildSets()
	return ix, nil
}

// walkParents collects every ancestor of tip, oldest first. A parent that was
// never logged as a block ends the walk (truncated dump); the partial chain
// is still usable.
func walkParents(tip string, parents map[string]string) []string {
	if tip == "" {
		return nil
	}

	var chain []string
	for hash := tip; hash != ""; {
		parent, ok := parents[hash]
		if !ok {
			// Not a logged block: the genesis parent sentinel, or a missing
			// ancestor in a truncated dump.
			break
		}
		chain = append(chain, hash)
		hash = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
