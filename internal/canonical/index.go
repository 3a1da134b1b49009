package canonical

import (
	"encoding/json"
	"fmt"
	"os"
)

// Index is the canonical view of one raw event log: the block and burn-block
// hashes reachable from each chain's final tip, ordered ancestor first, plus
// the raw file's line count for progress reporting. Read-only once built.
type Index struct {
	IndexBlockHashes []string `json:"index_block_hashes"`
	BurnBlockHashes  []string `json:"burn_block_hashes"`
	TotalLines       int64    `json:"total_lines"`

	indexBlockSet map[string]struct{}
	burnBlockSet  map[string]struct{}
}

// buildSets prepares O(1) membership tests over the hash lists.
func (ix *Index) buildSets() {
	ix.indexBlockSet = make(map[string]struct{}, len(ix.IndexBlockHashes))
	for _, hash := range ix.IndexBlockHashes {
		ix.indexBlockSet[hash] = struct{}{}
	}
	ix.burnBlockSet = make(map[string]struct{}, len(ix.BurnBlockHashes))
	for _, hash := range ix.BurnBlockHashes {
		ix.burnBlockSet[hash] = struct{}{}
	}
}

func (ix *Index) HasIndexBlock(hash string) bool {
	_, ok := ix.indexBlockSet[hash]
	return ok
}

func (ix *Index) HasBurnBlock(hash string) bool {
	_, ok := ix.burnBlockSet[hash]
	return ok
}

// CachePath is the side artifact holding the serialized index for a source
// log. Its presence suppresses re-scanning; staleness is the caller's concern.
func CachePath(sourcePath string) string {
	return sourcePath + ".entitydata"
}

// PreorgPath is the side artifact holding the canonical-only rewrite.
func PreorgPath(sourcePath string) string {
	return sourcePath + "-preorg"
}

// LoadCached reads a previously saved index. The second return is false when
// no cache artifact exists.
func LoadCached(path string) (*Index, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read entity data: %w", err)
	}

	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, false, fmt.Errorf("parse entity data: %w", err)
	}
	ix.buildSets()
	return &ix, true, nil
}

// Save writes the index atomically next to the source log.
func (ix *Index) Save(path string) error {
	data, err := json.Marshal(ix)
	if err != nil {
		return fmt.Errorf("marshal entity data: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write entity data tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename entity data: %w", err)
	}
	return nil
}
