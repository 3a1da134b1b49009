package canonical

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"eventReplay/internal/logfile"
	"eventReplay/internal/model"
)

// Transform streams the raw log through the canonical filter and writes the
// preorg file next to the source. Input order is preserved: once orphans are
// removed, a live-replay log is already ancestor-before-descendant. The first
// column of every emitted line is rewritten to the source ordinal so readers
// of the preorg file can report progress against the raw file. An existing
// preorg file suppresses regeneration.
func Transform(sourcePath string, ix *Index, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	outPath := PreorgPath(sourcePath)
	if _, err := os.Stat(outPath); err == nil {
		logger.Info("preorg file present, skipping transform", zap.String("path", outPath))
		return outPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat preorg file: %w", err)
	}

	reader, err := logfile.Open(sourcePath)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	tmpPath := outPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("create preorg tmp: %w", err)
	}
	defer out.Close()

	writer := bufio.NewWriterSize(out, 1024*1024)
	var kept, dropped int64

	for {
		line, ordinal, ok := reader.Next()
		if !ok {
			break
		}

		raw, err := model.ParseRawLine(line, ordinal)
		if err != nil {
			return "", err
		}

		keep, payload, err := filterLine(ix, raw)
		if err != nil {
			return "", err
		}
		if !keep {
			dropped++
			continue
		}
		kept++

		if _, err := writer.WriteString(strconv.FormatInt(ordinal, 10)); err != nil {
			return "", fmt.Errorf("write preorg line: %w", err)
		}
		for _, col := range []string{raw.Timestamp, raw.Path, string(payload)} {
			if err := writer.WriteByte('\t'); err != nil {
				return "", fmt.Errorf("write preorg line: %w", err)
			}
			if _, err := writer.WriteString(col); err != nil {
				return "", fmt.Errorf("write preorg line: %w", err)
			}
		}
		if err := writer.WriteByte('\n'); err != nil {
			return "", fmt.Errorf("write preorg line: %w", err)
		}
	}
	if err := reader.Err(); err != nil {
		return "", err
	}

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("flush preorg: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close preorg tmp: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return "", fmt.Errorf("rename preorg: %w", err)
	}

	logger.Info("preorg transform complete",
		zap.String("path", outPath),
		zap.Int64("kept", kept),
		zap.Int64("dropped", dropped),
	)
	return outPath, nil
}

// filterLine decides whether a raw line belongs to canonical history and
// returns the payload bytes to emit. Paths without an associated hash pass
// through unconditionally. Attachment lines are filtered per entry; the
// original bytes are reused when nothing was dropped.
func filterLine(ix *Index, raw model.RawLogLine) (bool, []byte, error) {
	switch raw.Path {
	case model.PathNewBlock:
		var hdr blockHeader
		if err := json.Unmarshal(raw.Payload, &hdr); err != nil {
			return false, nil, fmt.Errorf("line %d: decode new_block header: %w", raw.Ordinal, err)
		}
		return ix.HasIndexBlock(hdr.IndexBlockHash), raw.Payload, nil

	case model.PathNewBurnBlock:
		var hdr burnBlockHeader
		if err := json.Unmarshal(raw.Payload, &hdr); err != nil {
			return false, nil, fmt.Errorf("line %d: decode new_burn_block header: %w", raw.Ordinal, err)
		}
		return ix.HasBurnBlock(hdr.BurnBlockHash), raw.Payload, nil

	case model.PathAttachments:
		var attachments []model.Attachment
		if err := json.Unmarshal(raw.Payload, &attachments); err != nil {
			return false, nil, fmt.Errorf("line %d: decode attachments: %w", raw.Ordinal, err)
		}

		canonical := make([]model.Attachment, 0, len(attachments))
		for _, att := range attachments {
			if ix.HasIndexBlock(att.IndexBlockHash) {
				canonical = append(canonical, att)
			}
		}
		if len(canonical) == len(attachments) {
			return true, raw.Payload, nil
		}
		if len(canonical) == 0 {
			return false, nil, nil
		}
		payload, err := json.Marshal(canonical)
		if err != nil {
			return false, nil, fmt.Errorf("line %d: re-encode attachments: %w", raw.Ordinal, err)
		}
		return true, payload, nil

	default:
		return true, raw.Payload, nil
	}
}
