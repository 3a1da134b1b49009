package model

import (
	"fmt"
	"strings"
)

// Event paths recorded by the observer.
const (
	PathNewBlock     = "/new_block"
	PathNewBurnBlock = "/new_burn_block"
	PathAttachments  = "/attachments/new"
)

// RawLogLine is one framed entry of the raw event log dump. Columns are
// tab-separated: id, receive timestamp, request path, JSON payload.
type RawLogLine struct {
	ID        string
	Timestamp string
	Path      string
	Payload   []byte
	Ordinal   int64
}

// ParseRawLine splits one dump line. Ordinal is the 1-based position of the
// line in the file it was read from.
func ParseRawLine(line string, ordinal int64) (RawLogLine, error) {
	parts := strings.SplitN(line, "\t", 4)
	if len(parts) != 4 {
		return RawLogLine{}, fmt.Errorf("line %d: expected 4 tab-separated columns, got %d", ordinal, len(parts))
	}
	return RawLogLine{
		ID:        parts[0],
		Timestamp: parts[1],
		Path:      parts[2],
		Payload:   []byte(parts[3]),
		Ordinal:   ordinal,
	}, nil
}

// PreorgRecord is a canonical-only log entry read back from the preorg file.
// ReadLineCount is the entry's ordinal in the original raw log, so progress
// over the preorg file can still be reported against the raw file's length.
type PreorgRecord struct {
	Path          string
	Payload       []byte
	ReadLineCount int64
}
