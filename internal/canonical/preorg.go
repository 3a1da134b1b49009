package canonical

import (
	"fmt"
	"strconv"

	"eventReplay/internal/logfile"
	"eventReplay/internal/model"
)

// PreorgReader streams typed records out of a preorg file, optionally
// filtered to one event path. Single pass; reopen to restart.
type PreorgReader struct {
	reader     *logfile.Reader
	pathFilter string
}

// OpenPreorg opens the preorg file. pathFilter restricts the stream to one
// event path; empty means every path.
func OpenPreorg(path string, pathFilter string) (*PreorgReader, error) {
	reader, err := logfile.Open(path)
	if err != nil {
		return nil, err
	}
	return &PreorgReader{reader: reader, pathFilter: pathFilter}, nil
}

// Next returns the next matching record. ReadLineCount carries the record's
// ordinal in the original raw log, parsed from the rewritten first column.
func (p *PreorgReader) Next() (model.PreorgRecord, bool, error) {
	for {
		line, ordinal, ok := p.reader.Next()
		if !ok {
			return model.PreorgRecord{}, false, p.reader.Err()
		}

		raw, err := model.ParseRawLine(line, ordinal)
		if err != nil {
			return model.PreorgRecord{}, false, err
		}
		readLineCount, err := strconv.ParseInt(raw.ID, 10, 64)
		if err != nil {
			return model.PreorgRecord{}, false, fmt.Errorf("preorg line %d: bad source ordinal %q: %w", ordinal, raw.ID, err)
		}

		if p.pathFilter != "" && raw.Path != p.pathFilter {
			continue
		}

		return model.PreorgRecord{
			Path:          raw.Path,
			Payload:       raw.Payload,
			ReadLineCount: readLineCount,
		}, true, nil
	}
}

func (p *PreorgReader) Close() error {
	return p.reader.Close()
}
