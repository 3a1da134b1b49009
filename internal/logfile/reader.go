package logfile

import (
	"bufio"
	"fmt"
	"os"
)

const (
	initialBufSize = 64 * 1024
	// Single /new_block payloads can carry thousands of transactions.
	maxLineSize = 32 * 1024 * 1024
)

// Reader streams a line-delimited log file in file order. Memory use is
// bounded by the longest line, not the file size. A Reader is single-pass;
// restart by reopening.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
	ordinal int64
}

// Open fails fast if the file cannot be read.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, initialBufSize), maxLineSize)

	return &Reader{file: file, scanner: scanner}, nil
}

// Next returns the next line and its 1-based ordinal. ok is false once the
// file is exhausted; check Err afterwards.
func (r *Reader) Next() (line string, ordinal int64, ok bool) {
	if !r.scanner.Scan() {
		return "", 0, false
	}
	r.ordinal++
	return r.scanner.Text(), r.ordinal, true
}

func (r *Reader) Err() error {
	if err := r.scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}
	return nil
}

func (r *Reader) Close() error {
	return r.file.Close()
}
