package logfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReaderStreamsLinesWithOrdinals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.tsv")
	if err := os.WriteFile(path, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reader.Close()

	var lines []string
	var ordinals []int64
	for {
		line, ordinal, ok := reader.Next()
		if !ok {
			break
		}
		lines = append(lines, line)
		ordinals = append(ordinals, ordinal)
	}
	if err := reader.Err(); err != nil {
		t.Fatalf("read: %v", err)
	}

	if len(lines) != 3 || lines[0] != "first" || lines[2] != "third" {
		t.Fatalf("lines mismatch: %v", lines)
	}
	if ordinals[0] != 1 || ordinals[1] != 2 || ordinals[2] != 3 {
		t.Fatalf("ordinals mismatch: %v", ordinals)
	}
}

func TestReaderHandlesMissingTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.tsv")
	if err := os.WriteFile(path, []byte("only line"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reader.Close()

	line, ordinal, ok := reader.Next()
	if !ok || line != "only line" || ordinal != 1 {
		t.Fatalf("unexpected result: %q %d %v", line, ordinal, ok)
	}
	if _, _, ok := reader.Next(); ok {
		t.Fatalf("expected exhaustion after one line")
	}
}

func TestOpenMissingFileFailsFast(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.tsv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
