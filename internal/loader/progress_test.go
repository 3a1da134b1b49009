package loader

import (
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestProgressTrackerCrossesEachBoundaryOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tracker := newProgressTracker("test_phase", 100, zap.New(core))

	tracker.observe(10, 1)
	tracker.observe(19, 1)
	tracker.observe(20, 1)
	tracker.observe(55, 1) // jumps over 40
	tracker.observe(100, 1)
	tracker.observe(100, 1) // no re-log at the same boundary

	var percents []int64
	for _, entry := range logs.FilterMessage("phase progress").All() {
		fields := entry.ContextMap()
		percents = append(percents, fields["percent"].(int64))
	}

	want := []int64{20, 40, 60, 80, 100}
	if !reflect.DeepEqual(percents, want) {
		t.Fatalf("boundary log mismatch: %v != %v", percents, want)
	}
}

func TestProgressTrackerZeroTotalIsSilent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tracker := newProgressTracker("test_phase", 0, zap.New(core))

	tracker.observe(1, 1)
	tracker.observe(1000, 1)

	if n := logs.FilterMessage("phase progress").Len(); n != 0 {
		t.Fatalf("expected no progress logs, got %d", n)
	}
}
