package policy

import (
	"context"
	"testing"

	"github.com/pagesmith-io/pagesmith/types"
)

func TestBufferedPolicy_HoldsUntilFlush(t *testing.T) {
	sink := NewCaptureSink()
	pol := NewBufferedPolicy(sink)
	ctx := context.Background()

	want := []string{"<!DOCTYPE html>", "<html>", "</html>"}
	for _, line := range want {
		if err := pol.IngestLine(ctx, line); err != nil {
			t.Fatalf("IngestLine() error: %v", err)
		}
	}
	if err := pol.IngestEvent(ctx, &types.Event{Phase: types.PhaseGenerating, Message: "💻 Generating HTML code..."}); err != nil {
		t.Fatalf("IngestEvent() error: %v", err)
	}

	lines, events := sink.Snapshot()
	if len(lines) != 0 || len(events) != 0 {
		t.Fatalf("sink received %d lines, %d events before flush, want nothing", len(lines), len(events))
	}
	stats := pol.Stats()
	if stats.BufferedLines != 3 || stats.BufferedEvents != 1 {
		t.Errorf("buffered = %d/%d, want 3/1", stats.BufferedLines, stats.BufferedEvents)
	}

	if err := pol.Flush(ctx); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	lines, events = sink.Snapshot()
	if len(lines) != len(want) {
		t.Fatalf("flushed %d lines, want %d", len(lines), len(want))
	}
	for i, line := range lines {
		if line != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, line, want[i])
		}
	}
	if len(events) != 1 {
		t.Errorf("flushed %d events, want 1", len(events))
	}
}

func TestBufferedPolicy_FlushIdempotent(t *testing.T) {
	sink := NewCaptureSink()
	pol := NewBufferedPolicy(sink)
	ctx := context.Background()

	if err := pol.IngestLine(ctx, "<html>"); err != nil {
		t.Fatalf("IngestLine() error: %v", err)
	}
	if err := pol.Flush(ctx); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if err := pol.Flush(ctx); err != nil {
		t.Fatalf("second Flush() error: %v", err)
	}

	lines, _ := sink.Snapshot()
	if len(lines) != 1 {
		t.Errorf("sink received %d lines after double flush, want 1", len(lines))
	}
	stats := pol.Stats()
	if stats.LinesDelivered != 1 {
		t.Errorf("LinesDelivered = %d, want 1", stats.LinesDelivered)
	}
	if stats.FlushCount != 2 {
		t.Errorf("FlushCount = %d, want 2", stats.FlushCount)
	}
	if stats.BufferedLines != 0 {
		t.Errorf("BufferedLines = %d after flush, want 0", stats.BufferedLines)
	}
}

func TestBufferedPolicy_IngestAfterFlushBuffersAgain(t *testing.T) {
	sink := NewCaptureSink()
	pol := NewBufferedPolicy(sink)
	ctx := context.Background()

	if err := pol.IngestLine(ctx, "first"); err != nil {
		t.Fatalf("IngestLine() error: %v", err)
	}
	if err := pol.Flush(ctx); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if err := pol.IngestLine(ctx, "second"); err != nil {
		t.Fatalf("IngestLine() error: %v", err)
	}
	if err := pol.Flush(ctx); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}

	lines, _ := sink.Snapshot()
	if len(lines) != 2 || lines[1] != "second" {
		t.Errorf("lines = %v, want [first second]", lines)
	}
}
