package runtime

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pagesmith-io/pagesmith/policy"
	"github.com/pagesmith-io/pagesmith/types"
)

func TestPacedSink_CloseDrainsQueue(t *testing.T) {
	inner := policy.NewCaptureSink()
	paced := NewPacedSink(context.Background(), inner, 0)

	var want []string
	for i := 0; i < 20; i++ {
		line := fmt.Sprintf("<p>%d</p>", i)
		want = append(want, line)
		if err := paced.WriteLines(context.Background(), []string{line}); err != nil {
			t.Fatalf("WriteLines() error: %v", err)
		}
	}
	if err := paced.WriteEvents(context.Background(), []*types.Event{
		{Phase: types.PhaseGenerating, Message: "💻 Generating HTML code..."},
	}); err != nil {
		t.Fatalf("WriteEvents() error: %v", err)
	}

	if err := paced.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	lines, events := inner.Snapshot()
	if len(lines) != len(want) {
		t.Fatalf("forwarded %d lines, want %d", len(lines), len(want))
	}
	for i, line := range lines {
		if line != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, line, want[i])
		}
	}
	if len(events) != 1 {
		t.Errorf("forwarded %d events, want 1", len(events))
	}
	if !inner.Closed {
		t.Error("inner sink not closed")
	}
}

func TestPacedSink_WritesDoNotBlockOnPace(t *testing.T) {
	inner := policy.NewCaptureSink()
	paced := NewPacedSink(context.Background(), inner, MaxPace)
	defer paced.Close()

	start := time.Now()
	for i := 0; i < 50; i++ {
		if err := paced.WriteLines(context.Background(), []string{"<div>"}); err != nil {
			t.Fatalf("WriteLines() error: %v", err)
		}
	}
	// 50 batches at MaxPace each would take 2.5s if writes waited on the
	// delay; the enqueue path must return immediately.
	if elapsed := time.Since(start); elapsed > MaxPace {
		t.Errorf("50 writes took %v, enqueue is blocking on pace", elapsed)
	}
}

func TestPacedSink_WriteAfterCloseRejected(t *testing.T) {
	paced := NewPacedSink(context.Background(), policy.NewCaptureSink(), 0)
	if err := paced.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := paced.WriteLines(context.Background(), []string{"<html>"}); err != ErrEmitterClosed {
		t.Errorf("WriteLines() after close = %v, want ErrEmitterClosed", err)
	}
}

func TestPacedSink_PaceClamped(t *testing.T) {
	paced := NewPacedSink(context.Background(), policy.NewCaptureSink(), time.Minute)
	defer paced.Close()
	if paced.pace != MaxPace {
		t.Errorf("pace = %v, want clamp to %v", paced.pace, MaxPace)
	}

	negative := NewPacedSink(context.Background(), policy.NewCaptureSink(), -time.Second)
	defer negative.Close()
	if negative.pace != 0 {
		t.Errorf("pace = %v, want 0 for negative input", negative.pace)
	}
}

func TestPacedSink_CanceledContextDiscardsQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := policy.NewCaptureSink()
	paced := NewPacedSink(ctx, inner, MaxPace)

	for i := 0; i < 10; i++ {
		// Errors tolerated here: cancellation below may race the enqueue.
		_ = paced.WriteLines(context.Background(), []string{"<div>"})
	}
	cancel()
	if err := paced.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if err := paced.WriteLines(context.Background(), []string{"<div>"}); err == nil {
		t.Error("WriteLines() after cancel+close succeeded, want error")
	}
}
