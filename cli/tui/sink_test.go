package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pagesmith-io/pagesmith/types"
)

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.msgs = append(r.msgs, msg)
}

func TestSink_ForwardsBatchesAsMessages(t *testing.T) {
	rec := &recordingSender{}
	sink := NewSink(rec)
	ctx := context.Background()

	if err := sink.WriteLines(ctx, []string{"<html>", "</html>"}); err != nil {
		t.Fatalf("WriteLines() error: %v", err)
	}
	if err := sink.WriteEvents(ctx, []*types.Event{
		{Phase: types.PhaseGenerating, Message: "💻 Generating HTML code..."},
	}); err != nil {
		t.Fatalf("WriteEvents() error: %v", err)
	}

	if len(rec.msgs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(rec.msgs))
	}
	lines, ok := rec.msgs[0].(LinesMsg)
	if !ok || len(lines) != 2 || lines[0] != "<html>" {
		t.Errorf("msgs[0] = %#v, want LinesMsg with both lines", rec.msgs[0])
	}
	events, ok := rec.msgs[1].(EventsMsg)
	if !ok || len(events) != 1 {
		t.Errorf("msgs[1] = %#v, want EventsMsg with one event", rec.msgs[1])
	}
}

func TestSink_EmptyBatchesNotSent(t *testing.T) {
	rec := &recordingSender{}
	sink := NewSink(rec)
	ctx := context.Background()

	if err := sink.WriteLines(ctx, nil); err != nil {
		t.Fatalf("WriteLines() error: %v", err)
	}
	if err := sink.WriteEvents(ctx, nil); err != nil {
		t.Fatalf("WriteEvents() error: %v", err)
	}
	if len(rec.msgs) != 0 {
		t.Errorf("sent %d messages for empty batches, want 0", len(rec.msgs))
	}
}

func TestSink_CanceledContext(t *testing.T) {
	rec := &recordingSender{}
	sink := NewSink(rec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sink.WriteLines(ctx, []string{"<html>"}); err == nil {
		t.Error("WriteLines() succeeded with a canceled context")
	}
	if len(rec.msgs) != 0 {
		t.Errorf("sent %d messages after cancellation, want 0", len(rec.msgs))
	}
}
