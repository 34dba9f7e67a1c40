package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pagesmith-io/pagesmith/policy"
	"github.com/pagesmith-io/pagesmith/types"
)

// plainSink writes delivered output as plain text: document lines to out,
// status events to errOut. Used when the TUI is disabled so the document
// itself stays pipeable.
type plainSink struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

func newPlainSink(out, errOut io.Writer) *plainSink {
	return &plainSink{out: out, errOut: errOut}
}

func (s *plainSink) WriteLines(ctx context.Context, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range lines {
		if _, err := fmt.Fprintln(s.out, line); err != nil {
			return err
		}
	}
	return nil
}

func (s *plainSink) WriteEvents(ctx context.Context, events []*types.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range events {
		if _, err := fmt.Fprintf(s.errOut, "-> [%s] %s\n", ev.Phase, ev.Message); err != nil {
			return err
		}
	}
	return nil
}

func (s *plainSink) Close() error {
	return nil
}

var _ policy.Sink = (*plainSink)(nil)
