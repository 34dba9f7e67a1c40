// Package runtime implements the pagesmith conversion runtime: the stream
// driver that owns one streaming HTTP response, the session aggregate it
// mutates, and the paced emitter that hands interpreted output to the
// presentation sink.
package runtime

import (
	"strings"
	"sync"
)

// CodeAccumulator collects classified code lines into the final generated
// source buffer. Append-only during streaming; frozen once the conversion
// reaches terminal. Appends after freeze are no-ops, not errors — residual
// late chunks after terminal detection must not corrupt the artifact.
//
// Snapshot is safe to call concurrently with Append: the driver writes, the
// presentation side reads live previews.
type CodeAccumulator struct {
	mu     sync.RWMutex
	buf    strings.Builder
	lines  int64
	frozen bool
}

// NewCodeAccumulator creates an empty accumulator.
func NewCodeAccumulator() *CodeAccumulator {
	return &CodeAccumulator{}
}

// Append adds one code line, restoring the trailing newline the assembler
// stripped. No-op once frozen.
func (a *CodeAccumulator) Append(line string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.frozen {
		return
	}
	a.buf.WriteString(line)
	a.buf.WriteByte('\n')
	a.lines++
}

// Snapshot returns the accumulated source so far.
func (a *CodeAccumulator) Snapshot() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.buf.String()
}

// Freeze makes the buffer immutable. Idempotent.
func (a *CodeAccumulator) Freeze() {
	a.mu.Lock()
	a.frozen = true
	a.mu.Unlock()
}

// Frozen reports whether the buffer is immutable.
func (a *CodeAccumulator) Frozen() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frozen
}

// Len returns the accumulated size in bytes.
func (a *CodeAccumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.buf.Len()
}

// Lines returns the number of appended code lines.
func (a *CodeAccumulator) Lines() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lines
}
