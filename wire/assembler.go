// Package wire implements the stream interpreter's line protocol: reassembly
// of logical lines from arbitrarily-chunked transport bytes, and
// classification of each line into code, status, or ignorable content.
//
// The generation service interleaves three shapes on one chunked HTTP body:
//   - SSE-style frames:  data: {"phase": ..., "message": ..., "sequence": ...}
//   - loose progress markers:  💻 Generating HTML code...
//   - literal generated source lines:  <div class="hero">
//
// Chunk boundaries carry no meaning; a frame, a rune, or a single line may be
// split across any number of chunks.
package wire

import (
	"bytes"
	"strings"
)

// LineAssembler reassembles complete newline-terminated logical lines from a
// sequence of byte chunks. The unconsumed tail of the stream (no terminating
// newline observed yet) is carried as raw bytes between calls, so multi-byte
// UTF-8 sequences split across chunk boundaries are never corrupted: bytes
// are only decoded once their line is complete.
//
// Not safe for concurrent use; ownership is confined to the stream driver's
// read loop.
type LineAssembler struct {
	pending []byte
}

// NewLineAssembler creates an empty assembler.
func NewLineAssembler() *LineAssembler {
	return &LineAssembler{}
}

// Feed appends a chunk and returns every line completed by it, in order,
// with line terminators stripped. A chunk may complete zero lines (partial
// fragment) or several (multi-line chunk). Empty lines are returned as empty
// strings; the classifier filters them.
func (a *LineAssembler) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	a.pending = append(a.pending, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(a.pending, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, trimLineEnd(string(a.pending[:i])))
		a.pending = a.pending[i+1:]
	}
	return lines
}

// Flush returns any non-empty residual content as one final line. Called by
// the stream driver when the transport closes, so a trailing fragment with
// no terminating newline is not lost.
func (a *LineAssembler) Flush() (string, bool) {
	if len(a.pending) == 0 {
		return "", false
	}
	line := trimLineEnd(string(a.pending))
	a.pending = nil
	if line == "" {
		return "", false
	}
	return line, true
}

// PendingBytes reports the size of the held-back tail, for observability.
func (a *LineAssembler) PendingBytes() int {
	return len(a.pending)
}

// trimLineEnd strips a trailing carriage return left by CRLF framing.
func trimLineEnd(line string) string {
	return strings.TrimSuffix(line, "\r")
}
