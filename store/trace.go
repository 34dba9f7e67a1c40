package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pagesmith-io/pagesmith/metrics"
	"github.com/pagesmith-io/pagesmith/types"
)

// Trace encoding constants.
const (
	// TraceVersion is the current trace format version.
	TraceVersion = 1
	// MaxTraceSize is the maximum encoded trace size (16 MiB), including
	// the length prefix.
	MaxTraceSize = 16 * 1024 * 1024
	// lengthPrefixSize is the size of the length prefix in bytes.
	lengthPrefixSize = 4
)

// Trace is the persisted record of one conversion session. It carries
// everything inspect and stats need without re-running the conversion.
type Trace struct {
	Version    int              `msgpack:"version"`
	RequestID  string           `msgpack:"request_id"`
	Heuristic  bool             `msgpack:"heuristic"`
	Outcome    string           `msgpack:"outcome"`
	Events     []*types.Event   `msgpack:"events"`
	CodeBytes  int              `msgpack:"code_bytes"`
	CodeLines  int64            `msgpack:"code_lines"`
	DurationMs int64            `msgpack:"duration_ms"`
	Metrics    metrics.Snapshot `msgpack:"metrics"`
	CreatedAt  time.Time        `msgpack:"created_at"`
}

// EncodeTrace writes a trace to w as a single length-prefixed msgpack frame
// (4-byte big-endian length, then the payload).
func EncodeTrace(w io.Writer, trace *Trace) error {
	payload, err := msgpack.Marshal(trace)
	if err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}
	if len(payload) > MaxTraceSize-lengthPrefixSize {
		return fmt.Errorf("trace payload %d exceeds maximum %d", len(payload), MaxTraceSize-lengthPrefixSize)
	}

	var lengthBuf [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(payload)))
	if _, err := w.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// DecodeTrace reads a single length-prefixed trace frame from r.
func DecodeTrace(r io.Reader) (*Trace, error) {
	var lengthBuf [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read length prefix: %w", err)
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxTraceSize-lengthPrefixSize {
		return nil, fmt.Errorf("trace payload %d exceeds maximum %d", payloadSize, MaxTraceSize-lengthPrefixSize)
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	var trace Trace
	if err := msgpack.Unmarshal(payload, &trace); err != nil {
		return nil, fmt.Errorf("failed to decode trace: %w", err)
	}
	if trace.Version != TraceVersion {
		return nil, fmt.Errorf("unsupported trace version %d", trace.Version)
	}
	return &trace, nil
}

// Validate checks trace fields that downstream consumers rely on.
func (t *Trace) Validate() error {
	if t.Version != TraceVersion {
		return fmt.Errorf("unsupported trace version %d", t.Version)
	}
	if t.RequestID == "" {
		return errors.New("trace request ID is required")
	}
	return nil
}
