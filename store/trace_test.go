package store

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/pagesmith-io/pagesmith/metrics"
	"github.com/pagesmith-io/pagesmith/types"
)

func sampleTrace() *Trace {
	return &Trace{
		Version:   TraceVersion,
		RequestID: "req-1a2b3c4d",
		Heuristic: true,
		Outcome:   "success",
		Events: []*types.Event{
			{Phase: types.PhaseAnalyzing, Message: "🔍 Analyzing image...", Sequence: 0},
			{Phase: types.PhaseGenerating, Message: "💻 Generating HTML code...", Sequence: 1},
			{Phase: types.PhaseFinalizing, Message: "✅ Code Generation completed...", Sequence: 2, Synthesized: true},
		},
		CodeBytes:  128,
		CodeLines:  7,
		DurationMs: 4200,
		Metrics:    metrics.Snapshot{CodeLines: 7, StatusEvents: 3, Mode: "stream"},
		CreatedAt:  time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}
}

func TestTrace_EncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := sampleTrace()
	if err := EncodeTrace(&buf, want); err != nil {
		t.Fatalf("EncodeTrace() error: %v", err)
	}

	prefix := binary.BigEndian.Uint32(buf.Bytes()[:4])
	if int(prefix) != buf.Len()-4 {
		t.Errorf("length prefix = %d, payload is %d bytes", prefix, buf.Len()-4)
	}

	got, err := DecodeTrace(&buf)
	if err != nil {
		t.Fatalf("DecodeTrace() error: %v", err)
	}
	if got.RequestID != want.RequestID || got.Outcome != want.Outcome {
		t.Errorf("decoded identity = %s/%s, want %s/%s",
			got.RequestID, got.Outcome, want.RequestID, want.Outcome)
	}
	if len(got.Events) != len(want.Events) {
		t.Fatalf("decoded %d events, want %d", len(got.Events), len(want.Events))
	}
	for i, ev := range got.Events {
		if *ev != *want.Events[i] {
			t.Errorf("events[%d] = %+v, want %+v", i, ev, want.Events[i])
		}
	}
	if got.Metrics.CodeLines != 7 || got.Metrics.Mode != "stream" {
		t.Errorf("decoded metrics = %+v", got.Metrics)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestDecodeTrace_RejectsOversizedPrefix(t *testing.T) {
	var buf bytes.Buffer
	var lengthBuf [4]byte
	binary.BigEndian.PutUint32(lengthBuf[:], MaxTraceSize)
	buf.Write(lengthBuf[:])

	if _, err := DecodeTrace(&buf); err == nil {
		t.Fatal("DecodeTrace() accepted an oversized length prefix")
	}
}

func TestDecodeTrace_RejectsVersionMismatch(t *testing.T) {
	trace := sampleTrace()
	trace.Version = TraceVersion + 1

	var buf bytes.Buffer
	if err := EncodeTrace(&buf, trace); err != nil {
		t.Fatalf("EncodeTrace() error: %v", err)
	}
	if _, err := DecodeTrace(&buf); err == nil {
		t.Fatal("DecodeTrace() accepted a version mismatch")
	}
}

func TestDecodeTrace_RejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeTrace(&buf, sampleTrace()); err != nil {
		t.Fatalf("EncodeTrace() error: %v", err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-10])

	if _, err := DecodeTrace(truncated); err == nil {
		t.Fatal("DecodeTrace() accepted a truncated payload")
	}
}

func TestTrace_Validate(t *testing.T) {
	trace := sampleTrace()
	if err := trace.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	trace.RequestID = ""
	if err := trace.Validate(); err == nil {
		t.Error("Validate() accepted empty request ID")
	}
}

func TestParseS3Path(t *testing.T) {
	tests := []struct {
		path       string
		wantBucket string
		wantPrefix string
	}{
		{"conversions", "conversions", ""},
		{"conversions/pagesmith", "conversions", "pagesmith"},
		{"conversions/pagesmith/prod", "conversions", "pagesmith/prod"},
	}
	for _, tt := range tests {
		bucket, prefix := ParseS3Path(tt.path)
		if bucket != tt.wantBucket || prefix != tt.wantPrefix {
			t.Errorf("ParseS3Path(%q) = (%q, %q), want (%q, %q)",
				tt.path, bucket, prefix, tt.wantBucket, tt.wantPrefix)
		}
	}
}

func TestValidateRequestID(t *testing.T) {
	if err := validateRequestID("req-1a2b3c4d"); err != nil {
		t.Errorf("validateRequestID() error: %v", err)
	}
	for _, id := range []string{"", "a/b", "a\\b"} {
		if err := validateRequestID(id); err == nil {
			t.Errorf("validateRequestID(%q) accepted an invalid ID", id)
		}
	}
}
