package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Reader loads persisted traces from a filesystem store root. The inspect
// and stats commands use it to examine past conversions offline.
type Reader struct {
	root string
}

// NewReader creates a trace reader over root.
func NewReader(root string) (*Reader, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s is not a directory", root)
	}
	return &Reader{root: root}, nil
}

// LoadTrace loads the trace for one request ID.
func (r *Reader) LoadTrace(requestID string) (*Trace, error) {
	if err := validateRequestID(requestID); err != nil {
		return nil, err
	}
	return LoadTraceFile(filepath.Join(r.root, requestID, TraceName))
}

// ArtifactPath returns the artifact path for a request ID, if the artifact
// exists.
func (r *Reader) ArtifactPath(requestID string) (string, bool) {
	path := filepath.Join(r.root, requestID, ArtifactName)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// List returns all traces under the root, newest first. Entries that fail
// to decode are skipped.
func (r *Reader) List() ([]*Trace, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	var traces []*Trace
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		trace, err := r.LoadTrace(entry.Name())
		if err != nil {
			continue
		}
		traces = append(traces, trace)
	}

	sort.Slice(traces, func(i, j int) bool {
		return traces[i].CreatedAt.After(traces[j].CreatedAt)
	})
	return traces, nil
}

// LoadTraceFile loads and validates a trace from a file path.
func LoadTraceFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	trace, err := DecodeTrace(f)
	if err != nil {
		return nil, err
	}
	if err := trace.Validate(); err != nil {
		return nil, err
	}
	return trace, nil
}
