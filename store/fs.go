package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FSStore writes artifacts and traces under a local directory root.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at root. The root directory
// is created if it does not exist.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FSStore{root: root}, nil
}

// Root returns the store's root directory.
func (s *FSStore) Root() string {
	return s.root
}

// Backend returns "fs".
func (s *FSStore) Backend() string {
	return "fs"
}

// SaveArtifact writes the generated page under <root>/<request_id>/page.html.
func (s *FSStore) SaveArtifact(ctx context.Context, requestID string, html []byte) (string, error) {
	return s.write(ctx, requestID, ArtifactName, html)
}

// SaveTrace writes the encoded trace under <root>/<request_id>/session.trace.
func (s *FSStore) SaveTrace(ctx context.Context, requestID string, trace *Trace) (string, error) {
	var buf bytes.Buffer
	if err := EncodeTrace(&buf, trace); err != nil {
		return "", err
	}
	return s.write(ctx, requestID, TraceName, buf.Bytes())
}

// Close is a no-op for the filesystem backend.
func (s *FSStore) Close() error {
	return nil
}

func (s *FSStore) write(ctx context.Context, requestID, name string, data []byte) (string, error) {
	if err := validateRequestID(requestID); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, requestID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create request directory: %w", err)
	}

	// Write to a temp file in the same directory, then rename. A crashed
	// writer never leaves a half-written artifact at the final path.
	path := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to finalize %s: %w", name, err)
	}
	return path, nil
}
