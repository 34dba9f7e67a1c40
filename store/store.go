// Package store persists conversion artifacts and session traces.
//
// Two backends are supported: a local filesystem tree and an S3-compatible
// object store. Both lay out objects the same way:
//
//	<root>/<request_id>/page.html
//	<root>/<request_id>/session.trace
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Object names within a request directory.
const (
	// ArtifactName is the generated page written for successful conversions.
	ArtifactName = "page.html"
	// TraceName is the session trace written for every conversion.
	TraceName = "session.trace"
)

// Store persists conversion outputs keyed by request ID.
type Store interface {
	// SaveArtifact writes the generated HTML document and returns the
	// storage path of the written object.
	SaveArtifact(ctx context.Context, requestID string, html []byte) (string, error)

	// SaveTrace writes the encoded session trace and returns the storage
	// path of the written object.
	SaveTrace(ctx context.Context, requestID string, trace *Trace) (string, error)

	// Backend returns the backend name ("fs" or "s3") for logging and
	// metrics dimensions.
	Backend() string

	// Close releases backend resources.
	Close() error
}

// Config selects and configures a storage backend.
type Config struct {
	// Backend is "fs" or "s3".
	Backend string
	// Root is the directory root for the fs backend.
	Root string
	// S3 configures the s3 backend.
	S3 S3Config
}

// New creates a store for the configured backend.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "fs":
		return NewFSStore(cfg.Root)
	case "s3":
		return NewS3Store(context.Background(), cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// ParseS3Path parses a path in format "bucket/prefix" or "bucket".
func ParseS3Path(path string) (bucket, prefix string) {
	parts := strings.SplitN(path, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = parts[1]
	}
	return bucket, prefix
}

func validateRequestID(requestID string) error {
	if requestID == "" {
		return errors.New("request ID is required")
	}
	if strings.ContainsAny(requestID, "/\\") {
		return fmt.Errorf("request ID %q contains path separators", requestID)
	}
	return nil
}
