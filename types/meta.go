package types

// ConversionMeta identifies a single conversion request.
// One uploaded image produces exactly one conversion; there is no
// cross-conversion state reuse.
type ConversionMeta struct {
	// RequestID is the caller-chosen identifier, propagated to the service
	// via the X-Request-ID header and used as the storage partition key.
	RequestID string
	// Heuristic selects the service's heuristic description pipeline.
	Heuristic bool
}

// ConvertResult is the response of the non-streaming conversion call:
// one complete payload with no incremental events.
type ConvertResult struct {
	// Message is the service's human-readable status line.
	Message string `json:"message"`
	// Code is the complete generated HTML/CSS markup.
	Code string `json:"code"`
	// RequestID echoes the conversion request identifier.
	RequestID string `json:"request_id"`
}
