// Package metrics provides per-conversion counters for the stream
// interpreter. The Collector accumulates during a single conversion and is a
// leaf package with no internal dependencies. Delivery-policy counters are
// absorbed from policy stats at completion rather than recorded live,
// avoiding double-counting.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all conversion metrics.
// Safe to read concurrently after creation. Field tags cover both the JSON
// stats output and the msgpack session trace.
type Snapshot struct {
	// Transport
	BytesRead  int64 `json:"bytes_read_total" msgpack:"bytes_read_total"`
	ChunksRead int64 `json:"chunks_read_total" msgpack:"chunks_read_total"`

	// Interpretation
	LinesTotal      int64 `json:"lines_total" msgpack:"lines_total"`
	CodeLines       int64 `json:"code_lines_total" msgpack:"code_lines_total"`
	StatusEvents    int64 `json:"status_events_total" msgpack:"status_events_total"`
	IgnoredLines    int64 `json:"ignored_lines_total" msgpack:"ignored_lines_total"`
	DecodeFallbacks int64 `json:"decode_fallbacks_total" msgpack:"decode_fallbacks_total"`

	// Termination
	SynthesizedCompletions int64 `json:"synthesized_completions_total" msgpack:"synthesized_completions_total"`
	UpstreamErrors         int64 `json:"upstream_errors_total" msgpack:"upstream_errors_total"`
	TransportErrors        int64 `json:"transport_errors_total" msgpack:"transport_errors_total"`

	// Delivery (absorbed from policy stats at completion)
	LinesDelivered  int64 `json:"lines_delivered_total" msgpack:"lines_delivered_total"`
	EventsDelivered int64 `json:"events_delivered_total" msgpack:"events_delivered_total"`

	// Dimensions (informational, set at construction)
	Mode           string `json:"mode" msgpack:"mode"`
	StorageBackend string `json:"storage_backend" msgpack:"storage_backend"`
	RequestID      string `json:"request_id" msgpack:"request_id"`
}

// Collector accumulates metrics during a single conversion.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe so
// wiring a collector stays optional in tests.
type Collector struct {
	mu sync.Mutex

	bytesRead  int64
	chunksRead int64

	linesTotal      int64
	codeLines       int64
	statusEvents    int64
	ignoredLines    int64
	decodeFallbacks int64

	synthesizedCompletions int64
	upstreamErrors         int64
	transportErrors        int64

	linesDelivered  int64
	eventsDelivered int64

	mode           string
	storageBackend string
	requestID      string
}

// NewCollector creates a Collector with dimension labels. Mode is the
// delivery mode (live or buffered); storageBackend names the artifact store.
func NewCollector(mode, storageBackend, requestID string) *Collector {
	return &Collector{
		mode:           mode,
		storageBackend: storageBackend,
		requestID:      requestID,
	}
}

// AddBytesRead records bytes consumed from the transport.
func (c *Collector) AddBytesRead(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.bytesRead += n
	c.chunksRead++
	c.mu.Unlock()
}

// IncLine records one classified logical line of the given kind.
func (c *Collector) IncLine(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.linesTotal++
	switch kind {
	case "code":
		c.codeLines++
	case "status":
		c.statusEvents++
	case "ignored":
		c.ignoredLines++
	}
	c.mu.Unlock()
}

// IncDecodeFallback records a structured-looking line that failed both JSON
// parses and was reclassified as literal code.
func (c *Collector) IncDecodeFallback() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeFallbacks++
	c.mu.Unlock()
}

// IncSynthesizedCompletion records a completion event fabricated on clean
// transport close.
func (c *Collector) IncSynthesizedCompletion() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.synthesizedCompletions++
	c.mu.Unlock()
}

// IncUpstreamError records an explicit error field reported by the service.
func (c *Collector) IncUpstreamError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.upstreamErrors++
	c.mu.Unlock()
}

// IncTransportError records a failed or broken HTTP stream.
func (c *Collector) IncTransportError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.transportErrors++
	c.mu.Unlock()
}

// AbsorbDeliveryStats copies final delivery counters from the policy layer.
// Called once at conversion completion.
func (c *Collector) AbsorbDeliveryStats(linesDelivered, eventsDelivered int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.linesDelivered = linesDelivered
	c.eventsDelivered = eventsDelivered
	c.mu.Unlock()
}

// Snapshot returns an immutable copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		BytesRead:              c.bytesRead,
		ChunksRead:             c.chunksRead,
		LinesTotal:             c.linesTotal,
		CodeLines:              c.codeLines,
		StatusEvents:           c.statusEvents,
		IgnoredLines:           c.ignoredLines,
		DecodeFallbacks:        c.decodeFallbacks,
		SynthesizedCompletions: c.synthesizedCompletions,
		UpstreamErrors:         c.upstreamErrors,
		TransportErrors:        c.transportErrors,
		LinesDelivered:         c.linesDelivered,
		EventsDelivered:        c.eventsDelivered,
		Mode:                   c.mode,
		StorageBackend:         c.storageBackend,
		RequestID:              c.requestID,
	}
}
