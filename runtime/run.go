package runtime

import (
	"context"
	"io"
	"time"

	"github.com/pagesmith-io/pagesmith/adapter"
	"github.com/pagesmith-io/pagesmith/log"
	"github.com/pagesmith-io/pagesmith/metrics"
	"github.com/pagesmith-io/pagesmith/policy"
	"github.com/pagesmith-io/pagesmith/store"
	"github.com/pagesmith-io/pagesmith/types"
)

// teardownTimeout bounds best-effort flush, persistence, and notification
// after the stream ends, independent of the caller's context.
const teardownTimeout = 30 * time.Second

// StreamOpener opens the conversion byte stream. Abstracting the HTTP
// client behind a function keeps orchestration testable.
type StreamOpener func(ctx context.Context) (io.ReadCloser, error)

// RunConfig configures a single conversion.
type RunConfig struct {
	// Meta is the conversion identity.
	Meta types.ConversionMeta
	// OpenStream opens the service byte stream (required).
	OpenStream StreamOpener
	// Policy is the delivery policy (required).
	Policy policy.Policy
	// Store persists the artifact and trace. If nil, nothing is persisted.
	Store store.Store
	// Adapter publishes the completion event. If nil, no event is published.
	Adapter adapter.Adapter
	// Collector is the metrics collector for this conversion.
	// If nil, no metrics are recorded (all Collector methods are nil-safe).
	Collector *metrics.Collector
	// Logger overrides the default logger. The TUI passes log.Nop() so
	// structured output does not corrupt the terminal.
	Logger *log.Logger
}

// RunResult represents the result of one conversion.
type RunResult struct {
	// Session holds the interpreted state: events, phases, code.
	Session *Session
	// Outcome is the conversion outcome.
	Outcome Outcome
	// Code is the frozen generated document.
	Code string
	// StoragePath is where the artifact was written, if it was.
	StoragePath string
	// TracePath is where the trace was written, if it was.
	TracePath string
	// Duration is the total conversion duration.
	Duration time.Duration
	// PolicyStats is the delivery statistics.
	PolicyStats policy.Stats
	// Err is the stream driver error, nil on success.
	Err error
}

// RunOrchestrator orchestrates a single conversion end-to-end.
type RunOrchestrator struct {
	config *RunConfig
	logger *log.Logger
}

// NewRunOrchestrator creates an orchestrator for one conversion.
func NewRunOrchestrator(config *RunConfig) *RunOrchestrator {
	logger := config.Logger
	if logger == nil {
		logger = log.NewLogger(config.Meta)
	}
	return &RunOrchestrator{
		config: config,
		logger: logger,
	}
}

// Execute runs the conversion end-to-end.
//
// Execution flow:
//  1. Open the service stream
//  2. Run the stream driver until terminal
//  3. Flush the policy (best effort, all termination paths)
//  4. Derive the outcome
//  5. Persist artifact and trace
//  6. Publish the completion event
func (r *RunOrchestrator) Execute(ctx context.Context) (*RunResult, error) {
	session := NewSession(r.config.Meta)
	driver := NewStreamDriver(session, r.config.Policy, r.logger, r.config.Collector)

	r.logger.Info("starting conversion", nil)

	var runErr error
	body, err := r.config.OpenStream(ctx)
	if err != nil {
		r.config.Collector.IncTransportError()
		r.logger.Error("failed to open stream", map[string]any{
			"error": err.Error(),
		})
		session.markTerminal()
		if ctx.Err() != nil {
			runErr = &StreamError{Kind: StreamErrorCanceled, Err: ctx.Err()}
		} else {
			runErr = &StreamError{Kind: StreamErrorTransport, Err: err}
		}
	} else {
		runErr = driver.Run(ctx, body)
		_ = body.Close()
	}

	// Best-effort flush on all termination paths. WithoutCancel preserves
	// context values while ignoring parent cancellation; Flush is
	// idempotent, so paths that already flushed are unaffected.
	flushCtx, flushCancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	if flushErr := r.config.Policy.Flush(flushCtx); flushErr != nil {
		r.logger.Warn("policy flush failed (best effort)", map[string]any{
			"error": flushErr.Error(),
		})
	}
	flushCancel()

	outcome := DeriveOutcome(runErr)
	stats := r.config.Policy.Stats()
	r.config.Collector.AbsorbDeliveryStats(stats.LinesDelivered, stats.EventsDelivered)

	result := &RunResult{
		Session:     session,
		Outcome:     outcome,
		Code:        session.Code().Snapshot(),
		Duration:    session.Duration(),
		PolicyStats: stats,
		Err:         runErr,
	}

	teardownCtx, teardownCancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer teardownCancel()
	r.persist(teardownCtx, result)
	r.notify(teardownCtx, result)

	r.logger.Info("conversion finished", map[string]any{
		"outcome":     string(outcome),
		"duration_ms": result.Duration.Milliseconds(),
		"code_bytes":  len(result.Code),
		"events":      len(session.Events()),
	})
	return result, runErr
}

// persist writes the artifact (trusted outcomes only) and the trace
// (always). Persistence failures are logged, not fatal: the interpreted
// result is already in hand.
func (r *RunOrchestrator) persist(ctx context.Context, result *RunResult) {
	if r.config.Store == nil {
		return
	}
	requestID := r.config.Meta.RequestID

	if result.Outcome.Trusted() && len(result.Code) > 0 {
		path, err := r.config.Store.SaveArtifact(ctx, requestID, []byte(result.Code))
		if err != nil {
			r.logger.Warn("failed to save artifact", map[string]any{
				"error": err.Error(),
			})
		} else {
			result.StoragePath = path
		}
	}

	trace := &store.Trace{
		Version:    store.TraceVersion,
		RequestID:  requestID,
		Heuristic:  r.config.Meta.Heuristic,
		Outcome:    string(result.Outcome),
		Events:     result.Session.Events(),
		CodeBytes:  len(result.Code),
		CodeLines:  result.Session.Code().Lines(),
		DurationMs: result.Duration.Milliseconds(),
		Metrics:    r.config.Collector.Snapshot(),
		CreatedAt:  time.Now().UTC(),
	}
	path, err := r.config.Store.SaveTrace(ctx, requestID, trace)
	if err != nil {
		r.logger.Warn("failed to save trace", map[string]any{
			"error": err.Error(),
		})
		return
	}
	result.TracePath = path
}

// notify publishes the completion event. Publish failures are logged, not
// fatal.
func (r *RunOrchestrator) notify(ctx context.Context, result *RunResult) {
	if r.config.Adapter == nil {
		return
	}

	event := &adapter.ConversionCompletedEvent{
		EventType:   adapter.EventType,
		RequestID:   r.config.Meta.RequestID,
		Outcome:     string(result.Outcome),
		Heuristic:   r.config.Meta.Heuristic,
		CodeBytes:   len(result.Code),
		EventCount:  int64(len(result.Session.Events())),
		DurationMs:  result.Duration.Milliseconds(),
		StoragePath: result.StoragePath,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := r.config.Adapter.Publish(ctx, event); err != nil {
		r.logger.Warn("failed to publish completion event", map[string]any{
			"error": err.Error(),
		})
	}
}
