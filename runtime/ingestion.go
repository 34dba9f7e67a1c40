package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pagesmith-io/pagesmith/log"
	"github.com/pagesmith-io/pagesmith/metrics"
	"github.com/pagesmith-io/pagesmith/policy"
	"github.com/pagesmith-io/pagesmith/types"
	"github.com/pagesmith-io/pagesmith/wire"
)

// readBufferSize is the transport read buffer. Chunk boundaries carry no
// protocol meaning, so the size only affects syscall frequency.
const readBufferSize = 4096

// synthesizedCompletion is the message of the completion event fabricated
// when the transport closes without an explicit completion marker. Matches
// the service's own final-event text so downstream grouping is uniform.
const synthesizedCompletion = "✅ Code Generation completed..."

// StreamErrorKind classifies stream driver errors for outcome determination.
type StreamErrorKind int

const (
	// StreamErrorTransport indicates the HTTP stream failed or broke.
	StreamErrorTransport StreamErrorKind = iota
	// StreamErrorUpstream indicates the service reported an explicit error.
	StreamErrorUpstream
	// StreamErrorCanceled indicates context cancellation.
	StreamErrorCanceled
	// StreamErrorDelivery indicates the delivery policy or sink failed.
	StreamErrorDelivery
)

// StreamError represents a fatal stream driver error.
type StreamError struct {
	// Kind classifies the failure.
	Kind StreamErrorKind
	// Err is the underlying error.
	Err error
}

func (e *StreamError) Error() string {
	return e.Err.Error()
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// IsTransportError returns true if the error is a transport failure.
func IsTransportError(err error) bool {
	return streamErrorKind(err) == StreamErrorTransport
}

// IsUpstreamError returns true if the error is a service-reported error.
func IsUpstreamError(err error) bool {
	return streamErrorKind(err) == StreamErrorUpstream
}

// IsCanceledError returns true if the error is due to context cancellation.
func IsCanceledError(err error) bool {
	return streamErrorKind(err) == StreamErrorCanceled
}

func streamErrorKind(err error) StreamErrorKind {
	var sErr *StreamError
	if errors.As(err, &sErr) {
		return sErr.Kind
	}
	return StreamErrorKind(-1)
}

// StreamDriver owns the lifecycle of one streaming conversion: it reads raw
// chunks from the HTTP body, feeds the session's line assembler, classifies
// each completed line, and routes the verdict to the session state and the
// delivery policy.
//
// All session mutation is confined to the driver's read loop; no locking is
// needed beyond the session's own read-side guards.
//
// Invariants enforced here:
//   - every classified code line, and nothing else, reaches GeneratedCode
//   - the first terminal signal freezes the session; residual lines after
//     it are discarded
//   - a clean transport close without a terminal signal flushes the
//     trailing fragment and synthesizes a finalizing completion event
type StreamDriver struct {
	session   *Session
	policy    policy.Policy
	logger    *log.Logger
	collector *metrics.Collector
}

// NewStreamDriver creates a driver for one session.
func NewStreamDriver(
	session *Session,
	pol policy.Policy,
	logger *log.Logger,
	collector *metrics.Collector,
) *StreamDriver {
	return &StreamDriver{
		session:   session,
		policy:    pol,
		logger:    logger,
		collector: collector,
	}
}

// Run consumes the stream until EOF or a fatal error.
// Returns:
//   - nil: stream ended, session is terminal (explicitly or synthesized)
//   - *StreamError with Kind=StreamErrorTransport: broken HTTP stream
//   - *StreamError with Kind=StreamErrorUpstream: service-reported error
//   - *StreamError with Kind=StreamErrorCanceled: context canceled
//   - *StreamError with Kind=StreamErrorDelivery: policy/sink failure
func (d *StreamDriver) Run(ctx context.Context, body io.Reader) error {
	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-ctx.Done():
			d.session.markTerminal()
			return &StreamError{Kind: StreamErrorCanceled, Err: ctx.Err()}
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			d.collector.AddBytesRead(int64(n))
			for _, line := range d.session.assembler.Feed(buf[:n]) {
				if perr := d.processLine(ctx, line); perr != nil {
					return perr
				}
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return d.finish(ctx)
			}
			// Cancellation surfaces as a read error when the HTTP request
			// context is torn down mid-read.
			if ctx.Err() != nil {
				d.session.markTerminal()
				return &StreamError{Kind: StreamErrorCanceled, Err: ctx.Err()}
			}
			// A broken stream after terminal is normal shutdown noise.
			if d.session.Terminal() {
				d.logger.Debug("stream closed after terminal (expected)", map[string]any{
					"error": err.Error(),
				})
				return d.finish(ctx)
			}
			d.collector.IncTransportError()
			d.logger.Error("stream read failed", map[string]any{
				"error": err.Error(),
			})
			d.session.markTerminal()
			return &StreamError{
				Kind: StreamErrorTransport,
				Err:  fmt.Errorf("stream read failed: %w", err),
			}
		}
	}
}

// processLine classifies one logical line and routes the verdict.
func (d *StreamDriver) processLine(ctx context.Context, line string) error {
	// Residual lines after terminal detection are discarded; the session
	// is frozen.
	if d.session.Terminal() {
		return nil
	}

	verdict, err := d.session.classifier.Classify(line)
	if err != nil {
		var upErr *wire.UpstreamError
		if errors.As(err, &upErr) {
			d.collector.IncUpstreamError()
			d.logger.Error("service reported error", map[string]any{
				"error": upErr.Message,
			})
			d.session.markTerminal()
			return &StreamError{Kind: StreamErrorUpstream, Err: err}
		}
		return err
	}

	d.collector.IncLine(verdict.Kind.String())
	if verdict.Fallback {
		d.collector.IncDecodeFallback()
		d.logger.Warn("malformed structured line kept as code", map[string]any{
			"line": line,
		})
	}

	switch verdict.Kind {
	case types.LineStatus:
		d.session.observe(verdict.Event)
		if err := d.policy.IngestEvent(ctx, verdict.Event); err != nil {
			return &StreamError{Kind: StreamErrorDelivery, Err: err}
		}
	case types.LineCode:
		d.session.code.Append(verdict.Code)
		if err := d.policy.IngestLine(ctx, verdict.Code); err != nil {
			return &StreamError{Kind: StreamErrorDelivery, Err: err}
		}
	case types.LineIgnored:
		// Blank lines and sentinels produce nothing.
	}

	if verdict.Terminal {
		d.logger.Info("terminal marker received", map[string]any{
			"code_bytes": d.session.code.Len(),
			"events":     d.session.classifier.EventCount(),
		})
		d.session.markTerminal()
	}

	return nil
}

// finish completes the session on transport close: flushes any trailing
// fragment as a final code line, synthesizes a finalizing completion if the
// service never sent one, and flushes the delivery policy.
func (d *StreamDriver) finish(ctx context.Context) error {
	if !d.session.Terminal() {
		if line, ok := d.session.assembler.Flush(); ok {
			if err := d.processLine(ctx, line); err != nil {
				return err
			}
		}
	}

	if !d.session.Terminal() {
		// Stream ended cleanly without a completion marker. Treat close as
		// success but mark the event synthesized so callers can tell
		// inferred completion from reported completion.
		ev := &types.Event{
			Phase:       types.PhaseFinalizing,
			Message:     synthesizedCompletion,
			Sequence:    d.session.classifier.EventCount(),
			Synthesized: true,
		}
		d.collector.IncSynthesizedCompletion()
		d.logger.Info("completion synthesized on stream close", map[string]any{
			"sequence": ev.Sequence,
		})
		d.session.observe(ev)
		if err := d.policy.IngestEvent(ctx, ev); err != nil {
			return &StreamError{Kind: StreamErrorDelivery, Err: err}
		}
		d.session.markTerminal()
	}

	if err := d.policy.Flush(ctx); err != nil {
		return &StreamError{Kind: StreamErrorDelivery, Err: err}
	}
	return nil
}
