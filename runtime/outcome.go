package runtime

// Outcome is the final disposition of one conversion.
type Outcome string

// Outcome constants.
const (
	// OutcomeSuccess: the session reached terminal with generated code.
	OutcomeSuccess Outcome = "success"
	// OutcomeUpstreamError: the service reported an explicit error; no
	// partial code is trusted.
	OutcomeUpstreamError Outcome = "upstream_error"
	// OutcomeTransportError: the HTTP stream failed, broke mid-flight, or
	// delivery to the sink failed.
	OutcomeTransportError Outcome = "transport_error"
	// OutcomeCanceled: the caller aborted the conversion.
	OutcomeCanceled Outcome = "canceled"
)

// DeriveOutcome maps a stream driver error to the conversion outcome.
func DeriveOutcome(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsUpstreamError(err):
		return OutcomeUpstreamError
	case IsCanceledError(err):
		return OutcomeCanceled
	default:
		return OutcomeTransportError
	}
}

// ExitCode maps the outcome to the CLI process exit code.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeSuccess:
		return 0
	case OutcomeUpstreamError:
		return 1
	case OutcomeTransportError:
		return 2
	case OutcomeCanceled:
		return 3
	default:
		return 2
	}
}

// Trusted reports whether the generated code may be persisted and shown as
// a finished artifact.
func (o Outcome) Trusted() bool {
	return o == OutcomeSuccess
}
