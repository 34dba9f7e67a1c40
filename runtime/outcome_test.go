package runtime

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestDeriveOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"Success", nil, OutcomeSuccess},
		{
			"Upstream",
			&StreamError{Kind: StreamErrorUpstream, Err: errors.New("model overloaded")},
			OutcomeUpstreamError,
		},
		{
			"Transport",
			&StreamError{Kind: StreamErrorTransport, Err: errors.New("connection reset")},
			OutcomeTransportError,
		},
		{
			"Canceled",
			&StreamError{Kind: StreamErrorCanceled, Err: context.Canceled},
			OutcomeCanceled,
		},
		{
			"Delivery",
			&StreamError{Kind: StreamErrorDelivery, Err: errors.New("sink gone")},
			OutcomeTransportError,
		},
		{
			"WrappedUpstream",
			fmt.Errorf("run failed: %w", &StreamError{Kind: StreamErrorUpstream, Err: errors.New("bad image")}),
			OutcomeUpstreamError,
		},
		{"Plain", errors.New("something else"), OutcomeTransportError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveOutcome(tt.err); got != tt.want {
				t.Errorf("DeriveOutcome() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutcome_ExitCode(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    int
	}{
		{OutcomeSuccess, 0},
		{OutcomeUpstreamError, 1},
		{OutcomeTransportError, 2},
		{OutcomeCanceled, 3},
		{Outcome("unknown"), 2},
	}
	for _, tt := range tests {
		if got := tt.outcome.ExitCode(); got != tt.want {
			t.Errorf("%s.ExitCode() = %d, want %d", tt.outcome, got, tt.want)
		}
	}
}

func TestOutcome_Trusted(t *testing.T) {
	if !OutcomeSuccess.Trusted() {
		t.Error("success outcome should be trusted")
	}
	for _, o := range []Outcome{OutcomeUpstreamError, OutcomeTransportError, OutcomeCanceled} {
		if o.Trusted() {
			t.Errorf("%s should not be trusted", o)
		}
	}
}
