package adapter

import "testing"

func TestConversionCompletedEvent_Validate(t *testing.T) {
	valid := ConversionCompletedEvent{
		EventType: EventType,
		RequestID: "req-1a2b3c4d",
		Outcome:   "success",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ConversionCompletedEvent)
	}{
		{"WrongEventType", func(e *ConversionCompletedEvent) { e.EventType = "run_completed" }},
		{"EmptyEventType", func(e *ConversionCompletedEvent) { e.EventType = "" }},
		{"MissingRequestID", func(e *ConversionCompletedEvent) { e.RequestID = "" }},
		{"MissingOutcome", func(e *ConversionCompletedEvent) { e.Outcome = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := valid
			tt.mutate(&ev)
			if err := ev.Validate(); err == nil {
				t.Error("Validate() accepted an incomplete event")
			}
		})
	}
}
