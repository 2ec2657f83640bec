package metrics

import coremetrics "github.com/alfosobral/UniParking/core/metrics"

// MultiSink fans every record out to all configured sinks.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink composes the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

var _ coremetrics.Sink = (*MultiSink)(nil)

func (m *MultiSink) RecordEvent(eventType string) {
	for _, s := range m.sinks {
		s.RecordEvent(eventType)
	}
}

func (m *MultiSink) RecordDuplicate() {
	for _, s := range m.sinks {
		s.RecordDuplicate()
	}
}

func (m *MultiSink) RecordDecision(result string) {
	for _, s := range m.sinks {
		s.RecordDecision(result)
	}
}

func (m *MultiSink) RecordCommand(action string) {
	for _, s := range m.sinks {
		s.RecordCommand(action)
	}
}

func (m *MultiSink) RecordAllocation(outcome string) {
	for _, s := range m.sinks {
		s.RecordAllocation(outcome)
	}
}
