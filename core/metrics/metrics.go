// Package metrics defines the sink interface used by the decision pipeline to
// record observability events. Implementations live under infra/metrics.
package metrics

// Sink records pipeline events for observability purposes. Implementations
// must be safe for concurrent use from both ingress edges.
type Sink interface {
	// RecordEvent counts an accepted (non-duplicate) sensor event by type.
	RecordEvent(eventType string)
	// RecordDuplicate counts a dropped re-delivery.
	RecordDuplicate()
	// RecordDecision counts an authorization outcome, "ALLOW" or "DENY".
	RecordDecision(result string)
	// RecordCommand counts an actuator command by action.
	RecordCommand(action string)
	// RecordAllocation counts a terminal allocation outcome.
	RecordAllocation(outcome string)
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordEvent(string)      {}
func (NopSink) RecordDuplicate()        {}
func (NopSink) RecordDecision(string)   {}
func (NopSink) RecordCommand(string)    {}
func (NopSink) RecordAllocation(string) {}
