package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromSinkCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	sink.RecordEvent("PLATE_READ")
	sink.RecordEvent("PLATE_READ")
	sink.RecordEvent("HEALTH")
	sink.RecordDuplicate()
	sink.RecordDecision("ALLOW")
	sink.RecordDecision("DENY")
	sink.RecordCommand("OPEN")
	sink.RecordAllocation("ASSIGNED")
	sink.RecordAllocation("CONFLICT")

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.events.WithLabelValues("PLATE_READ")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.events.WithLabelValues("HEALTH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.duplicates))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.decisions.WithLabelValues("ALLOW")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.commands.WithLabelValues("OPEN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.allocations.WithLabelValues("CONFLICT")))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	_, err = NewPromSinkWithRegistry(reg)
	assert.NoError(t, err, "re-registration must reuse existing collectors")
}

func TestMultiSinkFansOut(t *testing.T) {
	regA := prometheus.NewRegistry()
	regB := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(regA)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(regB)
	require.NoError(t, err)

	multi := NewMultiSink(a, b)
	multi.RecordDecision("DENY")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.decisions.WithLabelValues("DENY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.decisions.WithLabelValues("DENY")))
}
