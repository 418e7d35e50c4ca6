package metrics

import (
	"testing"

	"salesflow/logger"
)

func TestRegisterAndDispatch(t *testing.T) {
	var received []Metric
	id := RegisterMetricHandler(func(m Metric) {
		received = append(received, m)
	})
	defer UnregisterMetricHandler(id)

	metric, ok := Record(nil, "normalizer", "rows_normalized", 42, "counter", logger.Fields{"run_id": "r1"})
	if !ok {
		t.Fatalf("Record rejected a valid metric")
	}
	if metric.Type != "counter" || metric.Component != "normalizer" {
		t.Errorf("metric: %+v", metric)
	}
	if len(received) != 1 || received[0].Name != "rows_normalized" {
		t.Fatalf("handler not invoked: %v", received)
	}
	if received[0].Fields["run_id"] != "r1" {
		t.Errorf("fields not carried: %v", received[0].Fields)
	}
}

func TestRecordRejectsUnnamed(t *testing.T) {
	if _, ok := Record(nil, "x", "", 1, "", nil); ok {
		t.Fatalf("unnamed metric accepted")
	}
}

func TestRecordDefaultsType(t *testing.T) {
	m, ok := Record(nil, "x", "y", 1, "", nil)
	if !ok || m.Type != "counter" {
		t.Errorf("default type: %+v", m)
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	calls := 0
	id := RegisterMetricHandler(func(Metric) { calls++ })
	UnregisterMetricHandler(id)

	Record(nil, "x", "y", 1, "counter", nil)
	if calls != 0 {
		t.Errorf("handler invoked after unregister")
	}
}

func TestRegisterNilHandler(t *testing.T) {
	if id := RegisterMetricHandler(nil); id != 0 {
		t.Errorf("nil handler got id %d", id)
	}
}

func TestCountersBeforeInitAreNoops(t *testing.T) {
	// Counters are nil until Init runs; increments must not panic.
	AddRowsNormalized(5)
	AddRowsSkipped(1)
	IncrementRun("success")
	IncrementFeedFetch("movements")
}
