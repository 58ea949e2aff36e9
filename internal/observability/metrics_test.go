package observability

import "testing"

func TestRecordOperationCountsByOutcome(t *testing.T) {
	m := NewMetrics()
	m.RecordOperation("auto_escalation", true)
	m.RecordOperation("auto_escalation", true)
	m.RecordOperation("auto_escalation", false)

	if got := m.OperationCount("auto_escalation", true); got != 2 {
		t.Errorf("success count = %d, want 2", got)
	}
	if got := m.OperationCount("auto_escalation", false); got != 1 {
		t.Errorf("failure count = %d, want 1", got)
	}
	if got := m.OperationCount("overdue_scan", true); got != 0 {
		t.Errorf("unrecorded op count = %d, want 0", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordOperation("auto_escalation", true)
	if got := m.OperationCount("auto_escalation", true); got != 0 {
		t.Errorf("nil metrics count = %d, want 0", got)
	}
}
