package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(
		filepath.Join(dir, "decisions.log"),
		filepath.Join(dir, "autonomy_metrics.json"),
	)
}

func TestLogDecisionWriteAndRead(t *testing.T) {
	s := tempStore(t)

	s.LogDecision(DecisionEvent{
		Type:    DecisionSupervisor,
		Allowed: true,
		Reason:  "normalized_risk <= threshold",
		PlanID:  "plan-1",
	})
	s.LogDecision(DecisionEvent{
		Type:    DecisionCurupira,
		Allowed: false,
		Reason:  "normalized_risk > effective_threshold",
		PlanID:  "plan-1",
	})

	events, err := s.LoadLastDecisions(0)
	if err != nil {
		t.Fatalf("LoadLastDecisions: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != DecisionSupervisor || events[1].Type != DecisionCurupira {
		t.Errorf("events out of order: %+v", events)
	}
}

func TestLoadLastDecisionsRespectsLimit(t *testing.T) {
	s := tempStore(t)
	for i := 0; i < 5; i++ {
		s.LogDecision(DecisionEvent{Type: DecisionExecutor, Allowed: true, PlanID: "plan"})
	}

	events, err := s.LoadLastDecisions(2)
	if err != nil {
		t.Fatalf("LoadLastDecisions: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
}

func TestLoadLastDecisionsMissingFile(t *testing.T) {
	s := tempStore(t)
	events, err := s.LoadLastDecisions(5)
	if err != nil {
		t.Fatalf("LoadLastDecisions on missing file: %v", err)
	}
	if events != nil {
		t.Errorf("expected nil events, got %v", events)
	}
}

func TestLoadLastDecisionsSkipsMalformedLines(t *testing.T) {
	s := tempStore(t)
	s.LogDecision(DecisionEvent{Type: DecisionPolicy, Allowed: true})

	f, err := os.OpenFile(s.decisionPath, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("opening decision log: %v", err)
	}
	if _, err := f.WriteString("not valid json\n"); err != nil {
		t.Fatalf("writing: %v", err)
	}
	f.Close()

	events, err := s.LoadLastDecisions(0)
	if err != nil {
		t.Fatalf("LoadLastDecisions: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (malformed line skipped)", len(events))
	}
}

func TestIncrementMetricStartsAtZero(t *testing.T) {
	s := tempStore(t)
	s.IncrementMetric("supervisor_allowed", 1)

	metrics, err := s.LoadMetrics()
	if err != nil {
		t.Fatalf("LoadMetrics: %v", err)
	}
	if metrics["supervisor_allowed"] != 1 {
		t.Errorf("supervisor_allowed = %d, want 1", metrics["supervisor_allowed"])
	}
}

func TestIncrementMetricAccumulates(t *testing.T) {
	s := tempStore(t)
	for i := 0; i < 3; i++ {
		s.IncrementMetric("curupira_blocked", 1)
	}

	metrics, err := s.LoadMetrics()
	if err != nil {
		t.Fatalf("LoadMetrics: %v", err)
	}
	if metrics["curupira_blocked"] != 3 {
		t.Errorf("curupira_blocked = %d, want 3", metrics["curupira_blocked"])
	}
}

func TestIncrementMetricResetsCorruptedValue(t *testing.T) {
	s := tempStore(t)
	if err := os.MkdirAll(filepath.Dir(s.metricsPath), 0o750); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	corrupted := map[string]any{"executor_executed": "not-a-number"}
	data, _ := json.Marshal(corrupted)
	if err := os.WriteFile(s.metricsPath, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s.IncrementMetric("executor_executed", 1)

	metrics, err := s.LoadMetrics()
	if err != nil {
		t.Fatalf("LoadMetrics: %v", err)
	}
	if metrics["executor_executed"] != 1 {
		t.Errorf("executor_executed = %d, want 1 (corrupted value should reset to 0 before increment)", metrics["executor_executed"])
	}
}

func TestLoadMetricsOnCorruptFileReturnsEmpty(t *testing.T) {
	s := tempStore(t)
	if err := os.MkdirAll(filepath.Dir(s.metricsPath), 0o750); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(s.metricsPath, []byte("{not valid json"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	metrics, err := s.LoadMetrics()
	if err != nil {
		t.Fatalf("LoadMetrics: %v", err)
	}
	if len(metrics) != 0 {
		t.Errorf("expected empty metrics from corrupt file, got %v", metrics)
	}
}

func TestLogDecisionTimestampDefaultsToNow(t *testing.T) {
	s := tempStore(t)
	before := time.Now().UTC()
	s.LogDecision(DecisionEvent{Type: DecisionAdvisor, Allowed: true})
	after := time.Now().UTC()

	events, err := s.LoadLastDecisions(1)
	if err != nil {
		t.Fatalf("LoadLastDecisions: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Timestamp.Before(before) || events[0].Timestamp.After(after) {
		t.Errorf("timestamp %v not within [%v, %v]", events[0].Timestamp, before, after)
	}
}
