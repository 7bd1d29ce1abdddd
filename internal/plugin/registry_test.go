package plugin

import (
	"errors"
	"os"
	"testing"
)

type stubPlugin struct {
	id      string
	version string
	envVars []string
	result  RunResult
	err     error
}

func (s stubPlugin) ID() string                { return s.id }
func (s stubPlugin) Version() string           { return s.version }
func (s stubPlugin) RequiredEnvVars() []string { return s.envVars }
func (s stubPlugin) Run(map[string]interface{}) (RunResult, error) {
	return s.result, s.err
}

func TestRegistryReferencePluginsAreOK(t *testing.T) {
	os.Setenv("AI_PROVIDER", "none")
	os.Setenv("AI_API_KEY", "x")
	defer os.Unsetenv("AI_PROVIDER")
	defer os.Unsetenv("AI_API_KEY")

	r := NewRegistry(ScanLogs{}, SummarizeLogs{}, HealthCheck{})
	for _, res := range r.Validate() {
		if res.Status != StatusOK {
			t.Errorf("plugin %s: status = %s, reason = %s", res.PluginID, res.Status, res.Reason)
		}
	}
}

func TestRegistryDisabledOnMissingEnvVar(t *testing.T) {
	os.Unsetenv("AI_PROVIDER")
	os.Unsetenv("AI_API_KEY")

	r := NewRegistry(SummarizeLogs{})
	results := r.Validate()
	if len(results) != 1 || results[0].Status != StatusDisabled {
		t.Fatalf("results = %+v, want a single DISABLED result", results)
	}
}

func TestRegistryErrorOnRunFailure(t *testing.T) {
	r := NewRegistry(stubPlugin{id: "broken", version: "1.0.0", err: errors.New("boom")})
	results := r.Validate()
	if results[0].Status != StatusError {
		t.Errorf("Status = %s, want %s", results[0].Status, StatusError)
	}
}

func TestRegistryErrorOnEmptyArgvToken(t *testing.T) {
	r := NewRegistry(stubPlugin{
		id: "malformed", version: "1.0.0",
		result: RunResult{Success: true, Commands: []Command{{Argv: []string{""}, Description: "bad"}}},
	})
	results := r.Validate()
	if results[0].Status != StatusError {
		t.Errorf("Status = %s, want %s", results[0].Status, StatusError)
	}
}

func TestRegistryErrorOnEmptyPluginID(t *testing.T) {
	r := NewRegistry(stubPlugin{id: "", version: "1.0.0"})
	results := r.Validate()
	if results[0].Status != StatusError {
		t.Errorf("Status = %s, want %s", results[0].Status, StatusError)
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(ScanLogs{}, HealthCheck{})
	if _, ok := r.Lookup("scan_logs"); !ok {
		t.Error("Lookup(scan_logs) missing")
	}
	if _, ok := r.Lookup("unknown_intent"); ok {
		t.Error("Lookup(unknown_intent) should not be found")
	}
}

func TestRegistryOrderIsSorted(t *testing.T) {
	r := NewRegistry(SummarizeLogs{}, HealthCheck{}, ScanLogs{})
	want := []string{"health_check", "scan_logs", "summarize_logs"}
	for i, id := range want {
		if r.order[i] != id {
			t.Errorf("order[%d] = %s, want %s", i, r.order[i], id)
		}
	}
}
