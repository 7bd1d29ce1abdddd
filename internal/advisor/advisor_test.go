package advisor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/curudroid/curudroid/internal/config"
	"github.com/curudroid/curudroid/internal/observability"
	"github.com/curudroid/curudroid/internal/plan"
)

func configWithProvider(name string) config.AdvisorConfig {
	return config.AdvisorConfig{Provider: name, TimeoutSeconds: 5}
}

func newTestStore(t *testing.T) *observability.Store {
	t.Helper()
	dir := t.TempDir()
	return observability.NewStore(filepath.Join(dir, "decisions.log"), filepath.Join(dir, "metrics.json"))
}

func testPlan() *plan.Plan {
	return &plan.Plan{
		SchemaVersion: "0.1",
		ID:            "plan-1",
		CreatedAt:     "2026-07-31T00:00:00Z",
		RiskScore:     3,
		Source:        "plugin:scan_logs",
		Commands:      []plan.Command{{Type: "shell", Command: "df -h", TimeoutSeconds: 10}},
	}
}

type stubProvider struct {
	name string
	rec  *RawRecommendation
	err  error
}

func (s stubProvider) Name() string  { return s.name }
func (s stubProvider) Model() string { return "stub-model" }
func (s stubProvider) Recommend(context.Context, map[string]interface{}, map[string]interface{}) (*RawRecommendation, error) {
	return s.rec, s.err
}

func TestAnalyzeReturnsNilForNoneProvider(t *testing.T) {
	store := newTestStore(t)
	a := New(NullProvider{}, store)

	rec := a.Analyze(context.Background(), testPlan(), nil)
	if rec != nil {
		t.Errorf("Analyze = %+v, want nil", rec)
	}

	events, _ := store.LoadLastDecisions(0)
	if len(events) != 0 {
		t.Errorf("none provider must not log, got %d events", len(events))
	}
}

func TestAnalyzeNormalizesValidResponse(t *testing.T) {
	store := newTestStore(t)
	provider := stubProvider{
		name: "stub",
		rec: &RawRecommendation{
			SuggestedAction: "DRY_RUN",
			RiskAssessment:  map[string]interface{}{"level": "HIGH", "score": 0.9},
			Confidence:      0.75,
			Explanation:     "looks risky",
		},
	}
	a := New(provider, store)

	rec := a.Analyze(context.Background(), testPlan(), nil)
	if rec == nil {
		t.Fatal("Analyze = nil, want a recommendation")
	}
	if rec.SuggestedAction != "dry_run" {
		t.Errorf("SuggestedAction = %q", rec.SuggestedAction)
	}
	if rec.RiskAssessment.Level != "high" || rec.RiskAssessment.Score != 0.9 {
		t.Errorf("RiskAssessment = %+v", rec.RiskAssessment)
	}
	if rec.Confidence != 0.75 {
		t.Errorf("Confidence = %v", rec.Confidence)
	}

	events, _ := store.LoadLastDecisions(0)
	if len(events) != 1 || events[0].Reason != "success" {
		t.Errorf("events = %+v", events)
	}
}

func TestAnalyzeDefaultsInvalidFields(t *testing.T) {
	store := newTestStore(t)
	provider := stubProvider{
		name: "stub",
		rec: &RawRecommendation{
			SuggestedAction: "destroy_everything",
			RiskAssessment:  map[string]interface{}{"level": "extreme", "score": "not-a-number"},
			Confidence:      5.0,
		},
	}
	a := New(provider, store)

	rec := a.Analyze(context.Background(), testPlan(), nil)
	if rec.SuggestedAction != "review" {
		t.Errorf("SuggestedAction = %q, want review", rec.SuggestedAction)
	}
	if rec.RiskAssessment.Level != "medium" {
		t.Errorf("Level = %q, want medium", rec.RiskAssessment.Level)
	}
	if rec.RiskAssessment.Score != 0.5 {
		t.Errorf("Score = %v, want 0.5", rec.RiskAssessment.Score)
	}
	if rec.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want clamped to 1.0", rec.Confidence)
	}
}

func TestAnalyzeHandlesUpstreamError(t *testing.T) {
	store := newTestStore(t)
	provider := stubProvider{name: "stub", err: errors.New("upstream timeout")}
	a := New(provider, store)

	rec := a.Analyze(context.Background(), testPlan(), nil)
	if rec != nil {
		t.Errorf("Analyze = %+v, want nil on error", rec)
	}

	events, _ := store.LoadLastDecisions(0)
	if len(events) != 1 || events[0].Reason != "error" {
		t.Errorf("events = %+v", events)
	}
}

func TestAnalyzeHandlesNoRecommendation(t *testing.T) {
	store := newTestStore(t)
	provider := stubProvider{name: "stub", rec: nil}
	a := New(provider, store)

	rec := a.Analyze(context.Background(), testPlan(), nil)
	if rec != nil {
		t.Errorf("Analyze = %+v, want nil", rec)
	}

	events, _ := store.LoadLastDecisions(0)
	if len(events) != 1 || events[0].Reason != "no_recommendation" {
		t.Errorf("events = %+v", events)
	}
}

func TestFromConfigDefaultsToNullProvider(t *testing.T) {
	store := newTestStore(t)
	a, err := FromConfig(configWithProvider(""), "", store)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if a.provider.Name() != "none" {
		t.Errorf("provider = %q, want none", a.provider.Name())
	}
}

func TestFromConfigOpenAIWithoutKeyFallsBackToNull(t *testing.T) {
	store := newTestStore(t)
	a, err := FromConfig(configWithProvider("openai"), "", store)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if a.provider.Name() != "none" {
		t.Errorf("provider = %q, want none (no api key)", a.provider.Name())
	}
}
