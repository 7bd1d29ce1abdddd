package advisor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/curudroid/curudroid/internal/config"
	"github.com/curudroid/curudroid/internal/observability"
	"github.com/curudroid/curudroid/internal/plan"
)

// Advisor wraps a single Provider and normalizes/logs its output. It is
// consultative only: Analyze's return value is never fed back into a gating
// decision by any caller.
type Advisor struct {
	provider Provider
	store    *observability.Store
}

// New constructs an Advisor around provider, logging through store.
func New(provider Provider, store *observability.Store) *Advisor {
	return &Advisor{provider: provider, store: store}
}

// FromConfig builds the configured provider (none/openai/openclaw) from cfg
// and apiKey. An unset or unrecognized provider name falls back to
// NullProvider, matching the original runtime's from_config behavior of
// defaulting to "none".
func FromConfig(cfg config.AdvisorConfig, apiKey string, store *observability.Store) (*Advisor, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	timeout := clampTimeout(cfg.TimeoutSeconds)

	switch name {
	case "openai":
		if apiKey == "" {
			return New(NullProvider{}, store), nil
		}
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		p, err := NewOpenAIProvider(apiKey, model, timeout)
		if err != nil {
			return nil, fmt.Errorf("constructing openai provider: %w", err)
		}
		return New(p, store), nil
	case "openclaw":
		if cfg.OpenclawURL == "" {
			return New(NullProvider{}, store), nil
		}
		model := cfg.Model
		if model == "" {
			model = "default"
		}
		return New(NewOpenClawProvider(cfg.OpenclawURL, model, timeout), store), nil
	default:
		return New(NullProvider{}, store), nil
	}
}

func clampTimeout(seconds float64) time.Duration {
	if seconds <= 0 {
		seconds = 5
	}
	if seconds < 0.5 {
		seconds = 0.5
	}
	if seconds > 30 {
		seconds = 30
	}
	return time.Duration(seconds * float64(time.Second))
}

// Analyze consults the provider for p, given extraContext. It returns nil
// if the configured provider is "none", the provider returns no
// recommendation, or an upstream error occurs -- in every case the pipeline
// proceeds unaffected. A successful call logs one "success" decision event;
// a provider error logs one "error" event; neither ever returns an error to
// the caller.
func (a *Advisor) Analyze(ctx context.Context, p *plan.Plan, extraContext map[string]interface{}) *Recommendation {
	started := time.Now()

	if a.provider.Name() == "none" {
		return nil
	}

	sanitizedPlan := sanitizePlan(p)
	sanitizedContext := a.sanitizeContext(extraContext)

	raw, err := a.provider.Recommend(ctx, sanitizedPlan, sanitizedContext)
	if err != nil {
		a.log("error", p.ID, started, nil, map[string]interface{}{"error": err.Error()})
		return nil
	}
	if raw == nil {
		a.log("no_recommendation", p.ID, started, nil, nil)
		return nil
	}

	rec := normalize(raw, a.provider.Name(), a.provider.Model())

	a.log("success", p.ID, started, rec, map[string]interface{}{
		"input_hash":  stableHash(map[string]interface{}{"plan": sanitizedPlan, "context": sanitizedContext}),
		"output_hash": stableHash(rec),
	})
	return rec
}

func (a *Advisor) log(status, planID string, started time.Time, rec *Recommendation, extra map[string]interface{}) {
	if a.store == nil {
		return
	}
	metadata := map[string]interface{}{
		"provider":   a.provider.Name(),
		"model":      a.provider.Model(),
		"latency_ms": time.Since(started).Milliseconds(),
		"status":     status,
	}
	if rec != nil {
		metadata["ai_recommendation"] = rec
	}
	for k, v := range extra {
		metadata[k] = v
	}
	a.store.LogDecision(observability.DecisionEvent{
		Type:     observability.DecisionAdvisor,
		Allowed:  true,
		Reason:   status,
		PlanID:   planID,
		Metadata: metadata,
	})
}

// BuildContext mirrors build_ai_context: a read-back view of recent
// decisions and metrics, handed to the provider as consultative context.
func BuildContext(p *plan.Plan, store *observability.Store, extra map[string]interface{}) map[string]interface{} {
	ctx := map[string]interface{}{
		"plan_id":        p.ID,
		"risk_score":     p.RiskScore,
		"source":         p.Source,
		"commands_count": len(p.Commands),
	}
	if store != nil {
		if decisions, err := store.LoadLastDecisions(3); err == nil {
			ctx["last_decisions"] = decisions
		}
		if metrics, err := store.LoadMetrics(); err == nil {
			ctx["metrics"] = metrics
		}
	}
	if extra != nil {
		ctx["extra"] = extra
	}
	return ctx
}

func sanitizePlan(p *plan.Plan) map[string]interface{} {
	return map[string]interface{}{
		"id":             p.ID,
		"schema_version": p.SchemaVersion,
		"risk_score":     p.RiskScore,
		"source":         p.Source,
		"created_at":     p.CreatedAt,
		"commands_count": len(p.Commands),
	}
}

// sanitizeContext strips a raw context's last_decisions entries down to
// component/allowed/reason only, matching the provider's need-to-know shape.
func (a *Advisor) sanitizeContext(ctx map[string]interface{}) map[string]interface{} {
	safe := make(map[string]interface{}, len(ctx))
	for k, v := range ctx {
		safe[k] = v
	}
	if decisions, ok := safe["last_decisions"].([]observability.DecisionEvent); ok {
		trimmed := make([]map[string]interface{}, 0, len(decisions))
		for _, d := range decisions {
			trimmed = append(trimmed, map[string]interface{}{
				"component": d.Type,
				"allowed":   d.Allowed,
				"reason":    d.Reason,
			})
		}
		safe["last_decisions"] = trimmed
	}
	return safe
}

func normalize(raw *RawRecommendation, provider, model string) *Recommendation {
	action := strings.ToLower(strings.TrimSpace(raw.SuggestedAction))
	if !allowedActions[action] {
		action = "review"
	}

	level := "medium"
	score := 0.5
	if raw.RiskAssessment != nil {
		if l, ok := raw.RiskAssessment["level"].(string); ok {
			l = strings.ToLower(strings.TrimSpace(l))
			if allowedRiskLevels[l] {
				level = l
			}
		}
		score = clampFloat(raw.RiskAssessment["score"], 0, 1, 0.5)
	}

	confidence := clampFloat(raw.Confidence, 0, 1, 0.0)

	explanation := strings.TrimSpace(raw.Explanation)
	if explanation == "" {
		explanation = "no explanation provided"
	}

	return &Recommendation{
		SuggestedAction: action,
		RiskAssessment:  RiskAssessment{Level: level, Score: score},
		Confidence:      confidence,
		Explanation:     explanation,
		Provider:        provider,
		Model:           model,
		Timestamp:       time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
	}
}

// clampFloat coerces value (possibly a float64, int, json.Number, string, or
// nil) into [minimum, maximum], falling back to fallback if value is not
// numeric.
func clampFloat(value interface{}, minimum, maximum, fallback float64) float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return fallback
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}
	if f < minimum {
		return minimum
	}
	if f > maximum {
		return maximum
	}
	return f
}

// stableHash hashes v's JSON encoding. encoding/json already sorts
// string-keyed map keys, so this is stable across calls without extra
// canonicalization.
func stableHash(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
