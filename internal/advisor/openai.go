package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const openaiSystemPrompt = "You are a consultative safety advisor. Never suggest direct execution " +
	"commands. Respond only in JSON with keys: suggested_action, risk_assessment, confidence, explanation."

// OpenAIProvider recommends via the OpenAI chat completions API, through
// langchaingo's client.
type OpenAIProvider struct {
	llm     llms.Model
	model   string
	timeout time.Duration
}

// NewOpenAIProvider constructs a provider for the given model. apiKey must
// be non-empty; callers should fall back to NullProvider otherwise.
func NewOpenAIProvider(apiKey, model string, timeout time.Duration) (*OpenAIProvider, error) {
	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("constructing openai client: %w", err)
	}
	return &OpenAIProvider{llm: llm, model: model, timeout: timeout}, nil
}

func (p *OpenAIProvider) Name() string  { return "openai" }
func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) Recommend(ctx context.Context, plan, adviceContext map[string]interface{}) (*RawRecommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	userPayload, err := json.Marshal(map[string]interface{}{"plan": plan, "context": adviceContext})
	if err != nil {
		return nil, fmt.Errorf("marshaling advisor request: %w", err)
	}

	prompt := openaiSystemPrompt + "\n\n" + string(userPayload)
	completion, err := llms.GenerateFromSinglePrompt(ctx, p.llm, prompt,
		llms.WithTemperature(0), llms.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("calling openai: %w", err)
	}

	var raw RawRecommendation
	if err := json.Unmarshal([]byte(completion), &raw); err != nil {
		return nil, fmt.Errorf("parsing openai response as JSON object: %w", err)
	}
	return &raw, nil
}
