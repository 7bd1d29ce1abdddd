package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenClawProvider recommends via a local or self-hosted OpenClaw-compatible
// HTTP endpoint. There is no vendor SDK for it, so it speaks plain JSON over
// net/http.
type OpenClawProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenClawProvider constructs a provider against baseURL (e.g.
// "http://localhost:8787").
func NewOpenClawProvider(baseURL, model string, timeout time.Duration) *OpenClawProvider {
	return &OpenClawProvider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *OpenClawProvider) Name() string  { return "openclaw" }
func (p *OpenClawProvider) Model() string { return p.model }

func (p *OpenClawProvider) Recommend(ctx context.Context, plan, adviceContext map[string]interface{}) (*RawRecommendation, error) {
	body, err := json.Marshal(map[string]interface{}{
		"model":   p.model,
		"plan":    plan,
		"context": adviceContext,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling advisor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/advise", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building advisor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling openclaw: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading openclaw response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openclaw returned status %d", resp.StatusCode)
	}

	var raw RawRecommendation
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("parsing openclaw response as JSON object: %w", err)
	}
	return &raw, nil
}
