package curupira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type backendRequest struct {
	UserID  string                 `json:"user_id"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context"`
}

type backendResponse struct {
	Response   string   `json:"response"`
	Confidence *float64 `json:"confidence"`
}

func consultHTTP(ctx context.Context, cfg Config, input map[string]interface{}) Opinion {
	now := time.Now().UTC()
	intent := intentOf(input)

	if cfg.BackendURL == "" {
		return Opinion{
			Intent:     intent,
			Reason:     "CURUPIRA_BACKEND_URL is not configured",
			Confidence: 0.0,
			Source:     "curupira",
			Status:     StatusBackendUnavailable,
			Timestamp:  now,
		}
	}

	origin, _ := input["origin"].(string)
	if origin == "" {
		origin = "curudroid"
	}
	payload, err := json.Marshal(backendRequest{
		UserID:  origin,
		Message: intent,
		Context: input,
	})
	if err != nil {
		return Opinion{
			Intent: intent, Reason: fmt.Sprintf("marshaling curupira request: %v", err),
			Source: "curupira", Status: StatusBackendError, Timestamp: now,
		}
	}

	timeout := cfg.BackendTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, cfg.BackendURL+"/api/message", bytes.NewReader(payload))
	if err != nil {
		return Opinion{
			Intent: intent, Reason: fmt.Sprintf("building curupira request: %v", err),
			Source: "curupira", Status: StatusBackendError, Timestamp: now,
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Opinion{
			Intent:     intent,
			Reason:     fmt.Sprintf("failed to reach curupira backend: %v", err),
			Confidence: 0.0,
			Source:     "curupira",
			Status:     StatusBackendUnavailable,
			Timestamp:  now,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Opinion{
			Intent: intent, Reason: fmt.Sprintf("reading curupira response: %v", err),
			Source: "curupira", Status: StatusBackendError, Timestamp: now,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Opinion{
			Intent:     intent,
			Reason:     fmt.Sprintf("curupira backend returned HTTP %d", resp.StatusCode),
			Confidence: 0.0,
			Source:     "curupira",
			Status:     StatusBackendError,
			Timestamp:  now,
		}
	}

	var parsed backendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		reason := string(body)
		if len(reason) > 800 {
			reason = reason[:800]
		}
		return Opinion{
			Intent:     intent,
			Reason:     reason,
			Confidence: 0.2,
			Source:     "curupira",
			Status:     StatusBackendInvalidJSON,
			Timestamp:  now,
		}
	}

	confidence := 0.6
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}
	reason := parsed.Response
	if reason == "" {
		reason = "no response from backend"
	}
	return Opinion{
		Intent:     intent,
		Reason:     reason,
		Confidence: confidence,
		Source:     "curupira",
		Status:     StatusBackendResponse,
		Timestamp:  now,
	}
}
