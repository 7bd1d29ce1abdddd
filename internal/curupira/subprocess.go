package curupira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// subprocessTimeout bounds the local Curupira entrypoint, matching the
// original adapter's fixed 30-second ceiling.
const subprocessTimeout = 30 * time.Second

func consultSubprocess(ctx context.Context, cfg Config, input map[string]interface{}) Opinion {
	now := time.Now().UTC()
	intent := intentOf(input)

	if cfg.SubprocessPath == "" {
		return Opinion{
			Intent: intent, Reason: "no local curupira entrypoint configured",
			Source: "curupira", Status: StatusExecutionError, Timestamp: now,
		}
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return Opinion{
			Intent: intent, Reason: fmt.Sprintf("marshaling curupira context: %v", err),
			Source: "curupira", Status: StatusExecutionError, Timestamp: now,
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, subprocessTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, cfg.SubprocessPath)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return Opinion{
				Intent: intent, Reason: fmt.Sprintf("failed to execute local curupira (%s): timed out", cfg.SubprocessPath),
				Source: "curupira", Status: StatusExecutionError, Timestamp: now,
			}
		}
		if _, ok := err.(*exec.ExitError); ok {
			reason := strings.TrimSpace(stderr.String())
			if reason == "" {
				reason = "unknown curupira runtime error"
			}
			return Opinion{
				Intent: intent, Reason: reason,
				Source: "curupira", Status: StatusRuntimeError, Timestamp: now,
			}
		}
		return Opinion{
			Intent: intent, Reason: fmt.Sprintf("failed to execute local curupira (%s): %v", cfg.SubprocessPath, err),
			Source: "curupira", Status: StatusExecutionError, Timestamp: now,
		}
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return Opinion{
			Intent: intent, Reason: "curupira produced no explicit response",
			Source: "curupira", Status: StatusNoOpinion, Timestamp: now,
		}
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		reason := out
		if len(reason) > 800 {
			reason = reason[:800]
		}
		return Opinion{
			Intent: intent, Reason: reason, Confidence: 0.2,
			Source: "curupira", Status: StatusTextResponse, Timestamp: now,
		}
	}

	opinion := Opinion{
		Intent: intent, Source: "curupira", Status: StatusJSONResponse, Timestamp: now,
	}
	if v, ok := parsed["intent"].(string); ok && v != "" {
		opinion.Intent = v
	}
	if v, ok := parsed["reason"].(string); ok {
		opinion.Reason = v
	}
	if v, ok := parsed["source"].(string); ok && v != "" {
		opinion.Source = v
	}
	if v, ok := parsed["status"].(string); ok && v != "" {
		opinion.Status = v
	}
	if v, ok := parsed["confidence"].(float64); ok {
		opinion.Confidence = v
	}
	return opinion
}
