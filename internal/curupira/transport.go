package curupira

import "context"

// Consult dispatches context to Curupira per cfg.Transport. "auto" tries the
// HTTP backend first and falls back to the local subprocess only if the
// backend is unavailable (not merely if it errored or returned invalid
// JSON), matching the original adapter's fallback condition.
func Consult(ctx context.Context, cfg Config, input map[string]interface{}) Opinion {
	switch cfg.Transport {
	case TransportHTTP:
		return consultHTTP(ctx, cfg, input)
	case TransportSubprocess:
		return consultSubprocess(ctx, cfg, input)
	default:
		opinion := consultHTTP(ctx, cfg, input)
		if opinion.Status == StatusBackendUnavailable {
			return consultSubprocess(ctx, cfg, input)
		}
		return opinion
	}
}

func intentOf(input map[string]interface{}) string {
	if v, ok := input["intent"].(string); ok && v != "" {
		return v
	}
	return "unknown"
}
